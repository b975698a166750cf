package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Auth
	LawdeskAPIKey  string
	AdminID        string
	IdentityHeader string

	// Library
	UploadDir         string
	DefaultCategories []string
	MaxUploadBytes    int64

	// Loading
	PageMarkers     []string
	LoadConcurrency int
	ChunkMinRunes   int
	ChunkContext    int
	WatchUploads    bool
	WatchDebounce   time.Duration
	JobTTL          time.Duration

	// LLM provider
	LLMProvider     string
	OllamaURL       string
	LLMModel        string
	AnthropicAPIKey string
	AnthropicModel  string
	LLMTimeout      time.Duration
	LLMMaxTokens    int
	LLMTemperature  float64
	LLMMinP         float64
	LLMMaxRetries   int
	LLMRatePerSec   float64
	LLMBurst        int
	StatsWindow     time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

// LoadEnvFile overlays variables from a .env file onto the environment.
// Variables already set win, and a missing file is not an error.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		LawdeskAPIKey:  os.Getenv("LAWDESK_API_KEY"),
		AdminID:        envOr("ADMIN_ID", "admin"),
		IdentityHeader: envOr("IDENTITY_HEADER", "X-User-ID"),

		UploadDir:         envOr("UPLOAD_DIR", "uploads"),
		DefaultCategories: envList("DEFAULT_CATEGORIES", []string{"계약", "개인정보보호", "정보보안", "정보화사업", "공제사업"}),
		MaxUploadBytes:    envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		PageMarkers:     envList("PAGE_MARKERS", []string{"국가법령정보센터", "법제처"}),
		LoadConcurrency: envInt("LOAD_CONCURRENCY", 4),
		ChunkMinRunes:   envInt("CHUNK_MIN_CHARS", 50),
		ChunkContext:    envInt("CHUNK_CONTEXT_CHARS", 50),
		WatchUploads:    envBool("WATCH_UPLOADS", false),
		WatchDebounce:   envDuration("WATCH_DEBOUNCE", 2*time.Second),
		JobTTL:          envDuration("JOB_TTL", 24*time.Hour),

		LLMProvider:     strings.ToLower(envOr("LLM_PROVIDER", "ollama")),
		OllamaURL:       envOr("OLLAMA_URL", "http://localhost:11434"),
		LLMModel:        envOr("LLM_MODEL", "qwen3:4b-instruct-2507-q4_K_M"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		LLMTimeout:      envDuration("LLM_TIMEOUT", 10*time.Minute),
		LLMMaxTokens:    envInt("LLM_MAX_TOKENS", 1024),
		LLMTemperature:  envFloat("LLM_TEMPERATURE", 0.2),
		LLMMinP:         envFloat("LLM_MIN_P", 0.1),
		LLMMaxRetries:   envInt("LLM_MAX_RETRIES", 2),
		LLMRatePerSec:   envFloat("LLM_RATE_PER_SEC", 2),
		LLMBurst:        envInt("LLM_BURST", 4),
		StatsWindow:     envDuration("STATS_WINDOW", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.LoadConcurrency <= 0 {
		cfg.LoadConcurrency = 4
	}
	if cfg.ChunkMinRunes <= 0 {
		cfg.ChunkMinRunes = 50
	}
	if cfg.ChunkContext <= 0 {
		cfg.ChunkContext = 50
	}
	if cfg.WatchDebounce <= 0 {
		cfg.WatchDebounce = 2 * time.Second
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 24 * time.Hour
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 10 * time.Minute
	}
	if cfg.LLMMaxTokens <= 0 {
		cfg.LLMMaxTokens = 1024
	}
	if cfg.LLMMaxRetries < 0 {
		cfg.LLMMaxRetries = 0
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

// Model returns the model name for the selected provider.
func (c Config) Model() string {
	if c.LLMProvider == "anthropic" {
		return c.AnthropicModel
	}
	return c.LLMModel
}

func (c Config) Validate() error {
	switch c.LLMProvider {
	case "ollama":
		if c.OllamaURL == "" {
			return fmt.Errorf("OLLAMA_URL is required for the ollama provider")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	default:
		return fmt.Errorf("LLM_PROVIDER must be ollama or anthropic, got %q", c.LLMProvider)
	}
	if c.AdminID == "" {
		return fmt.Errorf("ADMIN_ID must not be empty")
	}
	if c.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR must not be empty")
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be within [0, 2], got %v", c.LLMTemperature)
	}
	if c.LLMMinP < 0 || c.LLMMinP > 1 {
		return fmt.Errorf("LLM_MIN_P must be within [0, 1], got %v", c.LLMMinP)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated value, dropping blank entries.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
