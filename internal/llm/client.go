package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Config selects and tunes a provider.
type Config struct {
	Provider    string // "ollama" or "anthropic"
	BaseURL     string
	Model       string
	APIKey      string
	Timeout     time.Duration
	Options     Options
	MaxRetries  int
	RatePerSec  float64
	Burst       int
	StatsWindow time.Duration
}

// Provider is a concrete backend.
type Provider interface {
	Completer
	Model() string
	Close()
}

// Client is the assembled provider stack: rate limit, then retry, with every
// logical call timed into Stats.
type Client struct {
	base  Provider
	chain Completer
	stats *LLMStats
	log   *slog.Logger
}

func New(cfg Config, log *slog.Logger) (*Client, error) {
	var base Provider
	switch cfg.Provider {
	case "", "ollama":
		base = NewOllamaClient(cfg.BaseURL, cfg.Model, cfg.Options, cfg.Timeout)
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an api key")
		}
		c := NewClaudeClient(cfg.APIKey, cfg.Model, cfg.Options, cfg.Timeout)
		if cfg.BaseURL != "" {
			c.WithBaseURL(cfg.BaseURL)
		}
		base = c
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	return Wrap(base, cfg, log), nil
}

// Wrap builds the stack around an existing provider.
func Wrap(base Provider, cfg Config, log *slog.Logger) *Client {
	var chain Completer = WithRateLimit(base, cfg.RatePerSec, cfg.Burst)
	chain = WithRetry(chain, cfg.MaxRetries, log)
	return &Client{
		base:  base,
		chain: chain,
		stats: NewLLMStats(cfg.StatsWindow),
		log:   log.With("model", base.Model()),
	}
}

func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	start := time.Now()
	text, err := c.chain.Chat(ctx, messages)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		c.stats.RecordFailure(elapsed)
		c.log.Error("llm call failed", "duration_ms", elapsed, "error", err)
		return "", err
	}
	c.stats.Record(elapsed)
	c.log.Info("llm call complete",
		"duration_ms", elapsed,
		"prompt_tokens_est", MessageTokens(messages),
		"completion_tokens_est", EstimateTokens(text))
	return text, nil
}

func (c *Client) Model() string        { return c.base.Model() }
func (c *Client) Stats() StatsSnapshot { return c.stats.Snapshot() }
func (c *Client) Close()               { c.base.Close() }
