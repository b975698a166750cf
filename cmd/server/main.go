package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/lawdesk/internal/admin"
	"github.com/dgallion1/lawdesk/internal/api"
	"github.com/dgallion1/lawdesk/internal/chunker"
	"github.com/dgallion1/lawdesk/internal/config"
	"github.com/dgallion1/lawdesk/internal/index"
	"github.com/dgallion1/lawdesk/internal/library"
	"github.com/dgallion1/lawdesk/internal/llm"
	"github.com/dgallion1/lawdesk/internal/parser"
	"github.com/dgallion1/lawdesk/internal/pipeline"
	"github.com/dgallion1/lawdesk/internal/qa"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := config.LoadEnvFile(); err != nil {
		log.Error("load env file", "error", err)
		os.Exit(1)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lib := library.New(cfg.UploadDir, cfg.DefaultCategories)
	if err := lib.EnsureRoot(); err != nil {
		log.Error("create upload dir", "dir", cfg.UploadDir, "error", err)
		os.Exit(1)
	}

	// Initialize the index. It stays empty until the startup reload finishes.
	ix := index.New()
	reloader := pipeline.NewReloader(lib, ix, pipeline.Config{
		Concurrency: cfg.LoadConcurrency,
		PageMarkers: cfg.PageMarkers,
		Parser:      parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
		Chunker: chunker.Config{
			MinSpanRunes: cfg.ChunkMinRunes,
			ContextRunes: cfg.ChunkContext,
		},
		MaxFileBytes: cfg.MaxUploadBytes,
		JobTTL:       cfg.JobTTL,
	}, log)

	if job, err := reloader.Reload(ctx, pipeline.TriggerStartup); err != nil {
		log.Error("startup reload failed", "error", err)
	} else {
		log.Info("index loaded", "generation", job.Generation, "chunks", job.Progress.ChunksEmitted, "status", job.Status)
	}

	scheduler := pipeline.NewScheduler(reloader, log)
	scheduler.Start(ctx)

	if cfg.WatchUploads {
		w, err := pipeline.NewWatcher(lib.Root(), cfg.WatchDebounce, func() {
			scheduler.Request(pipeline.TriggerWatch)
		}, log)
		if err != nil {
			log.Error("upload watcher disabled", "error", err)
		} else {
			// Uploads and deletes through the API reload on their own.
			lib.OnChange(w.Expect)
			go func() {
				if err := w.Run(ctx); err != nil {
					log.Error("upload watcher stopped", "error", err)
				}
			}()
		}
	}

	client, err := llm.New(llm.Config{
		Provider: cfg.LLMProvider,
		BaseURL:  providerURL(cfg),
		Model:    cfg.Model(),
		APIKey:   cfg.AnthropicAPIKey,
		Timeout:  cfg.LLMTimeout,
		Options: llm.Options{
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
			MinP:        cfg.LLMMinP,
		},
		MaxRetries:  cfg.LLMMaxRetries,
		RatePerSec:  cfg.LLMRatePerSec,
		Burst:       cfg.LLMBurst,
		StatsWindow: cfg.StatsWindow,
	}, log)
	if err != nil {
		log.Error("create llm client", "error", err)
		os.Exit(1)
	}

	srv := api.NewServer(api.Deps{
		QA:       qa.New(client, ix, log),
		Admin:    admin.New(lib, reloader, cfg.AdminID, cfg.MaxUploadBytes, log),
		Library:  lib,
		Index:    ix,
		Reloader: reloader,
		LLM:      client,
	}, log, cfg)

	// Answers can take minutes on a local model.
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 2*cfg.LLMTimeout + time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		scheduler.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		cancel()
		client.Close()
	}()

	log.Info("starting lawdesk",
		"port", cfg.Port,
		"provider", cfg.LLMProvider,
		"model", client.Model(),
		"upload_dir", lib.Root(),
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func providerURL(cfg config.Config) string {
	if cfg.LLMProvider == "anthropic" {
		return ""
	}
	return cfg.OllamaURL
}
