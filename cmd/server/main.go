package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docstruct/internal/api"
	"github.com/dgallion1/docstruct/internal/config"
	"github.com/dgallion1/docstruct/internal/parser"
	"github.com/dgallion1/docstruct/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	extra, err := cfg.ExtraPatterns()
	if err != nil {
		log.Error("loading extra section patterns", "file", cfg.ExtraPatternsFile, "error", err)
		os.Exit(1)
	}
	if len(extra) > 0 {
		log.Info("loaded extra section patterns", "file", cfg.ExtraPatternsFile, "count", len(extra))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(pipeline.Settings{
		WorkerCount:  cfg.WorkerCount,
		MaxQueueSize: cfg.MaxQueueSize,
		JobTTL:       cfg.JobTTL,
		Parser:       parser.Options{PDFFallback: cfg.PDFFallbackPdftotext},
	}, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, extra, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: stop accepting requests before the queue closes.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
	}()

	log.Info("starting docstruct",
		"port", cfg.Port,
		"workers", cfg.WorkerCount,
		"vocabularies", cfg.Vocabularies,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-stopped
	log.Info("stopped")
}
