package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoyalIcing/datadown-preview/internal/api"
	"github.com/RoyalIcing/datadown-preview/internal/config"
	"github.com/RoyalIcing/datadown-preview/internal/dispatch"
	"github.com/RoyalIcing/datadown-preview/internal/session"
	"github.com/RoyalIcing/datadown-preview/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load document sources into sessions.
	sources := store.NewDirSource(cfg.DocsDir, log)
	loaded, err := sources.Load()
	if err != nil {
		log.Error("load documents", "dir", cfg.DocsDir, "error", err)
		os.Exit(1)
	}
	sessions := session.NewStore()
	for key, source := range loaded {
		sessions.Put(session.New(key, source))
	}
	log.Info("documents loaded", "dir", cfg.DocsDir, "count", len(loaded))

	// Edits on disk feed straight back into sessions; live previews
	// re-resolve on the change event.
	if cfg.Watch {
		err := sources.Watch(ctx, func(key, source string) {
			sessions.Upsert(key, source)
			log.Info("document updated", "key", key)
		})
		if err != nil {
			log.Error("watch documents", "error", err)
			os.Exit(1)
		}
	}

	var dispatcher *dispatch.Dispatcher
	if cfg.DispatchHTTP {
		dispatcher = dispatch.New(cfg.HTTPTimeout, log)
	}

	srv := api.NewServer(sessions, dispatcher, log, cfg)

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     srv,
		ReadTimeout: 30 * time.Second,
		// No write timeout: /live holds its connection open indefinitely.
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting datadown-preview", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
