package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"botgpt-backend/internal/bootstrap"
	"botgpt-backend/internal/config"
	httptransport "botgpt-backend/internal/transport/http"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("botgpt-backend exited: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	app, err := bootstrap.New(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("close resources failed: %v", err)
		}
	}()

	cfg := app.Config
	llmTimeout := time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
	if llmTimeout <= 0 {
		llmTimeout = 30 * time.Second
	}
	server := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           httptransport.NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
		// a turn may spend the whole LLM timeout before it can answer
		WriteTimeout: llmTimeout + 15*time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("%s (%s) listening on %s: %s", cfg.App.Name, cfg.App.Env, server.Addr, describe(cfg))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Printf("shutting down, waiting up to %s for in-flight turns", llmTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), llmTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func describe(cfg *config.Config) string {
	return fmt.Sprintf("db=%s llm=%s model=%s chunk_bytes=%d top_k=%d window=%d",
		cfg.Database.Driver, cfg.LLM.Provider, cfg.LLM.Model,
		cfg.Retrieval.ChunkBytes, cfg.Retrieval.TopK, cfg.Retrieval.HistoryWindow)
}
