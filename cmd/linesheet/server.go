package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"linesheet/internal/api"
	"linesheet/internal/config"
	"linesheet/internal/extract"
	"linesheet/internal/sheets"
)

func runServer() error {
	fmt.Fprintf(os.Stderr, "linesheet version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		slog.Warn("invalid timezone, using UTC", "timezone", cfg.Server.Timezone, "error", err)
		loc = time.UTC
	}

	// Credentials are checked per operation, not here: the server still
	// starts so the connectivity endpoint can report what is missing.
	if cfg.Gemini.APIKey == "" {
		slog.Warn("no Gemini API key configured; every message will land as a No Data row")
	}

	extractor := extract.New(cfg.Gemini)
	store, err := sheets.New(ctx, cfg.Sheets)
	if err != nil {
		return fmt.Errorf("creating sheets client: %w", err)
	}

	handler := api.NewHandler(api.Deps{
		Extractor:     extractor,
		Store:         store,
		ChannelSecret: cfg.Line.ChannelSecret,
		Location:      loc,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "linesheet listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
