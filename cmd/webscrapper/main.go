package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tharun-raj-u/WebScrapper/api"
	"github.com/Tharun-raj-u/WebScrapper/client"
	"github.com/Tharun-raj-u/WebScrapper/config"
	"github.com/Tharun-raj-u/WebScrapper/controller"
	"github.com/Tharun-raj-u/WebScrapper/logging"
	"github.com/Tharun-raj-u/WebScrapper/session"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	logger, logCloser := logging.Init(cfg.Log, os.Stdout)
	defer logCloser.Close()

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("webscrapper starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"endpoint", cfg.Remote.Endpoint,
		"requestTimeout", cfg.Remote.RequestTimeout,
	)

	// ── 3. Remote client and per-session controllers ────────────────
	rc := client.New(cfg.Remote, client.WithLogger(logger))
	store := session.New(cfg.Session.MaxEntries, cfg.Session.IdleTTL, func() *controller.Controller {
		return controller.New(rc,
			controller.WithTimeout(cfg.Remote.RequestTimeout),
			controller.WithLogger(logger),
		)
	})
	defer store.Close()

	// ── 4. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(store, cfg, time.Now())

	// ── 5. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 6. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// In-flight scrapes cannot be cancelled, so give them the full
	// request timeout to settle.
	grace := cfg.Remote.RequestTimeout
	if grace <= 0 {
		grace = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}
	if err := store.Wait(ctx); err != nil {
		slog.Error("background scrapes still running at exit", "error", err)
	}

	slog.Info("webscrapper stopped")
}
