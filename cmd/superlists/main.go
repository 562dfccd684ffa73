package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/superlists/internal/config"
	"github.com/dukerupert/superlists/internal/database"
	"github.com/dukerupert/superlists/internal/email"
	"github.com/dukerupert/superlists/internal/logging"
	"github.com/dukerupert/superlists/internal/server"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	db, err := database.Open(cfg.DB.Path)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DB.Path, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	emailClient := email.NewClient(cfg.Email.PostmarkToken, cfg.Email.From, email.WithAPIURL(cfg.Email.APIURL))
	if !emailClient.Configured() {
		slog.Warn("postmark token not set, login links will be logged instead of emailed")
	}

	srv, err := server.New(db, cfg, emailClient, logger)
	if err != nil {
		slog.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					slog.Error("cleanup expired sessions", "error", err)
				} else if n > 0 {
					slog.Info("cleaned up expired sessions", "count", n)
				}
				if n := srv.RateLimiter().Cleanup(); n > 0 {
					slog.Debug("cleaned up rate limit windows", "count", n)
				}
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("superlists starting", "addr", cfg.Addr(), "base_url", cfg.Server.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
