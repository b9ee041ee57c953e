package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ybilyk/contactbook/internal/app/migrate"
	"github.com/ybilyk/contactbook/internal/avatar"
	"github.com/ybilyk/contactbook/internal/config"
	httpx "github.com/ybilyk/contactbook/internal/http"
	"github.com/ybilyk/contactbook/internal/logger"
	"github.com/ybilyk/contactbook/internal/mail"
	"github.com/ybilyk/contactbook/internal/repository/postgres"
	"github.com/ybilyk/contactbook/internal/service/auth"
	"github.com/ybilyk/contactbook/internal/service/contact"
)

func main() {
	cfg := config.Load()
	log := logger.New(os.Stdout, "api", slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)

	sender, err := mail.NewSMTPSender(cfg)
	if err != nil {
		log.Error("failed to configure mail sender", "error", err)
		os.Exit(1)
	}
	dispatcher := mail.NewDispatcher(sender, log, cfg.MailQueue)
	go dispatcher.Run(ctx)

	avatars, err := avatar.NewStorage(cfg.AvatarDir, cfg.AvatarURLPath)
	if err != nil {
		log.Error("failed to prepare avatar storage", "error", err)
		os.Exit(1)
	}

	authSvc := auth.New(repo, dispatcher, avatars, log, cfg)
	contactSvc := contact.New(repo, log)

	router := httpx.NewRouter(log, authSvc, contactSvc, avatars, cfg.AvatarMaxBytes, pool.Ping)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
