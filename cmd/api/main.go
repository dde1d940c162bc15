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

	"callsync/internal/app"
	"callsync/internal/audit"
	"callsync/internal/auth"
	"callsync/internal/callsync"
	"callsync/internal/config"
	"callsync/internal/db/migrate"
	"callsync/internal/reporting"
	"callsync/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/samber/do/v2"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env, "api")
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Vapi.APIKey == "" {
		log.Warn("VAPI_API_KEY is not set; sync requests will fail until it is configured")
	}

	if err := migrate.Run(cfg.PostgresURL(), migrate.DirectionUp); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	container := app.New(&cfg, log)
	defer func() {
		if err := container.Close(); err != nil {
			log.Error("close failed", "err", err)
		}
	}()

	deps, err := resolve(container.Injector)
	if err != nil {
		log.Error("dependency init failed", "err", err)
		_ = container.Close()
		os.Exit(1)
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerPublicRoutes(r, deps.health)
	registerRoutes(r, deps, cfg.Sync.RatePerMinute)

	// A sync request waits for the remote fetch.
	writeTimeout := cfg.Vapi.Timeout + 30*time.Second

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}

	scheduler := callsync.NewScheduler(deps.engine, cfg.Sync.Interval, log)
	scheduler.Start(rootCtx)

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	scheduler.Wait()
}

type dependencies struct {
	auth      *auth.Manager
	engine    *callsync.Engine
	reporting *reporting.Service
	runs      *audit.Service
	health    healthChecker
}

// resolve builds every service up front so misconfiguration fails at startup
// rather than on the first request.
func resolve(i do.Injector) (dependencies, error) {
	var (
		d   dependencies
		err error
	)
	if d.auth, err = do.Invoke[*auth.Manager](i); err != nil {
		return d, err
	}
	if d.engine, err = do.Invoke[*callsync.Engine](i); err != nil {
		return d, err
	}
	if d.reporting, err = do.Invoke[*reporting.Service](i); err != nil {
		return d, err
	}
	if d.runs, err = do.Invoke[*audit.Service](i); err != nil {
		return d, err
	}
	if d.health, err = newHealthChecker(i); err != nil {
		return d, err
	}
	return d, nil
}
