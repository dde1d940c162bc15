// Package app builds the dependency graph shared by the API server and the CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"callsync/internal/audit"
	"callsync/internal/auth"
	"callsync/internal/calls"
	"callsync/internal/callsync"
	"callsync/internal/config"
	"callsync/internal/reporting"
	"callsync/internal/source"
	"callsync/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"
)

const infraInitTimeout = 15 * time.Second

// App owns the injector and the infrastructure handles it opened.
// Providers are lazy: the CLI's token command never touches Postgres or Redis.
type App struct {
	Injector do.Injector

	mu      sync.Mutex
	closers []func() error
}

func New(cfg *config.Config, log *slog.Logger) *App {
	a := &App{Injector: do.New()}

	do.ProvideValue(a.Injector, cfg)
	do.ProvideValue(a.Injector, log)
	do.Provide(a.Injector, a.providePostgres)
	do.Provide(a.Injector, a.provideRedis)

	auth.RegisterDI(a.Injector)
	calls.RegisterDI(a.Injector)
	audit.RegisterDI(a.Injector)
	source.RegisterDI(a.Injector)
	reporting.RegisterDI(a.Injector)
	callsync.RegisterDI(a.Injector)

	return a
}

func (a *App) providePostgres(i do.Injector) (*sql.DB, error) {
	cfg := do.MustInvoke[*config.Config](i)
	ctx, cancel := context.WithTimeout(context.Background(), infraInitTimeout)
	defer cancel()

	db, err := utils.OpenPostgres(ctx, utils.PostgresDriver, cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		return nil, fmt.Errorf("postgres init failed: %w", err)
	}
	a.onClose(db.Close)
	return db, nil
}

func (a *App) provideRedis(i do.Injector) (*redis.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	ctx, cancel := context.WithTimeout(context.Background(), infraInitTimeout)
	defer cancel()

	rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		return nil, fmt.Errorf("redis init failed: %w", err)
	}
	a.onClose(rdb.Close)
	return rdb, nil
}

func (a *App) onClose(fn func() error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, fn)
}

// Close releases opened connections in reverse order of opening.
func (a *App) Close() error {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
