// Command callsync is the operator CLI: one-shot sync, migrations and token issuance.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"callsync/internal/app"
	"callsync/internal/auth"
	"callsync/internal/callsync"
	"callsync/internal/config"
	"callsync/internal/db/migrate"
	"callsync/internal/rbac"
	"callsync/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/samber/do/v2"
)

const usage = `usage:
  callsync sync                  fetch remote calls and upsert them
  callsync migrate up|down       apply or roll back database migrations
  callsync token <user> <role>   issue an access token (roles: owner, analyst, super_admin)
`

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const actorCLI = "cli"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}

	switch args[0] {
	case "sync":
		if len(args) != 1 {
			break
		}
		return withConfig(stderr, func(cfg config.Config) int { return runSync(ctx, cfg, stdout, stderr) })
	case "migrate":
		if len(args) != 2 || (args[1] != migrate.DirectionUp && args[1] != migrate.DirectionDown) {
			break
		}
		return withConfig(stderr, func(cfg config.Config) int { return runMigrate(cfg, args[1], stdout, stderr) })
	case "token":
		if len(args) != 3 {
			break
		}
		if !rbac.Valid(args[2]) {
			fmt.Fprintf(stderr, "unknown role %q\n", args[2])
			return exitUsage
		}
		return withConfig(stderr, func(cfg config.Config) int { return runToken(cfg, args[1], args[2], stdout, stderr) })
	}

	fmt.Fprint(stderr, usage)
	return exitUsage
}

func withConfig(stderr io.Writer, fn func(config.Config) int) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitError
	}
	return fn(cfg)
}

func runSync(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) int {
	log := logger.NewWithWriter(stderr, cfg.App.Env, "cli")
	container := app.New(&cfg, log)
	defer func() {
		if err := container.Close(); err != nil {
			log.Error("close failed", logger.Err(err))
		}
	}()

	engine, err := do.Invoke[*callsync.Engine](container.Injector)
	if err != nil {
		log.Error("dependency init failed", logger.Err(err))
		return exitError
	}

	res, err := engine.Run(logger.With(ctx, log), actorCLI)
	if err != nil {
		_ = writeJSON(stdout, map[string]any{
			"error":           "Failed to sync calls",
			"kind":            string(callsync.KindOf(err)),
			"record_id":       callsync.RecordIDOf(err),
			"record_position": callsync.PositionOf(err),
			"details":         err.Error(),
		})
		return exitError
	}
	_ = writeJSON(stdout, map[string]any{
		"success":  true,
		"count":    res.Count,
		"message":  res.Message,
		"run_id":   res.RunID,
		"inserted": res.Inserted,
		"updated":  res.Updated,
		"clamped":  res.Clamped,
	})
	return exitOK
}

func runMigrate(cfg config.Config, direction string, stdout, stderr io.Writer) int {
	if err := migrate.Run(cfg.PostgresURL(), direction); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitError
	}
	fmt.Fprintf(stdout, "migrations %s: ok\n", direction)
	return exitOK
}

func runToken(cfg config.Config, userID, role string, stdout, stderr io.Writer) int {
	m, err := auth.NewManager(cfg.Auth)
	if err != nil {
		fmt.Fprintf(stderr, "auth: %v\n", err)
		return exitError
	}
	pair, err := m.IssuePair(time.Now(), userID, role)
	if err != nil {
		fmt.Fprintf(stderr, "issue token: %v\n", err)
		return exitError
	}
	if err := writeJSON(stdout, pair); err != nil {
		fmt.Fprintf(stderr, "write: %v\n", err)
		return exitError
	}
	return exitOK
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
