package app

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"callsync/internal/auth"
	"callsync/internal/config"
	"callsync/internal/source"

	"github.com/samber/do/v2"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "local", Port: 8080},
		Auth: config.AuthConfig{
			JWTSecret:       "secret",
			AccessTokenTTL:  time.Minute,
			RefreshTokenTTL: time.Hour,
		},
		Vapi: config.VapiConfig{BaseURL: "https://api.vapi.ai", Timeout: time.Second},
	}
}

func TestNew_ResolvesServicesWithoutInfrastructure(t *testing.T) {
	a := New(testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer a.Close()

	if _, err := do.Invoke[*auth.Manager](a.Injector); err != nil {
		t.Fatalf("auth manager: %v", err)
	}
	src, err := do.Invoke[source.Source](a.Injector)
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	if src.Name() != "vapi" {
		t.Fatalf("expected vapi source, got %q", src.Name())
	}
}

func TestClose_RunsClosersInReverse(t *testing.T) {
	a := New(testConfig(), slog.Default())
	var order []int
	a.onClose(func() error { order = append(order, 1); return nil })
	a.onClose(func() error { order = append(order, 2); return nil })

	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Fatalf("unexpected close order %v", order)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second close must be a no-op: %v", err)
	}
}
