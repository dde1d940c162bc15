package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"callsync/internal/auth"
	"callsync/internal/config"

	"github.com/goccy/go-json"
)

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "local")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "calls")
	t.Setenv("DB_NAME", "calls")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("JWT_SECRET", "secret")
}

func TestRun_Usage(t *testing.T) {
	for _, args := range [][]string{nil, {"bogus"}, {"migrate"}, {"migrate", "sideways"}, {"token", "u"}, {"sync", "extra"}} {
		var stdout, stderr bytes.Buffer
		if code := run(context.Background(), args, &stdout, &stderr); code != exitUsage {
			t.Fatalf("args %v: expected usage exit, got %d", args, code)
		}
		if !strings.Contains(stderr.String(), "usage:") {
			t.Fatalf("args %v: expected usage text, got %q", args, stderr.String())
		}
	}
}

func TestRun_TokenRejectsUnknownRole(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"token", "u", "network_operator"}, &stdout, &stderr); code != exitUsage {
		t.Fatalf("expected usage exit, got %d", code)
	}
}

func TestRun_TokenIssuesVerifiableAccessToken(t *testing.T) {
	setValidEnv(t)

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"token", "ops-1", "owner"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("expected success, got %d: %s", code, stderr.String())
	}

	var pair auth.TokenPair
	if err := json.Unmarshal(stdout.Bytes(), &pair); err != nil {
		t.Fatalf("decode output: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	m, _ := auth.NewManager(cfg.Auth)
	claims, err := m.Verify(pair.AccessToken, auth.TokenTypeAccess, time.Now())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "ops-1" || claims.Role != "owner" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRun_ConfigErrorsAreReported(t *testing.T) {
	t.Setenv("APP_ENV", "")
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"token", "u", "owner"}, &stdout, &stderr); code != exitError {
		t.Fatalf("expected error exit, got %d", code)
	}
	if !strings.Contains(stderr.String(), "APP_ENV is required") {
		t.Fatalf("expected config error, got %q", stderr.String())
	}
}
