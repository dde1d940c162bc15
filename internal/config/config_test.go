package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "callsync"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
		Vapi:  VapiConfig{BaseURL: "https://api.vapi.ai", Timeout: 30 * time.Second},
		Sync:  SyncConfig{LockTTL: 2 * time.Minute, RatePerMinute: 6},
		Booking: BookingConfig{
			AverageOrderValue: 5000,
		},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "APP_ENV is required") || !strings.Contains(err.Error(), "JWT_SECRET is required") {
		t.Fatalf("expected all missing fields reported, got %v", err)
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validConfig()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "iss"
	c.Auth.JWTAudience = "aud"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaultsSSLMode(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Auth.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("expected default access ttl, got %s", c.Auth.AccessTokenTTL)
	}
}

func TestValidate_MissingVapiKeyIsAllowed(t *testing.T) {
	c := validConfig()
	c.Vapi.APIKey = ""
	if err := c.Validate(); err != nil {
		t.Fatalf("expected missing VAPI_API_KEY to be tolerated, got %v", err)
	}
}

func TestValidate_NormalizesKeywords(t *testing.T) {
	c := validConfig()
	c.Booking.Keywords = []string{" Booked ", "", "JOB Secured"}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(c.Booking.Keywords) != 2 || c.Booking.Keywords[0] != "booked" || c.Booking.Keywords[1] != "job secured" {
		t.Fatalf("unexpected keywords: %#v", c.Booking.Keywords)
	}
}

func TestValidate_RejectsBadSyncSettings(t *testing.T) {
	c := validConfig()
	c.Sync.Interval = -time.Second
	c.Sync.RatePerMinute = 0
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "SYNC_INTERVAL") || !strings.Contains(err.Error(), "SYNC_RATE_PER_MINUTE") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_ParsesEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "u")
	t.Setenv("DB_PASSWORD", "p@ss")
	t.Setenv("DB_NAME", "calls")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("SYNC_INTERVAL", "5m")
	t.Setenv("BOOKING_KEYWORDS", "booked,Deposit Paid")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.App.Port != 8080 || c.DB.Port != 5432 || c.Redis.Port != 6379 {
		t.Fatalf("expected default ports, got %d %d %d", c.App.Port, c.DB.Port, c.Redis.Port)
	}
	if c.Sync.Interval != 5*time.Minute {
		t.Fatalf("expected 5m interval, got %s", c.Sync.Interval)
	}
	if c.Vapi.BaseURL != "https://api.vapi.ai" || c.Vapi.Timeout != 30*time.Second {
		t.Fatalf("unexpected vapi defaults: %+v", c.Vapi)
	}
	if len(c.Booking.Keywords) != 2 || c.Booking.Keywords[1] != "deposit paid" {
		t.Fatalf("unexpected keywords: %#v", c.Booking.Keywords)
	}
	if got := c.RedisAddr(); got != "cache:6379" {
		t.Fatalf("unexpected redis addr %q", got)
	}
	if got := c.PostgresURL(); got != "postgres://u:p%40ss@db:5432/calls?sslmode=disable" {
		t.Fatalf("unexpected postgres url %q", got)
	}
}
