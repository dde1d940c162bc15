package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"callsync/internal/audit"
	"callsync/internal/auth"
	"callsync/internal/calls"
	"callsync/internal/callsync"
	"callsync/internal/config"
	"callsync/internal/reporting"

	"github.com/gin-gonic/gin"
)

type staticSource struct{ raws []calls.RawRecord }

func (staticSource) Name() string { return "static" }

func (s staticSource) FetchAll(context.Context) ([]calls.RawRecord, error) { return s.raws, nil }

func newTestServer(t *testing.T) (*gin.Engine, *auth.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m, err := auth.NewManager(config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("auth manager: %v", err)
	}

	store := calls.NewMemoryStore()
	runs := audit.NewService(audit.NewMemoryRepo())
	rep := reporting.NewService(store, reporting.NopStatsCache{}, reporting.DefaultBookingRules())
	engine := callsync.NewEngine(store, callsync.Options{
		Source: staticSource{raws: []calls.RawRecord{{
			ID:        "c1",
			OrgID:     "org",
			Type:      "webCall",
			Status:    "ended",
			CreatedAt: "2025-03-01T10:00:00Z",
		}}},
		Auditor:     runs,
		Invalidator: rep,
	})

	r := gin.New()
	registerRoutes(r, dependencies{auth: m, engine: engine, reporting: rep, runs: runs}, 1)
	return r, m
}

func call(t *testing.T, r *gin.Engine, m *auth.Manager, method, path, role string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if role != "" {
		pair, err := m.IssuePair(time.Now(), "user-1", role)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutes_RequireBearerToken(t *testing.T) {
	r, m := newTestServer(t)
	if w := call(t, r, m, http.MethodGet, "/v1/stats", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRoutes_AnalystReadsButCannotSync(t *testing.T) {
	r, m := newTestServer(t)
	if w := call(t, r, m, http.MethodGet, "/v1/stats", "analyst"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 on stats, got %d: %s", w.Code, w.Body.String())
	}
	if w := call(t, r, m, http.MethodPost, "/v1/sync", "analyst"); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on sync, got %d", w.Code)
	}
}

func TestRoutes_OwnerSyncIsThrottled(t *testing.T) {
	r, m := newTestServer(t)

	if w := call(t, r, m, http.MethodPost, "/v1/sync", "owner"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 on first sync, got %d: %s", w.Code, w.Body.String())
	}
	w := call(t, r, m, http.MethodPost, "/v1/sync", "owner")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on second sync, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	if w := call(t, r, m, http.MethodGet, "/v1/calls/c1", "analyst"); w.Code != http.StatusOK {
		t.Fatalf("expected synced call to be readable, got %d", w.Code)
	}
	if w := call(t, r, m, http.MethodGet, "/v1/sync/runs", "analyst"); w.Code != http.StatusOK {
		t.Fatalf("expected run history, got %d", w.Code)
	}
}
