package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"callsync/internal/auth"
	"callsync/internal/httpapi"
	"callsync/internal/rbac"
	"callsync/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"
)

type healthChecker struct {
	db  *sql.DB
	rdb *redis.Client
}

func newHealthChecker(i do.Injector) (healthChecker, error) {
	db, err := do.Invoke[*sql.DB](i)
	if err != nil {
		return healthChecker{}, err
	}
	rdb, err := do.Invoke[*redis.Client](i)
	if err != nil {
		return healthChecker{}, err
	}
	return healthChecker{db: db, rdb: rdb}, nil
}

func (h healthChecker) check(ctx context.Context) map[string]string {
	out := map[string]string{"postgres": "ok", "redis": "ok"}
	if err := utils.HealthCheck(ctx, h.db, 2*time.Second); err != nil {
		out["postgres"] = err.Error()
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.rdb.Ping(pingCtx).Err(); err != nil {
		out["redis"] = err.Error()
	}
	return out
}

// registerPublicRoutes wires unauthenticated endpoints: health and metrics.
func registerPublicRoutes(r *gin.Engine, health healthChecker) {
	r.GET("/healthz", func(c *gin.Context) {
		deps := health.check(c.Request.Context())
		for _, v := range deps {
			if v != "ok" {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "deps": deps})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "deps": deps})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d dependencies, syncPerMinute int) {
	h := httpapi.Handlers{
		Sync:      d.engine,
		Reporting: d.reporting,
		Runs:      d.runs,
	}

	v1 := r.Group("/v1")
	v1.Use(auth.RequireAccessToken(d.auth))
	{
		v1.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(http.StatusOK, gin.H{"user_id": uid, "role": role})
		})

		// Reads: any known role.
		reads := v1.Group("")
		reads.Use(rbac.RequireAnyRole(rbac.ReadRoles...))
		{
			reads.GET("/calls", h.ListCalls)
			reads.GET("/calls/:id", h.GetCall)
			reads.GET("/stats", h.GetStats)
			reads.GET("/sync/runs", h.ListSyncRuns)
		}

		// Sync trigger: owners only, globally throttled.
		v1.POST("/sync",
			rbac.RequireAnyRole(rbac.RoleOwner),
			httpapi.RateLimit(httpapi.NewSyncLimiter(syncPerMinute)),
			h.TriggerSync,
		)
	}
}
