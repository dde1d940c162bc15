package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"callsync/internal/audit"
	"callsync/internal/auth"
	"callsync/internal/calls"
	"callsync/internal/callsync"
	"callsync/internal/reporting"
	"callsync/pkg/logger"

	"github.com/gin-gonic/gin"
)

// SyncRunner triggers a full sync on behalf of actor.
type SyncRunner interface {
	Run(ctx context.Context, actor string) (callsync.Result, error)
}

// RunHistory lists recent sync runs.
type RunHistory interface {
	List(ctx context.Context, limit int) ([]audit.Event, error)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Sync      SyncRunner
	Reporting *reporting.Service
	Runs      RunHistory
}

// --- Sync ---

// TriggerSync runs one sync and always answers with a structured result:
// {success, count, message} or {error, details}.
func (h Handlers) TriggerSync(c *gin.Context) {
	if h.Sync == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "sync not configured"})
		return
	}
	actor, _ := auth.UserID(c.Request.Context())

	res, err := h.Sync.Run(c.Request.Context(), actor)
	if err != nil {
		kind := callsync.KindOf(err)
		body := gin.H{
			"error":   "Failed to sync calls",
			"kind":    string(kind),
			"details": err.Error(),
		}
		if id := callsync.RecordIDOf(err); id != "" {
			body["record_id"] = id
		}
		if pos := callsync.PositionOf(err); pos > 0 {
			body["record_position"] = pos
		}
		if res.RunID != "" {
			body["run_id"] = res.RunID
		}
		c.AbortWithStatusJSON(syncStatus(kind), body)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"count":    res.Count,
		"message":  res.Message,
		"run_id":   res.RunID,
		"inserted": res.Inserted,
		"updated":  res.Updated,
		"clamped":  res.Clamped,
	})
}

func syncStatus(kind callsync.Kind) int {
	switch kind {
	case callsync.KindTransport:
		return http.StatusBadGateway
	case callsync.KindTransform:
		return http.StatusUnprocessableEntity
	case callsync.KindBusy:
		return http.StatusConflict
	default:
		// config, store and unclassified failures
		return http.StatusInternalServerError
	}
}

func (h Handlers) ListSyncRuns(c *gin.Context) {
	if h.Runs == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "sync history not configured"})
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	runs, err := h.Runs.List(c.Request.Context(), limit)
	if err != nil {
		h.internalError(c, "list sync runs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// --- Calls ---

func (h Handlers) ListCalls(c *gin.Context) {
	if h.Reporting == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	out, err := h.Reporting.CallLog(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.internalError(c, "list calls", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": out, "count": len(out)})
}

func (h Handlers) GetCall(c *gin.Context) {
	if h.Reporting == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	rec, err := h.Reporting.CallDetail(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, reporting.ErrInvalidRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "id required"})
		return
	case errors.Is(err, calls.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
		return
	case err != nil:
		h.internalError(c, "get call", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// --- Stats ---

func (h Handlers) GetStats(c *gin.Context) {
	if h.Reporting == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	stats, err := h.Reporting.DashboardStats(c.Request.Context())
	if err != nil {
		h.internalError(c, "dashboard stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// internalError logs the cause and hides it from the client.
func (h Handlers) internalError(c *gin.Context, op string, err error) {
	logger.FromGin(c).Error(op+" failed", logger.Err(err))
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
