package handlers

import (
	"net/http"
	"time"

	"github.com/Attique-dash/cjs-backend/src/database"
	"github.com/gin-gonic/gin"
)

// HealthHandler exposes liveness and readiness probes
type HealthHandler struct {
	db        *database.Database
	version   string
	startedAt time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.Database, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version, startedAt: time.Now()}
}

// HandleHealth reports process liveness
func (hh *HealthHandler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": hh.version,
		"uptime":  time.Since(hh.startedAt).Round(time.Second).String(),
	})
}

// HandleReady reports readiness including database reachability
func (hh *HealthHandler) HandleReady(c *gin.Context) {
	start := time.Now()
	if err := hh.db.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unavailable",
			"database": "unreachable",
			"error":    err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"database":   "ok",
		"db_latency": time.Since(start).String(),
	})
}

// HandleInfo reports build metadata for deploy verification
func (hh *HealthHandler) HandleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":       "cjs-backend",
		"version":    hh.version,
		"started_at": hh.startedAt.UTC().Format(time.RFC3339),
	})
}
