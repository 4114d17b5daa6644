// Package api serves the optional local status endpoint so an operator can
// watch a run without reading logs.
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/quizpilot/models"
)

// Run states reported by the status endpoint.
const (
	StateStarting  = "starting"
	StateLoggingIn = "logging_in"
	StateRunning   = "running"
	StateFinished  = "finished"
	StateFailed    = "failed"
)

// Tracker holds the live view of the run for the status endpoints.
// It is safe for concurrent use.
type Tracker struct {
	mu        sync.RWMutex
	state     string
	stats     *models.RunStats
	startTime time.Time
}

// NewTracker creates a Tracker over the run's stats counters.
func NewTracker(stats *models.RunStats) *Tracker {
	return &Tracker{
		state:     StateStarting,
		stats:     stats,
		startTime: time.Now(),
	}
}

// SetState moves the run to a new state.
func (t *Tracker) SetState(state string) {
	t.mu.Lock()
	t.state = state
	t.mu.Unlock()
}

// State returns the current run state.
func (t *Tracker) State() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// NewRouter creates a configured Gin engine with the status routes.
// There is no auth: the server binds to loopback and reports counters only.
func NewRouter(t *Tracker, mode string) *gin.Engine {
	gin.SetMode(mode)

	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")
	v1.GET("/health", health(t))
	v1.GET("/status", status(t))

	return r
}

// health reports liveness; degrades once the run has failed.
func health(t *Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := "healthy"
		if t.State() == StateFailed {
			st = "degraded"
		}
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  st,
			Uptime:  time.Since(t.startTime).Round(time.Second).String(),
			Version: "0.1.0",
		})
	}
}

// status reports the run state and live counters.
func status(t *Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.StatusResponse{
			State:  t.State(),
			Stats:  t.stats.Snapshot(),
			Uptime: time.Since(t.startTime).Round(time.Second).String(),
		})
	}
}
