package models

import "sync/atomic"

// RunStats tracks live counters for one quiz run. All fields are updated
// atomically so the status API can read them while the loop runs.
type RunStats struct {
	Answered atomic.Int64
	Skipped  atomic.Int64
	Reloads  atomic.Int64
}

// Snapshot is a point-in-time copy of RunStats for JSON serialisation.
type Snapshot struct {
	Answered int64 `json:"answered"`
	Skipped  int64 `json:"skipped"`
	Reloads  int64 `json:"reloads"`
}

// Snapshot returns a consistent-enough copy of the counters.
func (s *RunStats) Snapshot() Snapshot {
	return Snapshot{
		Answered: s.Answered.Load(),
		Skipped:  s.Skipped.Load(),
		Reloads:  s.Reloads.Load(),
	}
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

// StatusResponse is the payload for GET /api/v1/status.
type StatusResponse struct {
	State  string   `json:"state"` // "logging_in", "running", "finished", "failed"
	Stats  Snapshot `json:"stats"`
	Uptime string   `json:"uptime"`
}
