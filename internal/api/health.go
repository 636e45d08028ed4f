package api

import "time"

// Database connection states reported by the health endpoint.
const (
	DatabaseConnected    = "CONNECTED"
	DatabaseFallbackMode = "FALLBACK_MODE"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}
