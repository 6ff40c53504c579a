package models

import (
	"encoding/json"
	"time"
)

// Import log statuses.
const (
	ImportRunning = "running"
	ImportSuccess = "success"
	ImportError   = "error"
)

// ImportLog records the outcome of one import run.
type ImportLog struct {
	ID               int64            `json:"id"`
	BatchID          string           `json:"batch_id"`
	CreatedAt        time.Time        `json:"created_at"`
	Source           string           `json:"source"`
	Status           string           `json:"status"`
	SessionsReceived int              `json:"sessions_received"`
	SessionsInserted int              `json:"sessions_inserted"`
	ExercisesCreated int              `json:"exercises_created"`
	SetsInserted     int              `json:"sets_inserted"`
	DurationMs       *int             `json:"duration_ms"`
	ErrorMessage     *string          `json:"error_message"`
	Metadata         *json.RawMessage `json:"metadata"`
}
