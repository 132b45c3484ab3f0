package domain

import "time"

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job tracks a background operation started from the API, such as an
// outbox replay or a full reload from the database.
type Job struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`     // e.g. "OUTBOX_REPLAY"
	Status    JobStatus `json:"status"`
	Progress  int       `json:"progress"` // 0-100
	Message   string    `json:"message"`
	Result    JSONB     `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	JobTypeOutboxReplay = "OUTBOX_REPLAY"
	JobTypeReloadAll    = "RELOAD_ALL"
	JobTypeFlush        = "FLUSH"
)
