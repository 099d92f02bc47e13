package domain

import (
	"encoding/json"
	"time"
)

// GenerationStatus represents the status of a generation.
type GenerationStatus string

const (
	GenerationStatusRunning   GenerationStatus = "RUNNING"
	GenerationStatusDone      GenerationStatus = "DONE"
	GenerationStatusFailed    GenerationStatus = "FAILED"
	GenerationStatusCancelled GenerationStatus = "CANCELLED"
)

// Generation is the telemetry record of one generate request.
type Generation struct {
	GenerationID string           `json:"generation_id"`
	SessionID    string           `json:"session_id"`
	Artifact     ArtifactType     `json:"artifact"`
	Model        string           `json:"model"`
	Status       GenerationStatus `json:"status"`
	StartedAt    time.Time        `json:"started_at"`
	EndedAt      *time.Time       `json:"ended_at,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// EventType represents the type of a telemetry event.
type EventType string

const (
	EventTypeGenerationStarted EventType = "generation_started"
	EventTypeGenerationDone    EventType = "generation_done"
)

// Event is a single telemetry event tied to a generation.
type Event struct {
	EventID      string          `json:"event_id"`
	GenerationID string          `json:"generation_id"`
	Ts           int64           `json:"ts"`
	Type         EventType       `json:"type"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// GenerationStartedPayload is the payload for generation_started.
type GenerationStartedPayload struct {
	SessionID string       `json:"session_id"`
	Artifact  ArtifactType `json:"artifact"`
	Model     string       `json:"model"`
}

// GenerationDonePayload is the payload for generation_done.
type GenerationDonePayload struct {
	SessionID  string       `json:"session_id"`
	Artifact   ArtifactType `json:"artifact"`
	Model      string       `json:"model"`
	LatencyMs  int64        `json:"latency_ms"`
	Chunks     int          `json:"chunks,omitempty"`
	TotalBytes int64        `json:"total_bytes,omitempty"`
	Error      string       `json:"error,omitempty"`
}
