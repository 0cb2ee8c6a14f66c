package ingest

import "time"

// Status tags the outcome of ingesting a single message.
type Status string

const (
	StatusOK           Status = "ok"
	StatusInvalid      Status = "invalid"
	StatusError        Status = "error"
	StatusProvisioned  Status = "provisioned"
	StatusUnauthorized Status = "unauthorized"
)

// Result is the per-message ingest outcome. RawID is absent when no raw
// message was written. ProcessedID carries the processed-record id for
// telemetry and the device id for provisioning.
type Result struct {
	RawID       *int64 `json:"raw_id,omitempty"`
	ProcessedID *int64 `json:"processed_id,omitempty"`
	Status      Status `json:"status"`
}

// ErrorNote is a durable note attached to a raw message when its ingestion
// failed, kept for operator inspection.
type ErrorNote struct {
	RawID      int64     `json:"raw_id"`
	Error      string    `json:"error"`
	ReceivedAt time.Time `json:"received_at"`
}

// ProcessedRecord is the set of fields written for a validated telemetry
// message. RawID links back to the originating raw message.
type ProcessedRecord struct {
	DeviceID  int64
	RawID     int64
	Timestamp float64
	KindID    int64
	Value     float64
}
