package application

import (
	"context"

	ingest "iot-ingest-cloud/internal/ingest/domain"
)

// Store is the durable storage contract the ingest pipeline writes through.
// Every mutation must be safe under concurrent execution for the same logical
// key: kind and device creation are insert-or-fetch, the processed write is
// insert-or-ignore.
type Store interface {
	// InsertRaw appends the payload exactly as received and returns its id.
	InsertRaw(ctx context.Context, payload map[string]any) (int64, error)

	// UpsertError records an error note for a raw message. Idempotent per
	// raw id; the message is truncated to a bounded length before storage.
	UpsertError(ctx context.Context, rawID int64, message string) error

	// ResolveOrCreateMeasurementKind returns the stable id for a kind name,
	// creating it on first use.
	ResolveOrCreateMeasurementKind(ctx context.Context, name string) (int64, error)

	// ResolveOrCreateDeviceBySerial returns the device id for a serial,
	// creating the device on first provisioning.
	ResolveOrCreateDeviceBySerial(ctx context.Context, serial string) (int64, error)

	// EnsureDeviceExists creates a placeholder device row for a bare numeric
	// id unless one already exists.
	EnsureDeviceExists(ctx context.Context, deviceID int64) error

	// InsertProcessed writes a processed record. The bool is false when a
	// uniqueness constraint suppressed the write.
	InsertProcessed(ctx context.Context, record ingest.ProcessedRecord) (int64, bool, error)
}
