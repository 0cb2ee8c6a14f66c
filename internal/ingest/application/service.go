package application

import (
	"context"
	"fmt"
	"log"

	ingest "iot-ingest-cloud/internal/ingest/domain"
)

// TokenVerifier checks device provisioning tokens.
type TokenVerifier interface {
	Verify(serial, token string) bool
}

// Service orchestrates ingestion of device messages. Each message takes one
// of two paths based on a peek at event_type: provisioning (device_startup)
// or telemetry. The store may be nil, in which case invalid telemetry is
// reported without any persistence; all other paths then fail with an error
// outcome.
type Service struct {
	store           Store
	verifier        TokenVerifier
	kinds           *KindResolver
	logger          *log.Logger
	persistRejected bool
}

// Option configures the service.
type Option func(*Service)

// WithPersistRejected controls whether rejected telemetry still writes a raw
// message for observability. Enabled by default.
func WithPersistRejected(enabled bool) Option {
	return func(s *Service) {
		s.persistRejected = enabled
	}
}

// NewService constructs the ingest orchestrator.
func NewService(store Store, verifier TokenVerifier, logger *log.Logger, opts ...Option) (*Service, error) {
	if verifier == nil {
		return nil, fmt.Errorf("ingest service: nil verifier")
	}
	if logger == nil {
		logger = log.Default()
	}
	svc := &Service{
		store:           store,
		verifier:        verifier,
		logger:          logger,
		persistRejected: true,
	}
	if store != nil {
		kinds, err := NewKindResolver(store)
		if err != nil {
			return nil, err
		}
		svc.kinds = kinds
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// IngestOne processes a single device message and returns its outcome.
func (s *Service) IngestOne(ctx context.Context, payload map[string]any) ingest.Result {
	if ingest.IsStartup(payload) {
		return s.ingestStartup(ctx, payload)
	}
	return s.ingestTelemetry(ctx, payload)
}

// IngestMany processes messages as an ordered sequence of independent
// single-message calls. One message's outcome never affects another's.
func (s *Service) IngestMany(ctx context.Context, payloads []map[string]any) []ingest.Result {
	results := make([]ingest.Result, 0, len(payloads))
	for _, payload := range payloads {
		results = append(results, s.IngestOne(ctx, payload))
	}
	return results
}

// ingestStartup handles the provisioning path. Provisioning attempts are
// always captured raw, valid or not.
func (s *Service) ingestStartup(ctx context.Context, payload map[string]any) ingest.Result {
	if s.store == nil {
		s.logger.Printf("ingest: startup without store attached")
		return ingest.Result{Status: ingest.StatusError}
	}

	rawID, err := s.store.InsertRaw(ctx, payload)
	if err != nil {
		s.logger.Printf("ingest: raw insert error: %v", err)
		return ingest.Result{Status: ingest.StatusError}
	}

	startup, err := ingest.ParseStartup(payload)
	if err != nil {
		s.noteError(ctx, rawID, fmt.Sprintf("startup_validation_error: %v", err))
		return ingest.Result{RawID: &rawID, Status: ingest.StatusInvalid}
	}

	if !s.verifier.Verify(startup.Serial, startup.ProvisionToken) {
		s.noteError(ctx, rawID, "startup_auth_error: invalid token")
		return ingest.Result{RawID: &rawID, Status: ingest.StatusUnauthorized}
	}

	deviceID, err := s.store.ResolveOrCreateDeviceBySerial(ctx, startup.Serial)
	if err != nil {
		s.noteError(ctx, rawID, fmt.Sprintf("startup_db_error: %v", err))
		return ingest.Result{RawID: &rawID, Status: ingest.StatusError}
	}
	return ingest.Result{RawID: &rawID, ProcessedID: &deviceID, Status: ingest.StatusProvisioned}
}

// ingestTelemetry handles the telemetry path. Validation runs before any
// persistence: invalid telemetry never creates a processed record.
func (s *Service) ingestTelemetry(ctx context.Context, payload map[string]any) ingest.Result {
	record, err := ingest.ParseTelemetry(payload)
	if err != nil {
		if s.store == nil || !s.persistRejected {
			return ingest.Result{Status: ingest.StatusInvalid}
		}
		rawID, insertErr := s.store.InsertRaw(ctx, payload)
		if insertErr != nil {
			s.logger.Printf("ingest: raw insert error: %v", insertErr)
			return ingest.Result{Status: ingest.StatusError}
		}
		s.noteError(ctx, rawID, fmt.Sprintf("validation_error: %v", err))
		return ingest.Result{RawID: &rawID, Status: ingest.StatusInvalid}
	}

	if s.store == nil {
		s.logger.Printf("ingest: telemetry without store attached")
		return ingest.Result{Status: ingest.StatusError}
	}

	rawID, err := s.store.InsertRaw(ctx, payload)
	if err != nil {
		s.logger.Printf("ingest: raw insert error: %v", err)
		return ingest.Result{Status: ingest.StatusError}
	}

	kindID, err := s.kinds.Resolve(ctx, record.EventType)
	if err != nil {
		s.noteError(ctx, rawID, fmt.Sprintf("db_error: %v", err))
		return ingest.Result{RawID: &rawID, Status: ingest.StatusError}
	}

	if err := s.store.EnsureDeviceExists(ctx, record.DeviceID); err != nil {
		s.noteError(ctx, rawID, fmt.Sprintf("db_error: %v", err))
		return ingest.Result{RawID: &rawID, Status: ingest.StatusError}
	}

	processedID, inserted, err := s.store.InsertProcessed(ctx, ingest.ProcessedRecord{
		DeviceID:  record.DeviceID,
		RawID:     rawID,
		Timestamp: record.Timestamp,
		KindID:    kindID,
		Value:     record.Value,
	})
	if err != nil {
		s.noteError(ctx, rawID, fmt.Sprintf("db_error: %v", err))
		return ingest.Result{RawID: &rawID, Status: ingest.StatusError}
	}
	if !inserted {
		// Duplicate suppressed by a uniqueness constraint; still ok.
		return ingest.Result{RawID: &rawID, Status: ingest.StatusOK}
	}
	return ingest.Result{RawID: &rawID, ProcessedID: &processedID, Status: ingest.StatusOK}
}

// noteError records a durable error note for operator inspection. Best
// effort: its own failure must not mask the original outcome.
func (s *Service) noteError(ctx context.Context, rawID int64, message string) {
	if err := s.store.UpsertError(ctx, rawID, message); err != nil {
		s.logger.Printf("ingest: error note write failed for raw %d: %v", rawID, err)
	}
}
