package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	ingest "iot-ingest-cloud/internal/ingest/domain"
)

const errorNoteMaxLen = 500

// Store is the Postgres implementation of the ingest storage contract.
// Tables: raw_record, ingest_error, record_type, device, processed_record.
type Store struct {
	db *sql.DB
}

// NewStore constructs a store over an open database handle.
func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("ingest store: nil db")
	}
	return &Store{db: db}, nil
}

// InsertRaw appends the payload as received. Raw records are immutable once
// written; id and receipt time are assigned by the database.
func (s *Store) InsertRaw(ctx context.Context, payload map[string]any) (int64, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("ingest store: encode raw payload: %w", err)
	}
	var id int64
	err = s.db.QueryRowContext(ctx, `
INSERT INTO raw_record (raw_message)
VALUES ($1::jsonb)
RETURNING id`, string(body)).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// truncateNote caps an error note at errorNoteMaxLen characters. Truncation
// counts runes, not bytes, so multi-byte text stays valid UTF-8.
func truncateNote(message string) string {
	if utf8.RuneCountInString(message) <= errorNoteMaxLen {
		return message
	}
	runes := []rune(message)
	return string(runes[:errorNoteMaxLen])
}

// UpsertError records an error note for a raw message. Last write wins on
// repeated calls for the same raw id.
func (s *Store) UpsertError(ctx context.Context, rawID int64, message string) error {
	message = truncateNote(message)
	_, err := s.db.ExecContext(ctx, `
INSERT INTO ingest_error (raw_data_id, error)
VALUES ($1, $2)
ON CONFLICT (raw_data_id)
DO UPDATE SET error = EXCLUDED.error`, rawID, message)
	return err
}

// ResolveOrCreateMeasurementKind returns the id for a kind name, creating it
// on first use. A concurrent first creation loses the insert and falls back
// to reading the winner's row.
func (s *Store) ResolveOrCreateMeasurementKind(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM record_type WHERE name = $1`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	err = s.db.QueryRowContext(ctx, `
INSERT INTO record_type (name)
VALUES ($1)
ON CONFLICT (name) DO NOTHING
RETURNING id`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	// Lost the insert race; the row exists now.
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM record_type WHERE name = $1`, name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// ResolveOrCreateDeviceBySerial returns the device id for a serial, creating
// the device row on first provisioning. The serial is stored as the device
// name.
func (s *Store) ResolveOrCreateDeviceBySerial(ctx context.Context, serial string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM device WHERE name = $1`, serial).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	err = s.db.QueryRowContext(ctx, `
INSERT INTO device (name, init_date)
VALUES ($1, NOW())
ON CONFLICT (name) DO NOTHING
RETURNING id`, serial).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	if err := s.db.QueryRowContext(ctx, `SELECT id FROM device WHERE name = $1`, serial).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// EnsureDeviceExists creates a placeholder device row for a bare numeric id.
// A pre-existing row is left untouched (first-writer-wins).
func (s *Store) EnsureDeviceExists(ctx context.Context, deviceID int64) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO device (id, name, init_date)
VALUES ($1, $2, NOW())
ON CONFLICT (id) DO NOTHING`, deviceID, fmt.Sprintf("device-%d", deviceID))
	return err
}

// InsertProcessed writes a processed record. Returns inserted=false when a
// uniqueness constraint suppressed the write.
func (s *Store) InsertProcessed(ctx context.Context, record ingest.ProcessedRecord) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
INSERT INTO processed_record (device_id, raw_data_id, record_time, type, value)
VALUES ($1, $2, to_timestamp($3), $4, $5)
ON CONFLICT DO NOTHING
RETURNING id`, record.DeviceID, record.RawID, record.Timestamp, record.KindID, record.Value).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	return 0, false, err
}

// RecentErrors lists the newest error notes for operator inspection.
func (s *Store) RecentErrors(ctx context.Context, limit int) ([]ingest.ErrorNote, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT e.raw_data_id, e.error, r.received_at
FROM ingest_error e
JOIN raw_record r ON r.id = e.raw_data_id
ORDER BY e.raw_data_id DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []ingest.ErrorNote
	for rows.Next() {
		var note ingest.ErrorNote
		if err := rows.Scan(&note.RawID, &note.Error, &note.ReceivedAt); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}
