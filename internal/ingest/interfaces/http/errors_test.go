package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ingest "iot-ingest-cloud/internal/ingest/domain"
)

type stubErrorLister struct {
	notes []ingest.ErrorNote
	err   error
	limit int
}

func (s *stubErrorLister) RecentErrors(_ context.Context, limit int) ([]ingest.ErrorNote, error) {
	s.limit = limit
	return s.notes, s.err
}

func sampleNotes() []ingest.ErrorNote {
	return []ingest.ErrorNote{
		{RawID: 7, Error: "validation_error: battery_charge value 1234 out of range", ReceivedAt: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)},
		{RawID: 3, Error: "startup_auth_error: invalid token", ReceivedAt: time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)},
	}
}

func newErrorsTestHandler(t *testing.T, lister *stubErrorLister) *ErrorsHandler {
	t.Helper()
	handler, err := NewErrorsHandler(lister, log.New(&strings.Builder{}, "", 0))
	if err != nil {
		t.Fatalf("new errors handler: %v", err)
	}
	return handler
}

func TestErrorsHandler_List(t *testing.T) {
	lister := &stubErrorLister{notes: sampleNotes()}
	handler := newErrorsTestHandler(t, lister)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ingest/errors?limit=10", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if lister.limit != 10 {
		t.Fatalf("expected limit 10, got %d", lister.limit)
	}
	var notes []ingest.ErrorNote
	if err := json.Unmarshal(resp.Body.Bytes(), &notes); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(notes) != 2 || notes[0].RawID != 7 {
		t.Fatalf("unexpected notes: %+v", notes)
	}
}

func TestErrorsHandler_EmptyListIsArray(t *testing.T) {
	handler := newErrorsTestHandler(t, &stubErrorLister{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ingest/errors", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if body := strings.TrimSpace(resp.Body.String()); body != "[]" {
		t.Fatalf("expected empty array, got %q", body)
	}
}

func TestErrorsHandler_InvalidLimit(t *testing.T) {
	handler := newErrorsTestHandler(t, &stubErrorLister{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ingest/errors?limit=zero", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestErrorsHandler_QueryFailure(t *testing.T) {
	handler := newErrorsTestHandler(t, &stubErrorLister{err: errors.New("connection reset")})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ingest/errors", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestErrorsHandler_ExportPDF(t *testing.T) {
	handler := newErrorsTestHandler(t, &stubErrorLister{notes: sampleNotes()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ingest/errors/export.pdf", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("unexpected content type: %q", got)
	}
	if !bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("expected PDF payload")
	}
}

func TestErrorsHandler_ExportXLSX(t *testing.T) {
	handler := newErrorsTestHandler(t, &stubErrorLister{notes: sampleNotes()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ingest/errors/export.xlsx", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	// XLSX is a zip container.
	if !bytes.HasPrefix(resp.Body.Bytes(), []byte("PK")) {
		t.Fatal("expected XLSX payload")
	}
}

func TestBuildErrorReports_EmptyNotes(t *testing.T) {
	now := time.Now().UTC()
	if _, err := BuildErrorReportPDF(nil, now); err != nil {
		t.Fatalf("pdf with no notes: %v", err)
	}
	if _, err := BuildErrorReportXLSX(nil, now); err != nil {
		t.Fatalf("xlsx with no notes: %v", err)
	}
}
