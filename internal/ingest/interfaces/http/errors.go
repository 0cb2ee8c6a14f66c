package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	ingest "iot-ingest-cloud/internal/ingest/domain"
)

const defaultErrorLimit = 100

// ErrorLister reads back error notes for operator inspection.
type ErrorLister interface {
	RecentErrors(ctx context.Context, limit int) ([]ingest.ErrorNote, error)
}

// ErrorsHandler serves the operator error inspection API:
// GET /api/v1/ingest/errors and /api/v1/ingest/errors/export.{pdf,xlsx}.
type ErrorsHandler struct {
	store  ErrorLister
	logger *log.Logger
}

// NewErrorsHandler constructs an errors handler.
func NewErrorsHandler(store ErrorLister, logger *log.Logger) (*ErrorsHandler, error) {
	if store == nil {
		return nil, errors.New("errors handler: nil store")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ErrorsHandler{store: store, logger: logger}, nil
}

// ServeHTTP dispatches list and export requests.
func (h *ErrorsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	limit := defaultErrorLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	notes, err := h.store.RecentErrors(r.Context(), limit)
	if err != nil {
		h.logger.Printf("ingest errors: query error: %v", err)
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}

	switch {
	case strings.HasSuffix(r.URL.Path, "/export.pdf"):
		h.export(w, notes, "pdf")
	case strings.HasSuffix(r.URL.Path, "/export.xlsx"):
		h.export(w, notes, "xlsx")
	default:
		w.Header().Set("Content-Type", "application/json")
		if notes == nil {
			notes = []ingest.ErrorNote{}
		}
		_ = json.NewEncoder(w).Encode(notes)
	}
}

func (h *ErrorsHandler) export(w http.ResponseWriter, notes []ingest.ErrorNote, format string) {
	var (
		data        []byte
		err         error
		contentType string
	)
	switch format {
	case "pdf":
		data, err = BuildErrorReportPDF(notes, time.Now().UTC())
		contentType = "application/pdf"
	case "xlsx":
		data, err = BuildErrorReportXLSX(notes, time.Now().UTC())
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		http.Error(w, "unknown format", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Printf("ingest errors: export %s error: %v", format, err)
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=ingest-errors.%s", format))
	_, _ = w.Write(data)
}
