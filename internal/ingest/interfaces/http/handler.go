package http

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"iot-ingest-cloud/internal/ingest/application"
	"iot-ingest-cloud/internal/observability/metrics"
)

// rawTextField carries a non-JSON body through the telemetry path so it is
// captured rather than silently dropped. It always fails schema validation.
const rawTextField = "_raw"

// IngestHandler accepts device messages: a single JSON object, a JSON array
// of objects, or any other body wrapped as raw text.
type IngestHandler struct {
	service *application.Service
	logger  *log.Logger
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(service *application.Service, logger *log.Logger) (*IngestHandler, error) {
	if service == nil {
		return nil, errors.New("ingest handler: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &IngestHandler{service: service, logger: logger}, nil
}

// ServeHTTP handles POST /ingest.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := "success"
	defer func() {
		metrics.ObserveIngest(result, time.Since(start))
	}()

	if r.Method != http.MethodPost {
		result = "error"
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Printf("ingest: read body error: %v", err)
		result = "error"
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	results := h.service.IngestMany(r.Context(), decodeBody(body))
	for _, outcome := range results {
		metrics.IncOutcome(string(outcome.Status))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(results); err != nil {
		h.logger.Printf("ingest: encode response error: %v", err)
	}
}

// decodeBody splits the request body into individual message payloads. The
// response contract is one outcome per payload, in order.
func decodeBody(body []byte) []map[string]any {
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return []map[string]any{{rawTextField: string(body)}}
	}
	switch value := parsed.(type) {
	case map[string]any:
		return []map[string]any{value}
	case []any:
		payloads := make([]map[string]any, 0, len(value))
		for _, element := range value {
			if object, ok := element.(map[string]any); ok {
				payloads = append(payloads, object)
				continue
			}
			text, _ := json.Marshal(element)
			payloads = append(payloads, map[string]any{rawTextField: string(text)})
		}
		return payloads
	default:
		return []map[string]any{{rawTextField: string(body)}}
	}
}
