package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger reports data store reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// StatusHandler reports service health on GET /healthz.
type StatusHandler struct {
	appName string
	db      Pinger
}

// NewStatusHandler constructs a status handler. db may be nil when the
// service runs without storage attached.
func NewStatusHandler(appName string, db Pinger) *StatusHandler {
	if appName == "" {
		appName = "iot-ingest-cloud"
	}
	return &StatusHandler{appName: appName, db: db}
}

// ServeHTTP handles the health probe.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	dbStatus := "absent"
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			dbStatus = "unreachable"
		} else {
			dbStatus = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"app":    h.appName,
		"status": "ok",
		"db":     dbStatus,
	})
}
