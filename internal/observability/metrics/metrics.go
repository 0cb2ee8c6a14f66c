package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "ingest_"

	resultSuccess = "success"
)

var (
	registerOnce sync.Once

	ingestMessages *prometheus.CounterVec
	ingestOutcomes *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		ingestMessages = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "requests_total",
				Help: "Total ingest requests by result",
			},
			[]string{"result"},
		)
		ingestOutcomes = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "message_outcomes_total",
				Help: "Total per-message ingest outcomes by status",
			},
			[]string{"status"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "latency_seconds",
				Help:    "Ingest request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			ingestMessages,
			ingestOutcomes,
			ingestLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveIngest records ingest request duration and result.
func ObserveIngest(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if ingestMessages != nil {
		ingestMessages.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncOutcome increments the per-message outcome counter.
func IncOutcome(status string) {
	if status == "" {
		status = "unknown"
	}
	if ingestOutcomes != nil {
		ingestOutcomes.WithLabelValues(status).Inc()
	}
}
