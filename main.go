package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"iot-ingest-cloud/internal/auth"
	"iot-ingest-cloud/internal/config"
	"iot-ingest-cloud/internal/ingest/application"
	ingestpostgres "iot-ingest-cloud/internal/ingest/infrastructure/postgres"
	ingesthttp "iot-ingest-cloud/internal/ingest/interfaces/http"
	"iot-ingest-cloud/internal/observability/metrics"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)

	store, err := ingestpostgres.NewStore(db)
	if err != nil {
		logger.Fatalf("ingest store error: %v", err)
	}

	verifier := auth.NewProvisionVerifier(cfg.ProvisionSecret)
	service, err := application.NewService(store, verifier, logger,
		application.WithPersistRejected(cfg.PersistRejected))
	if err != nil {
		logger.Fatalf("ingest service error: %v", err)
	}

	ingestHandler, err := ingesthttp.NewIngestHandler(service, logger)
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}
	errorsHandler, err := ingesthttp.NewErrorsHandler(store, logger)
	if err != nil {
		logger.Fatalf("errors handler error: %v", err)
	}

	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), auth.NewDefaultPolicy(
		[]string{"/ingest", "/healthz", "/metrics"},
		nil,
	))

	mux := http.NewServeMux()
	mux.Handle("/ingest", ingestHandler)
	mux.Handle("/api/v1/ingest/errors", errorsHandler)
	mux.Handle("/api/v1/ingest/errors/", errorsHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", ingesthttp.NewStatusHandler(cfg.AppName, db))

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
