package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/lgudev/gadtrack/internal/handlers"
	"github.com/lgudev/gadtrack/internal/services"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

func main() {
	dbService, err := services.NewDatabaseService()
	if err != nil {
		slog.Error("Failed to init DatabaseService", "error", err)
		os.Exit(1)
	}

	blobService, err := services.NewBlobService()
	if err != nil {
		slog.Error("Failed to init BlobService", "error", err)
		os.Exit(1)
	}

	queueService, err := services.NewQueueService()
	if err != nil {
		slog.Error("Failed to init QueueService", "error", err)
		os.Exit(1)
	}

	emailService, err := services.NewEmailService(nil)
	if err != nil {
		slog.Warn("Failed to init EmailService (continuing anyway)", "error", err)
	}

	deps := &handlers.Dependencies{
		Database: dbService,
		Blob:     blobService,
		Queue:    queueService,
	}
	if emailService != nil {
		deps.Email = emailService
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/ledgers", deps.HandleLedgers)
	mux.HandleFunc("POST /api/ledgers", deps.HandleLedgers)

	mux.HandleFunc("GET /api/proposals", deps.HandleProposals)
	mux.HandleFunc("POST /api/proposals", deps.HandleProposals)

	mux.HandleFunc("GET /api/entries", deps.HandleListEntries)
	mux.HandleFunc("POST /api/entries", deps.HandleCreateEntry)
	mux.HandleFunc("GET /api/entries/{id}", deps.HandleGetEntry)
	mux.HandleFunc("PUT /api/entries/{id}", deps.HandleUpdateEntry)
	mux.HandleFunc("DELETE /api/entries/{id}", deps.HandleDeleteEntry)
	mux.HandleFunc("POST /api/entries/{id}/archive", deps.HandleArchiveEntry)
	mux.HandleFunc("POST /api/entries/{id}/restore", deps.HandleRestoreEntry)
	mux.HandleFunc("GET /api/entries/{id}/files/{fileID}", deps.HandleDownloadFile)

	// Adapter for HTTP Trigger (enableForwardingHttpRequest is false)
	mux.HandleFunc("/HttpTrigger", deps.HandleHttpTrigger(mux))

	mux.HandleFunc("/ProcessQueue", deps.ProcessQueue)
	mux.HandleFunc("/NightlyTrigger", deps.HandleNightlyTrigger)

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		slog.Warn("unmatched request", "method", r.Method, "path", r.URL.Path)
		http.NotFound(w, r)
	})

	port := os.Getenv("FUNCTIONS_CUSTOMHANDLER_PORT")
	if port == "" {
		port = "8080"
	}

	loggedMux := loggingMiddleware(mux)

	slog.Info("Starting server", "port", port)
	if err := http.ListenAndServe(":"+port, loggedMux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration", time.Since(start),
		)
	})
}
