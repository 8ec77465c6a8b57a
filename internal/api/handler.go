package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/zombar/wordwise/internal/analyzer"
	"github.com/zombar/wordwise/internal/assist"
	"github.com/zombar/wordwise/internal/auth"
	"github.com/zombar/wordwise/internal/database"
)

const maxBodySize = 1 << 20

// Assistant runs the AI writing helpers
type Assistant interface {
	AdjustTone(ctx context.Context, req assist.ToneRequest) (assist.ToneResult, error)
	AnalyzePost(ctx context.Context, req assist.PostRequest) (assist.PostAnalysis, error)
	ImprovePost(ctx context.Context, req assist.PostRequest) (assist.PostImprovements, error)
	GenerateCaptions(ctx context.Context, req assist.CaptionRequest) (assist.CaptionResult, error)
}

// JobQueue enqueues background assist jobs
type JobQueue interface {
	EnqueueAssist(ctx context.Context, op, jobID string, userID int64, req assist.PostRequest) (string, error)
}

// Config holds the handler dependencies. Queue and Gatherer may be nil.
type Config struct {
	DB       *database.DB
	Analyzer *analyzer.Analyzer
	Assist   Assistant
	Queue    JobQueue
	Issuer   *auth.Issuer
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Handler handles HTTP requests
type Handler struct {
	db       *database.DB
	analyzer *analyzer.Analyzer
	assist   Assistant
	queue    JobQueue
	issuer   *auth.Issuer
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	upgrader websocket.Upgrader
	mux      *http.ServeMux
}

// NewHandler creates a new API handler with CORS support
func NewHandler(cfg Config) http.Handler {
	h := newHandler(cfg)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return c.Handler(h.mux)
}

func newHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	h := &Handler{
		db:       cfg.DB,
		analyzer: cfg.Analyzer,
		assist:   cfg.Assist,
		queue:    cfg.Queue,
		issuer:   cfg.Issuer,
		gatherer: gatherer,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// browser extensions connect from their own origins
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		mux: http.NewServeMux(),
	}
	h.setupRoutes()
	return h
}

// setupRoutes configures all API routes
func (h *Handler) setupRoutes() {
	h.mux.HandleFunc("GET /{$}", h.handleRoot)
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.Handle("GET /metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	h.mux.HandleFunc("POST /signup", h.handleSignup)
	h.mux.HandleFunc("POST /token", h.handleToken)
	h.mux.Handle("GET /users/me/{$}", h.requireUser(h.handleMe))

	h.mux.Handle("POST /analyze/{$}", h.requireUser(h.handleAnalyze))
	h.mux.Handle("POST /dictionary/add", h.requireUser(h.handleDictionaryAdd))
	h.mux.Handle("GET /dictionary", h.requireUser(h.handleDictionaryList))

	h.mux.Handle("GET /inspiration", h.requireUser(h.handleListInspirations))
	h.mux.Handle("POST /inspiration", h.requireUser(h.handleCreateInspiration))
	h.mux.Handle("DELETE /inspiration/{id}", h.requireUser(h.handleDeleteInspiration))
	h.mux.Handle("PUT /inspiration/{id}/tags", h.requireUser(h.handleUpdateTags))

	h.mux.Handle("POST /tone-adjust", h.requireUser(h.handleToneAdjust))
	h.mux.Handle("POST /analyze-post", h.requireUser(h.handleAnalyzePost))
	h.mux.Handle("POST /improve-post", h.requireUser(h.handleImprovePost))
	h.mux.Handle("POST /caption/generate", h.requireUser(h.handleCaption))

	h.mux.Handle("POST /jobs/assist", h.requireUser(h.handleEnqueueJob))
	h.mux.Handle("GET /jobs/{id}", h.requireUser(h.handleJobStatus))

	h.mux.HandleFunc("GET /ws/analyze", h.handleWebsocket)
}

// handleRoot reports that the server is up
func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"message": "WordWise AI Server is running."}, http.StatusOK)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]any{
		"status":    "ok",
		"time":      time.Now().Format(time.RFC3339),
		"analyzers": h.analyzer.Available(),
	}, http.StatusOK)
}

// decodeJSON reads a size-limited JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, map[string]string{"detail": message}, statusCode)
}
