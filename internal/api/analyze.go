package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zombar/wordwise/internal/analyzer"
	"github.com/zombar/wordwise/internal/models"
	"github.com/zombar/wordwise/internal/tracing"
)

// analysisRequest is the body of /analyze/ and of websocket messages.
// tone_preference is accepted for client compatibility.
type analysisRequest struct {
	Text             string                `json:"text"`
	Platform         string                `json:"platform"`
	Field            string                `json:"field"`
	TonePreference   string                `json:"tone_preference"`
	EnabledAnalyzers models.AnalyzerConfig `json:"enabled_analyzers"`
}

// analyze runs the pipeline for a user, with their dictionary applied
func (h *Handler) analyze(ctx context.Context, user *models.User, req analysisRequest) (models.AnalysisResult, error) {
	words, err := h.db.ListWords(ctx, user.ID)
	if err != nil {
		return models.AnalysisResult{}, err
	}

	tracing.SetSpanAttributes(ctx,
		attribute.Int("text.length", len(req.Text)),
		attribute.String("platform", req.Platform),
		attribute.Int("dictionary.size", len(words)),
	)

	return h.analyzer.Analyze(ctx, analyzer.Request{
		Text:       req.Text,
		Platform:   req.Platform,
		Field:      req.Field,
		Analyzers:  req.EnabledAnalyzers,
		Dictionary: words,
	}), nil
}

// handleAnalyze runs all enabled analyzers over the posted text
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.analyze(r.Context(), userFrom(r.Context()), req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to load dictionary", "error", err)
		respondError(w, "Failed to analyze text", http.StatusInternalServerError)
		return
	}
	respondJSON(w, result, http.StatusOK)
}

// handleDictionaryAdd adds a single word to the user's dictionary
func (h *Handler) handleDictionaryAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Word string `json:"word"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	word := strings.TrimSpace(req.Word)
	if word == "" || len(strings.Fields(word)) > 1 {
		respondError(w, "Invalid word provided.", http.StatusBadRequest)
		return
	}

	added, err := h.db.AddWord(r.Context(), userFrom(r.Context()).ID, word)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to add word", "error", err)
		respondError(w, "Failed to add word", http.StatusInternalServerError)
		return
	}
	if !added {
		respondJSON(w, map[string]string{"message": "Word already exists in dictionary."}, http.StatusOK)
		return
	}
	respondJSON(w, map[string]string{"message": fmt.Sprintf("'%s' added to your dictionary.", word)}, http.StatusCreated)
}

// handleDictionaryList returns the user's dictionary
func (h *Handler) handleDictionaryList(w http.ResponseWriter, r *http.Request) {
	words, err := h.db.ListWords(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list words", "error", err)
		respondError(w, "Failed to list dictionary", http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string][]string{"words": words}, http.StatusOK)
}
