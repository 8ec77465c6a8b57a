package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/zombar/wordwise/internal/database"
	"github.com/zombar/wordwise/internal/models"
)

func (h *Handler) handleListInspirations(w http.ResponseWriter, r *http.Request) {
	list, err := h.db.ListInspirations(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list inspirations", "error", err)
		respondError(w, "Failed to list inspirations", http.StatusInternalServerError)
		return
	}
	respondJSON(w, list, http.StatusOK)
}

// handleCreateInspiration saves a liked example post
func (h *Handler) handleCreateInspiration(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content  string   `json:"content"`
		Platform string   `json:"platform"`
		Tags     []string `json:"tags"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondError(w, "Content is required.", http.StatusBadRequest)
		return
	}

	insp := &models.Inspiration{
		UserID:   userFrom(r.Context()).ID,
		Content:  content,
		Platform: strings.TrimSpace(req.Platform),
		Tags:     req.Tags,
	}
	if err := h.db.CreateInspiration(r.Context(), insp); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to save inspiration", "error", err)
		respondError(w, "Failed to save inspiration", http.StatusInternalServerError)
		return
	}
	respondJSON(w, insp, http.StatusCreated)
}

func (h *Handler) handleDeleteInspiration(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := h.db.DeleteInspiration(r.Context(), userFrom(r.Context()).ID, id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, "Inspiration not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to delete inspiration", "error", err)
		respondError(w, "Failed to delete inspiration", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUpdateTags(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		Tags []string `json:"tags"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	insp, err := h.db.UpdateInspirationTags(r.Context(), userFrom(r.Context()).ID, id, req.Tags)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, "Inspiration not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to update tags", "error", err)
		respondError(w, "Failed to update tags", http.StatusInternalServerError)
		return
	}
	respondJSON(w, insp, http.StatusOK)
}

// pathID parses the {id} path value, answering 400 when it is not a number
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, "Invalid ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
