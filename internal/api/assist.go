package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zombar/wordwise/internal/assist"
	"github.com/zombar/wordwise/internal/database"
	"github.com/zombar/wordwise/internal/models"
	"github.com/zombar/wordwise/internal/queue"
	"github.com/zombar/wordwise/internal/tracing"
)

// respondAssist writes an assist result or maps its error to a status code.
// Generation failures still carry the empty result.
func (h *Handler) respondAssist(w http.ResponseWriter, result any, err error) {
	if err == nil {
		respondJSON(w, result, http.StatusOK)
		return
	}

	msg := assist.PublicMessage(err)
	switch {
	case errors.Is(err, assist.ErrInvalidInput):
		respondError(w, msg, http.StatusBadRequest)
	case errors.Is(err, assist.ErrServiceUnavailable):
		respondError(w, msg, http.StatusServiceUnavailable)
	default:
		body := map[string]any{}
		if data, merr := json.Marshal(result); merr == nil {
			json.Unmarshal(data, &body)
		}
		body["detail"] = msg
		respondJSON(w, body, http.StatusInternalServerError)
	}
}

// handleToneAdjust rewrites text in a tone, optionally guided by saved
// inspirations
func (h *Handler) handleToneAdjust(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text           string  `json:"text"`
		Tone           string  `json:"tone"`
		InspirationIDs []int64 `json:"inspiration_ids"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var examples []string
	if len(req.InspirationIDs) > 0 {
		liked, err := h.db.GetInspirationsByIDs(r.Context(), userFrom(r.Context()).ID, req.InspirationIDs)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "failed to load inspirations", "error", err)
			respondError(w, "Failed to load inspirations", http.StatusInternalServerError)
			return
		}
		for _, insp := range liked {
			examples = append(examples, insp.Content)
		}
	}

	tracing.SetSpanAttributes(r.Context(),
		attribute.String("tone", req.Tone),
		attribute.Int("examples.count", len(examples)),
	)

	result, err := h.assist.AdjustTone(r.Context(), assist.ToneRequest{
		Text:     req.Text,
		Tone:     req.Tone,
		Examples: examples,
	})
	h.respondAssist(w, result, err)
}

func (h *Handler) handleAnalyzePost(w http.ResponseWriter, r *http.Request) {
	var req assist.PostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	result, err := h.assist.AnalyzePost(r.Context(), req)
	h.respondAssist(w, result, err)
}

func (h *Handler) handleImprovePost(w http.ResponseWriter, r *http.Request) {
	var req assist.PostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	result, err := h.assist.ImprovePost(r.Context(), req)
	h.respondAssist(w, result, err)
}

// handleCaption generates captions for an uploaded image
func (h *Handler) handleCaption(w http.ResponseWriter, r *http.Request) {
	const formOverhead = 1 << 20
	r.Body = http.MaxBytesReader(w, r.Body, assist.MaxImageSize+formOverhead)

	if err := r.ParseMultipartForm(formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, "Image is too large.", http.StatusBadRequest)
			return
		}
		respondError(w, "A multipart form with an image is required.", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, "No image provided.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, assist.MaxImageSize+1))
	if err != nil {
		respondError(w, "Failed to read image.", http.StatusBadRequest)
		return
	}

	tracing.SetSpanAttributes(r.Context(),
		attribute.String("image.filename", header.Filename),
		attribute.Int("image.size", len(data)),
	)

	result, err := h.assist.GenerateCaptions(r.Context(), assist.CaptionRequest{
		Image:    data,
		Platform: r.FormValue("platform"),
		Keywords: r.FormValue("keywords"),
	})
	h.respondAssist(w, result, err)
}

// handleEnqueueJob queues a post analysis or improvement
func (h *Handler) handleEnqueueJob(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		respondError(w, "Background jobs are not enabled.", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		Operation string `json:"operation"`
		assist.PostRequest
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if _, ok := queue.TaskType(req.Operation); !ok {
		respondError(w, "Operation must be analyze_post or improve_post.", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, "Text is required.", http.StatusBadRequest)
		return
	}

	user := userFrom(r.Context())
	job := &models.AssistJob{
		ID:     uuid.NewString(),
		UserID: user.ID,
		Kind:   req.Operation,
		Status: models.JobQueued,
	}
	if err := h.db.CreateJob(r.Context(), job); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to create job", "error", err)
		respondError(w, "Failed to create job", http.StatusInternalServerError)
		return
	}

	taskID, err := h.queue.EnqueueAssist(r.Context(), req.Operation, job.ID, user.ID, req.PostRequest)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to enqueue job", "job_id", job.ID, "error", err)
		if uerr := h.db.UpdateJob(r.Context(), job.ID, models.JobFailed, "", "Failed to enqueue job."); uerr != nil {
			h.logger.ErrorContext(r.Context(), "failed to update job", "job_id", job.ID, "error", uerr)
		}
		respondError(w, "Failed to enqueue job", http.StatusServiceUnavailable)
		return
	}

	tracing.SetSpanAttributes(r.Context(), attribute.String("job.id", job.ID))
	respondJSON(w, map[string]string{
		"job_id":  job.ID,
		"task_id": taskID,
		"status":  job.Status,
	}, http.StatusAccepted)
}

// jobResponse is a job with its decoded result
type jobResponse struct {
	*models.AssistJob
	Result json.RawMessage `json:"result,omitempty"`
}

func (h *Handler) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job, err := h.db.GetJob(r.Context(), userFrom(r.Context()).ID, r.PathValue("id"))
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, "Job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to get job", "error", err)
		respondError(w, "Failed to get job", http.StatusInternalServerError)
		return
	}

	resp := jobResponse{AssistJob: job}
	if job.Result != "" {
		resp.Result = json.RawMessage(job.Result)
	}
	respondJSON(w, resp, http.StatusOK)
}
