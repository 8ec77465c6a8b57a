package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zombar/wordwise/internal/assist"
)

// Task type constants
const (
	TypeAnalyzePost = "wordwise:analyze_post"
	TypeImprovePost = "wordwise:improve_post"
)

// QueueAssist is the asynq queue for model-backed jobs
const QueueAssist = "assist"

// TaskType maps an assist operation to its task type
func TaskType(op string) (string, bool) {
	switch op {
	case assist.OpAnalyzePost:
		return TypeAnalyzePost, true
	case assist.OpImprovePost:
		return TypeImprovePost, true
	}
	return "", false
}

// AssistPayload represents the payload for a queued assist job
type AssistPayload struct {
	JobID    string             `json:"job_id"`
	UserID   int64              `json:"user_id"`
	Request  assist.PostRequest `json:"request"`
	// Tracing and timing fields
	TraceID    string `json:"trace_id,omitempty"`
	SpanID     string `json:"span_id,omitempty"`
	EnqueuedAt int64  `json:"enqueued_at"` // Unix timestamp in nanoseconds
}

// Client wraps the Asynq client for enqueueing tasks
type Client struct {
	client *asynq.Client
}

// ClientConfig contains configuration for the queue client
type ClientConfig struct {
	RedisAddr string
}

// NewClient creates a new queue client
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr}),
	}
}

// NewAssistTask builds the task for an assist job, capturing the caller's
// trace context in the payload
func NewAssistTask(ctx context.Context, op, jobID string, userID int64, req assist.PostRequest) (*asynq.Task, error) {
	taskType, ok := TaskType(op)
	if !ok {
		return nil, fmt.Errorf("operation %q cannot be queued", op)
	}

	payload := AssistPayload{
		JobID:      jobID,
		UserID:     userID,
		Request:    req,
		EnqueuedAt: time.Now().UnixNano(),
	}

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		payload.TraceID = spanCtx.TraceID().String()
		payload.SpanID = spanCtx.SpanID().String()

		span.AddEvent("task_enqueued", trace.WithAttributes(
			attribute.String("task.type", taskType),
			attribute.String("task.id", jobID),
			attribute.Int64("enqueued_at", payload.EnqueuedAt),
		))
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task payload: %w", err)
	}

	return asynq.NewTask(taskType, payloadBytes, asynq.TaskID(jobID)), nil
}

// EnqueueAssist enqueues an assist job and returns the task ID
func (c *Client) EnqueueAssist(ctx context.Context, op, jobID string, userID int64, req assist.PostRequest) (string, error) {
	task, err := NewAssistTask(ctx, op, jobID, userID, req)
	if err != nil {
		return "", err
	}

	opts := []asynq.Option{
		asynq.MaxRetry(5),
		asynq.Timeout(5 * time.Minute),
		asynq.Queue(QueueAssist),
		asynq.Retention(24 * time.Hour),
	}

	info, err := c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue %s task: %w", op, err)
	}
	return info.ID, nil
}

// Close closes the client connection
func (c *Client) Close() error {
	return c.client.Close()
}
