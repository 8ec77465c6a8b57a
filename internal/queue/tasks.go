package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zombar/wordwise/internal/assist"
	"github.com/zombar/wordwise/internal/metrics"
	"github.com/zombar/wordwise/internal/models"
	"github.com/zombar/wordwise/internal/tracing"
)

// JobStore persists job progress
type JobStore interface {
	UpdateJob(ctx context.Context, id, status, result, errMsg string) error
}

// Assistant runs the queued assist operations
type Assistant interface {
	AnalyzePost(ctx context.Context, req assist.PostRequest) (assist.PostAnalysis, error)
	ImprovePost(ctx context.Context, req assist.PostRequest) (assist.PostImprovements, error)
}

// Processor handles assist tasks and records their outcome in the job store
type Processor struct {
	store   JobStore
	svc     Assistant
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewProcessor creates a Processor. m may be nil.
func NewProcessor(store JobStore, svc Assistant, m *metrics.Metrics, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{store: store, svc: svc, metrics: m, logger: logger}
}

// Register adds the task handlers to mux
func (p *Processor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeAnalyzePost, p.HandleAssist)
	mux.HandleFunc(TypeImprovePost, p.HandleAssist)
}

// HandleAssist runs one assist task. Unavailable backends are retried while
// attempts remain; every other failure is final.
func (p *Processor) HandleAssist(ctx context.Context, t *asynq.Task) error {
	var payload AssistPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		p.logger.Error("failed to unmarshal task payload", "error", err)
		p.metrics.TaskProcessed(t.Type(), "invalid")
		return fmt.Errorf("invalid task payload: %v: %w", err, asynq.SkipRetry)
	}

	retryCount, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	var queueWaitTime time.Duration
	if payload.EnqueuedAt > 0 {
		queueWaitTime = time.Since(time.Unix(0, payload.EnqueuedAt))
	}

	ctx, span := startTaskSpan(ctx, t.Type(), payload, retryCount, queueWaitTime)
	defer span.End()

	p.logger.InfoContext(ctx, "processing assist job",
		"job_id", payload.JobID,
		"task_type", t.Type(),
		"retry_count", retryCount,
		"max_retries", maxRetry,
		"queue_wait_seconds", queueWaitTime.Seconds(),
	)

	if err := p.store.UpdateJob(ctx, payload.JobID, models.JobProcessing, "", ""); err != nil {
		return fmt.Errorf("failed to mark job processing: %w", err)
	}

	result, err := p.run(ctx, t.Type(), payload.Request)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		if assist.IsUnavailable(err) && retryCount < maxRetry {
			// back to queued; asynq schedules the retry
			if uerr := p.store.UpdateJob(ctx, payload.JobID, models.JobQueued, "", assist.PublicMessage(err)); uerr != nil {
				p.logger.ErrorContext(ctx, "failed to update job", "job_id", payload.JobID, "error", uerr)
			}
			p.metrics.TaskProcessed(t.Type(), "retry")
			return err
		}

		if uerr := p.store.UpdateJob(ctx, payload.JobID, models.JobFailed, "", assist.PublicMessage(err)); uerr != nil {
			return fmt.Errorf("failed to mark job failed: %w", uerr)
		}
		p.metrics.TaskProcessed(t.Type(), "failed")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if err := p.store.UpdateJob(ctx, payload.JobID, models.JobCompleted, string(result), ""); err != nil {
		return fmt.Errorf("failed to store job result: %w", err)
	}
	span.SetStatus(codes.Ok, "")
	p.metrics.TaskProcessed(t.Type(), "completed")
	p.logger.InfoContext(ctx, "assist job completed", "job_id", payload.JobID)
	return nil
}

// run dispatches to the assist operation and encodes its result
func (p *Processor) run(ctx context.Context, taskType string, req assist.PostRequest) ([]byte, error) {
	var (
		out any
		err error
	)
	switch taskType {
	case TypeAnalyzePost:
		out, err = p.svc.AnalyzePost(ctx, req)
	case TypeImprovePost:
		out, err = p.svc.ImprovePost(ctx, req)
	default:
		return nil, errors.New("unknown task type " + taskType)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// startTaskSpan continues the enqueuing request's trace when the payload
// carries one, otherwise it annotates the current span
func startTaskSpan(ctx context.Context, taskType string, payload AssistPayload, retryCount int, wait time.Duration) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("task.type", taskType),
		attribute.String("job.id", payload.JobID),
		attribute.Int("text.length", len(payload.Request.Text)),
		attribute.Int("retry_count", retryCount),
		attribute.Float64("queue.wait_time_seconds", wait.Seconds()),
		attribute.Int64("enqueued_at", payload.EnqueuedAt),
	}

	if payload.TraceID != "" && payload.SpanID != "" {
		traceID, terr := trace.TraceIDFromHex(payload.TraceID)
		spanID, serr := trace.SpanIDFromHex(payload.SpanID)
		if terr == nil && serr == nil {
			remoteSpanCtx := trace.NewSpanContext(trace.SpanContextConfig{
				TraceID:    traceID,
				SpanID:     spanID,
				TraceFlags: trace.FlagsSampled,
				Remote:     true,
			})
			ctx = trace.ContextWithRemoteSpanContext(ctx, remoteSpanCtx)

			ctx, span := otel.Tracer(tracing.TracerName).Start(ctx, "asynq.task.process",
				trace.WithSpanKind(trace.SpanKindConsumer),
				trace.WithAttributes(attrs...),
			)
			span.AddEvent("task_processing_started", trace.WithAttributes(
				attribute.Float64("wait_time_seconds", wait.Seconds()),
			))
			return ctx, span
		}
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		span.SetAttributes(attrs...)
	}
	// the caller owns the existing span; hand back a non-recording one to end
	return ctx, trace.SpanFromContext(context.Background())
}
