package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zombar/wordwise/internal/assist"
)

func TestTaskType(t *testing.T) {
	tests := []struct {
		op       string
		expected string
		ok       bool
	}{
		{assist.OpAnalyzePost, TypeAnalyzePost, true},
		{assist.OpImprovePost, TypeImprovePost, true},
		{assist.OpCaptions, "", false},
		{"bogus", "", false},
	}

	for _, tt := range tests {
		got, ok := TaskType(tt.op)
		assert.Equal(t, tt.expected, got, tt.op)
		assert.Equal(t, tt.ok, ok, tt.op)
	}
}

func TestNewAssistTask(t *testing.T) {
	req := assist.PostRequest{Text: "Big launch today #ai", Platform: "linkedin"}

	task, err := NewAssistTask(context.Background(), assist.OpAnalyzePost, "job-1", 7, req)
	require.NoError(t, err)
	assert.Equal(t, TypeAnalyzePost, task.Type())

	var payload AssistPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "job-1", payload.JobID)
	assert.Equal(t, int64(7), payload.UserID)
	assert.Equal(t, req, payload.Request)
	assert.Empty(t, payload.TraceID, "no span in context")
	assert.InDelta(t, time.Now().UnixNano(), payload.EnqueuedAt, float64(time.Minute))

	_, err = NewAssistTask(context.Background(), assist.OpCaptions, "job-2", 7, req)
	assert.Error(t, err)
}

func TestRetryDelay(t *testing.T) {
	task := asynq.NewTask(TypeAnalyzePost, nil)
	err := errors.New("connection refused")

	tests := []struct {
		retry    int
		expected time.Duration
	}{
		{0, 30 * time.Second},
		{1, time.Minute},
		{2, 2 * time.Minute},
		{4, 10 * time.Minute},
		{20, 10 * time.Minute},
	}

	for _, tt := range tests {
		if got := retryDelay(tt.retry, err, task); got != tt.expected {
			t.Errorf("Expected delay %v for retry %d, got %v", tt.expected, tt.retry, got)
		}
	}
}
