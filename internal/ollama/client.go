package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zombar/wordwise/internal/tracing"
)

const (
	DefaultURL         = "http://localhost:11434"
	DefaultModel       = "llama3.1:8b"
	DefaultVisionModel = "llava"
	DefaultTimeout     = 120 * time.Second
)

// Client wraps the Ollama API client
type Client struct {
	client      *api.Client
	model       string
	visionModel string
	timeout     time.Duration
	logger      *slog.Logger
}

// New creates a new Ollama client
func New(ollamaURL, model, visionModel string) (*Client, error) {
	if ollamaURL == "" {
		ollamaURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	if visionModel == "" {
		visionModel = DefaultVisionModel
	}

	baseURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	httpClient := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}

	return &Client{
		client:      api.NewClient(baseURL, httpClient),
		model:       model,
		visionModel: visionModel,
		timeout:     DefaultTimeout,
		logger:      slog.Default().With("component", "ollama"),
	}, nil
}

// Model returns the text model name
func (c *Client) Model() string {
	return c.model
}

// Ping checks that the Ollama server is up
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama heartbeat failed: %w", err)
	}
	return nil
}

// GenerateResponse generates a response from the text model
func (c *Client) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, &api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: new(bool),
	})
}

// GenerateWithImages generates a response from the vision model with the
// given images attached
func (c *Client) GenerateWithImages(ctx context.Context, prompt string, images [][]byte) (string, error) {
	data := make([]api.ImageData, 0, len(images))
	for _, img := range images {
		data = append(data, api.ImageData(img))
	}
	return c.generate(ctx, &api.GenerateRequest{
		Model:  c.visionModel,
		Prompt: prompt,
		Images: data,
		Stream: new(bool),
	})
}

func (c *Client) generate(ctx context.Context, req *api.GenerateRequest) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "ollama.generate",
		attribute.String("ollama.model", req.Model),
		attribute.Int("prompt.length", len(req.Prompt)),
		attribute.Int("images.count", len(req.Images)),
	)
	defer span.End()

	c.logger.DebugContext(ctx, "sending generate request", "model", req.Model, "timeout", c.timeout)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var response strings.Builder
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		response.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		c.logger.WarnContext(ctx, "generation failed", "model", req.Model, "error", err)
		return "", fmt.Errorf("generation failed: %w", err)
	}

	result := strings.TrimSpace(response.String())
	c.logger.DebugContext(ctx, "response received",
		"model", req.Model,
		"chars", len(result),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// ExtractJSONObject decodes the first {...} block of an LLM response into v
func ExtractJSONObject(response string, v any) error {
	return extractJSON(response, "{", "}", v)
}

// ExtractJSONArray decodes the first [...] block of an LLM response into v
func ExtractJSONArray(response string, v any) error {
	return extractJSON(response, "[", "]", v)
}

func extractJSON(response, opening, closing string, v any) error {
	start := strings.Index(response, opening)
	end := strings.LastIndex(response, closing)
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON %s...%s found in response", opening, closing)
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}
