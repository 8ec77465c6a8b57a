// Package emotion provides emotion classifiers for the tone analyzer.
package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/zombar/wordwise/internal/models"
)

// DefaultTimeout bounds a single classification request
const DefaultTimeout = 30 * time.Second

// HFClient calls a Hugging Face style text-classification endpoint, for
// example a local inference server hosting SamLowe/roberta-base-go_emotions.
type HFClient struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewHFClient creates a client for the given endpoint. token is sent as a
// bearer token when non-empty.
func NewHFClient(endpoint, token string) (*HFClient, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid emotion endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid emotion endpoint %q: scheme must be http or https", endpoint)
	}

	return &HFClient{
		endpoint: u.String(),
		token:    token,
		client: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfParameters struct {
	TopK int `json:"top_k"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// goEmotionsLabels is the size of the go_emotions label set
const goEmotionsLabels = 28

// Classify returns a score for every label the model reports
func (c *HFClient) Classify(ctx context.Context, text string) ([]models.EmotionScore, error) {
	body, err := json.Marshal(hfRequest{
		Inputs:     text,
		Parameters: hfParameters{TopK: goEmotionsLabels},
		Options:    hfOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("emotion request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("emotion endpoint returned %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	return parseScores(data)
}

// parseScores accepts both the nested [[...]] shape returned for a single
// input and a flat [...] list
func parseScores(data []byte) ([]models.EmotionScore, error) {
	var nested [][]models.EmotionScore
	if err := json.Unmarshal(data, &nested); err == nil {
		if len(nested) == 0 {
			return nil, nil
		}
		return nested[0], nil
	}

	var flat []models.EmotionScore
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("failed to parse emotion response: %w", err)
	}
	return flat, nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
