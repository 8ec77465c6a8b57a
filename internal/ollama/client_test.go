package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name          string
		ollamaURL     string
		model         string
		expectError   bool
		expectedModel string
	}{
		{
			name:          "default values",
			expectedModel: DefaultModel,
		},
		{
			name:          "custom URL and model",
			ollamaURL:     "http://custom-ollama:11434",
			model:         "llama3.2",
			expectedModel: "llama3.2",
		},
		{
			name:        "invalid URL",
			ollamaURL:   "://invalid-url",
			model:       "test",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.ollamaURL, tt.model, "")

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if client.model != tt.expectedModel {
				t.Errorf("Expected model %s, got %s", tt.expectedModel, client.model)
			}
			if client.visionModel != DefaultVisionModel {
				t.Errorf("Expected vision model %s, got %s", DefaultVisionModel, client.visionModel)
			}
			if client.timeout != DefaultTimeout {
				t.Errorf("Expected timeout %v, got %v", DefaultTimeout, client.timeout)
			}
		})
	}
}

// fakeOllama serves /api/generate and records the last request body
func fakeOllama(t *testing.T, reply string) (*httptest.Server, *map[string]any) {
	t.Helper()
	var last map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&last))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"model":    last["model"],
			"response": reply,
			"done":     true,
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Ollama is running"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &last
}

func TestGenerateResponse(t *testing.T) {
	server, last := fakeOllama(t, "  hello there \n")

	client, err := New(server.URL, "test-model", "")
	require.NoError(t, err)

	out, err := client.GenerateResponse(context.Background(), "say hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", out)
	assert.Equal(t, "test-model", (*last)["model"])
	assert.Equal(t, "say hi", (*last)["prompt"])
	assert.Equal(t, false, (*last)["stream"])
}

func TestGenerateWithImages(t *testing.T) {
	server, last := fakeOllama(t, "A cat on a sofa")

	client, err := New(server.URL, "", "vision-model")
	require.NoError(t, err)

	out, err := client.GenerateWithImages(context.Background(), "describe", [][]byte{[]byte("img")})
	require.NoError(t, err)
	assert.Equal(t, "A cat on a sofa", out)
	assert.Equal(t, "vision-model", (*last)["model"])

	images, ok := (*last)["images"].([]any)
	require.True(t, ok)
	assert.Len(t, images, 1)
}

func TestPing(t *testing.T) {
	server, _ := fakeOllama(t, "")
	client, err := New(server.URL, "", "")
	require.NoError(t, err)
	assert.NoError(t, client.Ping(context.Background()))

	down, err := New("http://127.0.0.1:1", "", "")
	require.NoError(t, err)
	assert.Error(t, down.Ping(context.Background()))
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		expectError bool
	}{
		{"bare object", `{"summary":"ok"}`, false},
		{"prefix text", "Here is the analysis:\n{\"summary\":\"ok\"}", false},
		{"markdown fence", "```json\n{\"summary\":\"ok\"}\n```", false},
		{"no object", "No JSON here", true},
		{"invalid", `{"summary": `, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v struct {
				Summary string `json:"summary"`
			}
			err := ExtractJSONObject(tt.response, &v)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ok", v.Summary)
		})
	}

	var tags []string
	require.NoError(t, ExtractJSONArray(`Tags: ["a", "b"]`, &tags))
	assert.Equal(t, []string{"a", "b"}, tags)
}

func TestPrompts(t *testing.T) {
	p, err := ToneAdjustPrompt(ToneAdjustInput{Text: "We launched!", Tone: "playful", Examples: []string{"Big news, friends"}})
	require.NoError(t, err)
	assert.Contains(t, p, "sounds playful")
	assert.Contains(t, p, "- Big news, friends")
	assert.True(t, strings.HasSuffix(p, "Versions:"))

	p, err = ToneAdjustPrompt(ToneAdjustInput{Text: "We launched!", Tone: "formal"})
	require.NoError(t, err)
	assert.NotContains(t, p, "liked these examples")

	p, err = AnalyzePostPrompt(PostInput{Text: "post", Platform: "linkedin", Hashtags: []string{"#ai", "#go"}})
	require.NoError(t, err)
	assert.Contains(t, p, "linkedin post")
	assert.Contains(t, p, "Hashtags: #ai, #go")
	assert.NotContains(t, p, "Mentions:")

	p, err = ImprovePostPrompt(PostInput{Text: "post"})
	require.NoError(t, err)
	assert.Contains(t, p, "engagement_suggestions")

	p, err = CaptionPrompt(CaptionInput{Platform: "instagram", Keywords: "summer, beach"})
	require.NoError(t, err)
	assert.Contains(t, p, "for a instagram post")
	assert.Contains(t, p, "summer, beach")
}
