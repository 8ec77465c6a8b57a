package assist

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
	images   int
}

func (f *fakeGenerator) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fakeGenerator) GenerateWithImages(ctx context.Context, prompt string, images [][]byte) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.images += len(images)
	return f.response, f.err
}

var errRefused = errors.New(`Post "http://localhost:11434/api/generate": dial tcp 127.0.0.1:11434: connect: connection refused`)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAdjustTone(t *testing.T) {
	gen := &fakeGenerator{response: "Here are some versions:\n1. \"We shipped it!\"\n2) Big news: it's live.\n- 'Launch day is here'\n\n* Guess what? We launched.\n5. One too many"}
	svc := New(gen, nil, nil)

	result, err := svc.AdjustTone(context.Background(), ToneRequest{
		Text:     "We launched the product",
		Tone:     "excited",
		Examples: []string{"So thrilled to share this"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"We shipped it!",
		"Big news: it's live.",
		"Launch day is here",
		"Guess what? We launched.",
	}, result.Variants)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "So thrilled to share this")
}

func TestAdjustToneDefaultsTone(t *testing.T) {
	gen := &fakeGenerator{response: "a\nb\nc"}
	_, err := New(gen, nil, nil).AdjustTone(context.Background(), ToneRequest{Text: "hello"})
	require.NoError(t, err)
	assert.Contains(t, gen.prompts[0], "sounds professional")
}

func TestAssistErrors(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
		want error
	}{
		{"connection refused", &fakeGenerator{err: errRefused}, ErrServiceUnavailable},
		{"model error", &fakeGenerator{err: errors.New(`model "llama3.1:8b" not found, try pulling it first`)}, ErrGenerationFailed},
		{"empty response", &fakeGenerator{response: "   \n"}, ErrGenerationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := New(tt.gen, nil, nil).AdjustTone(context.Background(), ToneRequest{Text: "hello", Tone: "formal"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.NotNil(t, result.Variants)
			assert.Empty(t, result.Variants)
		})
	}
}

func TestAnalyzePost(t *testing.T) {
	gen := &fakeGenerator{response: "Sure!\n```json\n{\"summary\": \"Strong hook.\", \"key_factors\": [\"question opener\"], \"recommendations\": [\"add a call to action\"]}\n```"}
	svc := New(gen, nil, nil)

	out, err := svc.AnalyzePost(context.Background(), PostRequest{
		Text:     "Ever wondered why? #growth @acme",
		Platform: "linkedin",
	})
	require.NoError(t, err)
	assert.Equal(t, "Strong hook.", out.Summary)
	assert.Equal(t, []string{"question opener"}, out.KeyFactors)
	assert.Equal(t, []string{"add a call to action"}, out.Recommendations)

	assert.Contains(t, gen.prompts[0], "Hashtags: #growth")
	assert.Contains(t, gen.prompts[0], "Mentions: @acme")
}

func TestAnalyzePostMalformed(t *testing.T) {
	gen := &fakeGenerator{response: "I cannot help with that."}
	out, err := New(gen, nil, nil).AnalyzePost(context.Background(), PostRequest{Text: "post"})

	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Equal(t, PostAnalysis{KeyFactors: []string{}, Recommendations: []string{}}, out)
}

func TestImprovePost(t *testing.T) {
	gen := &fakeGenerator{response: `{"engagement_suggestions": ["ask a question"], "clarity_suggestions": []}`}
	out, err := New(gen, nil, nil).ImprovePost(context.Background(), PostRequest{Text: "post"})
	require.NoError(t, err)

	assert.Equal(t, []string{"ask a question"}, out.EngagementSuggestions)
	assert.Equal(t, []string{}, out.ClaritySuggestions)
	assert.Equal(t, []string{}, out.StructureSuggestions)
}

func TestTextValidation(t *testing.T) {
	gen := &fakeGenerator{response: "x"}
	svc := New(gen, nil, nil)

	_, err := svc.ImprovePost(context.Background(), PostRequest{Text: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "Text is required.", PublicMessage(err))
	assert.Empty(t, gen.prompts)
}

func TestGenerateCaptions(t *testing.T) {
	gen := &fakeGenerator{response: "Caption 1: Sunset vibes\nCaption 2: Golden hour\nCaption 3: \"Beach days\"\nCaption 4: extra"}
	out, err := New(gen, nil, nil).GenerateCaptions(context.Background(), CaptionRequest{
		Image:    pngBytes(t),
		Platform: "instagram",
		Keywords: "summer",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Sunset vibes", "Golden hour", "Beach days"}, out.Captions)
	assert.Equal(t, 1, gen.images)
}

func TestGenerateCaptionsRejectsNonImage(t *testing.T) {
	gen := &fakeGenerator{response: "should not be used"}
	out, err := New(gen, nil, nil).GenerateCaptions(context.Background(), CaptionRequest{
		Image:    []byte("%PDF-1.4 this is a document, not a picture"),
		Platform: "instagram",
	})

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "File provided is not an image.", PublicMessage(err))
	assert.Empty(t, out.Captions)
	assert.Empty(t, gen.prompts, "generator must not be called")
	assert.Zero(t, gen.images)
}

func TestValidateImage(t *testing.T) {
	format, err := ValidateImage(pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	_, err = ValidateImage(nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	// valid PNG signature with a truncated body
	_, err = ValidateImage(pngBytes(t)[:12])
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCleanVariant(t *testing.T) {
	tests := map[string]string{
		`1. "Hello there"`:          "Hello there",
		"2) Hello":                  "Hello",
		"(3) Hello":                 "Hello",
		"- Hello":                   "Hello",
		"• Hello":                   "Hello",
		"**Hello**":                 "Hello",
		"Version 2: Hello":          "Hello",
		"“Curly quotes”":            "Curly quotes",
		"3.5 million users love it": "3.5 million users love it",
		"2024 was our best year":    "2024 was our best year",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanVariant(in), in)
	}
}

func TestIsUnavailable(t *testing.T) {
	assert.True(t, IsUnavailable(errRefused))
	assert.True(t, IsUnavailable(context.DeadlineExceeded))
	assert.True(t, IsUnavailable(&Error{Op: "x", Kind: ErrServiceUnavailable}))
	assert.False(t, IsUnavailable(errors.New("invalid character 'I' looking for beginning of value")))
	assert.False(t, IsUnavailable(nil))
}

func TestPublicMessageHidesCause(t *testing.T) {
	err := &Error{Op: OpCaptions, Kind: ErrGenerationFailed, Err: errors.New("internal stack detail")}
	assert.NotContains(t, PublicMessage(err), "internal stack detail")
}
