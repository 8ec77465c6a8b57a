// Package assist implements the AI writing helpers: tone adjustment, post
// analysis, post improvement and image captions.
//
// Every operation is the error boundary for its model call. Failures come
// back as *Error matching ErrServiceUnavailable, ErrGenerationFailed or
// ErrInvalidInput, together with a safe empty result.
package assist

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/zombar/wordwise/internal/metrics"
	"github.com/zombar/wordwise/internal/ollama"
	"github.com/zombar/wordwise/internal/tracing"
)

// Operation names, used in errors, metrics and queued jobs
const (
	OpToneAdjust  = "tone_adjust"
	OpAnalyzePost = "analyze_post"
	OpImprovePost = "improve_post"
	OpCaptions    = "captions"
)

const (
	defaultTone  = "professional"
	maxVariants  = 4
	minVariants  = 3
	maxCaptions  = 3
	maxTextRunes = 5000
)

// Generator produces model completions
type Generator interface {
	GenerateResponse(ctx context.Context, prompt string) (string, error)
	GenerateWithImages(ctx context.Context, prompt string, images [][]byte) (string, error)
}

// Service runs assist operations against a Generator
type Service struct {
	gen     Generator
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a new Service. m may be nil.
func New(gen Generator, logger *slog.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gen: gen, logger: logger, metrics: m}
}

// ToneRequest asks for rewrites of Text in the given Tone
type ToneRequest struct {
	Text     string   `json:"text"`
	Tone     string   `json:"tone"`
	Examples []string `json:"-"`
}

// ToneResult holds the rewritten variants
type ToneResult struct {
	Variants []string `json:"variants"`
}

// PostRequest describes a published or draft post
type PostRequest struct {
	Text     string   `json:"post_text"`
	Platform string   `json:"platform"`
	Hashtags []string `json:"hashtags"`
	Mentions []string `json:"mentions"`
}

// PostAnalysis explains how a post performs
type PostAnalysis struct {
	Summary         string   `json:"summary"`
	KeyFactors      []string `json:"key_factors"`
	Recommendations []string `json:"recommendations"`
}

// PostImprovements lists suggested edits by area
type PostImprovements struct {
	EngagementSuggestions []string `json:"engagement_suggestions"`
	ClaritySuggestions    []string `json:"clarity_suggestions"`
	StructureSuggestions  []string `json:"structure_suggestions"`
}

// CaptionRequest asks for captions of an uploaded image
type CaptionRequest struct {
	Image    []byte
	Platform string
	Keywords string
}

// CaptionResult holds the generated captions
type CaptionResult struct {
	Captions []string `json:"captions"`
}

// AdjustTone rewrites text in the requested tone, returning 3 or 4 variants
func (s *Service) AdjustTone(ctx context.Context, req ToneRequest) (ToneResult, error) {
	empty := ToneResult{Variants: []string{}}

	text := strings.TrimSpace(req.Text)
	if err := checkText(OpToneAdjust, text); err != nil {
		return empty, err
	}
	tone := strings.TrimSpace(req.Tone)
	if tone == "" {
		tone = defaultTone
	}

	prompt, err := ollama.ToneAdjustPrompt(ollama.ToneAdjustInput{Text: text, Tone: tone, Examples: req.Examples})
	if err != nil {
		return empty, s.fail(ctx, OpToneAdjust, err)
	}

	response, err := s.call(ctx, OpToneAdjust, func(ctx context.Context) (string, error) {
		return s.gen.GenerateResponse(ctx, prompt)
	})
	if err != nil {
		return empty, err
	}

	variants := cleanLines(response, maxVariants)
	if len(variants) < minVariants {
		s.logger.WarnContext(ctx, "model returned too few variants", "count", len(variants))
		if len(variants) == 0 {
			return empty, s.fail(ctx, OpToneAdjust, errEmptyResponse)
		}
	}
	s.metrics.AssistRequest(OpToneAdjust, "ok")
	return ToneResult{Variants: variants}, nil
}

// AnalyzePost summarizes what drives a post's performance
func (s *Service) AnalyzePost(ctx context.Context, req PostRequest) (PostAnalysis, error) {
	empty := PostAnalysis{KeyFactors: []string{}, Recommendations: []string{}}

	text := strings.TrimSpace(req.Text)
	if err := checkText(OpAnalyzePost, text); err != nil {
		return empty, err
	}

	in := ollama.PostInput{
		Text:     text,
		Platform: req.Platform,
		Hashtags: req.Hashtags,
		Mentions: req.Mentions,
	}
	if in.Hashtags == nil {
		in.Hashtags = hashtagPattern.FindAllString(text, -1)
	}
	if in.Mentions == nil {
		in.Mentions = mentionPattern.FindAllString(text, -1)
	}

	prompt, err := ollama.AnalyzePostPrompt(in)
	if err != nil {
		return empty, s.fail(ctx, OpAnalyzePost, err)
	}

	response, err := s.call(ctx, OpAnalyzePost, func(ctx context.Context) (string, error) {
		return s.gen.GenerateResponse(ctx, prompt)
	})
	if err != nil {
		return empty, err
	}

	var out PostAnalysis
	if err := ollama.ExtractJSONObject(response, &out); err != nil {
		return empty, s.fail(ctx, OpAnalyzePost, err)
	}
	out.KeyFactors = nonNil(out.KeyFactors)
	out.Recommendations = nonNil(out.Recommendations)
	s.metrics.AssistRequest(OpAnalyzePost, "ok")
	return out, nil
}

// ImprovePost suggests engagement, clarity and structure edits
func (s *Service) ImprovePost(ctx context.Context, req PostRequest) (PostImprovements, error) {
	empty := PostImprovements{
		EngagementSuggestions: []string{},
		ClaritySuggestions:    []string{},
		StructureSuggestions:  []string{},
	}

	text := strings.TrimSpace(req.Text)
	if err := checkText(OpImprovePost, text); err != nil {
		return empty, err
	}

	prompt, err := ollama.ImprovePostPrompt(ollama.PostInput{Text: text, Platform: req.Platform})
	if err != nil {
		return empty, s.fail(ctx, OpImprovePost, err)
	}

	response, err := s.call(ctx, OpImprovePost, func(ctx context.Context) (string, error) {
		return s.gen.GenerateResponse(ctx, prompt)
	})
	if err != nil {
		return empty, err
	}

	var out PostImprovements
	if err := ollama.ExtractJSONObject(response, &out); err != nil {
		return empty, s.fail(ctx, OpImprovePost, err)
	}
	out.EngagementSuggestions = nonNil(out.EngagementSuggestions)
	out.ClaritySuggestions = nonNil(out.ClaritySuggestions)
	out.StructureSuggestions = nonNil(out.StructureSuggestions)
	s.metrics.AssistRequest(OpImprovePost, "ok")
	return out, nil
}

// GenerateCaptions writes captions for an image. The upload is validated
// before the model is called.
func (s *Service) GenerateCaptions(ctx context.Context, req CaptionRequest) (CaptionResult, error) {
	empty := CaptionResult{Captions: []string{}}

	format, err := ValidateImage(req.Image)
	if err != nil {
		s.metrics.AssistRequest(OpCaptions, "invalid")
		return empty, err
	}
	tracing.SetSpanAttributes(ctx, attribute.String("image.format", format))

	prompt, err := ollama.CaptionPrompt(ollama.CaptionInput{
		Platform: strings.TrimSpace(req.Platform),
		Keywords: strings.TrimSpace(req.Keywords),
	})
	if err != nil {
		return empty, s.fail(ctx, OpCaptions, err)
	}

	response, err := s.call(ctx, OpCaptions, func(ctx context.Context) (string, error) {
		return s.gen.GenerateWithImages(ctx, prompt, [][]byte{req.Image})
	})
	if err != nil {
		return empty, err
	}

	captions := cleanLines(response, maxCaptions)
	if len(captions) == 0 {
		return empty, s.fail(ctx, OpCaptions, errEmptyResponse)
	}
	s.metrics.AssistRequest(OpCaptions, "ok")
	return CaptionResult{Captions: captions}, nil
}

// call runs one model request inside a span and classifies its error
func (s *Service) call(ctx context.Context, op string, fn func(context.Context) (string, error)) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "assist."+op)
	defer span.End()

	response, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", s.fail(ctx, op, err)
	}
	return response, nil
}

// fail logs err and wraps it as unavailable or failed
func (s *Service) fail(ctx context.Context, op string, err error) error {
	kind, outcome := ErrGenerationFailed, "failed"
	if IsUnavailable(err) {
		kind, outcome = ErrServiceUnavailable, "unavailable"
	}
	s.metrics.AssistRequest(op, outcome)
	s.logger.ErrorContext(ctx, "assist operation failed",
		"operation", op,
		"outcome", outcome,
		"error", err,
	)
	return &Error{Op: op, Kind: kind, Err: err}
}

func checkText(op, text string) error {
	if text == "" {
		return invalid(op, "Text is required.")
	}
	if len([]rune(text)) > maxTextRunes {
		return invalid(op, "Text is too long.")
	}
	return nil
}

var (
	errEmptyResponse = &Error{Op: "parse", Kind: ErrGenerationFailed, Message: "model returned no usable lines"}

	hashtagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	mentionPattern = regexp.MustCompile(`@[\p{L}\p{N}_]+`)

	listMarkerPattern = regexp.MustCompile(`^\s*(?:\(?\d+[.):]\s+|[-*•]+\s*|(?i:version|option|caption)\s*\d+\s*[:.)-]\s*)`)
)

// CleanVariant strips list numbering, bullets and surrounding quotes from a
// generated line
func CleanVariant(line string) string {
	line = strings.TrimSpace(line)
	line = listMarkerPattern.ReplaceAllString(line, "")
	line = strings.Trim(line, "*")
	line = strings.TrimSpace(line)
	line = strings.Trim(line, "\"'“”‘’")
	return strings.TrimSpace(line)
}

// cleanLines turns a model response into at most limit cleaned lines,
// skipping blanks and headings
func cleanLines(response string, limit int) []string {
	out := make([]string, 0, limit)
	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasSuffix(trimmed, ":") {
			continue
		}
		if v := CleanVariant(trimmed); v != "" {
			out = append(out, v)
		}
		if len(out) == limit {
			break
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
