// Package analyzer runs the writing analyzers over a text and merges their
// output into one ordered suggestion list.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/zombar/wordwise/internal/metrics"
	"github.com/zombar/wordwise/internal/models"
	"github.com/zombar/wordwise/internal/tracing"
)

// Stage names, in dispatch order
const (
	StageGrammar     = "grammar"
	StageReadability = "readability"
	StagePassive     = "passive_voice"
	StageTone        = "tone"
	StageSEO         = "seo"
)

// Request is the input of one analysis pass
type Request struct {
	Text       string
	Platform   string
	Field      string
	Analyzers  models.AnalyzerConfig
	Dictionary []string
}

// Analyzer performs text analysis. Collaborators left nil disable the
// analyzers that depend on them.
type Analyzer struct {
	grammar  GrammarChecker
	emotion  EmotionClassifier
	parser   SentenceParser
	parallel bool
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithGrammarChecker enables the grammar analyzer
func WithGrammarChecker(c GrammarChecker) Option {
	return func(a *Analyzer) { a.grammar = c }
}

// WithEmotionClassifier enables the tone analyzer
func WithEmotionClassifier(c EmotionClassifier) Option {
	return func(a *Analyzer) { a.emotion = c }
}

// WithSentenceParser enables passive voice detection
func WithSentenceParser(p SentenceParser) Option {
	return func(a *Analyzer) { a.parser = p }
}

// WithParallel runs stages concurrently. Output order is unaffected.
func WithParallel(parallel bool) Option {
	return func(a *Analyzer) { a.parallel = parallel }
}

// WithLogger sets the logger used for stage failures
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithMetrics records stage timings and failures
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// New creates a new Analyzer
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		parallel: true,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Available reports which analyzers can run in this process
func (a *Analyzer) Available() map[string]bool {
	return map[string]bool{
		StageGrammar:     a.grammar != nil,
		StageReadability: true,
		StagePassive:     a.parser != nil,
		StageTone:        a.emotion != nil,
		StageSEO:         true,
	}
}

type stage struct {
	name string
	run  func(ctx context.Context) ([]models.Suggestion, error)
}

// Analyze runs every enabled analyzer over req.Text. Suggestions are ordered
// grammar, readability, passive voice, tone, then SEO. A failing analyzer
// contributes nothing and never fails the request.
func (a *Analyzer) Analyze(ctx context.Context, req Request) models.AnalysisResult {
	ctx, span := tracing.StartSpan(ctx, "analyzer.analyze",
		attribute.Int("text.length", len(req.Text)),
		attribute.String("platform", req.Platform),
		attribute.String("field", req.Field),
	)
	defer span.End()

	stages := a.plan(req)
	slots := make([][]models.Suggestion, len(stages))

	if a.parallel {
		var g errgroup.Group
		for i, st := range stages {
			g.Go(func() error {
				slots[i] = a.runStage(ctx, st)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, st := range stages {
			slots[i] = a.runStage(ctx, st)
		}
	}

	suggestions := make([]models.Suggestion, 0)
	for _, slot := range slots {
		suggestions = append(suggestions, slot...)
	}

	result := models.AnalysisResult{Suggestions: suggestions}
	for _, t := range []models.SuggestionType{models.TypeGrammar, models.TypeReadability, models.TypeStyle, models.TypeEmotion, models.TypeSEO} {
		a.metrics.AddSuggestions(string(t), result.Count(t))
	}
	span.SetAttributes(attribute.Int("suggestions.count", len(suggestions)))
	return result
}

// plan lists the stages to run for req, in output order
func (a *Analyzer) plan(req Request) []stage {
	cfg := req.Analyzers
	text := req.Text

	var idx *OffsetIndex
	offsets := func() *OffsetIndex {
		if idx == nil {
			idx = NewOffsetIndex(text)
		}
		return idx
	}

	var stages []stage

	if cfg.GrammarEnabled() && a.grammar != nil {
		dict := dictionarySet(req.Dictionary)
		ix := offsets()
		stages = append(stages, stage{StageGrammar, func(ctx context.Context) ([]models.Suggestion, error) {
			matches, err := a.grammar.Check(ctx, text)
			if err != nil {
				return nil, err
			}
			return grammarSuggestions(matches, []rune(text), dict, ix), nil
		}})
	}

	if cfg.StyleEnabled() {
		stages = append(stages, stage{StageReadability, func(context.Context) ([]models.Suggestion, error) {
			if s, ok := readabilitySuggestion(text); ok {
				return []models.Suggestion{s}, nil
			}
			return nil, nil
		}})
		if a.parser != nil {
			ix := offsets()
			stages = append(stages, stage{StagePassive, func(context.Context) ([]models.Suggestion, error) {
				return passiveSuggestions(a.parser, text, ix), nil
			}})
		}
	}

	if cfg.ToneEnabled() && a.emotion != nil {
		stages = append(stages, stage{StageTone, func(ctx context.Context) ([]models.Suggestion, error) {
			return emotionSuggestions(ctx, a.emotion, text)
		}})
	}

	if cfg.SEOEnabled() {
		stages = append(stages, stage{StageSEO, func(context.Context) ([]models.Suggestion, error) {
			return seoSuggestions(text, req.Platform, req.Field), nil
		}})
	}

	return stages
}

// runStage executes one analyzer, converting errors and panics into an
// empty contribution
func (a *Analyzer) runStage(ctx context.Context, st stage) (out []models.Suggestion) {
	ctx, span := tracing.StartSpan(ctx, "analyzer."+st.name)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			a.fail(ctx, st.name, fmt.Errorf("panic: %v", r))
			span.SetStatus(codes.Error, "panic")
			out = nil
		}
		a.metrics.ObserveAnalyzer(st.name, time.Since(start))
		span.End()
	}()

	res, err := st.run(ctx)
	if err != nil {
		a.fail(ctx, st.name, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil
	}
	span.SetAttributes(attribute.Int("suggestions.count", len(res)))
	return res
}

func (a *Analyzer) fail(ctx context.Context, name string, err error) {
	a.metrics.AnalyzerFailed(name)
	a.logger.WarnContext(ctx, "analyzer failed, skipping",
		"analyzer", name,
		"error", err,
	)
}
