package analyzer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zombar/wordwise/internal/models"
	"github.com/zombar/wordwise/internal/syntax"
)

type fakeGrammar struct {
	matches []models.GrammarMatch
	err     error
	panics  bool
}

func (f *fakeGrammar) Check(ctx context.Context, text string) ([]models.GrammarMatch, error) {
	if f.panics {
		panic("checker crashed")
	}
	return f.matches, f.err
}

type fakeEmotion struct {
	scores []models.EmotionScore
	err    error
	calls  int
}

func (f *fakeEmotion) Classify(ctx context.Context, text string) ([]models.EmotionScore, error) {
	f.calls++
	return f.scores, f.err
}

func types(result models.AnalysisResult) []models.SuggestionType {
	out := make([]models.SuggestionType, 0, len(result.Suggestions))
	for _, s := range result.Suggestions {
		out = append(out, s.Type())
	}
	return out
}

func newTestAnalyzer(g GrammarChecker, e EmotionClassifier, parallel bool) *Analyzer {
	opts := []Option{WithSentenceParser(syntax.New()), WithParallel(parallel)}
	if g != nil {
		opts = append(opts, WithGrammarChecker(g))
	}
	if e != nil {
		opts = append(opts, WithEmotionClassifier(e))
	}
	return New(opts...)
}

const sampleText = "Teh report was finished by the team. We shipped it to every customer on time."

func sampleCollaborators() (*fakeGrammar, *fakeEmotion) {
	g := &fakeGrammar{matches: []models.GrammarMatch{
		{Offset: 0, Length: 3, Message: "Possible spelling mistake found.", Replacements: []string{"The"}, Category: "TYPOS", RuleID: "MORFOLOGIK_RULE_EN_US"},
		{Offset: 44, Length: 2, Message: "Second match", Category: "GRAMMAR", RuleID: "R2"},
	}}
	e := &fakeEmotion{scores: []models.EmotionScore{
		{Label: "neutral", Score: 0.4},
		{Label: "joy", Score: 0.7},
		{Label: "pride", Score: 0.3},
		{Label: "approval", Score: 0.26},
		{Label: "fear", Score: 0.01},
	}}
	return g, e
}

func TestAnalyzeOrdering(t *testing.T) {
	for _, parallel := range []bool{true, false} {
		g, e := sampleCollaborators()
		a := newTestAnalyzer(g, e, parallel)

		result := a.Analyze(context.Background(), Request{
			Text:     sampleText,
			Platform: "youtube",
			Field:    "description",
		})

		assert.Equal(t, []models.SuggestionType{
			models.TypeGrammar, models.TypeGrammar,
			models.TypeReadability,
			models.TypeStyle,
			models.TypeEmotion,
			models.TypeSEO,
		}, types(result), "parallel=%v", parallel)

		first := result.Suggestions[0].(models.GrammarSuggestion)
		assert.Equal(t, "MORFOLOGIK_RULE_EN_US", first.RuleID)
		assert.Equal(t, []string{}, result.Suggestions[1].(models.GrammarSuggestion).Replacements)

		style := result.Suggestions[3].(models.StyleSuggestion)
		assert.Equal(t, 0, style.Start)
		assert.Equal(t, 36, style.End)

		emotions := result.Suggestions[4].(models.EmotionSuggestion).Emotions
		assert.Equal(t, []models.EmotionScore{
			{Label: "joy", Score: 0.7},
			{Label: "neutral", Score: 0.4},
			{Label: "pride", Score: 0.3},
		}, emotions)
	}
}

func TestAnalyzeIsRepeatable(t *testing.T) {
	g, e := sampleCollaborators()
	a := newTestAnalyzer(g, e, true)
	req := Request{Text: sampleText, Platform: "youtube", Field: "description"}

	first := a.Analyze(context.Background(), req)
	second := a.Analyze(context.Background(), req)
	assert.Equal(t, first, second)
}

func TestAnalyzeConfigGating(t *testing.T) {
	tests := []struct {
		name string
		cfg  models.AnalyzerConfig
		want []models.SuggestionType
	}{
		{"grammar only", models.AnalyzerConfig{Style: models.Bool(false), Tone: models.Bool(false), SEO: models.Bool(false)},
			[]models.SuggestionType{models.TypeGrammar, models.TypeGrammar}},
		{"style only", models.AnalyzerConfig{Grammar: models.Bool(false), Tone: models.Bool(false), SEO: models.Bool(false)},
			[]models.SuggestionType{models.TypeReadability, models.TypeStyle}},
		{"tone only", models.AnalyzerConfig{Grammar: models.Bool(false), Style: models.Bool(false), SEO: models.Bool(false)},
			[]models.SuggestionType{models.TypeEmotion}},
		{"seo only", models.AnalyzerConfig{Grammar: models.Bool(false), Style: models.Bool(false), Tone: models.Bool(false)},
			[]models.SuggestionType{models.TypeSEO}},
		{"all disabled", models.AnalyzerConfig{Grammar: models.Bool(false), Style: models.Bool(false), Tone: models.Bool(false), SEO: models.Bool(false)},
			[]models.SuggestionType{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, e := sampleCollaborators()
			a := newTestAnalyzer(g, e, true)
			result := a.Analyze(context.Background(), Request{
				Text: sampleText, Platform: "youtube", Field: "description", Analyzers: tt.cfg,
			})
			assert.Equal(t, tt.want, types(result))
		})
	}
}

func TestToneDisabledSkipsClassifier(t *testing.T) {
	_, e := sampleCollaborators()
	a := newTestAnalyzer(nil, e, false)
	a.Analyze(context.Background(), Request{Text: sampleText, Analyzers: models.AnalyzerConfig{Tone: models.Bool(false)}})
	assert.Equal(t, 0, e.calls)
}

func TestAnalyzeFailureIsolation(t *testing.T) {
	tests := []struct {
		name    string
		grammar *fakeGrammar
		emotion *fakeEmotion
		want    []models.SuggestionType
	}{
		{
			name:    "grammar error",
			grammar: &fakeGrammar{err: errors.New("connection refused")},
			emotion: &fakeEmotion{scores: []models.EmotionScore{{Label: "joy", Score: 0.9}}},
			want:    []models.SuggestionType{models.TypeReadability, models.TypeStyle, models.TypeEmotion, models.TypeSEO},
		},
		{
			name:    "grammar panic",
			grammar: &fakeGrammar{panics: true},
			emotion: &fakeEmotion{scores: []models.EmotionScore{{Label: "joy", Score: 0.9}}},
			want:    []models.SuggestionType{models.TypeReadability, models.TypeStyle, models.TypeEmotion, models.TypeSEO},
		},
		{
			name:    "emotion error",
			grammar: &fakeGrammar{matches: []models.GrammarMatch{{Offset: 0, Length: 3}}},
			emotion: &fakeEmotion{err: errors.New("model unavailable")},
			want:    []models.SuggestionType{models.TypeGrammar, models.TypeReadability, models.TypeStyle, models.TypeSEO},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAnalyzer(tt.grammar, tt.emotion, true)
			result := a.Analyze(context.Background(), Request{Text: sampleText, Platform: "youtube", Field: "description"})
			assert.Equal(t, tt.want, types(result))
		})
	}
}

func TestMissingCollaboratorsAreSkipped(t *testing.T) {
	a := New()
	result := a.Analyze(context.Background(), Request{Text: sampleText, Platform: "youtube", Field: "description"})
	assert.Equal(t, []models.SuggestionType{models.TypeReadability, models.TypeSEO}, types(result))

	avail := a.Available()
	assert.False(t, avail[StageGrammar])
	assert.False(t, avail[StagePassive])
	assert.True(t, avail[StageReadability])
}

func TestDictionarySuppression(t *testing.T) {
	text := "I love wordwise and teh app."
	g := &fakeGrammar{matches: []models.GrammarMatch{
		{Offset: 7, Length: 8, Message: "Possible spelling mistake found.", RuleID: "MORFOLOGIK_RULE_EN_US"},
		{Offset: 20, Length: 3, Message: "Possible spelling mistake found.", RuleID: "MORFOLOGIK_RULE_EN_US"},
	}}
	a := newTestAnalyzer(g, nil, true)
	dict := []string{"wordwise"}

	result := a.Analyze(context.Background(), Request{
		Text:       text,
		Dictionary: dict,
		Analyzers:  models.AnalyzerConfig{Style: models.Bool(false), SEO: models.Bool(false)},
	})

	require.Len(t, result.Suggestions, 1)
	s := result.Suggestions[0].(models.GrammarSuggestion)
	assert.Equal(t, 20, s.Start)
	assert.Equal(t, 23, s.End)
	assert.Equal(t, []string{"wordwise"}, dict)
}

func TestDictionaryIsExactMatch(t *testing.T) {
	g := &fakeGrammar{matches: []models.GrammarMatch{{Offset: 0, Length: 8}}}
	a := newTestAnalyzer(g, nil, false)

	result := a.Analyze(context.Background(), Request{
		Text:       "WordWise rocks",
		Dictionary: []string{"wordwise"},
		Analyzers:  models.AnalyzerConfig{Style: models.Bool(false), SEO: models.Bool(false)},
	})
	assert.Len(t, result.Suggestions, 1)
}

func TestGrammarOffsetsAreUTF16(t *testing.T) {
	text := "🚀 Launch day! Teh rocket is ready"
	g := &fakeGrammar{matches: []models.GrammarMatch{{Offset: 14, Length: 3, Message: "typo"}}}
	a := newTestAnalyzer(g, nil, true)

	result := a.Analyze(context.Background(), Request{
		Text:      text,
		Analyzers: models.AnalyzerConfig{Style: models.Bool(false), SEO: models.Bool(false)},
	})

	require.Len(t, result.Suggestions, 1)
	s := result.Suggestions[0].(models.GrammarSuggestion)
	assert.Equal(t, 15, s.Start)
	assert.Equal(t, 18, s.End)
}

func TestPassiveVoiceScenario(t *testing.T) {
	a := newTestAnalyzer(nil, nil, true)
	text := "The ball was thrown by John."

	result := a.Analyze(context.Background(), Request{Text: text})

	assert.Equal(t, []models.SuggestionType{models.TypeReadability, models.TypeStyle}, types(result))
	style := result.Suggestions[1].(models.StyleSuggestion)
	assert.Equal(t, 0, style.Start)
	assert.Equal(t, len(text), style.End)
	assert.Equal(t, passiveVoiceMessage, style.Message)
	assert.Empty(t, style.Replacements)
	assert.Equal(t, 1, result.Suggestions[0].(models.ReadabilitySuggestion).Score)
}

func TestEmotionWordThreshold(t *testing.T) {
	e := &fakeEmotion{scores: []models.EmotionScore{{Label: "joy", Score: 0.9}}}
	a := newTestAnalyzer(nil, e, true)

	result := a.Analyze(context.Background(), Request{Text: "so happy today"})
	assert.Equal(t, 0, e.calls)
	assert.Empty(t, result.Suggestions)

	result = a.Analyze(context.Background(), Request{Text: "so happy today friends"})
	assert.Equal(t, 1, e.calls)
	assert.Equal(t, []models.SuggestionType{models.TypeEmotion}, types(result))
}

func TestTopEmotions(t *testing.T) {
	tests := []struct {
		name   string
		scores []models.EmotionScore
		want   []models.EmotionScore
	}{
		{"none above threshold", []models.EmotionScore{{Label: "neutral", Score: 0.25}, {Label: "joy", Score: 0.1}}, []models.EmotionScore{}},
		{"ties keep input order", []models.EmotionScore{{Label: "a", Score: 0.5}, {Label: "b", Score: 0.5}, {Label: "c", Score: 0.9}},
			[]models.EmotionScore{{Label: "c", Score: 0.9}, {Label: "a", Score: 0.5}, {Label: "b", Score: 0.5}}},
		{"truncated to three", []models.EmotionScore{{Label: "a", Score: 0.3}, {Label: "b", Score: 0.4}, {Label: "c", Score: 0.5}, {Label: "d", Score: 0.6}},
			[]models.EmotionScore{{Label: "d", Score: 0.6}, {Label: "c", Score: 0.5}, {Label: "b", Score: 0.4}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, topEmotions(tt.scores))
		})
	}
}

func TestSEORules(t *testing.T) {
	tests := []struct {
		name            string
		text            string
		platform, field string
		want            int
	}{
		{"youtube description without hashtag", "Watch my new video", "youtube", "description", 1},
		{"youtube description with hashtag", "Watch my new video #launch", "youtube", "description", 0},
		{"youtube title", "Watch my new video", "youtube", "title", 0},
		{"other platform", "Watch my new video", "twitter", "description", 0},
		{"no platform", "Watch my new video", "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, seoSuggestions(tt.text, tt.platform, tt.field), tt.want)
		})
	}
}

// gatedGrammar blocks until the tone stage has finished
type gatedGrammar struct {
	fakeGrammar
	gate     <-chan struct{}
	finished *completionLog
}

func (g *gatedGrammar) Check(ctx context.Context, text string) ([]models.GrammarMatch, error) {
	select {
	case <-g.gate:
	case <-time.After(5 * time.Second):
		return nil, errors.New("tone stage never finished")
	}
	g.finished.add(StageGrammar)
	return g.fakeGrammar.Check(ctx, text)
}

// signallingEmotion closes done once it has classified
type signallingEmotion struct {
	fakeEmotion
	done     chan struct{}
	finished *completionLog
}

func (e *signallingEmotion) Classify(ctx context.Context, text string) ([]models.EmotionScore, error) {
	defer close(e.done)
	defer e.finished.add(StageTone)
	return e.fakeEmotion.Classify(ctx, text)
}

type completionLog struct {
	mu     sync.Mutex
	stages []string
}

func (l *completionLog) add(stage string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stages = append(l.stages, stage)
}

func TestAnalyzeOrderingWhenStagesFinishOutOfOrder(t *testing.T) {
	g, e := sampleCollaborators()
	finished := &completionLog{}
	done := make(chan struct{})

	a := newTestAnalyzer(
		&gatedGrammar{fakeGrammar: *g, gate: done, finished: finished},
		&signallingEmotion{fakeEmotion: *e, done: done, finished: finished},
		true,
	)

	result := a.Analyze(context.Background(), Request{
		Text:     sampleText,
		Platform: "youtube",
		Field:    "description",
	})

	assert.Equal(t, []string{StageTone, StageGrammar}, finished.stages)
	assert.Equal(t, []models.SuggestionType{
		models.TypeGrammar, models.TypeGrammar,
		models.TypeReadability,
		models.TypeStyle,
		models.TypeEmotion,
		models.TypeSEO,
	}, types(result))
}
