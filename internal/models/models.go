package models

import "time"

// SuggestionType identifies the variant of a Suggestion
type SuggestionType string

const (
	TypeGrammar     SuggestionType = "grammar"
	TypeReadability SuggestionType = "readability"
	TypeStyle       SuggestionType = "style"
	TypeEmotion     SuggestionType = "emotion_analysis"
	TypeSEO         SuggestionType = "seo"
)

// Suggestion is one item of analysis output. Concrete types are
// GrammarSuggestion, ReadabilitySuggestion, StyleSuggestion,
// EmotionSuggestion and SEOSuggestion.
type Suggestion interface {
	Type() SuggestionType
}

// Spanned is implemented by suggestions that point at a range of the input.
// Offsets are UTF-16 code units.
type Spanned interface {
	Span() (start, end int)
}

// GrammarSuggestion is a rule match reported by the grammar checker
type GrammarSuggestion struct {
	Message      string   `json:"message"`
	Start        int      `json:"start"`
	End          int      `json:"end"`
	Replacements []string `json:"replacements"`
	Category     string   `json:"category"`
	RuleID       string   `json:"ruleId"`
}

// Type implements Suggestion
func (GrammarSuggestion) Type() SuggestionType { return TypeGrammar }

// Span implements Spanned
func (s GrammarSuggestion) Span() (int, int) { return s.Start, s.End }

// StyleSuggestion flags a span for stylistic reasons (passive voice)
type StyleSuggestion struct {
	Message      string   `json:"message"`
	Start        int      `json:"start"`
	End          int      `json:"end"`
	Replacements []string `json:"replacements"`
}

// Type implements Suggestion
func (StyleSuggestion) Type() SuggestionType { return TypeStyle }

// Span implements Spanned
func (s StyleSuggestion) Span() (int, int) { return s.Start, s.End }

// ReadabilitySuggestion reports the grade level of the whole text
type ReadabilitySuggestion struct {
	Message string `json:"message"`
	Score   int    `json:"score"`
}

// Type implements Suggestion
func (ReadabilitySuggestion) Type() SuggestionType { return TypeReadability }

// EmotionScore is a single classifier label with its confidence
type EmotionScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// EmotionSuggestion carries the dominant emotions of the text
type EmotionSuggestion struct {
	Emotions []EmotionScore `json:"emotions"`
}

// Type implements Suggestion
func (EmotionSuggestion) Type() SuggestionType { return TypeEmotion }

// SEOSuggestion is a platform specific discoverability hint
type SEOSuggestion struct {
	Message string `json:"message"`
}

// Type implements Suggestion
func (SEOSuggestion) Type() SuggestionType { return TypeSEO }

// AnalyzerConfig toggles individual analyzers. A nil field means enabled.
type AnalyzerConfig struct {
	Grammar *bool `json:"grammar,omitempty" toml:"grammar"`
	Style   *bool `json:"style,omitempty" toml:"style"`
	Tone    *bool `json:"tone,omitempty" toml:"tone"`
	SEO     *bool `json:"seo,omitempty" toml:"seo"`
}

func enabled(b *bool) bool { return b == nil || *b }

// GrammarEnabled reports whether the grammar analyzer should run
func (c AnalyzerConfig) GrammarEnabled() bool { return enabled(c.Grammar) }

// StyleEnabled reports whether readability and passive voice should run
func (c AnalyzerConfig) StyleEnabled() bool { return enabled(c.Style) }

// ToneEnabled reports whether emotion classification should run
func (c AnalyzerConfig) ToneEnabled() bool { return enabled(c.Tone) }

// SEOEnabled reports whether SEO rules should run
func (c AnalyzerConfig) SEOEnabled() bool { return enabled(c.SEO) }

// Bool returns a pointer to b, for building AnalyzerConfig literals
func Bool(b bool) *bool { return &b }

// User represents an account owning a personal dictionary
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// Inspiration is a liked example post saved by a user
type Inspiration struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"owner_id"`
	Content   string    `json:"content"`
	Platform  string    `json:"platform,omitempty"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// Assist job states
const (
	JobQueued     = "queued"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// AssistJob tracks an asynchronous AI-assist request. Result holds the JSON
// encoded operation output once completed.
type AssistJob struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"-"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	Result    string    `json:"-"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GrammarMatch is a raw rule match from a grammar checker. Offset and
// Length are in characters (runes) of the checked text.
type GrammarMatch struct {
	Offset       int
	Length       int
	Message      string
	Replacements []string
	Category     string
	RuleID       string
}

// Token is a word of a parsed sentence with its dependency label
type Token struct {
	Text  string
	Start int // rune offset in the full text
	Dep   string
}

// ParsedSentence is a sentence span with labelled tokens. Start and End are
// rune offsets; End excludes trailing whitespace.
type ParsedSentence struct {
	Start  int
	End    int
	Tokens []Token
}
