package analyzer

import "github.com/zombar/wordwise/internal/models"

const passiveVoiceMessage = "This sentence appears to be in the passive voice. Consider rewriting it in the active voice for more direct and engaging writing."

// DepPassiveSubject marks the subject of a passive clause
const DepPassiveSubject = "nsubjpass"

// SentenceParser splits text into sentences with dependency-labelled tokens
type SentenceParser interface {
	Parse(text string) []models.ParsedSentence
}

// passiveSuggestions flags every sentence containing a passive subject,
// in sentence order
func passiveSuggestions(parser SentenceParser, text string, idx *OffsetIndex) []models.Suggestion {
	var out []models.Suggestion
	for _, sent := range parser.Parse(text) {
		if !hasPassiveSubject(sent) {
			continue
		}
		start, end := idx.Span(sent.Start, sent.End)
		out = append(out, models.StyleSuggestion{
			Message:      passiveVoiceMessage,
			Start:        start,
			End:          end,
			Replacements: []string{},
		})
	}
	return out
}

func hasPassiveSubject(sent models.ParsedSentence) bool {
	for _, tok := range sent.Tokens {
		if tok.Dep == DepPassiveSubject {
			return true
		}
	}
	return false
}
