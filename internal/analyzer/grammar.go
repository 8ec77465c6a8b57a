package analyzer

import (
	"context"

	"github.com/zombar/wordwise/internal/models"
)

// GrammarChecker finds rule violations in text. Match offsets are runes.
type GrammarChecker interface {
	Check(ctx context.Context, text string) ([]models.GrammarMatch, error)
}

// grammarSuggestions drops matches whose flagged text is a dictionary word
// and converts the rest to UTF-16 spans, keeping checker order
func grammarSuggestions(matches []models.GrammarMatch, runes []rune, dict map[string]struct{}, idx *OffsetIndex) []models.Suggestion {
	out := make([]models.Suggestion, 0, len(matches))
	for _, m := range matches {
		start, end := clampSpan(m.Offset, m.Offset+m.Length, len(runes))
		if _, ok := dict[string(runes[start:end])]; ok {
			continue
		}

		replacements := m.Replacements
		if replacements == nil {
			replacements = []string{}
		}

		s16, e16 := idx.Span(start, end)
		out = append(out, models.GrammarSuggestion{
			Message:      m.Message,
			Start:        s16,
			End:          e16,
			Replacements: replacements,
			Category:     m.Category,
			RuleID:       m.RuleID,
		})
	}
	return out
}

func clampSpan(start, end, n int) (int, int) {
	start = min(max(start, 0), n)
	end = min(max(end, start), n)
	return start, end
}

// dictionarySet snapshots words into a lookup set. The input is not retained.
func dictionarySet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
