package analyzer

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"

	"github.com/zombar/wordwise/internal/models"
)

// minReadabilityWords is the word count a text must exceed to be scored
const minReadabilityWords = 5

var (
	hashtagPattern    = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	terminatorPattern = regexp.MustCompile(`[.!?]+`)
)

// ARI returns the Automated Readability Index grade of text, rounded up.
// Texts without words or sentences score 0.
func ARI(text string) int {
	clean := strings.TrimSpace(whitespacePattern.ReplaceAllString(hashtagPattern.ReplaceAllString(text, ""), " "))

	words := len(strings.Fields(clean))
	sentences := countSentences(clean)
	if words == 0 || sentences == 0 {
		return 0
	}

	characters := 0
	for _, r := range clean {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			characters++
		}
	}

	w := float64(words)
	grade := 4.71*(float64(characters)/w) + 0.5*(w/float64(sentences)) - 21.43
	return int(math.Ceil(math.Max(0, grade)))
}

// countSentences counts non-blank segments between terminator runs,
// including trailing content after the last terminator
func countSentences(text string) int {
	n := 0
	for _, seg := range terminatorPattern.Split(text, -1) {
		if strings.TrimSpace(seg) != "" {
			n++
		}
	}
	return n
}

// readabilitySuggestion scores text, or returns false when it is too short
func readabilitySuggestion(text string) (models.ReadabilitySuggestion, bool) {
	if len(strings.Fields(text)) <= minReadabilityWords {
		return models.ReadabilitySuggestion{}, false
	}

	grade := max(1, ARI(text))

	var remark string
	switch {
	case grade > 12:
		remark = "Consider simplifying complex sentences for a broader audience."
	case grade < 6:
		remark = "This is very easy to read. Great for general audiences!"
	default:
		remark = "This is easily understood by most readers."
	}

	return models.ReadabilitySuggestion{
		Message: fmt.Sprintf("This text has a readability score equivalent to a %s grade reading level. %s", ordinal(grade), remark),
		Score:   grade,
	}, true
}

// ordinal renders n with its English ordinal suffix (1st, 2nd, 3rd, 11th)
func ordinal(n int) string {
	var suffix string
	switch plural.Ordinal.MatchPlural(language.English, n, 0, 0, 0, 0) {
	case plural.One:
		suffix = "st"
	case plural.Two:
		suffix = "nd"
	case plural.Few:
		suffix = "rd"
	default:
		suffix = "th"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
