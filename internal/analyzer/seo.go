package analyzer

import (
	"strings"

	"github.com/zombar/wordwise/internal/models"
)

// seoRule fires its message when platform and field match and applies
// reports true for the text
type seoRule struct {
	platform string
	field    string
	applies  func(text string) bool
	message  string
}

var seoRules = []seoRule{
	{
		platform: "youtube",
		field:    "description",
		applies:  func(text string) bool { return !strings.Contains(text, "#") },
		message:  "Consider adding relevant hashtags to your YouTube description to improve discoverability.",
	},
}

func seoSuggestions(text, platform, field string) []models.Suggestion {
	var out []models.Suggestion
	for _, rule := range seoRules {
		if rule.platform != platform || rule.field != field {
			continue
		}
		if rule.applies(text) {
			out = append(out, models.SEOSuggestion{Message: rule.message})
		}
	}
	return out
}
