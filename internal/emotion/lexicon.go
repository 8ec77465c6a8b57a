package emotion

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/zombar/wordwise/internal/models"
)

// LabelNeutral is reported for the share of content words carrying no emotion
const LabelNeutral = "neutral"

// Lexicon scores text by counting emotion words. It needs no network and is
// used when no model endpoint is configured.
type Lexicon struct {
	stopWords map[string]bool
	labels    map[string]string // word -> label
}

// NewLexicon creates a lexicon classifier over a go_emotions label subset
func NewLexicon() *Lexicon {
	labels := make(map[string]string)
	for label, words := range emotionWords {
		for _, w := range words {
			labels[w] = label
		}
	}
	return &Lexicon{
		stopWords: getStopWords(),
		labels:    labels,
	}
}

// Classify returns each matched label's share of the emotion words, plus
// neutral as the share of content words that matched nothing. Labels are
// sorted by descending score.
func (l *Lexicon) Classify(ctx context.Context, text string) ([]models.EmotionScore, error) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	counts := make(map[string]int)
	content, hits := 0, 0
	for _, w := range words {
		w = strings.Trim(w, "'")
		if w == "" || l.stopWords[w] {
			continue
		}
		content++
		if label, ok := l.labels[w]; ok {
			counts[label]++
			hits++
		}
	}

	if content == 0 {
		return []models.EmotionScore{{Label: LabelNeutral, Score: 1}}, nil
	}

	scores := make([]models.EmotionScore, 0, len(counts)+1)
	for label, n := range counts {
		scores = append(scores, models.EmotionScore{Label: label, Score: float64(n) / float64(hits)})
	}
	scores = append(scores, models.EmotionScore{Label: LabelNeutral, Score: 1 - float64(hits)/float64(content)})

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Label < scores[j].Label
	})
	return scores, nil
}

var emotionWords = map[string][]string{
	"admiration": {"amazing", "awesome", "brilliant", "excellent", "exceptional", "fabulous", "fantastic",
		"impressive", "incredible", "magnificent", "marvelous", "outstanding", "remarkable", "splendid",
		"superb", "terrific", "wonderful", "beautiful", "perfect", "best", "great"},
	"joy": {"happy", "glad", "delightful", "enjoyable", "pleasant", "fun", "joy", "cheerful", "smile", "laugh", "pleased"},
	"love": {"love", "loved", "loving", "adore", "lovely", "heart"},
	"excitement": {"exciting", "excited", "enthusiasm", "enthusiastic", "thrilled", "launch", "finally"},
	"optimism": {"optimistic", "hopeful", "promising", "favorable", "better", "improvement", "improved", "hope"},
	"approval": {"good", "positive", "advantage", "benefit", "agree", "recommend", "nice", "fine", "satisfied"},
	"pride": {"success", "successful", "win", "winning", "winner", "proud", "achieved", "milestone"},
	"gratitude": {"thanks", "thank", "grateful", "thankful", "appreciate", "appreciated"},
	"anger": {"angry", "hate", "hated", "hating", "furious", "outraged", "rage"},
	"annoyance": {"annoying", "annoyed", "frustrated", "frustrating", "irritating", "ugh"},
	"disappointment": {"disappointing", "disappointed", "disappointment", "fail", "failed", "failure", "worse", "worst", "poor"},
	"disgust": {"disgusting", "gross", "ugly", "awful", "horrible", "terrible"},
	"fear": {"fear", "afraid", "scary", "dangerous", "risk", "threat", "terrified"},
	"nervousness": {"worried", "worry", "concern", "concerned", "anxious", "nervous"},
	"sadness": {"sad", "unhappy", "unfortunate", "loss", "lost", "losing", "loser", "decline", "declined", "miss"},
	"disapproval": {"bad", "wrong", "negative", "harm", "harmful", "damage", "damaged"},
	"confusion": {"confused", "confusing", "unclear", "difficult", "difficulty", "hard", "impossible"},
	"curiosity": {"curious", "wonder", "wondering", "interesting", "intrigued"},
	"surprise": {"surprised", "surprising", "unexpected", "wow", "shocked"},
}
