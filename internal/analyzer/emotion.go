package analyzer

import (
	"context"
	"slices"
	"strings"

	"github.com/zombar/wordwise/internal/models"
)

const (
	minEmotionWords = 3
	emotionMinScore = 0.25
	maxEmotions     = 3
)

// EmotionClassifier scores text against a set of emotion labels
type EmotionClassifier interface {
	Classify(ctx context.Context, text string) ([]models.EmotionScore, error)
}

// topEmotions keeps labels scoring above the threshold, highest first,
// at most maxEmotions of them
func topEmotions(scores []models.EmotionScore) []models.EmotionScore {
	kept := make([]models.EmotionScore, 0, len(scores))
	for _, s := range scores {
		if s.Score > emotionMinScore {
			kept = append(kept, s)
		}
	}
	slices.SortStableFunc(kept, func(a, b models.EmotionScore) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(kept) > maxEmotions {
		kept = kept[:maxEmotions]
	}
	return kept
}

func emotionSuggestions(ctx context.Context, c EmotionClassifier, text string) ([]models.Suggestion, error) {
	if len(strings.Fields(text)) <= minEmotionWords {
		return nil, nil
	}
	scores, err := c.Classify(ctx, text)
	if err != nil {
		return nil, err
	}
	top := topEmotions(scores)
	if len(top) == 0 {
		return nil, nil
	}
	return []models.Suggestion{models.EmotionSuggestion{Emotions: top}}, nil
}
