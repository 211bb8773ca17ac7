package insight

import (
	"strings"

	"github.com/altarworks/emmaus/internal/types"
)

// EmotionMatch is one fired emotion with the trigger words that fired it.
type EmotionMatch struct {
	Emotion  types.EmotionLabel
	Triggers []string
}

// emotionTriggers is the curated trigger-word table. Matching is
// case-insensitive substring containment; emotions are not mutually
// exclusive, any number may fire on the same text.
var emotionTriggers = map[types.EmotionLabel][]string{
	types.EmotionSadness:    {"sad", "depressed", "heartbroken", "crying", "tears", "miserable", "hopeless", "down lately"},
	types.EmotionAnxiety:    {"anxious", "worried", "nervous", "scared", "afraid", "stress", "overwhelmed", "panic", "can't sleep"},
	types.EmotionAnger:      {"angry", "furious", "mad at", "frustrated", "irritated", "resent", "unfair"},
	types.EmotionLoneliness: {"lonely", "alone", "isolated", "no one understands", "nobody cares", "abandoned"},
	types.EmotionConfusion:  {"confused", "don't understand", "unsure", "doubt", "why me", "makes no sense", "lost"},
	types.EmotionHope:       {"hope", "looking forward", "better days", "optimistic", "light at the end"},
	types.EmotionGratitude:  {"thankful", "grateful", "blessed", "appreciate"},
	types.EmotionGuilt:      {"guilty", "ashamed", "my fault", "regret", "forgive me", "shouldn't have"},
	types.EmotionJoy:        {"happy", "joyful", "excited", "wonderful", "amazing", "great news", "celebrate"},
}

// emotionOrder keeps detection output deterministic.
var emotionOrder = []types.EmotionLabel{
	types.EmotionSadness,
	types.EmotionAnxiety,
	types.EmotionAnger,
	types.EmotionLoneliness,
	types.EmotionConfusion,
	types.EmotionHope,
	types.EmotionGratitude,
	types.EmotionGuilt,
	types.EmotionJoy,
}

type triggerEmotionClassifier struct{}

func (triggerEmotionClassifier) Emotions(text string) []EmotionMatch {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var matches []EmotionMatch
	for _, emotion := range emotionOrder {
		var fired []string
		for _, trigger := range emotionTriggers[emotion] {
			if strings.Contains(lower, trigger) {
				fired = append(fired, trigger)
			}
		}
		if len(fired) > 0 {
			matches = append(matches, EmotionMatch{Emotion: emotion, Triggers: fired})
		}
	}
	return matches
}
