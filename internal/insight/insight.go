// Package insight provides heuristic classifiers over conversation text.
// Every classifier is a fixed-taxonomy trigger-word or regex match, not a
// learned model; each sits behind a small interface so a model-backed
// implementation can replace it without touching merge or storage logic.
package insight

import "github.com/altarworks/emmaus/internal/types"

// EmotionClassifier detects emotions in free text.
type EmotionClassifier interface {
	Emotions(text string) []EmotionMatch
}

// TopicClassifier detects conversation topics in free text.
type TopicClassifier interface {
	Topics(text string) []types.TopicLabel
}

// SituationExtractor pulls life-situation spans out of free text.
type SituationExtractor interface {
	Situations(text string) []string
}

// Extractor bundles the default heuristic classifiers.
type Extractor struct {
	emotions   EmotionClassifier
	topics     TopicClassifier
	situations SituationExtractor
}

// NewExtractor returns an Extractor with the built-in trigger-word classifiers.
func NewExtractor() *Extractor {
	return &Extractor{
		emotions:   triggerEmotionClassifier{},
		topics:     triggerTopicClassifier{},
		situations: regexSituationExtractor{},
	}
}

// Emotions returns every emotion fired by the text.
func (e *Extractor) Emotions(text string) []EmotionMatch {
	return e.emotions.Emotions(text)
}

// Topics returns every topic fired by the text.
func (e *Extractor) Topics(text string) []types.TopicLabel {
	return e.topics.Topics(text)
}

// Situations returns raw life-situation spans; deduplication against stored
// situations happens at merge time, not here.
func (e *Extractor) Situations(text string) []string {
	return e.situations.Situations(text)
}
