package insight

import (
	"strings"

	"github.com/altarworks/emmaus/internal/types"
)

// topicTriggers mirrors the emotion table for conversation topics.
var topicTriggers = map[types.TopicLabel][]string{
	types.TopicFamily:        {"family", "mother", "father", "mom", "dad", "son", "daughter", "sister", "brother", "my kids", "children", "parents"},
	types.TopicWork:          {"work", "job", "boss", "career", "coworker", "interview", "fired", "promotion", "workplace"},
	types.TopicHealth:        {"health", "sick", "illness", "doctor", "hospital", "diagnosis", "surgery", "chronic pain", "cancer"},
	types.TopicFaith:         {"god", "faith", "pray", "church", "bible", "jesus", "believe", "spiritual", "worship"},
	types.TopicRelationships: {"relationship", "marriage", "husband", "wife", "boyfriend", "girlfriend", "divorce", "dating", "my friend"},
	types.TopicPurpose:       {"purpose", "meaning", "calling", "direction in life", "why am i here", "what am i meant"},
	types.TopicFinances:      {"money", "debt", "bills", "financial", "afford", "rent", "savings", "paycheck"},
	types.TopicGrief:         {"died", "death", "funeral", "passed away", "grief", "mourning", "miss him", "miss her", "miss them"},
	types.TopicDecisions:     {"decision", "decide", "choice", "choose", "crossroads", "should i", "torn between"},
}

var topicOrder = []types.TopicLabel{
	types.TopicFamily,
	types.TopicWork,
	types.TopicHealth,
	types.TopicFaith,
	types.TopicRelationships,
	types.TopicPurpose,
	types.TopicFinances,
	types.TopicGrief,
	types.TopicDecisions,
}

type triggerTopicClassifier struct{}

func (triggerTopicClassifier) Topics(text string) []types.TopicLabel {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var topics []types.TopicLabel
	for _, topic := range topicOrder {
		for _, trigger := range topicTriggers[topic] {
			if strings.Contains(lower, trigger) {
				topics = append(topics, topic)
				break
			}
		}
	}
	return topics
}

// categoryPriority fixes the order in which topic keyword lists are tried
// when classifying a situation string; first match wins.
var categoryPriority = []struct {
	topic    types.TopicLabel
	category types.SituationCategory
}{
	{types.TopicFamily, types.CategoryFamily},
	{types.TopicWork, types.CategoryWork},
	{types.TopicHealth, types.CategoryHealth},
	{types.TopicFaith, types.CategoryFaith},
	{types.TopicRelationships, types.CategoryRelationship},
	{types.TopicFinances, types.CategoryFinances},
}

// CategorizeSituation classifies a situation string using the topic trigger
// lists in fixed priority order, defaulting to "general".
func CategorizeSituation(situation string) types.SituationCategory {
	lower := strings.ToLower(situation)
	for _, entry := range categoryPriority {
		for _, trigger := range topicTriggers[entry.topic] {
			if strings.Contains(lower, trigger) {
				return entry.category
			}
		}
	}
	return types.CategoryGeneral
}
