package insight

import (
	"strings"

	"github.com/altarworks/emmaus/internal/types"
)

// encouragementWords is the emotional-language list behind the
// needs-encouragement inference.
var encouragementWords = []string{
	"sad", "scared", "worried", "anxious", "lonely", "hurt", "discouraged",
}

var scriptureWords = []string{"bible", "scripture", "verse"}

// InferPreferences derives communication preferences from a user's message
// history. An empty history yields an empty result. PrefersQuestions is left
// nil on purpose; no heuristic for it has shipped yet.
func InferPreferences(messages []string) types.CommunicationPreferences {
	if len(messages) == 0 {
		return types.CommunicationPreferences{}
	}

	questions := 0
	var combined strings.Builder
	for _, msg := range messages {
		if strings.Contains(msg, "?") {
			questions++
		}
		combined.WriteString(strings.ToLower(msg))
		combined.WriteString(" ")
	}
	lower := combined.String()

	prefs := types.CommunicationPreferences{}

	directness := float64(questions)/float64(len(messages)) > 0.5
	prefs.PrefersDirectness = &directness

	wantsScripture := containsAny(lower, scriptureWords)
	prefs.WantsScriptureReferences = &wantsScripture

	needsEncouragement := containsAny(lower, encouragementWords)
	prefs.NeedsEncouragement = &needsEncouragement

	return prefs
}

func containsAny(text string, words []string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
