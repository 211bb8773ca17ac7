package insight

import "strings"

// breakthroughPhrases signal emotional or spiritual resolution. Matching is
// case-insensitive substring containment.
var breakthroughPhrases = []string{
	"thank you",
	"that helps",
	"that helped",
	"i understand now",
	"i see now",
	"that makes sense",
	"i feel better",
	"i needed to hear that",
	"i never thought of it that way",
	"you've given me peace",
}

const breakthroughSummaryLimit = 100

// IsBreakthrough reports whether the text reads like a breakthrough moment.
func IsBreakthrough(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range breakthroughPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// BreakthroughSummary condenses a breakthrough message. Short messages are
// kept verbatim; longer ones fall back to the first sentence that carries
// the gratitude, then to a hard prefix cut.
func BreakthroughSummary(text string) string {
	trimmed := strings.TrimSpace(text)
	runes := []rune(trimmed)
	if len(runes) <= breakthroughSummaryLimit {
		return trimmed
	}

	sentences := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	for _, sentence := range sentences {
		lower := strings.ToLower(sentence)
		if strings.Contains(lower, "thank") || strings.Contains(lower, "helped") || strings.Contains(lower, "understand") {
			return strings.TrimSpace(sentence)
		}
	}
	return string(runes[:breakthroughSummaryLimit])
}
