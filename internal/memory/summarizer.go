package memory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/altarworks/emmaus/internal/types"
)

// ContextSummarizer turns a memory record into a bounded natural-language
// block for prompt injection. It is a pure function of the record: no side
// effects, identical output for identical input.
type ContextSummarizer struct {
	maxEmotions   int
	maxSituations int
	maxScriptures int
}

// NewContextSummarizer returns a summarizer. Compact mode caps each section
// tighter; the flag is threaded from configuration rather than read from
// any package-level state.
func NewContextSummarizer(compact bool) *ContextSummarizer {
	if compact {
		return &ContextSummarizer{maxEmotions: 2, maxSituations: 2, maxScriptures: 1}
	}
	return &ContextSummarizer{maxEmotions: 3, maxSituations: 3, maxScriptures: 2}
}

// Summarize renders the record. The output always carries at least the
// interaction count line, so it is never empty for a non-nil record.
func (c *ContextSummarizer) Summarize(mem *types.UserCharacterMemory) string {
	if mem == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You have spoken with this person across %d conversations", mem.ConversationCount)
	if !mem.LastInteraction.IsZero() {
		fmt.Fprintf(&b, "; the last was on %s", mem.LastInteraction.Format(time.DateOnly))
	}
	b.WriteString(".")

	if line := c.emotionLine(mem.Emotions); line != "" {
		b.WriteString(" ")
		b.WriteString(line)
	}
	if line := c.situationLine(mem.Situations); line != "" {
		b.WriteString(" ")
		b.WriteString(line)
	}
	if line := c.scriptureLine(mem.Scriptures); line != "" {
		b.WriteString(" ")
		b.WriteString(line)
	}
	if line := preferenceLine(mem.Preferences); line != "" {
		b.WriteString(" ")
		b.WriteString(line)
	}
	if n := len(mem.Moments); n > 0 {
		fmt.Fprintf(&b, " You have shared %d significant moments together.", n)
	}

	return b.String()
}

func (c *ContextSummarizer) emotionLine(emotions []types.EmotionalInsight) string {
	if len(emotions) == 0 {
		return ""
	}

	ranked := make([]types.EmotionalInsight, len(emotions))
	copy(ranked, emotions)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Frequency > ranked[j].Frequency
	})
	if len(ranked) > c.maxEmotions {
		ranked = ranked[:c.maxEmotions]
	}

	parts := make([]string, 0, len(ranked))
	for _, e := range ranked {
		parts = append(parts, fmt.Sprintf("%s (%d times)", e.Emotion, e.Frequency))
	}
	return "They have often expressed " + strings.Join(parts, ", ") + "."
}

func (c *ContextSummarizer) situationLine(situations []types.UserLifeSituation) string {
	var open []string
	for _, s := range situations {
		if s.Resolved {
			continue
		}
		open = append(open, fmt.Sprintf("%s (%s)", s.Summary, s.Category))
		if len(open) == c.maxSituations {
			break
		}
	}
	if len(open) == 0 {
		return ""
	}
	return "They are still walking through: " + strings.Join(open, "; ") + "."
}

func (c *ContextSummarizer) scriptureLine(scriptures []types.ResonantScripture) string {
	if len(scriptures) == 0 {
		return ""
	}
	refs := make([]string, 0, c.maxScriptures)
	for _, s := range scriptures {
		refs = append(refs, s.Reference)
		if len(refs) == c.maxScriptures {
			break
		}
	}
	return "Scripture that has resonated with them: " + strings.Join(refs, ", ") + "."
}

func preferenceLine(prefs types.CommunicationPreferences) string {
	var notes []string
	if prefs.PrefersDirectness != nil && *prefs.PrefersDirectness {
		notes = append(notes, "they appreciate direct answers")
	}
	if prefs.WantsScriptureReferences != nil && *prefs.WantsScriptureReferences {
		notes = append(notes, "they welcome scripture references")
	}
	if prefs.NeedsEncouragement != nil && *prefs.NeedsEncouragement {
		notes = append(notes, "they need gentle encouragement")
	}
	if len(notes) == 0 {
		return ""
	}
	return "Remember: " + strings.Join(notes, "; ") + "."
}
