package evolution

import (
	"fmt"
	"strings"
	"time"

	"github.com/altarworks/emmaus/internal/insight"
	"github.com/altarworks/emmaus/internal/types"
)

// DiscussionMessage is one turn of a multi-persona discussion.
type DiscussionMessage struct {
	CharacterID string `json:"character_id"`
	Content     string `json:"content"`
}

// Discussion is a completed roundtable transcript.
type Discussion struct {
	Topic        string              `json:"topic"`
	Participants []string            `json:"participants"`
	Messages     []DiscussionMessage `json:"messages"`
}

const (
	teachingLengthFloor    = 80
	teachingExcerptLimit   = 200
	perspectiveShiftImpact = 0.7
	relationshipMilestone  = 5
)

var teachingMarkers = []string{
	"remember", "consider", "the lord", "wisdom", "truth", "i have learned",
}

var agreementMarkers = []string{
	"i agree", "you are right", "you're right", "well said", "amen", "just as you say",
}

var disagreementMarkers = []string{
	"i disagree", "yet consider", "but consider", "on the contrary", "i see it differently",
}

// ProcessDiscussion folds one discussion into every participant's evolving
// record. For each participant, every other participant who spoke gets a
// cross-character insight update; sufficiently impactful outcomes append
// growth events, and conclusions converging from several sources append
// synthesized wisdom. Each participant is mutated under its own lock.
func (g *Graph) ProcessDiscussion(d Discussion) error {
	if strings.TrimSpace(d.Topic) == "" {
		return fmt.Errorf("discussion topic is required")
	}
	if len(d.Participants) < 2 {
		return fmt.Errorf("a discussion needs at least two participants, got %d", len(d.Participants))
	}

	byAuthor := make(map[string][]DiscussionMessage)
	for _, msg := range d.Messages {
		key := strings.ToLower(msg.CharacterID)
		byAuthor[key] = append(byAuthor[key], msg)
	}

	for _, participantID := range d.Participants {
		p := g.getOrCreate(participantID)
		g.absorbDiscussion(p, participantID, d, byAuthor)
	}
	return nil
}

// absorbDiscussion applies one discussion to a single participant.
func (g *Graph) absorbDiscussion(p *persona, participantID string, d Discussion, byAuthor map[string][]DiscussionMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	char := p.char
	now := g.now()
	topicKey := strings.ToLower(strings.TrimSpace(d.Topic))
	teachingSources := 0
	var convergent []string
	var sourceIDs []string

	for _, otherID := range d.Participants {
		if strings.EqualFold(otherID, participantID) {
			continue
		}
		spoken := byAuthor[strings.ToLower(otherID)]
		if len(spoken) == 0 {
			continue
		}

		bucket := char.Insights[strings.ToLower(otherID)]
		if bucket == nil {
			bucket = &types.CrossCharacterInsight{
				SourceCharacterID: otherID,
				FirstInteraction:  now,
			}
			char.Insights[strings.ToLower(otherID)] = bucket
		}

		contribution := analyzeContribution(d, participantID, otherID, spoken)

		for _, teaching := range contribution.teachings {
			teaching.LearnedAt = now
			bucket.LearnedTeachings = append(bucket.LearnedTeachings, teaching)
		}
		bucket.Agreements = append(bucket.Agreements, contribution.agreements...)
		bucket.ProductiveDisagreements = append(bucket.ProductiveDisagreements, contribution.disagreements...)
		for _, ref := range contribution.scriptures {
			if !containsFold(bucket.SharedScriptures, ref) {
				bucket.SharedScriptures = append(bucket.SharedScriptures, ref)
			}
		}

		bucket.InteractionCount++
		bucket.LastInteraction = now
		if bucket.FirstInteraction.IsZero() {
			bucket.FirstInteraction = now
		}
		bucket.InfluenceScore = influenceScore(bucket)

		g.logGrowth(char, otherID, d.Topic, contribution, bucket.InteractionCount, now)

		if len(contribution.teachings) > 0 {
			teachingSources++
			sourceIDs = append(sourceIDs, otherID)
			convergent = append(convergent, contribution.teachings[0].Teaching)
			char.Dynamic.GainedPerspectives = append(char.Dynamic.GainedPerspectives,
				fmt.Sprintf("%s on %s: %s", otherID, d.Topic, contribution.teachings[0].Teaching))
		}
		if len(contribution.disagreements) > 0 {
			char.Dynamic.ChallengedViews = append(char.Dynamic.ChallengedViews,
				fmt.Sprintf("challenged by %s on %s", otherID, d.Topic))
		}
	}

	// Conclusions reached from more than one source become wisdom.
	if teachingSources >= 2 {
		wisdom := types.SynthesizedWisdom{
			ID:        g.newID(),
			Topic:     d.Topic,
			Statement: synthesizeStatement(d.Topic, convergent),
			Sources:   sourceIDs,
			CreatedAt: now,
		}
		char.Wisdom = append(char.Wisdom, wisdom)
		char.Dynamic.RefinedUnderstandings[topicKey] = wisdom.Statement
		char.GrowthLog = append(char.GrowthLog, types.GrowthEvent{
			ID:          g.newID(),
			Type:        types.GrowthSynthesizedWisdom,
			Description: fmt.Sprintf("synthesized wisdom on %q from %d voices", d.Topic, teachingSources),
			Topic:       d.Topic,
			OccurredAt:  now,
		})
	}

	char.Dynamic.EvolutionScore += float64(teachingSources) * 0.1
	char.EvolutionVersion++
	char.UpdatedAt = now
}

// contribution is what one source persona contributed toward another.
type contribution struct {
	teachings     []types.LearnedTeaching
	agreements    []string
	disagreements []string
	scriptures    []string
}

// analyzeContribution applies the discussion heuristics: substantial or
// scripture-backed messages become teachings; a participant's reply echoing
// an agreement or disagreement marker right after the source's turn is
// recorded as such.
func analyzeContribution(d Discussion, participantID, sourceID string, spoken []DiscussionMessage) contribution {
	var c contribution

	for _, msg := range spoken {
		refs := insight.DetectScriptureRefs(msg.Content)
		c.scriptures = append(c.scriptures, refs...)

		if !isTeaching(msg.Content, refs) {
			continue
		}
		impact := 0.4
		if len(refs) > 0 {
			impact += 0.3
		}
		if len([]rune(msg.Content)) >= 2*teachingLengthFloor {
			impact += 0.1
		}
		c.teachings = append(c.teachings, types.LearnedTeaching{
			Topic:          d.Topic,
			Teaching:       truncateRunes(msg.Content, teachingExcerptLimit),
			Context:        fmt.Sprintf("roundtable on %s", d.Topic),
			HowItChanged:   fmt.Sprintf("broadened view of %s", d.Topic),
			SupportingRefs: refs,
			ImpactScore:    clamp01(impact),
		})
	}

	for i, msg := range d.Messages {
		if !strings.EqualFold(msg.CharacterID, participantID) || i == 0 {
			continue
		}
		prev := d.Messages[i-1]
		if !strings.EqualFold(prev.CharacterID, sourceID) {
			continue
		}
		lower := strings.ToLower(msg.Content)
		if containsAnyMarker(lower, agreementMarkers) {
			c.agreements = append(c.agreements, truncateRunes(prev.Content, teachingExcerptLimit))
		}
		if containsAnyMarker(lower, disagreementMarkers) {
			c.disagreements = append(c.disagreements, truncateRunes(prev.Content, teachingExcerptLimit))
		}
	}

	return c
}

func isTeaching(content string, refs []string) bool {
	if len(refs) > 0 {
		return true
	}
	if len([]rune(content)) >= teachingLengthFloor {
		return true
	}
	lower := strings.ToLower(content)
	return containsAnyMarker(lower, teachingMarkers)
}

// logGrowth appends growth events for the impactful outcomes of one
// source's contribution.
func (g *Graph) logGrowth(char *types.EvolvingCharacter, sourceID, topic string, c contribution, interactionCount int, now time.Time) {
	appendEvent := func(kind types.GrowthEventType, description string) {
		char.GrowthLog = append(char.GrowthLog, types.GrowthEvent{
			ID:                 g.newID(),
			Type:               kind,
			Description:        description,
			RelatedCharacterID: sourceID,
			Topic:              topic,
			OccurredAt:         now,
		})
	}

	maxImpact := 0.0
	for _, teaching := range c.teachings {
		if teaching.ImpactScore > maxImpact {
			maxImpact = teaching.ImpactScore
		}
	}
	switch {
	case maxImpact >= perspectiveShiftImpact:
		appendEvent(types.GrowthPerspectiveShift, fmt.Sprintf("perspective shifted by %s on %q", sourceID, topic))
	case len(c.teachings) > 0:
		appendEvent(types.GrowthNewInsight, fmt.Sprintf("new insight from %s on %q", sourceID, topic))
	}
	if len(c.scriptures) > 0 {
		appendEvent(types.GrowthScripturalRevelation, fmt.Sprintf("%s shared %s", sourceID, strings.Join(c.scriptures, ", ")))
	}
	if len(c.agreements) > 0 {
		appendEvent(types.GrowthDeepAgreement, fmt.Sprintf("deep agreement with %s on %q", sourceID, topic))
	}
	if len(c.disagreements) > 0 {
		appendEvent(types.GrowthProductiveConflict, fmt.Sprintf("productive disagreement with %s on %q", sourceID, topic))
	}
	if interactionCount > 0 && interactionCount%relationshipMilestone == 0 {
		appendEvent(types.GrowthRelationshipGrowth, fmt.Sprintf("%d discussions shared with %s", interactionCount, sourceID))
	}
}

// influenceScore derives a monotonically non-decreasing influence value
// from interaction count and cumulative teaching impact.
func influenceScore(bucket *types.CrossCharacterInsight) float64 {
	cumulative := 0.0
	for _, teaching := range bucket.LearnedTeachings {
		cumulative += teaching.ImpactScore
	}
	score := clamp01(0.05*float64(bucket.InteractionCount) + 0.1*cumulative)
	if score < bucket.InfluenceScore {
		return bucket.InfluenceScore
	}
	return score
}

func synthesizeStatement(topic string, teachings []string) string {
	parts := make([]string, 0, len(teachings))
	for _, teaching := range teachings {
		parts = append(parts, truncateRunes(teaching, 120))
	}
	return fmt.Sprintf("On %s, several voices converge: %s", topic, strings.Join(parts, " / "))
}

func containsAnyMarker(text string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
