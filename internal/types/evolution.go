package types

import "time"

// GrowthEventType names a kind of persona-level change.
type GrowthEventType string

const (
	GrowthPerspectiveShift     GrowthEventType = "perspective_shift"
	GrowthNewInsight           GrowthEventType = "new_insight"
	GrowthDeepAgreement        GrowthEventType = "deep_agreement"
	GrowthProductiveConflict   GrowthEventType = "productive_conflict"
	GrowthSynthesizedWisdom    GrowthEventType = "synthesized_wisdom"
	GrowthScripturalRevelation GrowthEventType = "scriptural_revelation"
	GrowthRelationshipGrowth   GrowthEventType = "relationship_growth"
)

// EvolutionStage is the derived lifecycle stage of an evolving persona.
type EvolutionStage string

const (
	StagePristine    EvolutionStage = "pristine"
	StageAware       EvolutionStage = "aware"
	StageEvolving    EvolutionStage = "evolving"
	StageSynthesized EvolutionStage = "synthesized"
)

// StaticCore holds the persona identity facts. It is set once at registration
// and never mutated afterwards.
type StaticCore struct {
	CharacterID   string   `json:"character_id"`
	Name          string   `json:"name"`
	Era           string   `json:"era,omitempty"`
	Identity      string   `json:"identity"`
	Convictions   []string `json:"convictions,omitempty"`
	KeyScriptures []string `json:"key_scriptures,omitempty"`
}

// DynamicLayer accumulates everything the persona has learned since creation.
type DynamicLayer struct {
	// RefinedUnderstandings maps a discussion topic to the persona's current
	// synthesis of that topic.
	RefinedUnderstandings map[string]string `json:"refined_understandings,omitempty"`
	GainedPerspectives    []string          `json:"gained_perspectives,omitempty"`
	EvolvedResponses      []string          `json:"evolved_responses,omitempty"`
	ArgumentPatterns      []string          `json:"argument_patterns,omitempty"`
	ChallengedViews       []string          `json:"challenged_views,omitempty"`
	EvolutionScore        float64           `json:"evolution_score"`
}

// LearnedTeaching is one thing a persona took from another persona's discourse.
type LearnedTeaching struct {
	Topic          string    `json:"topic"`
	Teaching       string    `json:"teaching"`
	Context        string    `json:"context,omitempty"`
	HowItChanged   string    `json:"how_it_changed,omitempty"`
	SupportingRefs []string  `json:"supporting_refs,omitempty"`
	ImpactScore    float64   `json:"impact_score"`
	LearnedAt      time.Time `json:"learned_at"`
}

// CrossCharacterInsight accumulates what one persona has learned from another.
// Exactly one exists per source persona.
type CrossCharacterInsight struct {
	SourceCharacterID       string            `json:"source_character_id"`
	LearnedTeachings        []LearnedTeaching `json:"learned_teachings,omitempty"`
	Agreements              []string          `json:"agreements,omitempty"`
	ProductiveDisagreements []string          `json:"productive_disagreements,omitempty"`
	SharedScriptures        []string          `json:"shared_scriptures,omitempty"`
	InfluenceScore          float64           `json:"influence_score"`
	InteractionCount        int               `json:"interaction_count"`
	FirstInteraction        time.Time         `json:"first_interaction"`
	LastInteraction         time.Time         `json:"last_interaction"`
}

// SynthesizedWisdom is a conclusion drawn from more than one persona's teaching.
type SynthesizedWisdom struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Statement string    `json:"statement"`
	Sources   []string  `json:"sources"`
	CreatedAt time.Time `json:"created_at"`
}

// GrowthEvent is an append-only log entry of persona change.
type GrowthEvent struct {
	ID                 string          `json:"id"`
	Type               GrowthEventType `json:"type"`
	Description        string          `json:"description"`
	RelatedCharacterID string          `json:"related_character_id,omitempty"`
	Topic              string          `json:"topic,omitempty"`
	OccurredAt         time.Time       `json:"occurred_at"`
}

// EvolutionMetrics aggregates persona growth for display.
type EvolutionMetrics struct {
	TotalInteractions  int    `json:"total_interactions"`
	InsightsLearned    int    `json:"insights_learned"`
	WisdomSynthesized  int    `json:"wisdom_synthesized"`
	GrowthEventCount   int    `json:"growth_event_count"`
	StrongestInfluence string `json:"strongest_influence,omitempty"`
}

// EvolvingCharacter is the full evolution record of one persona. Created once,
// never deleted; GrowthLog and Wisdom are append-only and EvolutionVersion is
// strictly increasing across DynamicLayer mutations.
type EvolvingCharacter struct {
	Core             StaticCore                        `json:"core"`
	Dynamic          DynamicLayer                      `json:"dynamic"`
	Insights         map[string]*CrossCharacterInsight `json:"insights,omitempty"`
	Wisdom           []SynthesizedWisdom               `json:"wisdom,omitempty"`
	GrowthLog        []GrowthEvent                     `json:"growth_log,omitempty"`
	EvolutionVersion int                               `json:"evolution_version"`
	CreatedAt        time.Time                         `json:"created_at"`
	UpdatedAt        time.Time                         `json:"updated_at"`
}
