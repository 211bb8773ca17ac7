package types

import "time"

// EmotionLabel is a closed emotion taxonomy entry.
type EmotionLabel string

const (
	EmotionSadness    EmotionLabel = "sadness"
	EmotionAnxiety    EmotionLabel = "anxiety"
	EmotionAnger      EmotionLabel = "anger"
	EmotionLoneliness EmotionLabel = "loneliness"
	EmotionConfusion  EmotionLabel = "confusion"
	EmotionHope       EmotionLabel = "hope"
	EmotionGratitude  EmotionLabel = "gratitude"
	EmotionGuilt      EmotionLabel = "guilt"
	EmotionJoy        EmotionLabel = "joy"
)

// TopicLabel is a closed conversation topic taxonomy entry.
type TopicLabel string

const (
	TopicFamily        TopicLabel = "family"
	TopicWork          TopicLabel = "work"
	TopicHealth        TopicLabel = "health"
	TopicFaith         TopicLabel = "faith"
	TopicRelationships TopicLabel = "relationships"
	TopicPurpose       TopicLabel = "purpose"
	TopicFinances      TopicLabel = "finances"
	TopicGrief         TopicLabel = "grief"
	TopicDecisions     TopicLabel = "decisions"
)

// SituationCategory classifies a life situation.
type SituationCategory string

const (
	CategoryFamily       SituationCategory = "family"
	CategoryWork         SituationCategory = "work"
	CategoryHealth       SituationCategory = "health"
	CategoryFaith        SituationCategory = "faith"
	CategoryRelationship SituationCategory = "relationship"
	CategoryFinances     SituationCategory = "finances"
	CategoryGeneral      SituationCategory = "general"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single transcript turn.
type ChatMessage struct {
	ID          int       `json:"id"`
	SessionID   string    `json:"session_id"`
	CharacterID string    `json:"character_id"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// EmotionalInsight tracks how often an emotion surfaced and what wording triggered it.
type EmotionalInsight struct {
	Emotion      EmotionLabel `json:"emotion"`
	Frequency    int          `json:"frequency"`
	Triggers     []string     `json:"triggers"`
	LastObserved time.Time    `json:"last_observed"`
}

// RecurringTopic tracks a repeatedly raised conversation topic.
type RecurringTopic struct {
	Topic         TopicLabel `json:"topic"`
	MentionCount  int        `json:"mention_count"`
	LastMentioned time.Time  `json:"last_mentioned"`
}

// UserLifeSituation is an ongoing circumstance the user has shared.
// Summary keeps the first-seen wording; later matches only bump the counters.
type UserLifeSituation struct {
	ID             string            `json:"id"`
	Summary        string            `json:"summary"`
	Category       SituationCategory `json:"category"`
	FirstMentioned time.Time         `json:"first_mentioned"`
	LastMentioned  time.Time         `json:"last_mentioned"`
	MentionCount   int               `json:"mention_count"`
	Resolved       bool              `json:"resolved"`
	Resolution     string            `json:"resolution,omitempty"`
}

// ResonantScripture is a passage that landed with the user.
type ResonantScripture struct {
	Reference       string    `json:"reference"`
	Reason          string    `json:"reason,omitempty"`
	FirstShared     time.Time `json:"first_shared"`
	TimesReferenced int       `json:"times_referenced"`
}

// SignificantMoment is a logged high point of a conversation.
type SignificantMoment struct {
	Timestamp time.Time `json:"timestamp"`
	Summary   string    `json:"summary"`
	Excerpt   string    `json:"excerpt"`
	Reason    string    `json:"reason"`
}

// CommunicationPreferences are inferred once and never overwritten;
// nil means the heuristic has not produced a verdict yet.
// PrefersQuestions exists for forward compatibility and is not populated
// by the current inference pass.
type CommunicationPreferences struct {
	PrefersDirectness        *bool `json:"prefers_directness,omitempty"`
	WantsScriptureReferences *bool `json:"wants_scripture_references,omitempty"`
	NeedsEncouragement       *bool `json:"needs_encouragement,omitempty"`
	PrefersQuestions         *bool `json:"prefers_questions,omitempty"`
}

// UserCharacterMemory is everything one persona remembers about one user.
// At most one record exists per (UserID, CharacterID) pair; the pair is
// matched case-insensitively at save time.
type UserCharacterMemory struct {
	UserID            string                   `json:"user_id"`
	CharacterID       string                   `json:"character_id"`
	ConversationCount int                      `json:"conversation_count"`
	LastInteraction   time.Time                `json:"last_interaction"`
	Emotions          []EmotionalInsight       `json:"emotional_insights"`
	Topics            []RecurringTopic         `json:"recurring_topics"`
	Situations        []UserLifeSituation      `json:"life_situations"`
	Scriptures        []ResonantScripture      `json:"resonant_scriptures"`
	Moments           []SignificantMoment      `json:"significant_moments"`
	Preferences       CommunicationPreferences `json:"communication_preferences"`
}
