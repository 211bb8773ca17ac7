package memory

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/altarworks/emmaus/internal/insight"
	"github.com/altarworks/emmaus/internal/types"
)

// firstConversationContext is returned when no memory exists yet. It must
// never be empty; prompt assembly relies on always getting a context block.
const firstConversationContext = "This is your first conversation with this person. " +
	"There is no shared history yet; welcome them warmly and get to know their heart."

const momentExcerptLimit = 200

// InsightReport is what an extraction pass found. Emotions and Topics are
// returned for immediate use by the caller but are not merged into the
// stored frequency counters; see ExtractAndStoreInsights.
type InsightReport struct {
	Emotions      []insight.EmotionMatch
	Topics        []types.TopicLabel
	NewSituations []string
	NewScriptures []string
	Breakthrough  bool
}

// Service owns the merge semantics on top of the file store.
type Service struct {
	store      *FileStore
	extractor  *insight.Extractor
	summarizer *ContextSummarizer
	now        func() time.Time
}

// NewService returns the memory service.
func NewService(store *FileStore, extractor *insight.Extractor, summarizer *ContextSummarizer) *Service {
	return &Service{
		store:      store,
		extractor:  extractor,
		summarizer: summarizer,
		now:        time.Now,
	}
}

// RecordInteraction merges insights from a single completed exchange into
// the pair's memory, creating it on first contact. Only the user's message
// is classified; frequency counters increment once per call.
func (s *Service) RecordInteraction(userID, characterID, userMessage, response string) error {
	mem := s.getOrCreate(userID, characterID)
	mem.ConversationCount++
	now := s.now()

	for _, match := range s.extractor.Emotions(userMessage) {
		mergeEmotion(mem, match, now)
	}
	for _, topic := range s.extractor.Topics(userMessage) {
		mergeTopic(mem, topic, now)
	}
	for _, situation := range s.extractor.Situations(userMessage) {
		s.mergeSituation(mem, situation, now, true)
	}

	return s.store.Save(mem)
}

// ExtractAndStoreInsights scans the whole conversation. User turns feed
// emotion/topic/situation detection, assistant turns feed scripture
// detection, and only the last user message is tested for a breakthrough.
//
// Detected emotions and topics are reported but deliberately not merged
// into the stored counters: this pass re-reads the full history on every
// call, so re-incrementing would inflate frequencies as the conversation
// grows. Per-exchange counting belongs to RecordInteraction.
func (s *Service) ExtractAndStoreInsights(userID, characterID string, conversation []types.ChatMessage) (*InsightReport, error) {
	report := &InsightReport{}
	if len(conversation) == 0 {
		return report, nil
	}

	var userTexts []string
	var assistantTexts []string
	lastUserMessage := ""
	for _, msg := range conversation {
		switch msg.Role {
		case types.RoleUser:
			userTexts = append(userTexts, msg.Content)
			lastUserMessage = msg.Content
		case types.RoleAssistant:
			assistantTexts = append(assistantTexts, msg.Content)
		}
	}
	userBlob := strings.Join(userTexts, "\n")
	assistantBlob := strings.Join(assistantTexts, "\n")

	mem := s.getOrCreate(userID, characterID)
	now := s.now()

	report.Emotions = s.extractor.Emotions(userBlob)
	report.Topics = s.extractor.Topics(userBlob)

	for _, situation := range s.extractor.Situations(userBlob) {
		if s.mergeSituation(mem, situation, now, false) {
			report.NewSituations = append(report.NewSituations, situation)
		}
	}

	for _, ref := range insight.DetectScriptureRefs(assistantBlob) {
		if appendScripture(mem, ref, "shared in conversation", now) {
			report.NewScriptures = append(report.NewScriptures, ref)
		}
	}

	if lastUserMessage != "" && insight.IsBreakthrough(lastUserMessage) {
		mem.Moments = append(mem.Moments, types.SignificantMoment{
			Timestamp: now,
			Summary:   insight.BreakthroughSummary(lastUserMessage),
			Excerpt:   truncateRunes(lastUserMessage, momentExcerptLimit),
			Reason:    "breakthrough",
		})
		report.Breakthrough = true
	}

	mergePreferences(&mem.Preferences, insight.InferPreferences(userTexts))

	if err := s.store.Save(mem); err != nil {
		return nil, err
	}
	return report, nil
}

// GetContextForPrompt returns the memory context block for prompt assembly.
// It is never empty: pairs without memory get the first-conversation framing.
func (s *Service) GetContextForPrompt(userID, characterID string) string {
	mem := s.store.Get(userID, characterID)
	if mem == nil {
		return firstConversationContext
	}
	return s.summarizer.Summarize(mem)
}

// MarkSituationResolved flags a stored situation as resolved. Unknown users,
// characters, or situation ids are a no-op, not an error.
func (s *Service) MarkSituationResolved(userID, characterID, situationID, resolution string) error {
	mem := s.store.Get(userID, characterID)
	if mem == nil {
		return nil
	}

	for i := range mem.Situations {
		if mem.Situations[i].ID == situationID {
			mem.Situations[i].Resolved = true
			mem.Situations[i].Resolution = resolution
			return s.store.Save(mem)
		}
	}
	return nil
}

// RecordResonantScripture notes that a passage landed with the user,
// creating the memory record if none exists yet.
func (s *Service) RecordResonantScripture(userID, characterID, reference, reason string) error {
	mem := s.getOrCreate(userID, characterID)
	now := s.now()

	for i := range mem.Scriptures {
		if strings.EqualFold(mem.Scriptures[i].Reference, reference) {
			mem.Scriptures[i].TimesReferenced++
			if mem.Scriptures[i].Reason == "" {
				mem.Scriptures[i].Reason = reason
			}
			return s.store.Save(mem)
		}
	}

	appendScripture(mem, reference, reason, now)
	return s.store.Save(mem)
}

// ClearUserMemory deletes everything stored for the user. Idempotent.
func (s *Service) ClearUserMemory(userID string) error {
	return s.store.Clear(userID)
}

// ExportUserMemory returns the user's full record list as indented JSON.
func (s *Service) ExportUserMemory(userID string) (string, error) {
	return s.store.Export(userID)
}

func (s *Service) getOrCreate(userID, characterID string) *types.UserCharacterMemory {
	if mem := s.store.Get(userID, characterID); mem != nil {
		return mem
	}
	return &types.UserCharacterMemory{UserID: userID, CharacterID: characterID}
}

// mergeEmotion increments an existing emotion's frequency and unions in any
// newly seen triggers, preserving prior trigger order; unseen emotions are
// appended with frequency 1.
func mergeEmotion(mem *types.UserCharacterMemory, match insight.EmotionMatch, now time.Time) {
	for i := range mem.Emotions {
		if mem.Emotions[i].Emotion != match.Emotion {
			continue
		}
		mem.Emotions[i].Frequency++
		mem.Emotions[i].LastObserved = now
		for _, trigger := range match.Triggers {
			if !containsFold(mem.Emotions[i].Triggers, trigger) {
				mem.Emotions[i].Triggers = append(mem.Emotions[i].Triggers, trigger)
			}
		}
		return
	}

	mem.Emotions = append(mem.Emotions, types.EmotionalInsight{
		Emotion:      match.Emotion,
		Frequency:    1,
		Triggers:     append([]string(nil), match.Triggers...),
		LastObserved: now,
	})
}

func mergeTopic(mem *types.UserCharacterMemory, topic types.TopicLabel, now time.Time) {
	for i := range mem.Topics {
		if mem.Topics[i].Topic == topic {
			mem.Topics[i].MentionCount++
			mem.Topics[i].LastMentioned = now
			return
		}
	}
	mem.Topics = append(mem.Topics, types.RecurringTopic{
		Topic:         topic,
		MentionCount:  1,
		LastMentioned: now,
	})
}

// mergeSituation matches a new span against stored situations by
// bidirectional case-insensitive containment, keeping the first-seen summary
// as canonical. When bumpExisting is false a containment match leaves the
// stored entry untouched (the full-history pass must not re-count it).
// Reports whether a new situation entry was appended.
func (s *Service) mergeSituation(mem *types.UserCharacterMemory, situation string, now time.Time, bumpExisting bool) bool {
	lower := strings.ToLower(situation)
	for i := range mem.Situations {
		stored := strings.ToLower(mem.Situations[i].Summary)
		if strings.Contains(stored, lower) || strings.Contains(lower, stored) {
			if bumpExisting {
				mem.Situations[i].MentionCount++
				mem.Situations[i].LastMentioned = now
			}
			return false
		}
	}

	mem.Situations = append(mem.Situations, types.UserLifeSituation{
		ID:             uuid.NewString(),
		Summary:        situation,
		Category:       insight.CategorizeSituation(situation),
		FirstMentioned: now,
		LastMentioned:  now,
		MentionCount:   1,
	})
	return true
}

// appendScripture adds a reference if it is not already stored. Reports
// whether a new entry was appended.
func appendScripture(mem *types.UserCharacterMemory, reference, reason string, now time.Time) bool {
	for i := range mem.Scriptures {
		if strings.EqualFold(mem.Scriptures[i].Reference, reference) {
			return false
		}
	}
	mem.Scriptures = append(mem.Scriptures, types.ResonantScripture{
		Reference:       reference,
		Reason:          reason,
		FirstShared:     now,
		TimesReferenced: 1,
	})
	return true
}

// mergePreferences fills unset preference fields and never overwrites a
// value that has already been inferred.
func mergePreferences(dst *types.CommunicationPreferences, src types.CommunicationPreferences) {
	if dst.PrefersDirectness == nil {
		dst.PrefersDirectness = src.PrefersDirectness
	}
	if dst.WantsScriptureReferences == nil {
		dst.WantsScriptureReferences = src.WantsScriptureReferences
	}
	if dst.NeedsEncouragement == nil {
		dst.NeedsEncouragement = src.NeedsEncouragement
	}
	if dst.PrefersQuestions == nil {
		dst.PrefersQuestions = src.PrefersQuestions
	}
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
