package memory

import (
	"strings"
	"testing"
	"time"

	"github.com/altarworks/emmaus/internal/insight"
	"github.com/altarworks/emmaus/internal/types"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(newTestStore(t), insight.NewExtractor(), NewContextSummarizer(false))
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestRecordInteractionFirstContact(t *testing.T) {
	svc := newTestService(t)

	err := svc.RecordInteraction("anna", "paul",
		"I'm really worried about my job interview tomorrow", "Take heart.")
	if err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}

	mem := svc.store.Get("anna", "paul")
	if mem == nil {
		t.Fatal("expected memory record")
	}
	if mem.ConversationCount != 1 {
		t.Fatalf("expected conversation count 1, got %d", mem.ConversationCount)
	}
	if len(mem.Emotions) != 1 || mem.Emotions[0].Emotion != types.EmotionAnxiety {
		t.Fatalf("expected anxiety insight, got %+v", mem.Emotions)
	}
	if mem.Emotions[0].Frequency != 1 {
		t.Fatalf("expected frequency 1, got %d", mem.Emotions[0].Frequency)
	}
	if len(mem.Topics) != 1 || mem.Topics[0].Topic != types.TopicWork {
		t.Fatalf("expected work topic, got %+v", mem.Topics)
	}
	if len(mem.Situations) != 1 || mem.Situations[0].Summary != "my job interview tomorrow" {
		t.Fatalf("expected captured situation, got %+v", mem.Situations)
	}
	if mem.Situations[0].Category != types.CategoryWork {
		t.Fatalf("expected work category, got %s", mem.Situations[0].Category)
	}
	if mem.Situations[0].ID == "" {
		t.Fatal("expected situation id")
	}
}

func TestRecordInteractionRepeatBumpsCounters(t *testing.T) {
	svc := newTestService(t)

	for i := 0; i < 2; i++ {
		err := svc.RecordInteraction("anna", "paul",
			"I'm really worried about my job interview tomorrow", "")
		if err != nil {
			t.Fatalf("RecordInteraction #%d: %v", i+1, err)
		}
	}

	mem := svc.store.Get("anna", "paul")
	if mem.ConversationCount != 2 {
		t.Fatalf("expected conversation count 2, got %d", mem.ConversationCount)
	}
	if mem.Emotions[0].Frequency != 2 {
		t.Fatalf("expected anxiety frequency 2, got %d", mem.Emotions[0].Frequency)
	}
	if mem.Topics[0].MentionCount != 2 {
		t.Fatalf("expected work mention count 2, got %d", mem.Topics[0].MentionCount)
	}
	if len(mem.Situations) != 1 {
		t.Fatalf("expected merged situation, got %d entries", len(mem.Situations))
	}
	if mem.Situations[0].MentionCount != 2 {
		t.Fatalf("expected situation mention count 2, got %d", mem.Situations[0].MentionCount)
	}
}

func TestSituationMergeKeepsFirstSummary(t *testing.T) {
	svc := newTestService(t)

	if err := svc.RecordInteraction("anna", "paul", "I'm struggling with my marriage falling apart", ""); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}
	// A shorter span contained in the stored summary merges instead of appending.
	if err := svc.RecordInteraction("anna", "paul", "I'm struggling with my marriage", ""); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}

	mem := svc.store.Get("anna", "paul")
	if len(mem.Situations) != 1 {
		t.Fatalf("expected 1 situation, got %d", len(mem.Situations))
	}
	if mem.Situations[0].Summary != "my marriage falling apart" {
		t.Fatalf("expected first-seen summary to stay canonical, got %q", mem.Situations[0].Summary)
	}
}

func TestExtractAndStoreInsights(t *testing.T) {
	svc := newTestService(t)

	conversation := []types.ChatMessage{
		{Role: types.RoleUser, Content: "I'm dealing with a difficult season at work"},
		{Role: types.RoleAssistant, Content: "Hold on to Philippians 4:6-7 when the worry rises."},
		{Role: types.RoleUser, Content: "Thank you, I understand now"},
	}

	report, err := svc.ExtractAndStoreInsights("anna", "paul", conversation)
	if err != nil {
		t.Fatalf("ExtractAndStoreInsights: %v", err)
	}

	if len(report.NewSituations) != 1 || report.NewSituations[0] != "a difficult season at work" {
		t.Fatalf("unexpected new situations: %v", report.NewSituations)
	}
	if len(report.NewScriptures) != 1 || report.NewScriptures[0] != "Philippians 4:6-7" {
		t.Fatalf("unexpected new scriptures: %v", report.NewScriptures)
	}
	if !report.Breakthrough {
		t.Fatal("expected breakthrough")
	}

	mem := svc.store.Get("anna", "paul")
	if len(mem.Moments) != 1 {
		t.Fatalf("expected 1 significant moment, got %d", len(mem.Moments))
	}
	if mem.Moments[0].Reason != "breakthrough" {
		t.Fatalf("unexpected moment reason %q", mem.Moments[0].Reason)
	}
	if len(mem.Scriptures) != 1 || mem.Scriptures[0].Reference != "Philippians 4:6-7" {
		t.Fatalf("unexpected stored scriptures: %+v", mem.Scriptures)
	}

	// The full-history pass reports emotions and topics without touching
	// the stored frequency counters; those belong to RecordInteraction.
	if mem.ConversationCount != 0 {
		t.Fatalf("extraction must not bump conversation count, got %d", mem.ConversationCount)
	}
	if len(mem.Emotions) != 0 {
		t.Fatalf("extraction must not merge emotion counters, got %+v", mem.Emotions)
	}
	if mem.Preferences.NeedsEncouragement == nil {
		t.Fatal("expected preferences to be inferred")
	}
}

func TestExtractDoesNotRecountOnReplay(t *testing.T) {
	svc := newTestService(t)

	conversation := []types.ChatMessage{
		{Role: types.RoleUser, Content: "I'm dealing with a difficult season at work"},
	}
	for i := 0; i < 3; i++ {
		if _, err := svc.ExtractAndStoreInsights("anna", "paul", conversation); err != nil {
			t.Fatalf("ExtractAndStoreInsights #%d: %v", i+1, err)
		}
	}

	mem := svc.store.Get("anna", "paul")
	if len(mem.Situations) != 1 {
		t.Fatalf("expected 1 situation after replays, got %d", len(mem.Situations))
	}
	if mem.Situations[0].MentionCount != 1 {
		t.Fatalf("replayed extraction must not bump mention count, got %d", mem.Situations[0].MentionCount)
	}
}

func TestBreakthroughOnlyOnLastUserMessage(t *testing.T) {
	svc := newTestService(t)

	conversation := []types.ChatMessage{
		{Role: types.RoleUser, Content: "Thank you for yesterday"},
		{Role: types.RoleAssistant, Content: "Always."},
		{Role: types.RoleUser, Content: "Today everything fell apart again"},
	}
	report, err := svc.ExtractAndStoreInsights("anna", "paul", conversation)
	if err != nil {
		t.Fatalf("ExtractAndStoreInsights: %v", err)
	}
	if report.Breakthrough {
		t.Fatal("breakthrough must only consider the final user message")
	}
}

func TestGetContextForPromptFirstConversation(t *testing.T) {
	svc := newTestService(t)

	context := svc.GetContextForPrompt("stranger", "paul")
	if !strings.Contains(context, "first conversation") {
		t.Fatalf("expected first-conversation framing, got %q", context)
	}

	// Reading context must not create a record.
	if svc.store.Get("stranger", "paul") != nil {
		t.Fatal("GetContextForPrompt must not persist anything")
	}
}

func TestMarkSituationResolved(t *testing.T) {
	svc := newTestService(t)

	if err := svc.RecordInteraction("anna", "paul", "I'm worried about my church community", ""); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}
	mem := svc.store.Get("anna", "paul")
	id := mem.Situations[0].ID

	if err := svc.MarkSituationResolved("anna", "paul", id, "found a new congregation"); err != nil {
		t.Fatalf("MarkSituationResolved: %v", err)
	}
	mem = svc.store.Get("anna", "paul")
	if !mem.Situations[0].Resolved || mem.Situations[0].Resolution != "found a new congregation" {
		t.Fatalf("expected resolved situation, got %+v", mem.Situations[0])
	}

	// Unknown ids and pairs are a no-op.
	if err := svc.MarkSituationResolved("anna", "paul", "missing-id", "x"); err != nil {
		t.Fatalf("unknown id: %v", err)
	}
	if err := svc.MarkSituationResolved("ghost", "paul", id, "x"); err != nil {
		t.Fatalf("unknown user: %v", err)
	}
}

func TestRecordResonantScripture(t *testing.T) {
	svc := newTestService(t)

	if err := svc.RecordResonantScripture("anna", "paul", "Romans 8:28", "brought comfort"); err != nil {
		t.Fatalf("RecordResonantScripture: %v", err)
	}
	if err := svc.RecordResonantScripture("anna", "paul", "romans 8:28", ""); err != nil {
		t.Fatalf("RecordResonantScripture repeat: %v", err)
	}

	mem := svc.store.Get("anna", "paul")
	if len(mem.Scriptures) != 1 {
		t.Fatalf("expected 1 scripture, got %d", len(mem.Scriptures))
	}
	if mem.Scriptures[0].TimesReferenced != 2 {
		t.Fatalf("expected 2 references, got %d", mem.Scriptures[0].TimesReferenced)
	}
	if mem.Scriptures[0].Reason != "brought comfort" {
		t.Fatalf("expected original reason kept, got %q", mem.Scriptures[0].Reason)
	}
}

func TestPreferencesFillOnceNeverOverwrite(t *testing.T) {
	svc := newTestService(t)

	first := []types.ChatMessage{
		{Role: types.RoleUser, Content: "What does scripture say? Where do I start? Can you help?"},
	}
	if _, err := svc.ExtractAndStoreInsights("anna", "paul", first); err != nil {
		t.Fatalf("ExtractAndStoreInsights: %v", err)
	}
	mem := svc.store.Get("anna", "paul")
	if mem.Preferences.PrefersDirectness == nil || !*mem.Preferences.PrefersDirectness {
		t.Fatalf("expected directness inferred true, got %+v", mem.Preferences)
	}

	// A later history with no questions must not flip the stored verdict.
	second := []types.ChatMessage{
		{Role: types.RoleUser, Content: "Just sitting with what you said."},
	}
	if _, err := svc.ExtractAndStoreInsights("anna", "paul", second); err != nil {
		t.Fatalf("ExtractAndStoreInsights: %v", err)
	}
	mem = svc.store.Get("anna", "paul")
	if mem.Preferences.PrefersDirectness == nil || !*mem.Preferences.PrefersDirectness {
		t.Fatalf("stored preference was overwritten: %+v", mem.Preferences)
	}
}
