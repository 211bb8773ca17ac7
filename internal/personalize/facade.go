// Package personalize is the engine's primary external contract: it joins
// insight extraction, the memory store, and the context summarizer into the
// two calls the chat orchestration needs, personalizing the prompt before a
// model call and recording the exchange after it.
package personalize

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/altarworks/emmaus/internal/memory"
	"github.com/altarworks/emmaus/internal/types"
)

// Facade orchestrates the memory engine for one service instance.
type Facade struct {
	memory *memory.Service
}

// New returns a Facade over the memory service.
func New(memoryService *memory.Service) *Facade {
	return &Facade{memory: memoryService}
}

// PersonalizePrompt appends the pair's memory context to a base persona
// prompt. The context is never empty: a pair without history gets a
// first-conversation framing instead.
func (f *Facade) PersonalizePrompt(basePrompt, userID, characterID string) string {
	context := f.memory.GetContextForPrompt(userID, characterID)
	if strings.TrimSpace(basePrompt) == "" {
		return context
	}
	return basePrompt + "\n\nWhat you remember about this person:\n" + context
}

// MemoryContext returns just the context block for the pair.
func (f *Facade) MemoryContext(userID, characterID string) string {
	return f.memory.GetContextForPrompt(userID, characterID)
}

// RecordExchange stores everything a completed exchange taught us: the
// latest user/assistant turn feeds the per-interaction counters, then the
// full transcript feeds the deeper extraction pass. Write failures
// propagate; a silently dropped write would corrupt the user's record.
func (f *Facade) RecordExchange(userID, characterID string, conversation []types.ChatMessage) (*memory.InsightReport, error) {
	lastUser, lastAssistant := latestTurns(conversation)
	if lastUser == "" {
		return &memory.InsightReport{}, nil
	}

	if err := f.memory.RecordInteraction(userID, characterID, lastUser, lastAssistant); err != nil {
		return nil, fmt.Errorf("failed to record interaction: %w", err)
	}

	report, err := f.memory.ExtractAndStoreInsights(userID, characterID, conversation)
	if err != nil {
		return nil, fmt.Errorf("failed to extract insights: %w", err)
	}
	if report.Breakthrough {
		slog.Info("breakthrough moment recorded", "user_id", userID, "character_id", characterID)
	}
	return report, nil
}

// MarkSituationResolved forwards to the memory service.
func (f *Facade) MarkSituationResolved(userID, characterID, situationID, resolution string) error {
	return f.memory.MarkSituationResolved(userID, characterID, situationID, resolution)
}

// RecordResonantScripture forwards to the memory service.
func (f *Facade) RecordResonantScripture(userID, characterID, reference, reason string) error {
	return f.memory.RecordResonantScripture(userID, characterID, reference, reason)
}

// ClearUserMemory deletes all memories for a user, for the privacy surface.
func (f *Facade) ClearUserMemory(userID string) error {
	return f.memory.ClearUserMemory(userID)
}

// ExportUserMemory serializes all memories for a user, for the privacy surface.
func (f *Facade) ExportUserMemory(userID string) (string, error) {
	return f.memory.ExportUserMemory(userID)
}

// latestTurns returns the last user message and the assistant reply that
// follows it, if any.
func latestTurns(conversation []types.ChatMessage) (string, string) {
	lastUser := ""
	lastAssistant := ""
	userSeen := false
	for _, msg := range conversation {
		switch msg.Role {
		case types.RoleUser:
			lastUser = msg.Content
			userSeen = true
			lastAssistant = ""
		case types.RoleAssistant:
			if userSeen {
				lastAssistant = msg.Content
			}
		}
	}
	return lastUser, lastAssistant
}
