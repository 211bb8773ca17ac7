package callback

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/altarworks/emmaus/internal/personalize"
	"github.com/altarworks/emmaus/internal/types"
	"github.com/altarworks/emmaus/internal/utils"
)

// TranscriptStore persists conversation turns and serves bounded history
// windows back to the extraction pass.
type TranscriptStore interface {
	AddMessage(ctx context.Context, msg types.ChatMessage) error
	GetRecentMessages(ctx context.Context, sessionID string, limit int) ([]types.ChatMessage, error)
}

// NewMemoryContextCallback writes the pair's memory context into session
// state before each turn, where the instruction's {MemoryContext}
// placeholder picks it up.
func NewMemoryContextCallback(facade *personalize.Facade, characterID string) agent.BeforeAgentCallback {
	return func(ctx agent.CallbackContext) (*genai.Content, error) {
		memoryContext := facade.MemoryContext(ctx.UserID(), characterID)
		if err := ctx.State().Set("MemoryContext", memoryContext); err != nil {
			return nil, fmt.Errorf("failed to set memory context: %w", err)
		}
		return nil, nil
	}
}

// NewRecordExchangeCallback folds the completed exchange into the user's
// memory record after each turn. It fetches the full session, persists the
// newest turn to the transcript store, and feeds the recent history window
// into the extraction pass.
func NewRecordExchangeCallback(sessionService session.Service, transcripts TranscriptStore, facade *personalize.Facade, characterID string, historyLimit int) agent.AfterAgentCallback {
	return func(ctx agent.CallbackContext) (*genai.Content, error) {
		resp, err := sessionService.Get(ctx, &session.GetRequest{
			AppName:   ctx.AppName(),
			UserID:    ctx.UserID(),
			SessionID: ctx.SessionID()})
		if err != nil {
			slog.Error("failed to get completed session", "error", err.Error())
			return nil, err
		}

		if err := recordExchange(ctx, resp.Session, transcripts, facade, characterID, historyLimit); err != nil {
			slog.Error("failed to record exchange", "error", err.Error())
			return nil, err
		}
		return nil, nil
	}
}

// recordExchange persists the newest turn and runs the extraction pass over
// the recent transcript window. Transcript failures are logged and the pass
// falls back to the in-session conversation; losing durable history must not
// lose the memory update.
func recordExchange(ctx context.Context, sess session.Session, transcripts TranscriptStore, facade *personalize.Facade, characterID string, historyLimit int) error {
	conversation := conversationFromSession(sess, characterID)
	if len(conversation) == 0 {
		return nil
	}

	for _, msg := range latestTurn(conversation) {
		if err := transcripts.AddMessage(ctx, msg); err != nil {
			slog.Error("failed to persist transcript turn", "error", err.Error())
			break
		}
	}

	window := conversation
	if recent, err := transcripts.GetRecentMessages(ctx, sess.ID(), historyLimit); err != nil {
		slog.Error("failed to load transcript window", "error", err.Error())
	} else if len(recent) > 0 {
		window = recent
	}

	_, err := facade.RecordExchange(sess.UserID(), characterID, window)
	return err
}

// latestTurn returns the messages from the final user message onward, the
// part of the conversation this turn appended.
func latestTurn(conversation []types.ChatMessage) []types.ChatMessage {
	start := -1
	for i, msg := range conversation {
		if msg.Role == types.RoleUser {
			start = i
		}
	}
	if start == -1 {
		return nil
	}
	return conversation[start:]
}

// conversationFromSession flattens session events into transcript turns.
func conversationFromSession(sess session.Session, characterID string) []types.ChatMessage {
	if sess == nil {
		return nil
	}

	var conversation []types.ChatMessage
	for event := range sess.Events().All() {
		if event == nil || event.Content == nil {
			continue
		}
		text := strings.TrimSpace(utils.ExtractContentText(event.Content))
		if text == "" {
			continue
		}
		role := types.RoleAssistant
		if event.Content.Role == "user" {
			role = types.RoleUser
		}
		conversation = append(conversation, types.ChatMessage{
			SessionID:   sess.ID(),
			CharacterID: characterID,
			Role:        role,
			Content:     text,
		})
	}
	return conversation
}
