// Package agent provides agent initialization.
package agent

import (
	"context"
	"fmt"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/session"
	"google.golang.org/adk/tool"
	"google.golang.org/genai"

	"github.com/altarworks/emmaus/internal/callback"
	"github.com/altarworks/emmaus/internal/config"
	"github.com/altarworks/emmaus/internal/models"
	"github.com/altarworks/emmaus/internal/personalize"
	"github.com/altarworks/emmaus/internal/prompt"
	"github.com/altarworks/emmaus/internal/types"
)

// CharacterCatalog is the slice of the character repository the agent needs.
type CharacterCatalog interface {
	GetByID(ctx context.Context, id string) (*types.Character, error)
	GetDefault(ctx context.Context) (*types.Character, error)
}

// NewCompanionAgent builds the faith companion agent for one character.
// Memory context and the clock are injected per turn through session state;
// completed exchanges flow into the transcript store and the memory engine
// after each turn. An empty cfg.CharacterID serves the catalog's default
// character.
func NewCompanionAgent(
	ctx context.Context,
	catalog CharacterCatalog,
	transcripts callback.TranscriptStore,
	facade *personalize.Facade,
	sessionService session.Service,
	tools []tool.Tool,
	cfg *config.Config,
) (agent.Agent, error) {
	if catalog == nil || facade == nil || cfg == nil {
		return nil, fmt.Errorf("catalog, facade and config are required")
	}

	llmModel, err := models.NewGrokModel(ctx, cfg.LLMModel, &genai.ClientConfig{
		APIKey: cfg.XAIAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create grok model: %w", err)
	}

	var character *types.Character
	if cfg.CharacterID == "" {
		character, err = catalog.GetDefault(ctx)
	} else {
		character, err = catalog.GetByID(ctx, cfg.CharacterID)
	}
	if err != nil {
		return nil, err
	}

	instruction, err := prompt.BuildInstruction(character)
	if err != nil {
		return nil, err
	}

	llmAgent, err := llmagent.New(llmagent.Config{
		Name:        "emmaus_companion",
		Description: "A scripture-rooted companion that remembers each person it walks with",
		Model:       llmModel,
		Instruction: instruction,
		Tools:       tools,
		BeforeAgentCallbacks: []agent.BeforeAgentCallback{
			callback.WrapBeforeCallback("clock_state", callback.NewClockStateCallback(nil)),
			callback.WrapBeforeCallback("memory_context", callback.NewMemoryContextCallback(facade, character.ID)),
			callback.WrapBeforeCallback("first_message", callback.NewFirstMessageCallback(character)),
		},
		AfterAgentCallbacks: []agent.AfterAgentCallback{
			callback.WrapAfterCallback("record_exchange", callback.NewRecordExchangeCallback(sessionService, transcripts, facade, character.ID, cfg.HistoryLimit)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create companion agent: %w", err)
	}

	return llmAgent, nil
}
