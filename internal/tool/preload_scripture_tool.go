// Package tool provides custom ADK tools for the companion.
package tool

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/adk/tool"
	"google.golang.org/genai"

	"github.com/altarworks/emmaus/internal/memory"
	"github.com/altarworks/emmaus/internal/types"
	"github.com/altarworks/emmaus/internal/utils"
)

const (
	defaultPreloadScriptureToolName        = "preload_scripture"
	defaultPreloadScriptureToolDescription = "Preloads scripture passages relevant to the user's message into the system instruction."
)

// PassageSearcher finds passages similar to a query embedding.
type PassageSearcher interface {
	SearchSimilar(ctx context.Context, embedding []float32, topK int, threshold float64) ([]types.ScripturePassage, error)
}

// PreloadScriptureTool injects retrieved passages into the system instruction
// so the character can draw on them without being forced to quote.
type PreloadScriptureTool struct {
	name        string
	description string
	embedder    memory.Embedder
	passages    PassageSearcher
	topK        int
	threshold   float64
}

// NewPreloadScriptureTool creates a PreloadScriptureTool.
func NewPreloadScriptureTool(embedder memory.Embedder, passages PassageSearcher, topK int, threshold float64) *PreloadScriptureTool {
	return &PreloadScriptureTool{
		name:        defaultPreloadScriptureToolName,
		description: defaultPreloadScriptureToolDescription,
		embedder:    embedder,
		passages:    passages,
		topK:        topK,
		threshold:   threshold,
	}
}

// Name implements tool.Tool.
func (t *PreloadScriptureTool) Name() string {
	return t.name
}

// Description implements tool.Tool.
func (t *PreloadScriptureTool) Description() string {
	return t.description
}

// IsLongRunning implements tool.Tool.
func (t *PreloadScriptureTool) IsLongRunning() bool {
	return false
}

// ProcessRequest embeds the user's message, searches the passage store, and
// appends matches to the system instruction.
func (t *PreloadScriptureTool) ProcessRequest(ctx tool.Context, req *model.LLMRequest) error {
	if ctx == nil || req == nil {
		return nil
	}

	query := strings.TrimSpace(utils.ExtractContentText(ctx.UserContent()))
	if query == "" {
		return nil
	}

	embedding, err := t.embedder.EmbedQuery(ctx, query)
	if err != nil {
		slog.Error("failed to embed scripture query", "error", err.Error())
		return fmt.Errorf("failed to embed scripture query: %w", err)
	}

	passages, err := t.passages.SearchSimilar(ctx, embedding, t.topK, t.threshold)
	if err != nil {
		slog.Error("failed to search passages", "error", err.Error())
		return fmt.Errorf("failed to search passages: %w", err)
	}
	if len(passages) == 0 {
		return nil
	}

	appendInstruction(req, buildScriptureInstruction(passages))
	return nil
}

func buildScriptureInstruction(passages []types.ScripturePassage) string {
	var instruction strings.Builder
	instruction.WriteString(`The following passages may speak to what the user is going through.
Draw on them only when they genuinely fit.
<RELEVANT_SCRIPTURE>
`)
	for _, passage := range passages {
		text := strings.TrimSpace(passage.Text)
		if text == "" {
			continue
		}
		instruction.WriteString("- " + passage.Reference + ": " + text + "\n")
	}
	instruction.WriteString("</RELEVANT_SCRIPTURE>\n")
	return instruction.String()
}

func appendInstruction(req *model.LLMRequest, instruction string) {
	if strings.TrimSpace(instruction) == "" {
		return
	}
	if req.Config == nil {
		req.Config = &genai.GenerateContentConfig{}
	}
	if req.Config.SystemInstruction == nil {
		req.Config.SystemInstruction = genai.NewContentFromText(instruction, genai.RoleUser)
		return
	}
	req.Config.SystemInstruction.Parts = append(req.Config.SystemInstruction.Parts, genai.NewPartFromText(instruction))
}
