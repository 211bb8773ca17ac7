// Package evolution maintains the cross-persona knowledge graph: what each
// persona has learned from the others during roundtable discussions, its
// growth-event log, and its synthesized wisdom.
package evolution

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/altarworks/emmaus/internal/types"
)

// Graph holds one EvolvingCharacter per persona. Personas are created once
// and never deleted. Each persona carries its own mutex, so concurrent
// discussions that share a persona serialize on that persona without
// blocking unrelated ones.
type Graph struct {
	mu       sync.Mutex
	personas map[string]*persona
	now      func() time.Time
	newID    func() string
}

type persona struct {
	mu   sync.Mutex
	char *types.EvolvingCharacter
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		personas: make(map[string]*persona),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Register creates the evolving record for a persona. Registering an already
// known persona is a no-op; the static core is immutable once set.
func (g *Graph) Register(core types.StaticCore) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.registerLocked(core)
}

func (g *Graph) registerLocked(core types.StaticCore) *persona {
	key := strings.ToLower(core.CharacterID)
	if p, ok := g.personas[key]; ok {
		return p
	}
	now := g.now()
	p := &persona{char: &types.EvolvingCharacter{
		Core: core,
		Dynamic: types.DynamicLayer{
			RefinedUnderstandings: make(map[string]string),
		},
		Insights:  make(map[string]*types.CrossCharacterInsight),
		CreatedAt: now,
		UpdatedAt: now,
	}}
	g.personas[key] = p
	return p
}

func (g *Graph) getOrCreate(characterID string) *persona {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p, ok := g.personas[strings.ToLower(characterID)]; ok {
		return p
	}
	return g.registerLocked(types.StaticCore{CharacterID: characterID, Name: characterID})
}

func (g *Graph) get(characterID string) (*persona, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.personas[strings.ToLower(characterID)]
	return p, ok
}

// BuildEvolvedPrompt appends a topic-filtered slice of the persona's learned
// insights to the base prompt. With includeLearnedInsights false the base
// prompt is returned untouched.
func (g *Graph) BuildEvolvedPrompt(characterID, basePrompt, currentTopic string, includeLearnedInsights bool) string {
	if !includeLearnedInsights {
		return basePrompt
	}
	p, ok := g.get(characterID)
	if !ok {
		return basePrompt
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	char := p.char

	var lines []string
	if understanding, ok := char.Dynamic.RefinedUnderstandings[strings.ToLower(currentTopic)]; ok {
		lines = append(lines, "- Your current understanding: "+understanding)
	}

	sourceIDs := make([]string, 0, len(char.Insights))
	for id := range char.Insights {
		sourceIDs = append(sourceIDs, id)
	}
	sort.Strings(sourceIDs)
	for _, id := range sourceIDs {
		for _, teaching := range char.Insights[id].LearnedTeachings {
			if !topicMatches(teaching.Topic, currentTopic) {
				continue
			}
			lines = append(lines, fmt.Sprintf("- From %s: %s", char.Insights[id].SourceCharacterID, teaching.Teaching))
		}
	}

	if len(lines) == 0 {
		return basePrompt
	}

	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\nWhat you have learned from fellow voices about ")
	b.WriteString(currentTopic)
	b.WriteString(":\n")
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

func topicMatches(stored, current string) bool {
	stored = strings.ToLower(strings.TrimSpace(stored))
	current = strings.ToLower(strings.TrimSpace(current))
	if stored == "" || current == "" {
		return false
	}
	return stored == current || strings.Contains(stored, current) || strings.Contains(current, stored)
}

// Summary is an evolution overview for display.
type Summary struct {
	CharacterID   string                        `json:"character_id"`
	Stage         types.EvolutionStage          `json:"stage"`
	Metrics       types.EvolutionMetrics        `json:"metrics"`
	TopInfluences []types.CrossCharacterInsight `json:"top_influences"`
	RecentGrowth  []types.GrowthEvent           `json:"recent_growth"`
}

// EvolutionSummary aggregates metrics, the strongest influences, and the
// most recent growth events for one persona.
func (g *Graph) EvolutionSummary(characterID string, topN int) (*Summary, error) {
	p, ok := g.get(characterID)
	if !ok {
		return nil, fmt.Errorf("unknown persona: %s", characterID)
	}
	if topN <= 0 {
		topN = 3
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	char := p.char

	influences := make([]types.CrossCharacterInsight, 0, len(char.Insights))
	for _, insight := range char.Insights {
		influences = append(influences, *insight)
	}
	sort.SliceStable(influences, func(i, j int) bool {
		if influences[i].InfluenceScore != influences[j].InfluenceScore {
			return influences[i].InfluenceScore > influences[j].InfluenceScore
		}
		return influences[i].SourceCharacterID < influences[j].SourceCharacterID
	})
	if len(influences) > topN {
		influences = influences[:topN]
	}

	recent := char.GrowthLog
	if len(recent) > topN {
		recent = recent[len(recent)-topN:]
	}
	recentCopy := append([]types.GrowthEvent(nil), recent...)

	return &Summary{
		CharacterID:   char.Core.CharacterID,
		Stage:         stageOf(char),
		Metrics:       metricsOf(char),
		TopInfluences: influences,
		RecentGrowth:  recentCopy,
	}, nil
}

// Stage reports the persona's lifecycle stage. Unknown personas are pristine.
func (g *Graph) Stage(characterID string) types.EvolutionStage {
	p, ok := g.get(characterID)
	if !ok {
		return types.StagePristine
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return stageOf(p.char)
}

func stageOf(char *types.EvolvingCharacter) types.EvolutionStage {
	switch {
	case len(char.Wisdom) > 0:
		return types.StageSynthesized
	case len(char.GrowthLog) > 0:
		return types.StageEvolving
	case len(char.Insights) > 0:
		return types.StageAware
	default:
		return types.StagePristine
	}
}

func metricsOf(char *types.EvolvingCharacter) types.EvolutionMetrics {
	metrics := types.EvolutionMetrics{
		WisdomSynthesized: len(char.Wisdom),
		GrowthEventCount:  len(char.GrowthLog),
	}
	strongest := ""
	best := -1.0
	for _, insight := range char.Insights {
		metrics.TotalInteractions += insight.InteractionCount
		metrics.InsightsLearned += len(insight.LearnedTeachings)
		if insight.InfluenceScore > best {
			best = insight.InfluenceScore
			strongest = insight.SourceCharacterID
		}
	}
	metrics.StrongestInfluence = strongest
	return metrics
}

// Save writes a JSON snapshot of every persona. Each persona is encoded
// under its own lock so a concurrent discussion cannot mutate it
// mid-marshal. Same discipline as the memory store: write failures
// propagate.
func (g *Graph) Save(path string) error {
	g.mu.Lock()
	personas := make(map[string]*persona, len(g.personas))
	for key, p := range g.personas {
		personas[key] = p
	}
	g.mu.Unlock()

	snapshot := make(map[string]json.RawMessage, len(personas))
	for key, p := range personas {
		p.mu.Lock()
		encoded, err := json.Marshal(p.char)
		p.mu.Unlock()
		if err != nil {
			return fmt.Errorf("failed to encode evolution snapshot: %w", err)
		}
		snapshot[key] = encoded
	}

	raw, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode evolution snapshot: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write evolution snapshot: %w", err)
	}
	return nil
}

// Load restores a snapshot written by Save. A missing or corrupt file
// degrades to an empty graph, matching the memory store's read semantics.
func (g *Graph) Load(path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("failed to read evolution snapshot", "error", err.Error(), "path", path)
		}
		return
	}

	var snapshot map[string]*types.EvolvingCharacter
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		slog.Error("evolution snapshot is corrupt, starting empty", "error", err.Error(), "path", path)
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for key, char := range snapshot {
		if char.Insights == nil {
			char.Insights = make(map[string]*types.CrossCharacterInsight)
		}
		if char.Dynamic.RefinedUnderstandings == nil {
			char.Dynamic.RefinedUnderstandings = make(map[string]string)
		}
		g.personas[strings.ToLower(key)] = &persona{char: char}
	}
}
