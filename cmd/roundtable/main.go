// Package main processes recorded roundtable discussions into the character
// evolution graph and prints what each participant took away.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/altarworks/emmaus/internal/config"
	"github.com/altarworks/emmaus/internal/evolution"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using process environment")
	}

	snapshotPath := flag.String("snapshot", config.SnapshotPath(), "path to the evolution snapshot")
	topN := flag.Int("top", 3, "number of influences and growth events to show")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("usage: roundtable [flags] <discussion.json>")
	}

	raw, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("failed to read discussion file: %v", err)
	}
	var discussion evolution.Discussion
	if err := json.Unmarshal(raw, &discussion); err != nil {
		log.Fatalf("failed to parse discussion file: %v", err)
	}

	graph := evolution.NewGraph()
	graph.Load(*snapshotPath)

	if err := graph.ProcessDiscussion(discussion); err != nil {
		log.Fatalf("failed to process discussion: %v", err)
	}

	for _, participantID := range discussion.Participants {
		summary, err := graph.EvolutionSummary(participantID, *topN)
		if err != nil {
			log.Fatalf("failed to summarize %s: %v", participantID, err)
		}
		printSummary(summary)
	}

	if err := graph.Save(*snapshotPath); err != nil {
		log.Fatalf("failed to save evolution snapshot: %v", err)
	}
	slog.Info("evolution snapshot saved", "path", *snapshotPath)
}

func printSummary(summary *evolution.Summary) {
	fmt.Printf("\n%s (%s)\n", summary.CharacterID, summary.Stage)
	fmt.Printf("  interactions: %d  insights: %d  wisdom: %d  growth events: %d\n",
		summary.Metrics.TotalInteractions,
		summary.Metrics.InsightsLearned,
		summary.Metrics.WisdomSynthesized,
		summary.Metrics.GrowthEventCount)
	if summary.Metrics.StrongestInfluence != "" {
		fmt.Printf("  strongest influence: %s\n", summary.Metrics.StrongestInfluence)
	}
	for _, influence := range summary.TopInfluences {
		fmt.Printf("  influence %.2f from %s (%d teachings)\n",
			influence.InfluenceScore, influence.SourceCharacterID, len(influence.LearnedTeachings))
	}
	for _, event := range summary.RecentGrowth {
		fmt.Printf("  growth: [%s] %s\n", event.Type, event.Description)
	}
}
