// Package main boots the companion service and wires application dependencies.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/cmd/launcher"
	"google.golang.org/adk/cmd/launcher/full"
	"google.golang.org/adk/session/database"
	adktool "google.golang.org/adk/tool"
	"gorm.io/driver/postgres"

	internalagent "github.com/altarworks/emmaus/internal/agent"
	"github.com/altarworks/emmaus/internal/config"
	"github.com/altarworks/emmaus/internal/insight"
	"github.com/altarworks/emmaus/internal/memory"
	"github.com/altarworks/emmaus/internal/personalize"
	"github.com/altarworks/emmaus/internal/repository"
	"github.com/altarworks/emmaus/internal/tool"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using process environment")
	}

	cfg := config.Load()
	slog.Info("configuration loaded", "character_id", cfg.CharacterID, "llm_model", cfg.LLMModel, "compact_context", cfg.CompactContext)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := repository.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer store.Close()

	characters, err := store.Characters.List(ctx)
	if err != nil {
		log.Fatalf("failed to load character catalog: %v", err)
	}
	slog.Info("character catalog loaded", "count", len(characters))

	fileStore, err := memory.NewFileStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to open memory store: %v", err)
	}
	memoryService := memory.NewService(fileStore, insight.NewExtractor(), memory.NewContextSummarizer(cfg.CompactContext))
	facade := personalize.New(memoryService)

	embedder, err := memory.NewEmbedder(ctx, cfg.GoogleAPIKey, cfg.EmbeddingModel)
	if err != nil {
		log.Fatalf("failed to create embedder: %v", err)
	}
	scriptureTool := tool.NewPreloadScriptureTool(embedder, store.Passages, cfg.TopK, cfg.SimilarityThreshold)

	sessionService, err := database.NewSessionService(postgres.Open(cfg.DatabaseURL))
	if err != nil {
		log.Fatalf("failed to create session service: %v", err)
	}

	llmAgent, err := internalagent.NewCompanionAgent(ctx, store.Characters, store.Transcripts, facade, sessionService, []adktool.Tool{scriptureTool}, &cfg)
	if err != nil {
		log.Fatalf("failed to initialize agent: %v", err)
	}

	launcherConfig := &launcher.Config{
		SessionService: sessionService,
		AgentLoader:    agent.NewSingleLoader(llmAgent),
	}

	l := full.NewLauncher()
	errCh := make(chan error, 1)
	go func() {
		slog.Info("launcher starting")
		errCh <- l.Execute(ctx, launcherConfig, os.Args[1:])
	}()

	var execErr error
	select {
	case execErr = <-errCh:
	case <-ctx.Done():
		fmt.Println("\nshutting down...")
	}

	if execErr != nil {
		if execErr != context.Canceled && execErr != context.DeadlineExceeded {
			log.Fatalf("failed to run agent: %v\n\n%s", execErr, l.CommandLineSyntax())
		}
	}

	fmt.Println("agent shutdown complete")
}
