package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/lumenbot/lumen/internal/biz/usecase"
	"github.com/lumenbot/lumen/internal/conf"
	"github.com/lumenbot/lumen/internal/data"
	"github.com/lumenbot/lumen/internal/infra/discord"
	"github.com/lumenbot/lumen/internal/service"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := conf.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Initialize gateway client
	client, err := discord.NewClient(cfg.Discord.Token)
	if err != nil {
		log.Fatalf("Failed to create Discord client: %v", err)
	}

	// Initialize repository layer
	repos, err := data.NewRepositories(cfg.Store.DBPath, cfg.Tuning.MaxHighlights)
	if err != nil {
		log.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	fmt.Printf("[Lumen] Highlight DB: %s\n", cfg.Store.DBPath)

	// Initialize usecase layer
	highlightUC := usecase.NewHighlightUsecase(repos.Highlights, repos.Users, cfg.ToHighlightConfig())
	cache := usecase.NewHighlightCache(repos.Highlights, repos.Users, highlightUC.Changes(), cfg.ToCacheConfig())
	recency := usecase.NewRecencyTracker(cfg.RecencyWindow())
	queue := usecase.NewDispatchQueue(cfg.ToQueueConfig())
	snippets := usecase.NewSnippetBuilder(client)
	matcher := usecase.NewMatchEngine(cache, recency, queue, snippets, client, cfg.ToMatchConfig())

	// Initialize service layer
	dispatcher := service.NewDispatcher(queue, client, cfg.DispatchInterval(), cfg.SendPause())
	stream := service.NewStreamService(matcher, cfg.EditWindow())

	client.OnMessage(stream.HandleMessage)
	client.OnMessageEdit(stream.HandleMessageEdit)

	ctx := context.Background()

	// Initial cache build; the subscription loop keeps it fresh.
	if err := cache.Rebuild(ctx); err != nil {
		fmt.Printf("[Lumen] Initial cache build failed, starting empty: %v\n", err)
	}
	cache.Start(ctx)
	stream.Start(ctx)
	dispatcher.Start(ctx)

	if err := client.Start(); err != nil {
		log.Fatalf("Failed to start Discord client: %v", err)
	}
	fmt.Println("[Lumen] Ready")

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down...")
	client.Stop()
	stream.Stop()
	dispatcher.Stop()
	cache.Stop()
	recency.Stop()
}
