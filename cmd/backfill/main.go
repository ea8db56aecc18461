package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/devsnippets/devsnippets/internal/adapter/ai"
	"github.com/devsnippets/devsnippets/internal/adapter/store"
	"github.com/devsnippets/devsnippets/internal/embed"
	"github.com/devsnippets/devsnippets/pkg/config"

	_ "github.com/lib/pq"
)

// backfill computes embeddings for snippets that don't have one yet, e.g.
// rows created while the embedding backend was down. Per-row failures are
// logged and skipped, so an interrupted run can simply be restarted.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	ollama := ai.NewOllamaProvider(ai.OllamaConfig{
		BaseURL: cfg.OllamaEmbedURL,
		Model:   cfg.OllamaEmbedModel,
		Token:   cfg.OllamaEmbedToken,
	})
	strategy, err := embed.NewStrategy(cfg.Strategy, ollama)
	if err != nil {
		slog.Error("failed to select embedding strategy", "error", err)
		os.Exit(1)
	}

	snippets, err := pgStore.ListMissingEmbedding(ctx)
	if err != nil {
		slog.Error("failed to list snippets", "error", err)
		os.Exit(1)
	}
	slog.Info("found snippets without embeddings", "count", len(snippets), "strategy", strategy.Name())

	done := 0
	for _, sn := range snippets {
		vec, err := strategy.EmbedSnippet(ctx, sn.Title, sn.Description, sn.Code, sn.Language)
		if err != nil {
			slog.Error("embedding failed, skipping", "snippet_id", sn.ID, "title", sn.Title, "error", err)
			continue
		}
		if err := pgStore.SetEmbedding(ctx, sn.ID, vec); err != nil {
			slog.Error("store embedding failed, skipping", "snippet_id", sn.ID, "error", err)
			continue
		}
		done++
		slog.Info("embedded", "snippet_id", sn.ID, "title", sn.Title)
	}

	slog.Info("backfill complete", "embedded", done, "total", len(snippets))
}
