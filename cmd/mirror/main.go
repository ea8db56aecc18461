package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/devsnippets/devsnippets/internal/adapter/index"
	"github.com/devsnippets/devsnippets/internal/adapter/store"
	"github.com/devsnippets/devsnippets/internal/port"
	"github.com/devsnippets/devsnippets/pkg/config"

	_ "github.com/lib/pq"
)

// mirror pushes every stored snippet vector into the external Qdrant index.
// Upserts are idempotent, so an interrupted run can be re-run from the start
// without duplicating entries.
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

	qdrant, err := index.NewQdrantIndex(cfg.QdrantAddr, cfg.QdrantCollection, cfg.EmbeddingDimension, cfg.IndexTimeout)
	if err != nil {
		slog.Error("failed to connect to vector index", "error", err)
		os.Exit(1)
	}
	defer qdrant.Close()

	if err := qdrant.EnsureCollection(ctx); err != nil {
		slog.Error("failed to ensure index collection", "error", err)
		os.Exit(1)
	}

	snippets, err := pgStore.ListAllWithEmbedding(ctx)
	if err != nil {
		slog.Error("failed to list snippets", "error", err)
		os.Exit(1)
	}
	slog.Info("mirroring snippets into index", "count", len(snippets), "collection", cfg.QdrantCollection)

	done := 0
	for _, sn := range snippets {
		meta := port.IndexMeta{
			Title:       sn.Title,
			Language:    sn.Language,
			Description: sn.Description,
		}
		if err := qdrant.Upsert(ctx, sn.ID, sn.Embedding, meta); err != nil {
			slog.Error("upsert failed, skipping", "snippet_id", sn.ID, "title", sn.Title, "error", err)
			continue
		}
		done++
	}

	slog.Info("mirror complete", "mirrored", done, "total", len(snippets))
}
