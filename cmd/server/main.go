package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/devsnippets/devsnippets/internal/adapter/ai"
	"github.com/devsnippets/devsnippets/internal/adapter/index"
	"github.com/devsnippets/devsnippets/internal/adapter/store"
	"github.com/devsnippets/devsnippets/internal/embed"
	"github.com/devsnippets/devsnippets/internal/handler"
	"github.com/devsnippets/devsnippets/internal/mcp"
	"github.com/devsnippets/devsnippets/internal/port"
	"github.com/devsnippets/devsnippets/internal/rank"
	"github.com/devsnippets/devsnippets/internal/service"
	"github.com/devsnippets/devsnippets/pkg/config"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting DevSnippets API",
		"port", cfg.Port,
		"strategy", cfg.Strategy,
		"ollama_embed", cfg.OllamaEmbedURL,
		"index_enabled", cfg.IndexEnabled,
		"mcp_enabled", cfg.MCPEnabled,
	)

	// ── Database ─────────────────────────────────────────────────────────
	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	if err := pgStore.EnsureSchema(context.Background()); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	// ── Embedding strategy ───────────────────────────────────────────────
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

	// ── Vector index (optional) ──────────────────────────────────────────
	var vectorIndex port.VectorIndex
	if cfg.IndexEnabled {
		qdrant, err := index.NewQdrantIndex(cfg.QdrantAddr, cfg.QdrantCollection, cfg.EmbeddingDimension, cfg.IndexTimeout)
		if err != nil {
			slog.Error("failed to connect to vector index", "error", err)
			os.Exit(1)
		}
		defer qdrant.Close()

		if err := qdrant.EnsureCollection(context.Background()); err != nil {
			slog.Error("failed to ensure index collection", "error", err)
			os.Exit(1)
		}
		vectorIndex = qdrant
	}

	// ── Services ─────────────────────────────────────────────────────────
	policy := rank.Policy{Threshold: cfg.SearchThreshold, Fallback: cfg.FallbackThreshold}
	snippetService := service.NewSnippetService(pgStore, strategy, vectorIndex)
	searchService := service.NewSearchService(pgStore, strategy, vectorIndex, policy, cfg.DefaultLimit, cfg.IndexMinScore)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	// Health check
	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"app":    cfg.AppName,
		})
	})

	// ── Routes ───────────────────────────────────────────────────────────
	api := app.Group("/api")

	snippetHandler := handler.NewSnippetHandler(snippetService)
	snippetHandler.Register(api)

	searchHandler := handler.NewSearchHandler(searchService)
	searchHandler.Register(api)

	// ── MCP Server (separate port) ───────────────────────────────────────
	if cfg.MCPEnabled {
		mcpServer := mcp.NewServer(searchService, snippetService, cfg.MCPPort)
		go func() {
			if err := mcpServer.Start(); err != nil {
				slog.Error("MCP server failed", "error", err)
			}
		}()
	}

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
