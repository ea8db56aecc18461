package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/devsnippets/devsnippets/internal/domain"
	"github.com/devsnippets/devsnippets/internal/port"
)

// SnippetService manages the snippet lifecycle — creation, updates, deletion
// — and keeps the stored vector and the external index in step with content
// changes. Embedding failures never fail the write: the snippet is stored
// without a vector and the backfill job completes it later.
type SnippetService struct {
	store    port.SnippetStore
	strategy port.EmbeddingStrategy
	idx      port.VectorIndex // nil when the external index is disabled
}

// NewSnippetService creates a new snippet service. idx may be nil.
func NewSnippetService(store port.SnippetStore, strategy port.EmbeddingStrategy, idx port.VectorIndex) *SnippetService {
	return &SnippetService{store: store, strategy: strategy, idx: idx}
}

// Create embeds and stores a new snippet, mirroring the vector into the
// external index when one is configured.
func (s *SnippetService) Create(ctx context.Context, sc *domain.SnippetCreate) (*domain.Snippet, error) {
	embedding, err := s.strategy.EmbedSnippet(ctx, sc.Title, sc.Description, sc.Code, sc.Language)
	if err != nil {
		slog.Warn("embedding failed, storing snippet without vector",
			"title", sc.Title, "strategy", s.strategy.Name(), "error", err)
		embedding = nil
	}

	snippet, err := s.store.CreateSnippet(ctx, sc, embedding)
	if err != nil {
		return nil, fmt.Errorf("create snippet: %w", err)
	}

	s.mirrorToIndex(ctx, snippet)
	return snippet, nil
}

// Get returns a snippet by ID.
func (s *SnippetService) Get(ctx context.Context, id string) (*domain.Snippet, error) {
	return s.store.GetSnippetByID(ctx, id)
}

// List returns snippets with pagination.
func (s *SnippetService) List(ctx context.Context, offset, limit int) ([]domain.Snippet, error) {
	return s.store.ListSnippets(ctx, offset, limit)
}

// Languages returns the distinct languages in use.
func (s *SnippetService) Languages(ctx context.Context) ([]string, error) {
	return s.store.ListLanguages(ctx)
}

// Update applies a partial update. A change to title, description, code or
// language invalidates the cached vector; the new one is computed from the
// updated row and the index entry is replaced.
func (s *SnippetService) Update(ctx context.Context, id string, u *domain.SnippetUpdate) (*domain.Snippet, error) {
	snippet, err := s.store.UpdateSnippet(ctx, id, u)
	if err != nil {
		return nil, err
	}
	if !u.TouchesContent() {
		return snippet, nil
	}

	embedding, err := s.strategy.EmbedSnippet(ctx, snippet.Title, snippet.Description, snippet.Code, snippet.Language)
	if err != nil {
		slog.Warn("re-embedding failed, vector left unset",
			"snippet_id", id, "strategy", s.strategy.Name(), "error", err)
		return snippet, nil
	}
	if err := s.store.SetEmbedding(ctx, id, embedding); err != nil {
		return nil, fmt.Errorf("store embedding: %w", err)
	}
	snippet.Embedding = embedding

	s.mirrorToIndex(ctx, snippet)
	return snippet, nil
}

// Delete removes a snippet and, in the same logical operation, its entry in
// the external index so no orphan can surface on a later indexed query.
func (s *SnippetService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteSnippet(ctx, id); err != nil {
		return err
	}
	if s.idx != nil {
		if _, err := s.idx.Delete(ctx, id); err != nil {
			slog.Error("index delete failed, entry may be orphaned until next mirror",
				"snippet_id", id, "error", err)
		}
	}
	return nil
}

// mirrorToIndex pushes a snippet's vector into the index, best effort. A
// failure here leaves the index stale, not the request broken; the mirror
// job reconciles on its next run.
func (s *SnippetService) mirrorToIndex(ctx context.Context, snippet *domain.Snippet) {
	if s.idx == nil || !snippet.HasEmbedding() {
		return
	}
	meta := port.IndexMeta{
		Title:       snippet.Title,
		Language:    snippet.Language,
		Description: snippet.Description,
	}
	if err := s.idx.Upsert(ctx, snippet.ID, snippet.Embedding, meta); err != nil {
		slog.Error("index upsert failed", "snippet_id", snippet.ID, "error", err)
	}
}
