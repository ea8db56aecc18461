package port

import (
	"context"

	"github.com/devsnippets/devsnippets/internal/domain"
)

// SnippetStore is the persistence boundary for snippet records.
type SnippetStore interface {
	CreateSnippet(ctx context.Context, sc *domain.SnippetCreate, embedding []float32) (*domain.Snippet, error)
	GetSnippetByID(ctx context.Context, id string) (*domain.Snippet, error)
	ListSnippets(ctx context.Context, offset, limit int) ([]domain.Snippet, error)
	ListAllWithEmbedding(ctx context.Context) ([]domain.Snippet, error)
	UpdateSnippet(ctx context.Context, id string, u *domain.SnippetUpdate) (*domain.Snippet, error)
	SetEmbedding(ctx context.Context, id string, embedding []float32) error
	DeleteSnippet(ctx context.Context, id string) error
	ListLanguages(ctx context.Context) ([]string, error)
}
