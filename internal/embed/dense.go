package embed

import (
	"context"
	"fmt"

	"github.com/devsnippets/devsnippets/internal/port"
)

// DenseStrategy implements port.EmbeddingStrategy backed by a pre-trained
// sentence-embedding model behind an EmbedProvider. Output dimensionality is
// fixed for the lifetime of the process and embeddings are deterministic for
// identical input. The provider is shared, read-only state, safe for
// concurrent use.
type DenseStrategy struct {
	provider port.EmbedProvider
}

// NewDenseStrategy creates the model-backed strategy.
func NewDenseStrategy(provider port.EmbedProvider) *DenseStrategy {
	return &DenseStrategy{provider: provider}
}

// Name identifies the strategy.
func (d *DenseStrategy) Name() string { return "dense" }

// Embed vectorizes a single piece of text through the model.
func (d *DenseStrategy) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := d.provider.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("dense embed: %w", err)
	}
	return vec, nil
}

// EmbedSnippet vectorizes the canonical snippet text.
func (d *DenseStrategy) EmbedSnippet(ctx context.Context, title, description, code, language string) ([]float32, error) {
	return d.Embed(ctx, Normalize(title, description, language, code))
}

// RankingVectors embeds the query independently and passes the stored
// candidate vectors through unchanged; dense vectors from separate calls
// share the model's fixed vector space. Candidates without a stored vector
// come back nil and are skipped by the ranker.
func (d *DenseStrategy) RankingVectors(ctx context.Context, query string, cands []port.Candidate) ([]float32, [][]float32, error) {
	qvec, err := d.Embed(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	vecs := make([][]float32, len(cands))
	for i, c := range cands {
		vecs[i] = c.Vector
	}
	return qvec, vecs, nil
}
