package embed

import (
	"context"

	"github.com/devsnippets/devsnippets/internal/port"
)

// SparseStrategy implements port.EmbeddingStrategy with TF-IDF vectors.
//
// TF-IDF vectors are only comparable within one fit, so every ranking call
// re-fits a fresh vectorizer over the full candidate corpus plus the query.
// That makes ranking O(corpus size) per query — the acknowledged scalability
// ceiling of this strategy; large corpora should use the dense strategy with
// the external index instead.
//
// The strategy itself holds no state and is safe for concurrent use; each
// call constructs its own vectorizer.
type SparseStrategy struct{}

// NewSparseStrategy creates the TF-IDF strategy.
func NewSparseStrategy() *SparseStrategy {
	return &SparseStrategy{}
}

// Name identifies the strategy.
func (s *SparseStrategy) Name() string { return "sparse" }

// Embed vectorizes text in cold-start mode: with no corpus fit available, a
// throwaway vectorizer is fit on this single text. The resulting vector's
// dimensionality is unstable and comparable only to itself; it exists so a
// first snippet can be embedded before bulk indexing. Never returns an error.
func (s *SparseStrategy) Embed(_ context.Context, text string) ([]float32, error) {
	return newTFIDF([]string{text}).Transform(text), nil
}

// EmbedSnippet vectorizes the canonical snippet text in cold-start mode.
func (s *SparseStrategy) EmbedSnippet(ctx context.Context, title, description, code, language string) ([]float32, error) {
	return s.Embed(ctx, Normalize(title, description, language, code))
}

// RankingVectors joint-fits a vectorizer over all candidate texts plus the
// query, then extracts every vector from that single fit so they share one
// vocabulary space. Stored candidate vectors are ignored on this path.
func (s *SparseStrategy) RankingVectors(_ context.Context, query string, cands []port.Candidate) ([]float32, [][]float32, error) {
	docs := make([]string, 0, len(cands)+1)
	for _, c := range cands {
		docs = append(docs, c.Text)
	}
	docs = append(docs, query)

	v := newTFIDF(docs)
	qvec := v.Transform(query)
	vecs := make([][]float32, len(cands))
	for i, c := range cands {
		vecs[i] = v.Transform(c.Text)
	}
	return qvec, vecs, nil
}
