package port

import "context"

// Candidate is one snippet offered to a ranking call: its identifier, the
// normalized text it embeds from, and the vector stored for it (nil when the
// vector has not been computed yet).
type Candidate struct {
	ID     string
	Text   string
	Vector []float32
}

// EmbeddingStrategy turns text into comparable numeric vectors. Two
// implementations exist: a dense model-backed strategy with fixed
// dimensionality, and a sparse TF-IDF strategy whose dimensionality depends
// on the corpus it was fit on.
//
// RankingVectors is the unifying contract for search: given the query text
// and the candidate pool, it returns a query vector and one vector per
// candidate, all guaranteed to live in the same vector space. The dense
// strategy embeds the query and passes stored candidate vectors through; the
// sparse strategy re-fits a vectorizer jointly over query and candidate
// texts, since TF-IDF vectors from separate fits are not comparable.
type EmbeddingStrategy interface {
	// Name identifies the strategy ("dense" or "sparse").
	Name() string

	// Embed vectorizes a single piece of free text (query mode).
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedSnippet vectorizes the canonical text of a snippet's fields.
	EmbedSnippet(ctx context.Context, title, description, code, language string) ([]float32, error)

	// RankingVectors returns the query vector and a vector per candidate,
	// index-aligned with cands. A nil vector at position i means candidate i
	// cannot be ranked and must be skipped.
	RankingVectors(ctx context.Context, query string, cands []Candidate) ([]float32, [][]float32, error)
}
