package port

import "context"

// IndexHit is one result from the external vector index. Certainty is the
// index's own similarity scale; it is not guaranteed to match the cosine
// similarity scale of the exhaustive ranking path, so thresholds must never
// be carried across the two.
type IndexHit struct {
	SnippetID string  `json:"snippet_id"`
	Certainty float64 `json:"certainty"`
}

// IndexMeta is the filterable metadata stored alongside a vector.
type IndexMeta struct {
	Title       string
	Language    string
	Description string
}

// VectorIndex maintains an external approximate-nearest-neighbor index
// mirroring the embedding store. Errors from the backing service surface to
// the caller, which decides whether to fall back to exhaustive ranking.
type VectorIndex interface {
	// EnsureCollection creates the backing collection if it does not exist.
	// Idempotent; concurrent bootstrap attempts are safe.
	EnsureCollection(ctx context.Context) error

	// Upsert inserts or replaces the vector and metadata for one snippet.
	Upsert(ctx context.Context, snippetID string, vector []float32, meta IndexMeta) error

	// QueryTopK returns up to k hits with certainty >= minScore, sorted
	// descending by certainty.
	QueryTopK(ctx context.Context, vector []float32, k int, minScore float64) ([]IndexHit, error)

	// Delete removes the entry for a snippet. Deleting an absent id is not
	// an error; the bool reports whether anything was removed.
	Delete(ctx context.Context, snippetID string) (bool, error)
}
