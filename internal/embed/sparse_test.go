package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devsnippets/devsnippets/internal/port"
	"github.com/devsnippets/devsnippets/internal/rank"
)

func TestSparseRankingVectorsSharedSpace(t *testing.T) {
	s := NewSparseStrategy()
	cands := []port.Candidate{
		{ID: "a", Text: "binary search over sorted slice"},
		{ID: "b", Text: "http middleware for request logging"},
	}

	qvec, vecs, err := s.RankingVectors(context.Background(), "binary search implementation", cands)
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	// Joint fit: every vector has the same dimensionality.
	assert.Len(t, vecs[0], len(qvec))
	assert.Len(t, vecs[1], len(qvec))

	// The lexically overlapping candidate must score higher.
	simA := rank.Cosine(qvec, vecs[0])
	simB := rank.Cosine(qvec, vecs[1])
	assert.Greater(t, simA, simB)
	assert.Greater(t, simA, 0.0)
}

func TestSparseRankingVectorsDeterministic(t *testing.T) {
	s := NewSparseStrategy()
	cands := []port.Candidate{
		{ID: "a", Text: "parse yaml config"},
		{ID: "b", Text: "walk directory tree"},
	}

	q1, v1, err := s.RankingVectors(context.Background(), "load configuration", cands)
	require.NoError(t, err)
	q2, v2, err := s.RankingVectors(context.Background(), "load configuration", cands)
	require.NoError(t, err)

	assert.Equal(t, q1, q2)
	assert.Equal(t, v1, v2)
}

func TestSparseEmbedColdStart(t *testing.T) {
	s := NewSparseStrategy()

	vec, err := s.Embed(context.Background(), "reverse a linked list")
	require.NoError(t, err)
	assert.NotEmpty(t, vec)

	// The single-document vector is comparable to itself.
	assert.InDelta(t, 1.0, rank.Cosine(vec, vec), 1e-5)
}

func TestSparseEmbedDegenerateText(t *testing.T) {
	s := NewSparseStrategy()

	// Stop words only: no vocabulary survives, and the strategy returns a
	// zero-similarity vector instead of an error.
	vec, err := s.Embed(context.Background(), "the and of")
	require.NoError(t, err)
	assert.Zero(t, rank.Cosine(vec, vec))
}

func TestSparseEmbedSnippet(t *testing.T) {
	s := NewSparseStrategy()
	vec, err := s.EmbedSnippet(context.Background(), "quicksort", "sorts ints", "func qsort() {}", "go")
	require.NoError(t, err)
	assert.NotEmpty(t, vec)
}
