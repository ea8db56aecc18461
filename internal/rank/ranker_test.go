package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "zero magnitude", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
		{name: "both empty", a: nil, b: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCosineTruncatesMismatchedLengths(t *testing.T) {
	// Length mismatch never raises; similarity is computed on the common
	// prefix.
	a := []float32{1, 0, 0, 0, 0}
	b := []float32{1, 0}
	assert.InDelta(t, 1.0, Cosine(a, b), 1e-9)
	assert.InDelta(t, Cosine(a, b), Cosine(b, a), 1e-9)
}

func TestRankOrderingAndThreshold(t *testing.T) {
	query := []float32{1, 0}
	ids := []string{"A", "B", "C"}
	vecs := [][]float32{
		{0.9, 0.436}, // ~0.90 to query
		{0.5, 0.866}, // ~0.50
		{0.1, 0.995}, // ~0.10
	}

	// C is excluded by the threshold, not by the limit.
	got := Rank(query, ids, vecs, 2, 0.3)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].ID)
	assert.Equal(t, "B", got[1].ID)
	assert.InDelta(t, 0.9, got[0].Score, 0.01)
	assert.InDelta(t, 0.5, got[1].Score, 0.01)
	assert.GreaterOrEqual(t, got[0].Score, got[1].Score)
}

func TestRankStableForTies(t *testing.T) {
	query := []float32{1, 0}
	ids := []string{"first", "second", "third"}
	same := []float32{1, 0}
	vecs := [][]float32{same, same, same}

	got := Rank(query, ids, vecs, 10, 0)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestRankSkipsNilVectors(t *testing.T) {
	query := []float32{1, 0}
	ids := []string{"A", "B"}
	vecs := [][]float32{nil, {1, 0}}

	got := Rank(query, ids, vecs, 10, 0)
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].ID)
}

func TestRankEdgeCases(t *testing.T) {
	query := []float32{1, 0}

	assert.Empty(t, Rank(query, nil, nil, 10, 0))
	assert.Empty(t, Rank(query, []string{"A"}, [][]float32{{1, 0}}, 0, 0))
	assert.Empty(t, Rank(query, []string{"A"}, [][]float32{{1, 0}}, -1, 0))
}

func TestRankTruncatesToLimit(t *testing.T) {
	query := []float32{1, 0}
	ids := []string{"A", "B", "C", "D"}
	vecs := [][]float32{{1, 0}, {1, 0}, {1, 0}, {1, 0}}

	got := Rank(query, ids, vecs, 2, 0)
	assert.Len(t, got, 2)
}
