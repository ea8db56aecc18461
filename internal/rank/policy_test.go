package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyPrimaryThreshold(t *testing.T) {
	p := DefaultPolicy()
	query := []float32{1, 0}
	ids := []string{"A", "B"}
	vecs := [][]float32{
		{0.9, 0.436}, // ~0.90
		{0.1, 0.995}, // ~0.10
	}

	got := p.Apply(query, ids, vecs, 10, -1)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].ID)
}

func TestPolicyFallbackRetry(t *testing.T) {
	p := DefaultPolicy()
	query := []float32{1, 0}
	ids := []string{"A"}
	// ~0.25: below the 0.30 primary threshold, above the 0.20 fallback.
	vecs := [][]float32{{0.25, 0.968}}

	got := p.Apply(query, ids, vecs, 10, -1)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].ID)
}

func TestPolicyNoInfiniteRetry(t *testing.T) {
	p := DefaultPolicy()
	query := []float32{1, 0}
	ids := []string{"A"}
	// ~0.10: below both thresholds; the one retry exhausts and the result
	// stays empty.
	vecs := [][]float32{{0.1, 0.995}}

	assert.Empty(t, p.Apply(query, ids, vecs, 10, -1))
}

func TestPolicyEmptyPoolNoRetry(t *testing.T) {
	p := DefaultPolicy()
	assert.Empty(t, p.Apply([]float32{1, 0}, nil, nil, 10, -1))
}

func TestPolicyExplicitOverride(t *testing.T) {
	p := DefaultPolicy()
	query := []float32{1, 0}
	ids := []string{"A"}
	vecs := [][]float32{{0.25, 0.968}} // ~0.25

	// An explicit threshold is applied as-is: 0.5 excludes the candidate
	// and there is no fallback retry.
	assert.Empty(t, p.Apply(query, ids, vecs, 10, 0.5))

	// An explicit 0 includes everything non-negative.
	got := p.Apply(query, ids, vecs, 10, 0)
	assert.Len(t, got, 1)
}
