package rank

import (
	"math"
	"sort"
)

// Scored is one ranked candidate.
type Scored struct {
	ID    string
	Score float64
}

// Cosine computes cosine similarity between two vectors. Mismatched lengths
// are tolerated by truncating to the shorter vector; a zero-magnitude operand
// yields 0 rather than NaN. Never errors.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	den := math.Sqrt(na) * math.Sqrt(nb)
	if den == 0 {
		return 0
	}
	return dot / den
}

// Rank scores each candidate vector against the query vector, drops nil
// vectors and scores below threshold, sorts descending (stable for exact
// ties, preserving input order) and truncates to limit. An empty candidate
// set or limit <= 0 returns an empty result.
func Rank(queryVec []float32, ids []string, vecs [][]float32, limit int, threshold float64) []Scored {
	if limit <= 0 || len(ids) == 0 {
		return nil
	}
	scored := make([]Scored, 0, len(ids))
	for i, id := range ids {
		if vecs[i] == nil {
			continue
		}
		score := Cosine(queryVec, vecs[i])
		if score < threshold {
			continue
		}
		scored = append(scored, Scored{ID: id, Score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
