package rank

import "log/slog"

// Policy wraps ranking with a primary similarity threshold and a single
// retry at a looser threshold. The retry fires only when the first pass
// comes back empty while the candidate pool was non-empty, and never
// cascades further.
type Policy struct {
	Threshold float64
	Fallback  float64
}

// DefaultPolicy returns the reference thresholds. They are calibrated for
// cosine similarity on the exhaustive path; the external index uses its own
// certainty scale and its own minimum score.
func DefaultPolicy() Policy {
	return Policy{Threshold: 0.30, Fallback: 0.20}
}

// Apply ranks the candidates under the primary threshold, retrying once at
// the fallback threshold if nothing cleared the bar. An override >= 0
// replaces the primary threshold and disables the retry, since an explicit
// caller threshold should mean what it says.
func (p Policy) Apply(queryVec []float32, ids []string, vecs [][]float32, limit int, override float64) []Scored {
	if override >= 0 {
		return Rank(queryVec, ids, vecs, limit, override)
	}
	results := Rank(queryVec, ids, vecs, limit, p.Threshold)
	if len(results) == 0 && len(ids) > 0 {
		slog.Debug("no matches at primary threshold, retrying",
			"threshold", p.Threshold, "fallback", p.Fallback)
		results = Rank(queryVec, ids, vecs, limit, p.Fallback)
	}
	return results
}
