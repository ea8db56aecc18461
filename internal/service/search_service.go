package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/devsnippets/devsnippets/internal/domain"
	"github.com/devsnippets/devsnippets/internal/embed"
	"github.com/devsnippets/devsnippets/internal/port"
	"github.com/devsnippets/devsnippets/internal/rank"
)

// Search modes. Exhaustive ranks every stored vector in-process; indexed
// delegates top-k to the external vector index and falls back to exhaustive
// when the index is unreachable.
const (
	ModeExhaustive = "exhaustive"
	ModeIndexed    = "indexed"
)

// SearchRequest are the parameters for one search call. Threshold < 0 means
// "use the policy defaults with fallback retry"; an explicit threshold is
// applied as-is.
type SearchRequest struct {
	Query     string
	Limit     int
	Threshold float64
	Mode      string
}

// SearchResponse is an ordered result set. TotalCount counts returned
// matches, never excluded candidates.
type SearchResponse struct {
	Matches    []domain.SearchMatch
	TotalCount int
	Query      string
}

// SearchService runs ranked similarity search over the snippet corpus. No
// error from the ranking core aborts a request: embedding and index failures
// degrade to fewer or no results.
type SearchService struct {
	store         port.SnippetStore
	strategy      port.EmbeddingStrategy
	idx           port.VectorIndex // nil when the external index is disabled
	policy        rank.Policy
	defaultLimit  int
	indexMinScore float64
}

// NewSearchService creates a new search service. idx may be nil.
func NewSearchService(store port.SnippetStore, strategy port.EmbeddingStrategy, idx port.VectorIndex, policy rank.Policy, defaultLimit int, indexMinScore float64) *SearchService {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &SearchService{
		store:         store,
		strategy:      strategy,
		idx:           idx,
		policy:        policy,
		defaultLimit:  defaultLimit,
		indexMinScore: indexMinScore,
	}
}

// Search returns the snippets most similar to the query text, ranked by
// descending similarity.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if req.Limit <= 0 {
		req.Limit = s.defaultLimit
	}

	if req.Mode == ModeIndexed && s.idx != nil {
		resp, err := s.searchIndexed(ctx, req)
		if err == nil {
			return resp, nil
		}
		slog.Warn("indexed search failed, falling back to exhaustive ranking", "error", err)
	}
	return s.searchExhaustive(ctx, req)
}

// searchExhaustive ranks every stored vector against the query in-process.
func (s *SearchService) searchExhaustive(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	empty := &SearchResponse{Matches: []domain.SearchMatch{}, TotalCount: 0, Query: req.Query}

	snippets, err := s.store.ListAllWithEmbedding(ctx)
	if err != nil {
		return nil, err
	}
	if len(snippets) == 0 {
		return empty, nil
	}

	byID := make(map[string]*domain.Snippet, len(snippets))
	cands := make([]port.Candidate, len(snippets))
	ids := make([]string, len(snippets))
	for i := range snippets {
		sn := &snippets[i]
		byID[sn.ID] = sn
		ids[i] = sn.ID
		cands[i] = port.Candidate{
			ID:     sn.ID,
			Text:   embed.Normalize(sn.Title, sn.Description, sn.Language, sn.Code),
			Vector: sn.Embedding,
		}
	}

	qvec, vecs, err := s.strategy.RankingVectors(ctx, req.Query, cands)
	if err != nil {
		// Embedding failure is recovered locally: the user sees no results,
		// never a failed request.
		slog.Error("query embedding failed", "strategy", s.strategy.Name(), "error", err)
		return empty, nil
	}

	scored := s.policy.Apply(qvec, ids, vecs, req.Limit, req.Threshold)

	matches := make([]domain.SearchMatch, 0, len(scored))
	for _, sc := range scored {
		matches = append(matches, domain.SearchMatch{Snippet: *byID[sc.ID], Similarity: sc.Score})
	}
	return &SearchResponse{Matches: matches, TotalCount: len(matches), Query: req.Query}, nil
}

// searchIndexed embeds the query and asks the external index for top-k. The
// index reports certainty on its own scale, so the exhaustive thresholds are
// not applied here; hits below the index's configured minimum score were
// already filtered server-side.
func (s *SearchService) searchIndexed(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	qvec, err := s.strategy.Embed(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	hits, err := s.idx.QueryTopK(ctx, qvec, req.Limit, s.indexMinScore)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.SearchMatch, 0, len(hits))
	for _, hit := range hits {
		snippet, err := s.store.GetSnippetByID(ctx, hit.SnippetID)
		if err != nil {
			if errors.Is(err, port.ErrSnippetNotFound) {
				// Index entry outlived its row; skip it.
				slog.Warn("index hit without backing snippet", "snippet_id", hit.SnippetID)
				continue
			}
			return nil, err
		}
		matches = append(matches, domain.SearchMatch{Snippet: *snippet, Similarity: hit.Certainty})
	}
	return &SearchResponse{Matches: matches, TotalCount: len(matches), Query: req.Query}, nil
}
