package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devsnippets/devsnippets/internal/domain"
	"github.com/devsnippets/devsnippets/internal/port"
	"github.com/devsnippets/devsnippets/internal/rank"
)

// fakeStore is an in-memory port.SnippetStore.
type fakeStore struct {
	snippets map[string]*domain.Snippet
	order    []string
}

func newFakeStore(snippets ...*domain.Snippet) *fakeStore {
	fs := &fakeStore{snippets: make(map[string]*domain.Snippet)}
	for _, sn := range snippets {
		fs.snippets[sn.ID] = sn
		fs.order = append(fs.order, sn.ID)
	}
	return fs
}

func (f *fakeStore) CreateSnippet(_ context.Context, sc *domain.SnippetCreate, embedding []float32) (*domain.Snippet, error) {
	sn := &domain.Snippet{
		ID:          fmt.Sprintf("id-%d", len(f.order)+1),
		Title:       sc.Title,
		Description: sc.Description,
		Code:        sc.Code,
		Language:    sc.Language,
		Tags:        sc.Tags,
		Embedding:   embedding,
	}
	f.snippets[sn.ID] = sn
	f.order = append(f.order, sn.ID)
	return sn, nil
}

func (f *fakeStore) GetSnippetByID(_ context.Context, id string) (*domain.Snippet, error) {
	if sn, ok := f.snippets[id]; ok {
		return sn, nil
	}
	return nil, port.ErrSnippetNotFound
}

func (f *fakeStore) ListSnippets(_ context.Context, offset, limit int) ([]domain.Snippet, error) {
	var out []domain.Snippet
	for i, id := range f.order {
		if i < offset || len(out) >= limit {
			continue
		}
		out = append(out, *f.snippets[id])
	}
	return out, nil
}

func (f *fakeStore) ListAllWithEmbedding(_ context.Context) ([]domain.Snippet, error) {
	var out []domain.Snippet
	for _, id := range f.order {
		if sn := f.snippets[id]; sn.HasEmbedding() {
			out = append(out, *sn)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateSnippet(_ context.Context, id string, u *domain.SnippetUpdate) (*domain.Snippet, error) {
	sn, ok := f.snippets[id]
	if !ok {
		return nil, port.ErrSnippetNotFound
	}
	if u.Title != nil {
		sn.Title = *u.Title
	}
	if u.Description != nil {
		sn.Description = *u.Description
	}
	if u.Code != nil {
		sn.Code = *u.Code
	}
	if u.Language != nil {
		sn.Language = *u.Language
	}
	if u.Tags != nil {
		sn.Tags = *u.Tags
	}
	if u.TouchesContent() {
		sn.Embedding = nil
	}
	return sn, nil
}

func (f *fakeStore) SetEmbedding(_ context.Context, id string, embedding []float32) error {
	sn, ok := f.snippets[id]
	if !ok {
		return port.ErrSnippetNotFound
	}
	sn.Embedding = embedding
	return nil
}

func (f *fakeStore) DeleteSnippet(_ context.Context, id string) error {
	if _, ok := f.snippets[id]; !ok {
		return port.ErrSnippetNotFound
	}
	delete(f.snippets, id)
	for i, sid := range f.order {
		if sid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeStore) ListLanguages(_ context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	var out []string
	for _, id := range f.order {
		lang := f.snippets[id].Language
		if _, ok := seen[lang]; !ok && lang != "" {
			seen[lang] = struct{}{}
			out = append(out, lang)
		}
	}
	return out, nil
}

// fakeStrategy embeds queries as a fixed vector and passes stored candidate
// vectors through, like the dense strategy.
type fakeStrategy struct {
	queryVec []float32
	err      error
}

func (f *fakeStrategy) Name() string { return "fake" }

func (f *fakeStrategy) Embed(context.Context, string) ([]float32, error) {
	return f.queryVec, f.err
}

func (f *fakeStrategy) EmbedSnippet(context.Context, string, string, string, string) ([]float32, error) {
	return f.queryVec, f.err
}

func (f *fakeStrategy) RankingVectors(_ context.Context, _ string, cands []port.Candidate) ([]float32, [][]float32, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	vecs := make([][]float32, len(cands))
	for i, c := range cands {
		vecs[i] = c.Vector
	}
	return f.queryVec, vecs, nil
}

// fakeIndex is a scripted port.VectorIndex.
type fakeIndex struct {
	hits    []port.IndexHit
	err     error
	deleted []string
	upserts []string
}

func (f *fakeIndex) EnsureCollection(context.Context) error { return nil }

func (f *fakeIndex) Upsert(_ context.Context, id string, _ []float32, _ port.IndexMeta) error {
	f.upserts = append(f.upserts, id)
	return f.err
}

func (f *fakeIndex) QueryTopK(context.Context, []float32, int, float64) ([]port.IndexHit, error) {
	return f.hits, f.err
}

func (f *fakeIndex) Delete(_ context.Context, id string) (bool, error) {
	f.deleted = append(f.deleted, id)
	return true, f.err
}

func snippetWithVec(id string, vec []float32) *domain.Snippet {
	return &domain.Snippet{ID: id, Title: id, Code: "code", Language: "go", Embedding: vec}
}

func newSearchService(store port.SnippetStore, strategy port.EmbeddingStrategy, idx port.VectorIndex) *SearchService {
	return NewSearchService(store, strategy, idx, rank.DefaultPolicy(), 10, 0.6)
}

func TestSearchEmptyCorpus(t *testing.T) {
	svc := newSearchService(newFakeStore(), &fakeStrategy{queryVec: []float32{1, 0}}, nil)

	resp, err := svc.Search(context.Background(), SearchRequest{Query: "anything", Threshold: -1})
	require.NoError(t, err)
	assert.Empty(t, resp.Matches)
	assert.Zero(t, resp.TotalCount)
	assert.Equal(t, "anything", resp.Query)
}

func TestSearchRanksAndFilters(t *testing.T) {
	store := newFakeStore(
		snippetWithVec("A", []float32{0.9, 0.436}),
		snippetWithVec("B", []float32{0.5, 0.866}),
		snippetWithVec("C", []float32{0.1, 0.995}),
	)
	svc := newSearchService(store, &fakeStrategy{queryVec: []float32{1, 0}}, nil)

	resp, err := svc.Search(context.Background(), SearchRequest{Query: "q", Limit: 2, Threshold: 0.3})
	require.NoError(t, err)
	require.Len(t, resp.Matches, 2)
	assert.Equal(t, "A", resp.Matches[0].Snippet.ID)
	assert.Equal(t, "B", resp.Matches[1].Snippet.ID)
	assert.Equal(t, 2, resp.TotalCount)
}

func TestSearchExcludesSnippetsWithoutVector(t *testing.T) {
	store := newFakeStore(
		snippetWithVec("A", []float32{1, 0}),
		snippetWithVec("B", nil), // never embedded
	)
	svc := newSearchService(store, &fakeStrategy{queryVec: []float32{1, 0}}, nil)

	resp, err := svc.Search(context.Background(), SearchRequest{Query: "q", Threshold: -1})
	require.NoError(t, err)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "A", resp.Matches[0].Snippet.ID)
	assert.Equal(t, 1, resp.TotalCount)
}

func TestSearchFallbackThreshold(t *testing.T) {
	// ~0.25 similarity: below the 0.30 primary threshold, found on the
	// single retry at 0.20.
	store := newFakeStore(snippetWithVec("A", []float32{0.25, 0.968}))
	svc := newSearchService(store, &fakeStrategy{queryVec: []float32{1, 0}}, nil)

	resp, err := svc.Search(context.Background(), SearchRequest{Query: "q", Threshold: -1})
	require.NoError(t, err)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "A", resp.Matches[0].Snippet.ID)
}

func TestSearchEmbeddingFailureDegrades(t *testing.T) {
	store := newFakeStore(snippetWithVec("A", []float32{1, 0}))
	svc := newSearchService(store, &fakeStrategy{err: fmt.Errorf("model down")}, nil)

	// Embedding failure is never a request failure: the response is empty.
	resp, err := svc.Search(context.Background(), SearchRequest{Query: "q", Threshold: -1})
	require.NoError(t, err)
	assert.Empty(t, resp.Matches)
	assert.Zero(t, resp.TotalCount)
}

func TestSearchIndexedPath(t *testing.T) {
	store := newFakeStore(
		snippetWithVec("A", []float32{1, 0}),
		snippetWithVec("B", []float32{0, 1}),
	)
	idx := &fakeIndex{hits: []port.IndexHit{
		{SnippetID: "B", Certainty: 0.95},
		{SnippetID: "A", Certainty: 0.80},
	}}
	svc := newSearchService(store, &fakeStrategy{queryVec: []float32{1, 0}}, idx)

	resp, err := svc.Search(context.Background(), SearchRequest{Query: "q", Mode: ModeIndexed, Threshold: -1})
	require.NoError(t, err)
	require.Len(t, resp.Matches, 2)
	assert.Equal(t, "B", resp.Matches[0].Snippet.ID)
	assert.InDelta(t, 0.95, resp.Matches[0].Similarity, 1e-9)
}

func TestSearchIndexedSkipsOrphanHits(t *testing.T) {
	store := newFakeStore(snippetWithVec("A", []float32{1, 0}))
	idx := &fakeIndex{hits: []port.IndexHit{
		{SnippetID: "gone", Certainty: 0.99},
		{SnippetID: "A", Certainty: 0.90},
	}}
	svc := newSearchService(store, &fakeStrategy{queryVec: []float32{1, 0}}, idx)

	resp, err := svc.Search(context.Background(), SearchRequest{Query: "q", Mode: ModeIndexed, Threshold: -1})
	require.NoError(t, err)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "A", resp.Matches[0].Snippet.ID)
	assert.Equal(t, 1, resp.TotalCount)
}

func TestSearchIndexedFallsBackOnIndexError(t *testing.T) {
	store := newFakeStore(snippetWithVec("A", []float32{1, 0}))
	idx := &fakeIndex{err: fmt.Errorf("index unreachable")}
	svc := newSearchService(store, &fakeStrategy{queryVec: []float32{1, 0}}, idx)

	// The indexed path fails, the exhaustive path still answers.
	resp, err := svc.Search(context.Background(), SearchRequest{Query: "q", Mode: ModeIndexed, Threshold: -1})
	require.NoError(t, err)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "A", resp.Matches[0].Snippet.ID)
}
