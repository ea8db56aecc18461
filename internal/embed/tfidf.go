package embed

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// tfidfVectorizer is a lexical vectorizer. Fitting determines the vocabulary
// and the document-frequency weights; vectors produced by different fits live
// in different spaces and must not be compared. A vectorizer instance is not
// safe for concurrent use — construct one per ranking call.
type tfidfVectorizer struct {
	vocab []string       // sorted vocabulary, defines vector dimensions
	index map[string]int // term -> dimension
	idf   []float64      // per-term inverse document frequency
}

// stopWords are dropped during tokenization. Small, English-only; enough to
// keep boilerplate query words from dominating the vocabulary.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "how": {}, "in": {}, "is": {},
	"it": {}, "of": {}, "on": {}, "or": {}, "that": {}, "the": {}, "to": {},
	"was": {}, "what": {}, "when": {}, "where": {}, "which": {}, "will": {},
	"with": {},
}

// tokenize lowercases the text and splits it into terms of two or more
// alphanumeric runes, dropping stop words.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, skip := stopWords[f]; skip {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

// newTFIDF fits a vectorizer on the given documents. The vocabulary may be
// empty when every term is filtered out; Transform then returns zero-length
// vectors and similarity degrades to 0 instead of failing.
func newTFIDF(docs []string) *tfidfVectorizer {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, t := range tokenize(doc) {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				df[t]++
			}
		}
	}

	vocab := make([]string, 0, len(df))
	for t := range df {
		vocab = append(vocab, t)
	}
	sort.Strings(vocab)

	v := &tfidfVectorizer{
		vocab: vocab,
		index: make(map[string]int, len(vocab)),
		idf:   make([]float64, len(vocab)),
	}
	n := float64(len(docs))
	for i, t := range vocab {
		v.index[t] = i
		// Smoothed IDF, as if one extra document contained every term.
		v.idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
	return v
}

// Dimensions returns the size of the fitted vocabulary.
func (v *tfidfVectorizer) Dimensions() int {
	return len(v.vocab)
}

// Transform maps text into the fitted vector space. Terms outside the
// vocabulary are ignored. The result is L2-normalized so cosine similarity
// reduces to a dot product.
func (v *tfidfVectorizer) Transform(text string) []float32 {
	vec := make([]float32, len(v.vocab))
	if len(v.vocab) == 0 {
		return vec
	}
	for _, t := range tokenize(text) {
		if i, ok := v.index[t]; ok {
			vec[i] += float32(v.idf[i])
		}
	}
	var norm float64
	for _, x := range vec {
		norm += float64(x) * float64(x)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}
