package domain

import "time"

// Snippet is a stored code snippet. The embedding is nil until it has been
// computed, and is invalidated whenever title, description, code or language
// change.
type Snippet struct {
	ID          string    `json:"id"          db:"id"`
	Title       string    `json:"title"       db:"title"`
	Description string    `json:"description" db:"description"`
	Code        string    `json:"code"        db:"code"`
	Language    string    `json:"language"    db:"language"`
	Tags        []string  `json:"tags"        db:"tags"`
	Embedding   []float32 `json:"-"           db:"embedding"`
	CreatedAt   time.Time `json:"created_at"  db:"created_at"`
}

// HasEmbedding reports whether a vector has been computed for this snippet.
func (s *Snippet) HasEmbedding() bool {
	return len(s.Embedding) > 0
}

// SnippetCreate carries the fields accepted when creating a snippet.
type SnippetCreate struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Code        string   `json:"code"`
	Language    string   `json:"language"`
	Tags        []string `json:"tags"`
}

// SnippetUpdate carries a partial update. Nil fields are left untouched.
type SnippetUpdate struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Code        *string   `json:"code"`
	Language    *string   `json:"language"`
	Tags        *[]string `json:"tags"`
}

// TouchesContent reports whether the update changes any field that feeds the
// embedding, which forces a recompute.
func (u *SnippetUpdate) TouchesContent() bool {
	return u.Title != nil || u.Description != nil || u.Code != nil || u.Language != nil
}

// SearchMatch is a snippet paired with its similarity score for one query.
// Scores are cosine similarities, conventionally in [-1, 1]; they are never
// persisted.
type SearchMatch struct {
	Snippet    Snippet `json:"snippet"`
	Similarity float64 `json:"similarity"`
}
