package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/devsnippets/devsnippets/internal/domain"
	"github.com/devsnippets/devsnippets/internal/port"
)

// PostgresStore handles all relational database operations for snippets.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// EnsureSchema creates the snippets table if it does not exist. Idempotent;
// called once at startup.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS snippets (
			id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			title       VARCHAR(200) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			code        TEXT NOT NULL,
			language    VARCHAR(50) NOT NULL,
			tags        JSONB NOT NULL DEFAULT '[]',
			embedding   JSONB,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS snippets_language_idx ON snippets (language);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const snippetColumns = `id, title, description, code, language, tags, embedding, created_at`

// CreateSnippet inserts a new snippet record. The embedding may be nil when
// vectorization failed at write time; the backfill job picks it up later.
func (s *PostgresStore) CreateSnippet(ctx context.Context, sc *domain.SnippetCreate, embedding []float32) (*domain.Snippet, error) {
	tags := sc.Tags
	if tags == nil {
		tags = []string{}
	}
	query := `INSERT INTO snippets (title, description, code, language, tags, embedding)
	          VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb)
	          RETURNING ` + snippetColumns

	row := s.db.QueryRowContext(ctx, query,
		sc.Title, sc.Description, sc.Code, sc.Language, mustJSON(tags), embeddingJSON(embedding),
	)

	snippet, err := scanSnippet(row)
	if err != nil {
		return nil, fmt.Errorf("create snippet: %w", err)
	}
	return snippet, nil
}

// GetSnippetByID retrieves a snippet by ID.
func (s *PostgresStore) GetSnippetByID(ctx context.Context, id string) (*domain.Snippet, error) {
	query := `SELECT ` + snippetColumns + ` FROM snippets WHERE id = $1`

	snippet, err := scanSnippet(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, port.ErrSnippetNotFound
		}
		return nil, fmt.Errorf("get snippet: %w", err)
	}
	return snippet, nil
}

// ListSnippets returns snippets ordered by creation time, newest first.
func (s *PostgresStore) ListSnippets(ctx context.Context, offset, limit int) ([]domain.Snippet, error) {
	query := `SELECT ` + snippetColumns + ` FROM snippets
	          ORDER BY created_at DESC OFFSET $1 LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list snippets: %w", err)
	}
	defer rows.Close()

	return collectSnippets(rows)
}

// ListAllWithEmbedding returns every snippet that has a stored vector. Used
// by ranking (exhaustive path) and the index mirror job.
func (s *PostgresStore) ListAllWithEmbedding(ctx context.Context) ([]domain.Snippet, error) {
	query := `SELECT ` + snippetColumns + ` FROM snippets
	          WHERE embedding IS NOT NULL ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list snippets with embedding: %w", err)
	}
	defer rows.Close()

	return collectSnippets(rows)
}

// ListMissingEmbedding returns snippets whose vector has not been computed.
// Used by the backfill job.
func (s *PostgresStore) ListMissingEmbedding(ctx context.Context) ([]domain.Snippet, error) {
	query := `SELECT ` + snippetColumns + ` FROM snippets
	          WHERE embedding IS NULL ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list snippets missing embedding: %w", err)
	}
	defer rows.Close()

	return collectSnippets(rows)
}

// UpdateSnippet applies a partial update and returns the updated row. A
// content change clears the stored embedding; the caller re-embeds via
// SetEmbedding once the new vector is available.
func (s *PostgresStore) UpdateSnippet(ctx context.Context, id string, u *domain.SnippetUpdate) (*domain.Snippet, error) {
	set := ""
	args := []interface{}{}
	argIdx := 1

	appendSet := func(col string, val interface{}) {
		if set != "" {
			set += ", "
		}
		set += fmt.Sprintf("%s = $%d", col, argIdx)
		args = append(args, val)
		argIdx++
	}

	if u.Title != nil {
		appendSet("title", *u.Title)
	}
	if u.Description != nil {
		appendSet("description", *u.Description)
	}
	if u.Code != nil {
		appendSet("code", *u.Code)
	}
	if u.Language != nil {
		appendSet("language", *u.Language)
	}
	if u.Tags != nil {
		appendSet("tags", mustJSON(*u.Tags))
	}
	if u.TouchesContent() {
		set += ", embedding = NULL"
	}
	if set == "" {
		return s.GetSnippetByID(ctx, id)
	}

	query := fmt.Sprintf(`UPDATE snippets SET %s WHERE id = $%d RETURNING %s`, set, argIdx, snippetColumns)
	args = append(args, id)

	snippet, err := scanSnippet(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, port.ErrSnippetNotFound
		}
		return nil, fmt.Errorf("update snippet: %w", err)
	}
	return snippet, nil
}

// SetEmbedding stores the computed vector for a snippet.
func (s *PostgresStore) SetEmbedding(ctx context.Context, id string, embedding []float32) error {
	query := `UPDATE snippets SET embedding = $1::jsonb WHERE id = $2`
	res, err := s.db.ExecContext(ctx, query, embeddingJSON(embedding), id)
	if err != nil {
		return fmt.Errorf("set embedding: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return port.ErrSnippetNotFound
	}
	return nil
}

// DeleteSnippet removes a snippet row.
func (s *PostgresStore) DeleteSnippet(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snippets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete snippet: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return port.ErrSnippetNotFound
	}
	return nil
}

// ListLanguages returns the distinct language tags in use.
func (s *PostgresStore) ListLanguages(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT language FROM snippets WHERE language <> '' ORDER BY language`)
	if err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	defer rows.Close()

	var languages []string
	for rows.Next() {
		var lang string
		if err := rows.Scan(&lang); err != nil {
			return nil, fmt.Errorf("scan language: %w", err)
		}
		languages = append(languages, lang)
	}
	return languages, rows.Err()
}

// --- scanning helpers ---

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnippet(row rowScanner) (*domain.Snippet, error) {
	var sn domain.Snippet
	var tagsRaw []byte
	var embeddingRaw []byte

	err := row.Scan(
		&sn.ID, &sn.Title, &sn.Description, &sn.Code, &sn.Language,
		&tagsRaw, &embeddingRaw, &sn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(tagsRaw, &sn.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if len(embeddingRaw) > 0 {
		if err := json.Unmarshal(embeddingRaw, &sn.Embedding); err != nil {
			return nil, fmt.Errorf("decode embedding: %w", err)
		}
	}
	return &sn, nil
}

func collectSnippets(rows *sql.Rows) ([]domain.Snippet, error) {
	var snippets []domain.Snippet
	for rows.Next() {
		sn, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snippet: %w", err)
		}
		snippets = append(snippets, *sn)
	}
	return snippets, rows.Err()
}

func mustJSON(v interface{}) []byte {
	b, _ := json.Marshal(v)
	return b
}

// embeddingJSON encodes a vector as jsonb, or SQL NULL when absent.
func embeddingJSON(embedding []float32) interface{} {
	if len(embedding) == 0 {
		return nil
	}
	return mustJSON(embedding)
}
