package store

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore holds the private document corpus: chunked document text
// with embeddings, scoped per owner.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the document chunk table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS document_chunks (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			owner_id   VARCHAR(64)  NOT NULL,
			title      VARCHAR(512) NOT NULL,
			content    TEXT         NOT NULL,
			embedding  REAL[]       NOT NULL,
			created_at TIMESTAMPTZ  DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_document_chunks_owner
		ON document_chunks (owner_id)
	`)
	return err
}

// InsertChunk stores one embedded document chunk for an owner.
func (s *PostgresStore) InsertChunk(ctx context.Context, ownerID, title, content string, embedding []float32) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO document_chunks (owner_id, title, content, embedding)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		ownerID, title, content, embedding,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert chunk: %w", err)
	}
	return id, nil
}

// ListTitles returns the distinct document titles stored for an owner.
func (s *PostgresStore) ListTitles(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT title FROM document_chunks WHERE owner_id = $1 ORDER BY title`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// DeleteDocument removes every chunk of one document.
func (s *PostgresStore) DeleteDocument(ctx context.Context, ownerID, title string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM document_chunks WHERE owner_id = $1 AND title = $2`,
		ownerID, title,
	)
	return err
}

// SimilarChunks returns the owner's chunks closest to the query embedding,
// most similar first, dropping matches below the score threshold. Snippets
// carry the chunk text; refs carry the distinct document titles.
func (s *PostgresStore) SimilarChunks(ctx context.Context, ownerID string, queryEmbedding []float32, maxDocs int, scoreThreshold float64) (snippets, refs []string, err error) {
	rows, err := s.pool.Query(ctx,
		`SELECT title, content, embedding
		 FROM document_chunks
		 WHERE owner_id = $1`,
		ownerID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	type scored struct {
		title   string
		content string
		score   float64
	}
	var all []scored
	for rows.Next() {
		var title, content string
		var embedding []float32
		if err := rows.Scan(&title, &content, &embedding); err != nil {
			return nil, nil, fmt.Errorf("scan chunk: %w", err)
		}
		all = append(all, scored{title: title, content: content, score: cosineSimilarity(queryEmbedding, embedding)})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	// Selection sort of the top maxDocs; corpora are small per owner.
	for i := 0; i < len(all) && i < maxDocs; i++ {
		best := i
		for j := i + 1; j < len(all); j++ {
			if all[j].score > all[best].score {
				best = j
			}
		}
		all[i], all[best] = all[best], all[i]
	}
	if len(all) > maxDocs {
		all = all[:maxDocs]
	}

	seenTitles := make(map[string]struct{})
	for _, c := range all {
		if c.score < scoreThreshold {
			continue
		}
		snippets = append(snippets, fmt.Sprintf("Document: %s\n%s", c.title, strings.TrimSpace(c.content)))
		if _, ok := seenTitles[c.title]; !ok {
			seenTitles[c.title] = struct{}{}
			refs = append(refs, c.title)
		}
	}
	return snippets, refs, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
