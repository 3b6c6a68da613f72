package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps every collection in a single documents table with a
// jsonb payload, upserted on (collection, doc_key).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a document store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the documents table if it is missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS documents (
			collection  TEXT        NOT NULL,
			doc_key     TEXT        NOT NULL,
			data        JSONB       NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, doc_key)
		)
	`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure documents schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, key string) (json.RawMessage, error) {
	query := `
		SELECT data
		FROM documents
		WHERE collection = $1 AND doc_key = $2
	`

	var data []byte
	err := s.pool.QueryRow(ctx, query, collection, key).Scan(&data)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s/%s: %w", collection, key, err)
	}
	return data, nil
}

func (s *PostgresStore) Set(ctx context.Context, collection, key string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s/%s: %w", collection, key, err)
	}

	query := `
		INSERT INTO documents (collection, doc_key, data, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (collection, doc_key)
		DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`

	if _, err := s.pool.Exec(ctx, query, collection, key, data); err != nil {
		return fmt.Errorf("failed to upsert document %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *PostgresStore) GetBatch(ctx context.Context, collection string, keys []string) (map[string]json.RawMessage, error) {
	if len(keys) == 0 {
		return map[string]json.RawMessage{}, nil
	}

	query := `
		SELECT doc_key, data
		FROM documents
		WHERE collection = $1 AND doc_key = ANY($2)
	`

	rows, err := s.pool.Query(ctx, query, collection, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to batch get from %s: %w", collection, err)
	}
	defer rows.Close()

	result := make(map[string]json.RawMessage, len(keys))
	for rows.Next() {
		var key string
		var data []byte
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("failed to scan document from %s: %w", collection, err)
		}
		result[key] = data
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return result, nil
}
