package store

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when a document key does not exist in a collection.
var ErrNotFound = errors.New("document not found")

// DocStore is the schemaless document persistence the analytics pipeline
// writes to. Documents are addressed by collection + deterministic key;
// Set is a full-document upsert. Implementations: Postgres (production),
// memory (tests).
type DocStore interface {
	// Get fetches one document, ErrNotFound when absent.
	Get(ctx context.Context, collection, key string) (json.RawMessage, error)

	// Set upserts the JSON encoding of doc under the given key.
	Set(ctx context.Context, collection, key string, doc any) error

	// GetBatch fetches many documents in one round trip. Absent keys are
	// simply missing from the result map, not an error.
	GetBatch(ctx context.Context, collection string, keys []string) (map[string]json.RawMessage, error)
}
