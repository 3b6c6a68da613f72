package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is an in-memory DocStore for tests.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[string]json.RawMessage
}

// NewMemoryStore creates an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]json.RawMessage)}
}

func (m *MemoryStore) Get(ctx context.Context, collection, key string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.data[collection][key]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (m *MemoryStore) Set(ctx context.Context, collection, key string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data[collection] == nil {
		m.data[collection] = make(map[string]json.RawMessage)
	}
	m.data[collection][key] = data
	return nil
}

func (m *MemoryStore) GetBatch(ctx context.Context, collection string, keys []string) (map[string]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		if doc, ok := m.data[collection][key]; ok {
			result[key] = doc
		}
	}
	return result, nil
}

// Keys lists the document keys present in a collection, for test assertions.
func (m *MemoryStore) Keys(collection string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.data[collection]))
	for key := range m.data[collection] {
		keys = append(keys, key)
	}
	return keys
}

// Len reports the total number of documents across all collections.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, docs := range m.data {
		n += len(docs)
	}
	return n
}
