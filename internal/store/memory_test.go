package store_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thermalgrid/heatindex-analytics-worker/internal/store"
)

func TestMemoryStoreSetGet(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemoryStore()

	doc := map[string]string{"hello": "world"}
	require.NoError(t, m.Set(ctx, "things", "a", doc))

	raw, err := m.Get(ctx, "things", "a")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, doc, got)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	m := store.NewMemoryStore()

	_, err := m.Get(context.Background(), "things", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemoryStoreSetOverwrites(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemoryStore()

	require.NoError(t, m.Set(ctx, "things", "a", map[string]int{"v": 1}))
	require.NoError(t, m.Set(ctx, "things", "a", map[string]int{"v": 2}))

	raw, err := m.Get(ctx, "things", "a")
	require.NoError(t, err)

	var got map[string]int
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, 2, got["v"])
	assert.Equal(t, 1, m.Len())
}

func TestMemoryStoreGetBatchSkipsAbsent(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemoryStore()

	require.NoError(t, m.Set(ctx, "things", "a", 1))
	require.NoError(t, m.Set(ctx, "things", "c", 3))

	got, err := m.GetBatch(ctx, "things", []string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Len(t, got, 2)
	assert.Contains(t, got, "a")
	assert.NotContains(t, got, "b")
	assert.Contains(t, got, "c")
}
