package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campsite/internal/database"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	store, err := NewSQLStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLStore_GetMissing(t *testing.T) {
	store := newTestStore(t)
	_, _, err := store.Get(context.Background(), "sites", "A1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStore_SetBumpsVersion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "sites", "A1", []byte(`{}`)))
	data, version, err := store.Get(ctx, "sites", "A1")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
	assert.Equal(t, int64(1), version)

	require.NoError(t, store.Set(ctx, "sites", "A1", []byte(`{"a":1}`)))
	data, version, err = store.Get(ctx, "sites", "A1")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
	assert.Equal(t, int64(2), version)
}

func TestSQLStore_SetIf(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("create only when absent", func(t *testing.T) {
		require.NoError(t, store.SetIf(ctx, "sites", "B1", []byte(`{}`), 0))
		err := store.SetIf(ctx, "sites", "B1", []byte(`{}`), 0)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("matching version wins", func(t *testing.T) {
		require.NoError(t, store.SetIf(ctx, "sites", "B1", []byte(`{"a":1}`), 1))
		_, version, err := store.Get(ctx, "sites", "B1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), version)
	})

	t.Run("stale version loses without writing", func(t *testing.T) {
		err := store.SetIf(ctx, "sites", "B1", []byte(`{"a":2}`), 1)
		assert.ErrorIs(t, err, ErrConflict)

		data, version, err := store.Get(ctx, "sites", "B1")
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(data))
		assert.Equal(t, int64(2), version)
	})
}

func TestSQLStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "sites", "C1", []byte(`{}`)))
	require.NoError(t, store.Delete(ctx, "sites", "C1"))
	assert.ErrorIs(t, store.Delete(ctx, "sites", "C1"), ErrNotFound)
}

func TestSQLStore_ListIDsPerCollection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "sites", "B1", []byte(`{}`)))
	require.NoError(t, store.Set(ctx, "sites", "A1", []byte(`{}`)))
	require.NoError(t, store.Set(ctx, "prices", "daily_prices", []byte(`{}`)))

	ids, err := store.ListIDs(ctx, "sites")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B1"}, ids)

	ids, err = store.ListIDs(ctx, "prices")
	require.NoError(t, err)
	assert.Equal(t, []string{"daily_prices"}, ids)

	ids, err = store.ListIDs(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
