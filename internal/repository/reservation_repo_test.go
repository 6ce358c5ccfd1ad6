package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campsite/internal/docstore"
	"campsite/internal/domain"
)

// memStore is an in-memory docstore.Store double with the same version
// semantics as the real backends.
type memStore struct {
	mu         sync.Mutex
	docs       map[string][]byte
	versions   map[string]int64
	reconnects int

	// failNextSetIf injects one artificial version conflict.
	failNextSetIf bool
}

func newMemStore() *memStore {
	return &memStore{
		docs:     make(map[string][]byte),
		versions: make(map[string]int64),
	}
}

func (m *memStore) key(collection, id string) string { return collection + "/" + id }

func (m *memStore) Get(ctx context.Context, collection, id string) ([]byte, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.key(collection, id)
	data, ok := m.docs[k]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", docstore.ErrNotFound, k)
	}
	return append([]byte(nil), data...), m.versions[k], nil
}

func (m *memStore) Set(ctx context.Context, collection, id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.key(collection, id)
	m.docs[k] = append([]byte(nil), data...)
	m.versions[k]++
	return nil
}

func (m *memStore) SetIf(ctx context.Context, collection, id string, data []byte, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.key(collection, id)
	if m.failNextSetIf {
		m.failNextSetIf = false
		return fmt.Errorf("%w: injected", docstore.ErrConflict)
	}
	if m.versions[k] != expectedVersion {
		return fmt.Errorf("%w: %s", docstore.ErrConflict, k)
	}
	m.docs[k] = append([]byte(nil), data...)
	m.versions[k]++
	return nil
}

func (m *memStore) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.key(collection, id)
	if _, ok := m.docs[k]; !ok {
		return fmt.Errorf("%w: %s", docstore.ErrNotFound, k)
	}
	delete(m.docs, k)
	delete(m.versions, k)
	return nil
}

func (m *memStore) ListIDs(ctx context.Context, collection string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	prefix := collection + "/"
	for k := range m.docs {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			ids = append(ids, k[len(prefix):])
		}
	}
	return ids, nil
}

func (m *memStore) Reconnect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconnects++
	return nil
}

func (m *memStore) Close() error { return nil }

type fixedCatalog struct{ types []domain.SiteType }

func (c fixedCatalog) SiteTypes() []domain.SiteType { return c.types }

func sevenTypes() fixedCatalog {
	return fixedCatalog{types: []domain.SiteType{"A", "B", "C", "D", "E", "F", "G"}}
}

func newTestAdapter(t *testing.T, store docstore.Store) *ReservationStore {
	t.Helper()
	return NewReservationStore(store, sevenTypes(), Config{})
}

func mustReservation(t *testing.T, name, start, end string) domain.Reservation {
	t.Helper()
	rng, err := domain.ParseDateRange(start, end)
	require.NoError(t, err)
	return domain.NewReservation(name, rng)
}

func TestUpsertFetch_RoundTrip(t *testing.T) {
	store := newMemStore()
	adapter := newTestAdapter(t, store)
	ctx := context.Background()

	require.NoError(t, adapter.ProvisionSite(ctx, "A3"))

	res := mustReservation(t, "Ana", "2024-06-10", "2024-06-15")
	require.NoError(t, adapter.UpsertReservation(ctx, "A3", res, nil))

	set, err := adapter.FetchReservationsForSite(ctx, "A3")
	require.NoError(t, err)
	got, ok := set.Get("2024-06-10")
	require.True(t, ok)
	assert.Equal(t, res, got)
}

func TestUpsert_MergePreservesOtherKeys(t *testing.T) {
	store := newMemStore()
	adapter := newTestAdapter(t, store)
	ctx := context.Background()

	require.NoError(t, adapter.ProvisionSite(ctx, "B1"))
	first := mustReservation(t, "Bo", "2024-01-01", "2024-01-05")
	second := mustReservation(t, "Cy", "2024-02-01", "2024-02-03")
	require.NoError(t, adapter.UpsertReservation(ctx, "B1", first, nil))
	require.NoError(t, adapter.UpsertReservation(ctx, "B1", second, nil))

	set, err := adapter.FetchReservationsForSite(ctx, "B1")
	require.NoError(t, err)
	assert.Len(t, set, 2)
}

func TestUpsert_PreconditionAborts(t *testing.T) {
	store := newMemStore()
	adapter := newTestAdapter(t, store)
	ctx := context.Background()

	require.NoError(t, adapter.ProvisionSite(ctx, "A1"))
	require.NoError(t, adapter.UpsertReservation(ctx, "A1",
		mustReservation(t, "Ana", "2024-06-10", "2024-06-15"), nil))

	boom := errors.New("occupied")
	err := adapter.UpsertReservation(ctx, "A1",
		mustReservation(t, "Eve", "2024-06-12", "2024-06-20"),
		func(existing domain.ReservationSet) error {
			require.Len(t, existing, 1)
			return boom
		})
	assert.ErrorIs(t, err, boom)

	set, err := adapter.FetchReservationsForSite(ctx, "A1")
	require.NoError(t, err)
	assert.Len(t, set, 1, "aborted precondition must not write")
}

func TestUpsert_RetriesOnceOnConflict(t *testing.T) {
	store := newMemStore()
	adapter := newTestAdapter(t, store)
	ctx := context.Background()

	require.NoError(t, adapter.ProvisionSite(ctx, "C2"))
	store.failNextSetIf = true

	calls := 0
	err := adapter.UpsertReservation(ctx, "C2",
		mustReservation(t, "Dee", "2024-03-01", "2024-03-04"),
		func(domain.ReservationSet) error {
			calls++
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "conflict must trigger one re-read and re-check")
}

func TestDelete_IdempotentReporting(t *testing.T) {
	store := newMemStore()
	adapter := newTestAdapter(t, store)
	ctx := context.Background()

	require.NoError(t, adapter.ProvisionSite(ctx, "D1"))
	require.NoError(t, adapter.UpsertReservation(ctx, "D1",
		mustReservation(t, "Flo", "2024-07-01", "2024-07-08"), nil))

	require.NoError(t, adapter.DeleteReservation(ctx, "D1", "2024-07-01"))

	err := adapter.DeleteReservation(ctx, "D1", "2024-07-01")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestFetch_UnknownSite(t *testing.T) {
	adapter := newTestAdapter(t, newMemStore())
	_, err := adapter.FetchReservationsForSite(context.Background(), "Z9")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestReplacePriceTable_Completeness(t *testing.T) {
	store := newMemStore()
	adapter := newTestAdapter(t, store)
	ctx := context.Background()

	full := domain.PriceTable{"A": 1, "B": 2, "C": 3, "D": 4, "E": 5, "F": 6, "G": 7}
	require.NoError(t, adapter.ReplacePriceTable(ctx, domain.PriceDaily, full))

	short := domain.PriceTable{"A": 1, "B": 2, "C": 3, "D": 4, "E": 5, "F": 6}
	err := adapter.ReplacePriceTable(ctx, domain.PriceDaily, short)
	assert.ErrorIs(t, err, ErrIncompletePriceTable)

	wrongType := domain.PriceTable{"A": 1, "B": 2, "C": 3, "D": 4, "E": 5, "F": 6, "X": 7}
	err = adapter.ReplacePriceTable(ctx, domain.PriceDaily, wrongType)
	assert.ErrorIs(t, err, ErrIncompletePriceTable)

	stored, err := adapter.FetchPriceTable(ctx, domain.PriceDaily)
	require.NoError(t, err)
	assert.Equal(t, full, stored, "failed update must leave the table untouched")

	err = adapter.ReplacePriceTable(ctx, "weekly", full)
	assert.ErrorIs(t, err, ErrUnknownPriceKind)
}

func TestSessionStaleness_Reconnects(t *testing.T) {
	store := newMemStore()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	adapter := NewReservationStore(store, sevenTypes(), Config{
		StaleAfter: time.Hour,
		Now:        clock,
	})
	ctx := context.Background()
	require.NoError(t, adapter.ProvisionSite(ctx, "E1"))

	res := mustReservation(t, "Gil", "2024-08-01", "2024-08-03")
	require.NoError(t, adapter.UpsertReservation(ctx, "E1", res, nil))
	assert.Equal(t, 0, store.reconnects, "fresh session must not reconnect")

	now = now.Add(2 * time.Hour)
	require.NoError(t, adapter.DeleteReservation(ctx, "E1", "2024-08-01"))
	assert.Equal(t, 1, store.reconnects, "stale session reconnects exactly once")

	require.NoError(t, adapter.UpsertReservation(ctx, "E1", res, nil))
	assert.Equal(t, 1, store.reconnects, "session is fresh again after reconnect")
}

func TestConcurrentGuardedUpserts_OnlyOneWins(t *testing.T) {
	store := newMemStore()
	adapter := newTestAdapter(t, store)
	ctx := context.Background()
	require.NoError(t, adapter.ProvisionSite(ctx, "F2"))

	overlap := func(candidate domain.DateRange) func(domain.ReservationSet) error {
		return func(existing domain.ReservationSet) error {
			for _, r := range existing {
				if candidate.Overlaps(r.Range()) {
					return errors.New("occupied")
				}
			}
			return nil
		}
	}

	first := mustReservation(t, "One", "2024-09-10", "2024-09-15")
	second := mustReservation(t, "Two", "2024-09-12", "2024-09-20")

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, res := range []domain.Reservation{first, second} {
		wg.Add(1)
		go func(i int, res domain.Reservation) {
			defer wg.Done()
			results[i] = adapter.UpsertReservation(ctx, "F2", res, overlap(res.Range()))
		}(i, res)
	}
	wg.Wait()

	failures := 0
	for _, err := range results {
		if err != nil {
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactly one of two overlapping writes may win")

	set, err := adapter.FetchReservationsForSite(ctx, "F2")
	require.NoError(t, err)
	require.Len(t, set, 1)
	for _, a := range set.Ordered() {
		for _, b := range set.Ordered() {
			if a.Key() != b.Key() {
				assert.False(t, a.Range().Overlaps(b.Range()))
			}
		}
	}
}
