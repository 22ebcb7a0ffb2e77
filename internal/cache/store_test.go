package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/timetracker/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	scope := domain.Scope{UserID: "user-1", Day: "2026-08-28"}

	activities := []domain.Activity{
		{ID: "a1", Name: "Sleep", Category: "Rest", DurationMin: 480, CreatedAt: 100},
		{ID: "a2", Name: "Work", Category: "Work", DurationMin: 500, CreatedAt: 200},
	}
	require.NoError(t, store.Put(ctx, scope, activities))

	got, ok := store.Get(ctx, scope)
	require.True(t, ok)
	require.Equal(t, activities, got)
}

func TestPutReplacesPreviousSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	scope := domain.Scope{UserID: "user-1", Day: "2026-08-28"}

	require.NoError(t, store.Put(ctx, scope, []domain.Activity{{ID: "a1", Name: "Old", DurationMin: 10}}))
	require.NoError(t, store.Put(ctx, scope, []domain.Activity{{ID: "a2", Name: "New", DurationMin: 20}}))

	got, ok := store.Get(ctx, scope)
	require.True(t, ok)
	require.Len(t, got, 1)
	require.Equal(t, "a2", got[0].ID)
}

func TestScopesDoNotCollide(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := domain.Scope{UserID: "user-1", Day: "2026-08-28"}
	second := domain.Scope{UserID: "user-1", Day: "2026-08-29"}
	third := domain.Scope{UserID: "user-2", Day: "2026-08-28"}

	require.NoError(t, store.Put(ctx, first, []domain.Activity{{ID: "a1", Name: "First", DurationMin: 1}}))
	require.NoError(t, store.Put(ctx, second, []domain.Activity{{ID: "a2", Name: "Second", DurationMin: 2}}))

	got, ok := store.Get(ctx, first)
	require.True(t, ok)
	require.Equal(t, "a1", got[0].ID)

	got, ok = store.Get(ctx, second)
	require.True(t, ok)
	require.Equal(t, "a2", got[0].ID)

	_, ok = store.Get(ctx, third)
	require.False(t, ok)
}

func TestMalformedPayloadTreatedAsMiss(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	scope := domain.Scope{UserID: "user-1", Day: "2026-08-28"}

	require.NoError(t, store.Put(ctx, scope, []domain.Activity{{ID: "a1", Name: "Sleep", DurationMin: 480}}))

	_, err := store.db.ExecContext(ctx, "UPDATE day_cache SET payload = '{broken' WHERE cache_key = ?", Key(scope))
	require.NoError(t, err)

	_, ok := store.Get(ctx, scope)
	require.False(t, ok)
}

func TestEmptySnapshotRoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	scope := domain.Scope{UserID: "user-1", Day: "2026-08-28"}

	require.NoError(t, store.Put(ctx, scope, nil))

	got, ok := store.Get(ctx, scope)
	require.True(t, ok)
	require.Empty(t, got)
}
