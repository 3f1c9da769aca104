package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leapstack-labs/treegrid/internal/testutil"
	"github.com/leapstack-labs/treegrid/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	for _, name := range []string{"memory", "sqlite", "postgres"} {
		assert.True(t, IsRegistered(name), name)
	}
	assert.Equal(t, []string{"memory", "postgres", "sqlite"}, ListStores())
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	_, err := NewStore(ctx, core.StoreConfig{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store type not specified")

	_, err = NewStore(ctx, core.StoreConfig{Type: "redis"}, nil)
	var unknown *UnknownStoreError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "redis", unknown.Type)
	assert.Contains(t, unknown.Available, "sqlite")
	assert.Contains(t, err.Error(), "store.type")

	store, err := NewStore(ctx, core.StoreConfig{Type: "memory"}, testutil.NewTestLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
	require.NoError(t, store.Close())
}

// orgRecords uses string-only payloads so they survive a JSON round trip.
func orgRecords() []core.Record {
	return testutil.Org()
}

// runStoreContract exercises the behaviour every store must share.
func runStoreContract(t *testing.T, store core.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		records, err := store.LoadRecords(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)

		moves, err := store.ListMoves(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, moves)
	})

	t.Run("replace and load keeps order", func(t *testing.T) {
		require.NoError(t, store.ReplaceRecords(ctx, orgRecords()))

		records, err := store.LoadRecords(ctx)
		require.NoError(t, err)
		assert.Equal(t, orgRecords(), records)
	})

	t.Run("commit move", func(t *testing.T) {
		base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		first := core.MoveEvent{ID: "mv-1", RecordID: "E1", OldParentID: "M1", NewParentID: "M2", MovedAt: base}
		second := core.MoveEvent{ID: "mv-2", RecordID: "E2", OldParentID: "M1", NewParentID: "M2", MovedAt: base.Add(time.Minute)}
		require.NoError(t, store.CommitMove(ctx, first))
		require.NoError(t, store.CommitMove(ctx, second))

		records, err := store.LoadRecords(ctx)
		require.NoError(t, err)
		assert.Equal(t, core.RecordID("M2"), records[2].ParentID)
		assert.Equal(t, core.RecordID("M2"), records[3].ParentID)

		moves, err := store.ListMoves(ctx, 0)
		require.NoError(t, err)
		require.Len(t, moves, 2)
		assert.Equal(t, "mv-2", moves[0].ID)
		assert.Equal(t, second.MovedAt, moves[0].MovedAt)
		assert.Equal(t, first, moves[1])

		limited, err := store.ListMoves(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []core.MoveEvent{second}, limited)
	})

	t.Run("commit unknown record", func(t *testing.T) {
		err := store.CommitMove(ctx, core.MoveEvent{ID: "mv-x", RecordID: "ghost", NewParentID: "M1", MovedAt: time.Now()})
		assert.ErrorIs(t, err, core.ErrNotFound)

		moves, err := store.ListMoves(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, moves, 2)
	})

	t.Run("move to root", func(t *testing.T) {
		require.NoError(t, store.ReplaceRecords(ctx, testutil.Chain()))
		require.NoError(t, store.CommitMove(ctx, core.MoveEvent{
			ID: "mv-3", RecordID: "B", OldParentID: "A", MovedAt: time.Now().UTC(),
		}))

		records, err := store.LoadRecords(ctx)
		require.NoError(t, err)
		assert.True(t, records[1].IsRoot())

		moves, err := store.ListMoves(ctx, 0)
		require.NoError(t, err)
		require.Len(t, moves, 1, "replace clears the journal")
		assert.Equal(t, core.NoParent, moves[0].NewParentID)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore(testutil.NewTestLogger(t)))
}

func TestMemoryStore_LoadReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)
	require.NoError(t, store.ReplaceRecords(ctx, orgRecords()))

	records, err := store.LoadRecords(ctx)
	require.NoError(t, err)
	records[0].Fields["name"] = "changed"

	again, err := store.LoadRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Manager One", again[0].Fields["name"])
}
