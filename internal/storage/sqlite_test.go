package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/stall-keeper/internal/common"
	"github.com/Veraticus/stall-keeper/internal/model"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestNewSQLiteStorageRejectsEmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	require.ErrorIs(t, err, ErrEmptyString)
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestOrderLocks(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	locked, err := store.IsOrderLocked(ctx, "O1")
	require.NoError(t, err)
	assert.False(t, locked)

	require.NoError(t, store.LockOrder(ctx, "O1", "[AK-47 | Redline]"))
	require.NoError(t, store.LockOrder(ctx, "O2", "[Float 0 - 0.07]"))
	require.NoError(t, store.LockOrder(ctx, "O1", "[AK-47 | Redline (FT)]"))

	locked, err = store.IsOrderLocked(ctx, "O1")
	require.NoError(t, err)
	assert.True(t, locked)

	ids, err := store.GetLockedOrderIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"O1": true, "O2": true}, ids)

	locks, err := store.GetOrderLocks(ctx)
	require.NoError(t, err)
	require.Len(t, locks, 2)
	for _, l := range locks {
		if l.OrderID == "O1" {
			assert.Equal(t, "[AK-47 | Redline (FT)]", l.Label)
		}
		assert.False(t, l.LockedAt.IsZero())
	}

	require.NoError(t, store.UnlockOrder(ctx, "O1"))
	err = store.UnlockOrder(ctx, "O1")
	require.ErrorIs(t, err, common.ErrNotFound)

	ids, err = store.GetLockedOrderIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"O2": true}, ids)
}

func TestOrderLockValidation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.ErrorIs(t, store.LockOrder(ctx, "", "label"), ErrEmptyString)
	require.ErrorIs(t, store.UnlockOrder(ctx, " "), ErrEmptyString)

	_, err := store.IsOrderLocked(ctx, "")
	require.ErrorIs(t, err, ErrEmptyString)

	//nolint:staticcheck // nil context is the case under test
	require.ErrorIs(t, store.LockOrder(nil, "O1", "label"), ErrNilContext)
}

func TestPruneOrderLocks(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	for _, id := range []string{"O1", "O2", "O3"} {
		require.NoError(t, store.LockOrder(ctx, id, id))
	}

	removed, err := store.PruneOrderLocks(ctx, []string{"O2", "O9"})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	ids, err := store.GetLockedOrderIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"O2": true}, ids)
}

func TestActionHistory(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	first := &model.ActionRecord{
		Account:    "main",
		Action:     model.ActionSell,
		TargetID:   "A1",
		ItemName:   "AK-47 | Redline (Field-Tested)",
		PriceCents: 1500,
	}
	require.NoError(t, store.RecordAction(ctx, first))
	assert.NotZero(t, first.ID)

	batch := []model.ActionRecord{
		{Account: "main", Action: model.ActionReprice, TargetID: "L1", PriceCents: 1400, OldPriceCents: 1500},
		{Account: "alt", Action: model.ActionDeleteOrder, TargetID: "O7", Error: "csfloat API error: 404 Not Found"},
	}
	require.NoError(t, store.RecordActions(ctx, batch))
	assert.NotZero(t, batch[0].ID)
	assert.NotZero(t, batch[1].ID)

	records, err := store.GetRecentActions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, model.ActionDeleteOrder, records[0].Action)
	assert.False(t, records[0].Succeeded())
	assert.Equal(t, model.ActionReprice, records[1].Action)
	assert.Equal(t, 1500, records[1].OldPriceCents)
	assert.Equal(t, "AK-47 | Redline (Field-Tested)", records[2].ItemName)
	assert.True(t, records[2].Succeeded())
	assert.False(t, records[2].CreatedAt.IsZero())

	limited, err := store.GetRecentActions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestActionValidation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	tests := []struct {
		record  *model.ActionRecord
		wantErr error
		name    string
	}{
		{name: "nil", record: nil, wantErr: ErrNilParameter},
		{name: "missing account", record: &model.ActionRecord{Action: model.ActionSell, TargetID: "A1"}, wantErr: ErrInvalidAction},
		{name: "missing target", record: &model.ActionRecord{Account: "main", Action: model.ActionSell}, wantErr: ErrInvalidAction},
		{name: "unknown action", record: &model.ActionRecord{Account: "main", Action: "gift", TargetID: "A1"}, wantErr: ErrUnknownAction},
		{name: "negative price", record: &model.ActionRecord{Account: "main", Action: model.ActionSell, TargetID: "A1", PriceCents: -1}, wantErr: ErrInvalidAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, store.RecordAction(ctx, tt.record), tt.wantErr)
		})
	}

	err := store.RecordActions(ctx, []model.ActionRecord{{Account: "main", Action: model.ActionSell, TargetID: "A1"}, {}})
	require.ErrorIs(t, err, ErrInvalidAction)

	records, err := store.GetRecentActions(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = store.GetRecentActions(ctx, 0)
	require.ErrorIs(t, err, ErrInvalidLimit)
}
