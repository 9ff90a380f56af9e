package trading

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/stall-keeper/internal/common"
	"github.com/Veraticus/stall-keeper/internal/csfloat"
	"github.com/Veraticus/stall-keeper/internal/inventory"
	"github.com/Veraticus/stall-keeper/internal/model"
	"github.com/Veraticus/stall-keeper/internal/service"
	"github.com/Veraticus/stall-keeper/internal/storage"
	"github.com/Veraticus/stall-keeper/internal/testutil"
)

func newTestService(t *testing.T, market *testutil.FakeMarketplace) (*Service, *storage.SQLiteStorage) {
	t.Helper()
	store := testutil.SetupTestDB(t)
	return NewService(store, []service.Account{{Name: "main", Client: market}}), store
}

func TestExecuteSell(t *testing.T) {
	market := testutil.NewFakeMarketplace()
	svc, store := newTestService(t, market)
	ctx := context.Background()

	plan, err := PlanSale([]inventory.Row{
		unlisted("A1", "AK-47 | Redline (Field-Tested)"),
		unlisted("A2", "AK-47 | Redline (Field-Tested)"),
	}, 1500)
	require.NoError(t, err)

	var seen int
	result, err := svc.Execute(ctx, plan, func(_ Operation, err error) {
		assert.NoError(t, err)
		seen++
	})
	require.NoError(t, err)
	assert.Equal(t, 2, seen)
	assert.Len(t, result.Done, 2)
	assert.Empty(t, result.Failed)
	assert.Equal(t, "2x AK-47 | Redline (Field-Tested) 15.00$", result.Summary())

	assert.Equal(t, []testutil.Call{
		{Method: "create", ID: "A1", Price: 1500},
		{Method: "create", ID: "A2", Price: 1500},
	}, market.Calls())

	history, err := store.GetRecentActions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.ActionSell, history[0].Action)
	assert.Equal(t, "A2", history[0].TargetID)
	assert.True(t, history[0].Succeeded())
}

func TestExecuteRepriceAndDelist(t *testing.T) {
	market := testutil.NewFakeMarketplace()
	svc, _ := newTestService(t, market)
	ctx := context.Background()

	rows := []inventory.Row{listed("A1", "L1", "x", 1000)}

	reprice := &Plan{Action: model.ActionReprice, Ops: []Operation{{Row: rows[0], OldPrice: 1000, NewPrice: 900}}}
	_, err := svc.Execute(ctx, reprice, nil)
	require.NoError(t, err)

	_, err = svc.Execute(ctx, PlanDelist(rows), nil)
	require.NoError(t, err)

	assert.Equal(t, []testutil.Call{
		{Method: "update", ID: "L1", Price: 900},
		{Method: "delist", ID: "L1"},
	}, market.Calls())
}

func TestExecuteContinuesAfterFailure(t *testing.T) {
	market := testutil.NewFakeMarketplace()
	market.ErrByID["A1"] = errors.New("item is not tradable")
	svc, store := newTestService(t, market)
	ctx := context.Background()

	plan, err := PlanSale([]inventory.Row{unlisted("A1", "x"), unlisted("A2", "y")}, 500)
	require.NoError(t, err)

	result, err := svc.Execute(ctx, plan, nil)
	require.NoError(t, err)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "A1", result.Failed[0].Op.Row.Item.AssetID)
	require.Len(t, result.Done, 1)

	history, err := store.GetRecentActions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "item is not tradable", history[1].Error)
}

func TestExecuteAbortsOnKYC(t *testing.T) {
	market := testutil.NewFakeMarketplace()
	market.ErrByID["A1"] = &csfloat.APIError{StatusCode: 400, Code: 4, Message: "kyc required"}
	svc, _ := newTestService(t, market)

	plan, err := PlanSale([]inventory.Row{unlisted("A1", "x"), unlisted("A2", "y")}, 500)
	require.NoError(t, err)

	result, err := svc.Execute(context.Background(), plan, nil)
	require.ErrorIs(t, err, csfloat.ErrKYCRequired)

	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "Item overpriced. You need to complete KYC.", userErr.UserMessage)

	assert.Empty(t, result.Done)
	assert.Len(t, result.Failed, 1)
	assert.Len(t, market.Calls(), 1)
}

func TestExecuteUnknownAccount(t *testing.T) {
	svc, _ := newTestService(t, testutil.NewFakeMarketplace())

	row := unlisted("A1", "x")
	row.Account = "other"
	plan, err := PlanSale([]inventory.Row{row}, 500)
	require.NoError(t, err)

	result, err := svc.Execute(context.Background(), plan, nil)
	require.NoError(t, err)
	require.Len(t, result.Failed, 1)
	require.ErrorIs(t, result.Failed[0].Err, ErrUnknownAccount)
	assert.Equal(t, "Nothing was changed.", result.Summary())
}

func TestExecuteCanceled(t *testing.T) {
	market := testutil.NewFakeMarketplace()
	svc, _ := newTestService(t, market)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plan, err := PlanSale([]inventory.Row{unlisted("A1", "x")}, 500)
	require.NoError(t, err)

	_, err = svc.Execute(ctx, plan, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, market.Calls())
}
