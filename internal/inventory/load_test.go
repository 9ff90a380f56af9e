package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/stall-keeper/internal/model"
	"github.com/Veraticus/stall-keeper/internal/service"
	"github.com/Veraticus/stall-keeper/internal/testutil"
)

func TestLoad(t *testing.T) {
	primary := testutil.NewFakeMarketplace()
	primary.Inventory = []model.InventoryItem{
		{AssetID: "A1", MarketHashName: "AK-47 | Redline (Field-Tested)"},
		{AssetID: "A2", MarketHashName: "AWP | Asiimov (Field-Tested)"},
	}
	primary.Stall = []model.Listing{{ID: "L2", Price: 9000, Item: model.InventoryItem{AssetID: "A2"}}}

	broken := testutil.NewFakeMarketplace()
	broken.FetchErr = errors.New("connection reset")

	result := Load(context.Background(), []service.Account{
		{Name: "main", Client: primary},
		{Name: "broken", Client: broken},
	})

	require.Len(t, result.Rows, 2)
	assert.False(t, result.Rows[0].Listed())
	assert.Equal(t, "L2", result.Rows[1].ListingID)
	assert.Equal(t, "main", result.Rows[1].Account)

	require.Len(t, result.Errors, 1)
	var accountErr *service.AccountError
	require.ErrorAs(t, result.Errors[0], &accountErr)
	assert.Equal(t, "broken", accountErr.Account)
}

type nameMatcher string

func (n nameMatcher) Matches(item model.InventoryItem) (bool, error) {
	if n == "" {
		return false, errors.New("no name")
	}
	return containsFold(item.MarketHashName, string(n)), nil
}

func TestMatching(t *testing.T) {
	rows := testRows()

	matched, err := Matching(rows, nameMatcher("asiimov"))
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "A2", matched[0].Item.AssetID)

	_, err = Matching(rows, nameMatcher(""))
	assert.Error(t, err)
}

func TestSelect(t *testing.T) {
	rows := testRows()

	selected, missing := Select(rows, []string{"L3", "A1", "A3", "nope"})
	require.Len(t, selected, 2)
	assert.Equal(t, "A3", selected[0].Item.AssetID)
	assert.Equal(t, "A1", selected[1].Item.AssetID)
	assert.Equal(t, []string{"nope"}, missing)
}
