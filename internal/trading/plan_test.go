package trading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/stall-keeper/internal/inventory"
	"github.com/Veraticus/stall-keeper/internal/model"
	"github.com/Veraticus/stall-keeper/internal/pricing"
)

func unlisted(assetID, name string) inventory.Row {
	return inventory.Row{
		Account: "main",
		Item:    model.InventoryItem{AssetID: assetID, MarketHashName: name},
	}
}

func listed(assetID, listingID, name string, price int) inventory.Row {
	row := unlisted(assetID, name)
	row.ListingID = listingID
	row.Price = price
	return row
}

func TestPlanSale(t *testing.T) {
	rows := []inventory.Row{
		unlisted("A1", "AK-47 | Redline (Field-Tested)"),
		listed("A2", "L2", "AWP | Asiimov (Field-Tested)", 9000),
		unlisted("A3", "AK-47 | Redline (Field-Tested)"),
	}

	plan, err := PlanSale(rows, 1234)
	require.NoError(t, err)

	assert.Equal(t, model.ActionSell, plan.Action)
	require.Len(t, plan.Ops, 2)
	assert.Equal(t, "A1", plan.Ops[0].Row.Item.AssetID)
	assert.Equal(t, 1234, plan.Ops[0].NewPrice)
	require.Len(t, plan.Skipped, 1)
	assert.Equal(t, ReasonAlreadyListed, plan.Skipped[0].Reason)

	assert.Equal(t,
		"You are about to sell the following items:\n2x AK-47 | Redline (Field-Tested) for 12.34$",
		plan.Summary())
}

func TestPlanSaleBounds(t *testing.T) {
	_, err := PlanSale([]inventory.Row{unlisted("A1", "x")}, 2)
	require.ErrorIs(t, err, pricing.ErrPriceTooLow)

	_, err = PlanSale([]inventory.Row{unlisted("A1", "x")}, pricing.MaxPriceCents+1)
	require.ErrorIs(t, err, pricing.ErrPriceTooHigh)
}

func TestPlanReprice(t *testing.T) {
	rows := []inventory.Row{
		listed("A1", "L1", "AK-47 | Redline (Field-Tested)", 1000),
		unlisted("A2", "AWP | Asiimov (Field-Tested)"),
		listed("A3", "L3", "M4A1-S | Boreal Forest (Minimal Wear)", 500),
	}

	adj, err := pricing.ParseAdjustment("10%")
	require.NoError(t, err)

	plan, err := PlanReprice(rows, adj)
	require.NoError(t, err)

	require.Len(t, plan.Ops, 2)
	assert.Equal(t, 1000, plan.Ops[0].OldPrice)
	assert.Equal(t, 1100, plan.Ops[0].NewPrice)
	assert.Equal(t, 550, plan.Ops[1].NewPrice)
	require.Len(t, plan.Skipped, 1)
	assert.Equal(t, ReasonNotListed, plan.Skipped[0].Reason)

	assert.Equal(t,
		"You are about to change the price for the following items:\n"+
			"AK-47 | Redline (Field-Tested) 10.00$ → 11.00$\n"+
			"M4A1-S | Boreal Forest (Minimal Wear) 5.00$ → 5.50$",
		plan.Summary())
}

func TestPlanRepriceUnchangedIsSkipped(t *testing.T) {
	rows := []inventory.Row{listed("A1", "L1", "x", 1000)}

	adj, err := pricing.ParseAdjustment("10")
	require.NoError(t, err)

	plan, err := PlanReprice(rows, adj)
	require.NoError(t, err)
	assert.Empty(t, plan.Ops)
	require.Len(t, plan.Skipped, 1)
	assert.Equal(t, ReasonUnchanged, plan.Skipped[0].Reason)
}

func TestPlanRepriceOutOfBounds(t *testing.T) {
	rows := []inventory.Row{listed("A1", "L1", "AK-47 | Redline (Field-Tested)", 500)}

	adj, err := pricing.ParseAdjustment("-5")
	require.NoError(t, err)

	_, err = PlanReprice(rows, adj)
	require.ErrorIs(t, err, pricing.ErrPriceTooLow)
	assert.Contains(t, err.Error(), "AK-47 | Redline")
}

func TestPlanDelist(t *testing.T) {
	rows := []inventory.Row{
		listed("A1", "L1", "Sticker | Titan (Holo) | Katowice 2014", 30000),
		listed("A2", "L2", "Sticker | Titan (Holo) | Katowice 2014", 31000),
		unlisted("A3", "AWP | Asiimov (Field-Tested)"),
	}

	plan := PlanDelist(rows)
	require.Len(t, plan.Ops, 2)
	require.Len(t, plan.Skipped, 1)

	assert.Equal(t,
		"You are about to delist the following items:\n2x Sticker | Titan (Holo) | Katowice 2014",
		plan.Summary())
}
