package sheets

import (
	"time"

	"github.com/Veraticus/stall-keeper/internal/inventory"
	"github.com/Veraticus/stall-keeper/internal/orders"
	"github.com/Veraticus/stall-keeper/internal/pricing"
)

// Tab titles.
const (
	OrdersTab    = "Buy Orders"
	InventoryTab = "Inventory"
)

// Table is the content of one exported tab: a header row followed by data.
type Table struct {
	Title  string
	Header []string
	Rows   [][]any
}

// Values returns the header and rows in the shape the Sheets API expects.
// Prices are decimals, which encode as strings; USER_ENTERED writes parse
// them back into numbers.
func (t Table) Values() [][]any {
	values := make([][]any, 0, len(t.Rows)+1)

	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	values = append(values, header)

	return append(values, t.Rows...)
}

// OrdersTable lays out buy-order rows. Flagged labels carry their tooltip in
// the Notes column.
func OrdersTable(rows []orders.Row, now time.Time) Table {
	t := Table{
		Title:  OrdersTab,
		Header: []string{"Order", "Qty", "Price", "Age", "ID", "Account", "Locked", "Notes"},
		Rows:   make([][]any, 0, len(rows)),
	}

	for _, r := range rows {
		notes := ""
		if r.Label.Contradiction {
			notes = r.Label.Tooltip
		}
		t.Rows = append(t.Rows, []any{
			r.Label.Text,
			r.Order.Quantity(),
			pricing.Dollars(r.Order.Price),
			r.Age(now),
			r.ID(),
			r.Account,
			r.Locked,
			notes,
		})
	}
	return t
}

// InventoryTable lays out inventory rows. Unlisted items have an empty price
// and age.
func InventoryTable(rows []inventory.Row, now time.Time) Table {
	t := Table{
		Title:  InventoryTab,
		Header: []string{"Name", "Float", "Seed", "Rarity", "Condition", "Price", "Age", "Asset ID", "Listing ID", "Account"},
		Rows:   make([][]any, 0, len(rows)),
	}

	for _, r := range rows {
		var price, age any = "", ""
		if r.Listed() {
			price = pricing.Dollars(r.Price)
			age = inventory.FormatAge(r.ListedAt, now)
		}
		t.Rows = append(t.Rows, []any{
			r.Item.MarketHashName,
			r.Item.FloatValue,
			r.Item.PaintSeed,
			r.Item.Rarity.String(),
			string(r.Item.Condition()),
			price,
			age,
			r.Item.AssetID,
			r.ListingID,
			r.Account,
		})
	}
	return t
}
