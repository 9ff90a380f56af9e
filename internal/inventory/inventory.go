// Package inventory joins an account's items with its stall listings and
// provides the filtering and ordering used by the inventory views.
package inventory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/stall-keeper/internal/model"
)

// UnknownTime is shown when a listing's creation time is unusable.
const UnknownTime = "Unknown Time"

// Row is one item in the combined view. Listing fields are zero for items
// that are not on sale.
type Row struct {
	ListedAt  time.Time
	Account   string
	ListingID string
	Item      model.InventoryItem
	Price     int
}

// Listed reports whether the item is currently on sale.
func (r Row) Listed() bool {
	return r.ListingID != ""
}

// Merge returns one row per inventory item, joined by asset id with the
// account's stall. Listings whose asset is missing from the inventory are
// appended after the inventory rows.
func Merge(items []model.InventoryItem, stall []model.Listing, account string) []Row {
	listings := make(map[string]model.Listing, len(stall))
	for _, l := range stall {
		listings[l.Item.AssetID] = l
	}

	rows := make([]Row, 0, len(items)+len(stall))
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		row := Row{Item: item, Account: account}
		if l, ok := listings[item.AssetID]; ok {
			row.ListingID = l.ID
			row.Price = l.Price
			row.ListedAt = l.CreatedAt
		}
		seen[item.AssetID] = true
		rows = append(rows, row)
	}

	for _, l := range stall {
		if seen[l.Item.AssetID] {
			continue
		}
		rows = append(rows, Row{
			Item:      l.Item,
			Account:   account,
			ListingID: l.ID,
			Price:     l.Price,
			ListedAt:  l.CreatedAt,
		})
	}

	return rows
}

// Filter selects rows. Zero-valued fields do not filter.
type Filter struct {
	MinFloat   *float64
	MaxFloat   *float64
	Listed     *bool
	Query      string
	Sticker    string
	Collection string
	Rarities   []model.Rarity
	Conditions []model.WearCondition
}

// Apply returns the rows that match every criterion, in their original order.
func (f Filter) Apply(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Match reports whether a single row passes the filter.
func (f Filter) Match(r Row) bool {
	if f.Query != "" && !containsFold(r.Item.MarketHashName, f.Query) {
		return false
	}

	if f.Sticker != "" && !hasStickerNamed(r.Item, f.Sticker) {
		return false
	}

	if f.Collection != "" && !strings.EqualFold(strings.TrimSpace(f.Collection), r.Item.Collection) {
		return false
	}

	if f.MinFloat != nil && (r.Item.FloatValue == 0 || r.Item.FloatValue < *f.MinFloat) {
		return false
	}
	if f.MaxFloat != nil && (r.Item.FloatValue == 0 || r.Item.FloatValue > *f.MaxFloat) {
		return false
	}

	if len(f.Rarities) > 0 && !contains(f.Rarities, r.Item.Rarity) {
		return false
	}

	if len(f.Conditions) > 0 && !contains(f.Conditions, r.Item.Condition()) {
		return false
	}

	if f.Listed != nil && r.Listed() != *f.Listed {
		return false
	}

	return true
}

func hasStickerNamed(item model.InventoryItem, name string) bool {
	for _, s := range item.Stickers {
		if containsFold(s.Name, name) {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// SortField names a column rows can be ordered by.
type SortField string

// Sort fields.
const (
	SortByName  SortField = "name"
	SortByPrice SortField = "price"
	SortByFloat SortField = "float"
	SortByAge   SortField = "age"
)

// ParseSortField validates a sort field name.
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case SortByName, SortByPrice, SortByFloat, SortByAge:
		return f, nil
	case "":
		return SortByName, nil
	default:
		return "", fmt.Errorf("unknown sort field %q", s)
	}
}

// Sort orders rows in place. Ties keep their existing order. Age sorts by
// listing time, so older listings come first when ascending; unlisted rows
// sort after listed ones.
func Sort(rows []Row, field SortField, ascending bool) {
	less := func(a, b Row) bool {
		switch field {
		case SortByPrice:
			return a.Price < b.Price
		case SortByFloat:
			return a.Item.FloatValue < b.Item.FloatValue
		case SortByAge:
			return a.ListedAt.Before(b.ListedAt)
		default:
			return strings.ToLower(a.Item.MarketHashName) < strings.ToLower(b.Item.MarketHashName)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if field == SortByAge && a.Listed() != b.Listed() {
			return a.Listed()
		}
		if ascending {
			return less(a, b)
		}
		return less(b, a)
	})
}

// FormatAge renders the time since createdAt as "3d 4h". A zero time or one
// in the future yields UnknownTime.
func FormatAge(createdAt, now time.Time) string {
	if createdAt.IsZero() || createdAt.After(now) {
		return UnknownTime
	}

	d := now.Sub(createdAt)
	days := int(d / (24 * time.Hour))
	hours := int((d % (24 * time.Hour)) / time.Hour)
	return fmt.Sprintf("%dd %dh", days, hours)
}
