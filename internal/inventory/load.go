package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/stall-keeper/internal/model"
	"github.com/Veraticus/stall-keeper/internal/service"
)

// LoadResult holds the merged rows of every account that answered and the
// errors of those that did not.
type LoadResult struct {
	Rows   []Row
	Errors []error
}

type accountResult struct {
	err   error
	rows  []Row
	index int
}

// Load fetches the inventory and stall of every account concurrently and
// merges them. Rows keep account order.
func Load(ctx context.Context, accounts []service.Account) *LoadResult {
	resultsChan := make(chan accountResult, len(accounts))

	var wg sync.WaitGroup
	wg.Add(len(accounts))
	for i, account := range accounts {
		go func(index int, account service.Account) {
			defer wg.Done()
			rows, err := loadAccount(ctx, account)
			resultsChan <- accountResult{index: index, rows: rows, err: err}
		}(i, account)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	perAccount := make([]accountResult, len(accounts))
	for r := range resultsChan {
		perAccount[r.index] = r
	}

	result := &LoadResult{}
	for i, r := range perAccount {
		if r.err != nil {
			name := accounts[i].Name
			slog.Error("Failed to fetch inventory", "account", name, "error", r.err)
			result.Errors = append(result.Errors, &service.AccountError{Account: name, Err: r.err})
			continue
		}
		result.Rows = append(result.Rows, r.rows...)
	}

	return result
}

func loadAccount(ctx context.Context, account service.Account) ([]Row, error) {
	user, err := account.Client.GetUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	items, err := account.Client.GetInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch inventory: %w", err)
	}

	stall, err := account.Client.GetStall(ctx, user.SteamID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stall: %w", err)
	}

	return Merge(items, stall, account.Name), nil
}

// Matcher decides whether an item satisfies a condition.
type Matcher interface {
	Matches(item model.InventoryItem) (bool, error)
}

// Matching returns the rows whose item satisfies m, in their original order.
func Matching(rows []Row, m Matcher) ([]Row, error) {
	var out []Row
	for _, r := range rows {
		ok, err := m.Matches(r.Item)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.Item.AssetID, err)
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// ByID indexes rows by asset id and by listing id, so either can select a row.
func ByID(rows []Row) map[string]Row {
	index := make(map[string]Row, len(rows)*2)
	for _, r := range rows {
		if r.Item.AssetID != "" {
			index[r.Item.AssetID] = r
		}
		if r.ListingID != "" {
			index[r.ListingID] = r
		}
	}
	return index
}

// Select returns the rows named by ids, in ids order without duplicates, and
// the ids that matched nothing.
func Select(rows []Row, ids []string) (selected []Row, missing []string) {
	index := ByID(rows)
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		r, ok := index[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		key := r.Account + "/" + r.Item.AssetID + "/" + r.ListingID
		if seen[key] {
			continue
		}
		seen[key] = true
		selected = append(selected, r)
	}
	return selected, missing
}
