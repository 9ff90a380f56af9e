// Package orders loads, describes and deletes standing buy orders across
// every configured account.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/stall-keeper/internal/expression"
	"github.com/Veraticus/stall-keeper/internal/inventory"
	"github.com/Veraticus/stall-keeper/internal/model"
	"github.com/Veraticus/stall-keeper/internal/pricing"
	"github.com/Veraticus/stall-keeper/internal/service"
)

// ErrUnknownAccount is returned when a row names an account the service was
// not configured with.
var ErrUnknownAccount = errors.New("unknown account")

// Row is one buy order as shown to the user.
type Row struct {
	Order   model.BuyOrder
	Account string
	Label   expression.Label
	Locked  bool
}

// ID returns the order id.
func (r Row) ID() string {
	return r.Order.ID
}

// Price renders the order price as "12.34$".
func (r Row) Price() string {
	return pricing.FormatCents(r.Order.Price)
}

// Age renders the time since the order was placed.
func (r Row) Age(now time.Time) string {
	return inventory.FormatAge(r.Order.CreatedAt, now)
}

// LoadResult holds the rows of every account that answered and the errors of
// those that did not.
type LoadResult struct {
	Rows   []Row
	Errors []error
}

// Service coordinates buy order work across accounts.
type Service struct {
	storage  service.Storage
	tables   expression.Lookup
	accounts []service.Account
}

// NewService creates a buy order service.
func NewService(storage service.Storage, tables expression.Lookup, accounts []service.Account) *Service {
	return &Service{
		storage:  storage,
		tables:   tables,
		accounts: accounts,
	}
}

type accountResult struct {
	err    error
	orders []model.BuyOrder
	index  int
}

// Load fetches the buy orders of every account concurrently and describes
// them. A failing account does not stop the others; its error is reported in
// the result. Rows keep account order, then the marketplace's order.
func (s *Service) Load(ctx context.Context) (*LoadResult, error) {
	locked, err := s.storage.GetLockedOrderIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load order locks: %w", err)
	}

	resultsChan := make(chan accountResult, len(s.accounts))

	var wg sync.WaitGroup
	wg.Add(len(s.accounts))
	for i, account := range s.accounts {
		go func(index int, account service.Account) {
			defer wg.Done()
			orders, err := account.Client.GetBuyOrders(ctx)
			resultsChan <- accountResult{index: index, orders: orders, err: err}
		}(i, account)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	perAccount := make([]accountResult, len(s.accounts))
	for r := range resultsChan {
		perAccount[r.index] = r
	}

	result := &LoadResult{}
	for i, r := range perAccount {
		name := s.accounts[i].Name
		if r.err != nil {
			slog.Error("Failed to fetch buy orders", "account", name, "error", r.err)
			result.Errors = append(result.Errors, &service.AccountError{Account: name, Err: r.err})
			continue
		}

		for _, order := range r.orders {
			result.Rows = append(result.Rows, Row{
				Order:   order,
				Account: name,
				Label:   expression.Describe(order, s.tables),
				Locked:  locked[order.ID],
			})
		}
	}

	slog.Debug("Loaded buy orders",
		"accounts", len(s.accounts),
		"orders", len(result.Rows),
		"failed_accounts", len(result.Errors))

	return result, nil
}

// FailedDeletion is an order the marketplace refused to delete.
type FailedDeletion struct {
	Err error
	Row Row
}

// DeleteResult reports the outcome of a deletion run.
type DeleteResult struct {
	Deleted   []Row
	Protected []Row
	Failed    []FailedDeletion
	Missing   []string
}

// Empty reports whether nothing was deleted or protected.
func (r *DeleteResult) Empty() bool {
	return len(r.Deleted) == 0 && len(r.Protected) == 0
}

// Summary renders the result the way it is reported to the user.
func (r *DeleteResult) Summary() string {
	if r.Empty() && len(r.Failed) == 0 {
		return "No orders were deleted."
	}

	var lines []string
	if len(r.Deleted) > 0 {
		ids := make([]string, 0, len(r.Deleted))
		for _, row := range r.Deleted {
			ids = append(ids, row.ID())
		}
		lines = append(lines, fmt.Sprintf("Deleted Orders: %s.", strings.Join(ids, ", ")))
	}
	if len(r.Protected) > 0 {
		names := make([]string, 0, len(r.Protected))
		for _, row := range r.Protected {
			names = append(names, row.Label.Text)
		}
		lines = append(lines, fmt.Sprintf("Skipped Locked Orders: %s.", strings.Join(names, ", ")))
	}
	if len(r.Failed) > 0 {
		ids := make([]string, 0, len(r.Failed))
		for _, f := range r.Failed {
			ids = append(ids, f.Row.ID())
		}
		lines = append(lines, fmt.Sprintf("Failed Orders: %s.", strings.Join(ids, ", ")))
	}
	if len(r.Missing) > 0 {
		lines = append(lines, fmt.Sprintf("Unknown Orders: %s.", strings.Join(r.Missing, ", ")))
	}
	return strings.Join(lines, "\n")
}

// Progress is called after each order is handled.
type Progress func(row Row, err error)

// Delete removes the rows whose ids are listed. Unknown ids are reported as
// missing. Locked rows are skipped.
func (s *Service) Delete(ctx context.Context, rows []Row, ids []string, progress Progress) (*DeleteResult, error) {
	byID := make(map[string]Row, len(rows))
	for _, r := range rows {
		byID[r.ID()] = r
	}

	var selected []Row
	var missing []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		row, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		selected = append(selected, row)
	}

	result, err := s.deleteRows(ctx, selected, progress)
	if result != nil {
		result.Missing = missing
	}
	return result, err
}

// DeleteAll removes every unlocked row.
func (s *Service) DeleteAll(ctx context.Context, rows []Row, progress Progress) (*DeleteResult, error) {
	return s.deleteRows(ctx, rows, progress)
}

// deleteRows always returns the partial result, even on error. Lock state
// comes from storage alone so locks changed by another process are seen.
func (s *Service) deleteRows(ctx context.Context, rows []Row, progress Progress) (*DeleteResult, error) {
	result := &DeleteResult{}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	locked, err := s.storage.GetLockedOrderIDs(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load order locks: %w", err)
	}

	clients := s.clientsByName()

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if locked[row.ID()] {
			slog.Info("Order is locked, skipping deletion", "order_id", row.ID(), "label", row.Label.Text)
			result.Protected = append(result.Protected, row)
			if progress != nil {
				progress(row, nil)
			}
			continue
		}

		err := s.deleteOne(ctx, clients, row)
		if err != nil {
			slog.Error("Failed to delete order", "order_id", row.ID(), "account", row.Account, "error", err)
			result.Failed = append(result.Failed, FailedDeletion{Row: row, Err: err})
		} else {
			slog.Info("Order deleted", "order_id", row.ID(), "account", row.Account)
			result.Deleted = append(result.Deleted, row)
		}

		if progress != nil {
			progress(row, err)
		}
	}

	return result, nil
}

func (s *Service) deleteOne(ctx context.Context, clients map[string]service.Marketplace, row Row) error {
	client, ok := clients[row.Account]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, row.Account)
	}

	deleteErr := client.DeleteBuyOrder(ctx, row.ID())

	record := &model.ActionRecord{
		Account:    row.Account,
		Action:     model.ActionDeleteOrder,
		TargetID:   row.ID(),
		ItemName:   row.Label.Text,
		PriceCents: row.Order.Price,
	}
	if deleteErr != nil {
		record.Error = deleteErr.Error()
	}
	if err := s.storage.RecordAction(ctx, record); err != nil {
		slog.Warn("Failed to record order deletion", "order_id", row.ID(), "error", err)
	}

	return deleteErr
}

func (s *Service) clientsByName() map[string]service.Marketplace {
	clients := make(map[string]service.Marketplace, len(s.accounts))
	for _, a := range s.accounts {
		clients[a.Name] = a.Client
	}
	return clients
}

// Lock protects an order from deletion.
func (s *Service) Lock(ctx context.Context, orderID, label string) error {
	if err := s.storage.LockOrder(ctx, orderID, label); err != nil {
		return fmt.Errorf("failed to lock order: %w", err)
	}
	return nil
}

// Unlock removes an order's protection.
func (s *Service) Unlock(ctx context.Context, orderID string) error {
	if err := s.storage.UnlockOrder(ctx, orderID); err != nil {
		return fmt.Errorf("failed to unlock order: %w", err)
	}
	return nil
}

// ToggleLock flips the lock on row and returns the new state.
func (s *Service) ToggleLock(ctx context.Context, row Row) (bool, error) {
	locked, err := s.storage.IsOrderLocked(ctx, row.ID())
	if err != nil {
		return false, err
	}

	if locked {
		return false, s.Unlock(ctx, row.ID())
	}
	return true, s.Lock(ctx, row.ID(), row.Label.Text)
}

// PruneLocks drops locks on orders absent from rows. Call it only with a
// complete load, since a failed account would otherwise lose its locks.
func (s *Service) PruneLocks(ctx context.Context, rows []Row) (int, error) {
	active := make([]string, 0, len(rows))
	for _, r := range rows {
		active = append(active, r.ID())
	}
	return s.storage.PruneOrderLocks(ctx, active)
}

// SortRows orders rows by label, price, age or quantity.
func SortRows(rows []Row, field string, ascending bool) error {
	var less func(a, b Row) bool
	switch field {
	case "", "label":
		less = func(a, b Row) bool { return strings.ToLower(a.Label.Text) < strings.ToLower(b.Label.Text) }
	case "price":
		less = func(a, b Row) bool { return a.Order.Price < b.Order.Price }
	case "age":
		less = func(a, b Row) bool { return a.Order.CreatedAt.Before(b.Order.CreatedAt) }
	case "qty":
		less = func(a, b Row) bool { return a.Order.Quantity() < b.Order.Quantity() }
	default:
		return fmt.Errorf("unknown sort field %q", field)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if ascending {
			return less(rows[i], rows[j])
		}
		return less(rows[j], rows[i])
	})
	return nil
}
