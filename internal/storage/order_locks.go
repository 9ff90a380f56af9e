package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/stall-keeper/internal/common"
	"github.com/Veraticus/stall-keeper/internal/model"
)

// LockOrder protects a buy order from deletion. Locking an already locked
// order refreshes its label and keeps the original lock time.
func (s *SQLiteStorage) LockOrder(ctx context.Context, orderID, label string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(orderID, "orderID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO order_locks (order_id, label)
		VALUES (?, ?)
		ON CONFLICT(order_id) DO UPDATE SET label = excluded.label
	`, orderID, label)
	if err != nil {
		return fmt.Errorf("failed to lock order %s: %w", orderID, err)
	}
	return nil
}

// UnlockOrder removes a lock. It returns common.ErrNotFound when the order
// was not locked.
func (s *SQLiteStorage) UnlockOrder(ctx context.Context, orderID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(orderID, "orderID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM order_locks WHERE order_id = ?`, orderID)
	if err != nil {
		return fmt.Errorf("failed to unlock order %s: %w", orderID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check unlock result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("order %s is not locked: %w", orderID, common.ErrNotFound)
	}
	return nil
}

// IsOrderLocked reports whether a buy order is locked.
func (s *SQLiteStorage) IsOrderLocked(ctx context.Context, orderID string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(orderID, "orderID"); err != nil {
		return false, err
	}

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM order_locks WHERE order_id = ?`, orderID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check lock for %s: %w", orderID, err)
	}
	return true, nil
}

// GetLockedOrderIDs returns the set of locked order IDs.
func (s *SQLiteStorage) GetLockedOrderIDs(ctx context.Context) (map[string]bool, error) {
	locks, err := s.GetOrderLocks(ctx)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]bool, len(locks))
	for _, l := range locks {
		ids[l.OrderID] = true
	}
	return ids, nil
}

// GetOrderLocks returns every lock, oldest first.
func (s *SQLiteStorage) GetOrderLocks(ctx context.Context) ([]model.OrderLock, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getOrderLocksTx(ctx, s.db)
}

func (s *SQLiteStorage) getOrderLocksTx(ctx context.Context, q queryable) ([]model.OrderLock, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT order_id, label, locked_at
		FROM order_locks
		ORDER BY locked_at, order_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query order locks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var locks []model.OrderLock
	for rows.Next() {
		var lock model.OrderLock
		if err := rows.Scan(&lock.OrderID, &lock.Label, &lock.LockedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order lock: %w", err)
		}
		locks = append(locks, lock)
	}

	return locks, rows.Err()
}

// PruneOrderLocks drops locks for orders that no longer exist, keeping only
// the IDs in active. It returns the number of locks removed.
func (s *SQLiteStorage) PruneOrderLocks(ctx context.Context, active []string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	keep := make(map[string]bool, len(active))
	for _, id := range active {
		keep[id] = true
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	locks, err := s.getOrderLocksTx(ctx, tx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, lock := range locks {
		if keep[lock.OrderID] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM order_locks WHERE order_id = ?`, lock.OrderID); err != nil {
			return 0, fmt.Errorf("failed to prune lock %s: %w", lock.OrderID, err)
		}
		removed++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit lock pruning: %w", err)
	}
	return removed, nil
}
