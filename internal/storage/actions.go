package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/stall-keeper/internal/model"
)

// RecordAction appends a write to the action history and sets record.ID.
func (s *SQLiteStorage) RecordAction(ctx context.Context, record *model.ActionRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAction(record); err != nil {
		return err
	}

	return s.recordActionTx(ctx, s.db, record)
}

// RecordActions appends several records in one transaction.
func (s *SQLiteStorage) RecordActions(ctx context.Context, records []model.ActionRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	for i := range records {
		if err := validateAction(&records[i]); err != nil {
			return fmt.Errorf("action at index %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range records {
		if err := s.recordActionTx(ctx, tx, &records[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStorage) recordActionTx(ctx context.Context, q queryable, record *model.ActionRecord) error {
	result, err := q.ExecContext(ctx, `
		INSERT INTO action_history (
			account, action, target_id, item_name, price_cents, old_price_cents, error
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, record.Account, string(record.Action), record.TargetID, record.ItemName,
		record.PriceCents, record.OldPriceCents, record.Error)
	if err != nil {
		return fmt.Errorf("failed to record %s action: %w", record.Action, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get action id: %w", err)
	}
	record.ID = id
	return nil
}

// GetRecentActions returns up to limit history entries, newest first.
func (s *SQLiteStorage) GetRecentActions(ctx context.Context, limit int) ([]model.ActionRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account, action, target_id, COALESCE(item_name, ''),
		       price_cents, old_price_cents, error, created_at
		FROM action_history
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query action history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.ActionRecord
	for rows.Next() {
		var r model.ActionRecord
		var action string
		if err := rows.Scan(&r.ID, &r.Account, &action, &r.TargetID, &r.ItemName,
			&r.PriceCents, &r.OldPriceCents, &r.Error, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		r.Action = model.ActionType(action)
		records = append(records, r)
	}

	return records, rows.Err()
}
