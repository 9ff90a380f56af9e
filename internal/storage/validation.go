// Package storage provides the data persistence layer for order locks and
// the action history.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/stall-keeper/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidAction = errors.New("invalid action record")
	ErrInvalidLimit  = errors.New("limit must be positive")
	ErrUnknownAction = errors.New("unknown action type")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateAction validates a single action record.
func validateAction(record *model.ActionRecord) error {
	if record == nil {
		return fmt.Errorf("%w: action", ErrNilParameter)
	}
	if strings.TrimSpace(record.Account) == "" {
		return fmt.Errorf("%w: missing account", ErrInvalidAction)
	}
	if strings.TrimSpace(record.TargetID) == "" {
		return fmt.Errorf("%w: missing target ID", ErrInvalidAction)
	}
	if !record.Action.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownAction, record.Action)
	}
	if record.PriceCents < 0 || record.OldPriceCents < 0 {
		return fmt.Errorf("%w: negative price", ErrInvalidAction)
	}
	return nil
}
