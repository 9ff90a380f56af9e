// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/stall-keeper/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Order locks
	LockOrder(ctx context.Context, orderID, label string) error
	UnlockOrder(ctx context.Context, orderID string) error
	IsOrderLocked(ctx context.Context, orderID string) (bool, error)
	GetLockedOrderIDs(ctx context.Context) (map[string]bool, error)
	GetOrderLocks(ctx context.Context) ([]model.OrderLock, error)
	PruneOrderLocks(ctx context.Context, active []string) (int, error)

	// Action history
	RecordAction(ctx context.Context, record *model.ActionRecord) error
	RecordActions(ctx context.Context, records []model.ActionRecord) error
	GetRecentActions(ctx context.Context, limit int) ([]model.ActionRecord, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Marketplace is the set of marketplace calls made on behalf of one API key.
type Marketplace interface {
	GetUser(ctx context.Context) (*model.User, error)
	GetInventory(ctx context.Context) ([]model.InventoryItem, error)
	GetStall(ctx context.Context, steamID string) ([]model.Listing, error)
	GetBuyOrders(ctx context.Context) ([]model.BuyOrder, error)
	CreateListing(ctx context.Context, assetID string, priceCents int) (*model.Listing, error)
	UpdateListingPrice(ctx context.Context, listingID string, priceCents int) (*model.Listing, error)
	DeleteListing(ctx context.Context, listingID string) error
	DeleteBuyOrder(ctx context.Context, orderID string) error
}

// Account pairs a display name with the marketplace client for its key.
type Account struct {
	Client Marketplace
	Name   string
}

// AccountError records a failure scoped to one account.
type AccountError struct {
	Err     error
	Account string
}

func (e *AccountError) Error() string {
	return e.Account + ": " + e.Err.Error()
}

func (e *AccountError) Unwrap() error {
	return e.Err
}
