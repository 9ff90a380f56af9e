package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/Veraticus/stall-keeper/internal/model"
)

// Call is one recorded marketplace write.
type Call struct {
	Method string
	ID     string
	Price  int
}

// FakeMarketplace is an in-memory marketplace. Fields may be set before use;
// Err* maps fail calls for specific ids. It is safe for concurrent use.
type FakeMarketplace struct {
	User      *model.User
	Inventory []model.InventoryItem
	Stall     []model.Listing
	Orders    []model.BuyOrder

	FetchErr    error
	ErrByID     map[string]error
	calls       []Call
	nextListing int
	mu          sync.Mutex
}

// NewFakeMarketplace returns a marketplace holding orders.
func NewFakeMarketplace(orders ...model.BuyOrder) *FakeMarketplace {
	return &FakeMarketplace{
		User:    &model.User{SteamID: "76561198000000001", Username: "trader"},
		Orders:  orders,
		ErrByID: map[string]error{},
	}
}

// Calls returns the writes made so far.
func (f *FakeMarketplace) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

func (f *FakeMarketplace) record(method, id string, price int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: method, ID: id, Price: price})
	if err, ok := f.ErrByID[id]; ok {
		return err
	}
	return nil
}

func (f *FakeMarketplace) GetUser(_ context.Context) (*model.User, error) {
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	return f.User, nil
}

func (f *FakeMarketplace) GetInventory(_ context.Context) ([]model.InventoryItem, error) {
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	return f.Inventory, nil
}

func (f *FakeMarketplace) GetStall(_ context.Context, _ string) ([]model.Listing, error) {
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Listing(nil), f.Stall...), nil
}

func (f *FakeMarketplace) GetBuyOrders(_ context.Context) ([]model.BuyOrder, error) {
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.BuyOrder(nil), f.Orders...), nil
}

func (f *FakeMarketplace) CreateListing(_ context.Context, assetID string, priceCents int) (*model.Listing, error) {
	if err := f.record("create", assetID, priceCents); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextListing++
	listing := model.Listing{
		ID:    fmt.Sprintf("L%d", f.nextListing),
		Price: priceCents,
		Type:  "buy_now",
		Item:  model.InventoryItem{AssetID: assetID},
	}
	f.Stall = append(f.Stall, listing)
	return &listing, nil
}

func (f *FakeMarketplace) UpdateListingPrice(_ context.Context, listingID string, priceCents int) (*model.Listing, error) {
	if err := f.record("update", listingID, priceCents); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Stall {
		if f.Stall[i].ID == listingID {
			f.Stall[i].Price = priceCents
			listing := f.Stall[i]
			return &listing, nil
		}
	}
	return &model.Listing{ID: listingID, Price: priceCents}, nil
}

func (f *FakeMarketplace) DeleteListing(_ context.Context, listingID string) error {
	return f.record("delist", listingID, 0)
}

func (f *FakeMarketplace) DeleteBuyOrder(_ context.Context, orderID string) error {
	if err := f.record("delete_order", orderID, 0); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, o := range f.Orders {
		if o.ID == orderID {
			f.Orders = append(f.Orders[:i], f.Orders[i+1:]...)
			break
		}
	}
	return nil
}
