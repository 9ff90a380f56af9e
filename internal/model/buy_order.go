package model

import "time"

// BuyOrder is a standing offer to purchase any item matching an expression.
// Either Expression or MarketHashName is normally set.
type BuyOrder struct {
	CreatedAt      time.Time `json:"created_at"`
	ID             string    `json:"id"`
	Expression     string    `json:"expression,omitempty"`
	MarketHashName string    `json:"market_hash_name,omitempty"`
	Qty            int       `json:"qty"`
	Price          int       `json:"price"`
}

// Quantity returns the order quantity, defaulting to one when unset.
func (o BuyOrder) Quantity() int {
	if o.Qty <= 0 {
		return 1
	}
	return o.Qty
}

// OrderLock marks a buy order as protected from bulk deletion.
type OrderLock struct {
	LockedAt time.Time
	OrderID  string
	Label    string
}
