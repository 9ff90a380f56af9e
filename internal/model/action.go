package model

import "time"

// ActionType names a write operation performed against the marketplace.
type ActionType string

// Action types recorded in history.
const (
	ActionSell        ActionType = "sell"
	ActionReprice     ActionType = "reprice"
	ActionDelist      ActionType = "delist"
	ActionDeleteOrder ActionType = "delete_order"
)

// IsValid reports whether a is a known action type.
func (a ActionType) IsValid() bool {
	switch a {
	case ActionSell, ActionReprice, ActionDelist, ActionDeleteOrder:
		return true
	}
	return false
}

// ActionRecord is an audit entry for a marketplace write. Error is empty
// when the write succeeded.
type ActionRecord struct {
	CreatedAt     time.Time
	Account       string
	Action        ActionType
	TargetID      string
	ItemName      string
	Error         string
	ID            int64
	PriceCents    int
	OldPriceCents int
}

// Succeeded reports whether the recorded write went through.
func (r ActionRecord) Succeeded() bool {
	return r.Error == ""
}
