// Package trading plans and executes listing writes: selling inventory
// items, repricing and delisting stall listings.
package trading

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/stall-keeper/internal/inventory"
	"github.com/Veraticus/stall-keeper/internal/model"
	"github.com/Veraticus/stall-keeper/internal/pricing"
)

// Skip reasons.
const (
	ReasonAlreadyListed = "already listed"
	ReasonNotListed     = "price can only be changed for listed items"
	ReasonUnchanged     = "price will not change"
)

// Operation is one planned write.
type Operation struct {
	Row      inventory.Row
	OldPrice int
	NewPrice int
}

// Name returns the item name shown for the operation.
func (o Operation) Name() string {
	return o.Row.Item.MarketHashName
}

// Skipped is a selected row that will not be written.
type Skipped struct {
	Row    inventory.Row
	Reason string
}

// Plan is a confirmed-before-run batch of writes of one kind.
type Plan struct {
	Action  model.ActionType
	Ops     []Operation
	Skipped []Skipped
}

// PlanSale lists every unlisted row at priceCents. Listed rows are skipped.
func PlanSale(rows []inventory.Row, priceCents int) (*Plan, error) {
	if err := pricing.Validate(priceCents); err != nil {
		return nil, err
	}

	plan := &Plan{Action: model.ActionSell}
	for _, row := range rows {
		if row.Listed() {
			plan.Skipped = append(plan.Skipped, Skipped{Row: row, Reason: ReasonAlreadyListed})
			continue
		}
		plan.Ops = append(plan.Ops, Operation{Row: row, NewPrice: priceCents})
	}
	return plan, nil
}

// PlanReprice applies adj to every listed row. A new price outside the
// marketplace bounds fails the whole plan.
func PlanReprice(rows []inventory.Row, adj pricing.Adjustment) (*Plan, error) {
	plan := &Plan{Action: model.ActionReprice}
	for _, row := range rows {
		if !row.Listed() {
			plan.Skipped = append(plan.Skipped, Skipped{Row: row, Reason: ReasonNotListed})
			continue
		}

		newPrice, err := adj.Apply(row.Price)
		if err != nil {
			if errors.Is(err, pricing.ErrUnchanged) {
				plan.Skipped = append(plan.Skipped, Skipped{Row: row, Reason: ReasonUnchanged})
				continue
			}
			return nil, fmt.Errorf("%s: %w", row.Item.MarketHashName, err)
		}

		plan.Ops = append(plan.Ops, Operation{Row: row, OldPrice: row.Price, NewPrice: newPrice})
	}
	return plan, nil
}

// PlanDelist removes every listed row from sale.
func PlanDelist(rows []inventory.Row) *Plan {
	plan := &Plan{Action: model.ActionDelist}
	for _, row := range rows {
		if !row.Listed() {
			plan.Skipped = append(plan.Skipped, Skipped{Row: row, Reason: ReasonNotListed})
			continue
		}
		plan.Ops = append(plan.Ops, Operation{Row: row, OldPrice: row.Price})
	}
	return plan
}

// Summary describes the planned writes, one line per distinct item and
// price, for confirmation.
func (p *Plan) Summary() string {
	var header string
	switch p.Action {
	case model.ActionSell:
		header = "You are about to sell the following items:"
	case model.ActionReprice:
		header = "You are about to change the price for the following items:"
	default:
		header = "You are about to delist the following items:"
	}
	return header + "\n" + strings.Join(groupOperations(p.Action, p.Ops, true), "\n")
}

// groupOperations collapses identical operations into "{n}x ..." lines,
// keeping first-seen order. confirm selects the wording used before running.
func groupOperations(action model.ActionType, ops []Operation, confirm bool) []string {
	type key struct {
		name     string
		oldPrice int
		newPrice int
	}

	counts := make(map[key]int)
	var order []key
	for _, op := range ops {
		k := key{name: op.Name(), oldPrice: op.OldPrice, newPrice: op.NewPrice}
		if action == model.ActionDelist {
			k.oldPrice = 0
		}
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}

	lines := make([]string, 0, len(order))
	for _, k := range order {
		var line string
		switch action {
		case model.ActionSell:
			if confirm {
				line = fmt.Sprintf("%s for %s", k.name, pricing.FormatCents(k.newPrice))
			} else {
				line = fmt.Sprintf("%s %s", k.name, pricing.FormatCents(k.newPrice))
			}
		case model.ActionReprice:
			line = fmt.Sprintf("%s %s → %s", k.name, pricing.FormatCents(k.oldPrice), pricing.FormatCents(k.newPrice))
		default:
			line = k.name
		}

		if n := counts[k]; n > 1 {
			line = fmt.Sprintf("%dx %s", n, line)
		}
		lines = append(lines, line)
	}
	return lines
}
