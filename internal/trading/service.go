package trading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/stall-keeper/internal/common"
	"github.com/Veraticus/stall-keeper/internal/csfloat"
	"github.com/Veraticus/stall-keeper/internal/model"
	"github.com/Veraticus/stall-keeper/internal/service"
)

// ErrUnknownAccount is returned when a row names an account the service was
// not configured with.
var ErrUnknownAccount = errors.New("unknown account")

// Failure is an operation the marketplace rejected.
type Failure struct {
	Err error
	Op  Operation
}

// Result reports what a plan run did.
type Result struct {
	Action model.ActionType
	Done   []Operation
	Failed []Failure
}

// Summary lists the completed writes, grouped like the plan.
func (r *Result) Summary() string {
	if len(r.Done) == 0 {
		return "Nothing was changed."
	}
	return strings.Join(groupOperations(r.Action, r.Done, false), "\n")
}

// Progress is called after each operation.
type Progress func(op Operation, err error)

// Service runs plans against the accounts' marketplaces and records every
// write in the action history.
type Service struct {
	storage service.Storage
	clients map[string]service.Marketplace
}

// NewService creates a trading service.
func NewService(storage service.Storage, accounts []service.Account) *Service {
	clients := make(map[string]service.Marketplace, len(accounts))
	for _, a := range accounts {
		clients[a.Name] = a.Client
	}
	return &Service{storage: storage, clients: clients}
}

// Execute runs plan in order. A KYC rejection or a rejected API key stops the
// run, since every later write would fail the same way; other failures are
// collected and the run continues. The partial result is always returned.
func (s *Service) Execute(ctx context.Context, plan *Plan, progress Progress) (*Result, error) {
	result := &Result{Action: plan.Action}

	for _, op := range plan.Ops {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		err := s.run(ctx, plan.Action, op)
		s.record(ctx, plan.Action, op, err)

		if progress != nil {
			progress(op, err)
		}

		if err == nil {
			result.Done = append(result.Done, op)
			continue
		}

		slog.Error("Marketplace write failed",
			"action", plan.Action,
			"account", op.Row.Account,
			"item", op.Name(),
			"error", err)
		result.Failed = append(result.Failed, Failure{Op: op, Err: err})

		if errors.Is(err, csfloat.ErrKYCRequired) {
			return result, common.NewUserError("Item overpriced. You need to complete KYC.", err)
		}
		if errors.Is(err, common.ErrUnauthorized) {
			return result, common.NewUserError("The marketplace rejected the API key for "+op.Row.Account, err)
		}
	}

	return result, nil
}

func (s *Service) run(ctx context.Context, action model.ActionType, op Operation) error {
	client, ok := s.clients[op.Row.Account]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, op.Row.Account)
	}

	switch action {
	case model.ActionSell:
		_, err := client.CreateListing(ctx, op.Row.Item.AssetID, op.NewPrice)
		return err
	case model.ActionReprice:
		_, err := client.UpdateListingPrice(ctx, op.Row.ListingID, op.NewPrice)
		return err
	case model.ActionDelist:
		return client.DeleteListing(ctx, op.Row.ListingID)
	default:
		return fmt.Errorf("unsupported action %q", action)
	}
}

func (s *Service) record(ctx context.Context, action model.ActionType, op Operation, opErr error) {
	target := op.Row.ListingID
	if action == model.ActionSell {
		target = op.Row.Item.AssetID
	}

	record := &model.ActionRecord{
		Account:       op.Row.Account,
		Action:        action,
		TargetID:      target,
		ItemName:      op.Name(),
		PriceCents:    op.NewPrice,
		OldPriceCents: op.OldPrice,
	}
	if opErr != nil {
		record.Error = opErr.Error()
	}

	if err := s.storage.RecordAction(ctx, record); err != nil {
		slog.Warn("Failed to record action", "action", action, "target", target, "error", err)
	}
}
