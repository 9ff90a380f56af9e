package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/stall-keeper/internal/cli"
	"github.com/Veraticus/stall-keeper/internal/config"
	"github.com/Veraticus/stall-keeper/internal/inventory"
	"github.com/Veraticus/stall-keeper/internal/pricing"
	"github.com/Veraticus/stall-keeper/internal/trading"
)

func sellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sell <asset-id>...",
		Short: "List inventory items for sale at one price",
		Long: `List the given inventory items for sale at --price dollars.
Items that are already listed are skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("price")
			cents, err := pricing.ParseSellPrice(input)
			if err != nil {
				return inputError(err)
			}

			return runTrade(cmd, args, func(rows []inventory.Row) (*trading.Plan, error) {
				return trading.PlanSale(rows, cents)
			})
		},
	}

	cmd.Flags().String("price", "", "Price in dollars, e.g. 12.50")
	_ = cmd.MarkFlagRequired("price")
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func repriceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reprice <listing-or-asset-id>...",
		Short: "Change the price of stall listings",
		Long: `Change the price of the given listings. --price accepts an absolute
price ("12.50"), a change in dollars ("+1", "-0.25") or a percentage ("10%", "-5%").`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("price")
			adj, err := pricing.ParseAdjustment(input)
			if err != nil {
				return inputError(err)
			}

			return runTrade(cmd, args, func(rows []inventory.Row) (*trading.Plan, error) {
				return trading.PlanReprice(rows, adj)
			})
		},
	}

	cmd.Flags().String("price", "", "New price, change or percentage")
	_ = cmd.MarkFlagRequired("price")
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func delistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delist <listing-or-asset-id>...",
		Short: "Remove stall listings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrade(cmd, args, func(rows []inventory.Row) (*trading.Plan, error) {
				return trading.PlanDelist(rows), nil
			})
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	return cmd
}

// runTrade loads the inventory, plans the writes for the selected ids,
// confirms and executes them.
func runTrade(cmd *cobra.Command, ids []string, plan func([]inventory.Row) (*trading.Plan, error)) error {
	ctx := cmd.Context()
	settings := config.LoadSettings(viper.GetViper())

	accounts, err := loadAccounts(settings)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx, settings)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rows := loadInventory(cmd, accounts)
	selected, missing := inventory.Select(rows, ids)
	if len(missing) > 0 {
		cmd.PrintErrln(cli.FormatWarning("Unknown items: " + joinIDs(missing) + "."))
	}

	p, err := plan(selected)
	if err != nil {
		return inputError(err)
	}

	for _, s := range p.Skipped {
		cmd.PrintErrln(cli.FormatWarning(fmt.Sprintf("Skipping %s: %s", s.Row.Item.MarketHashName, s.Reason)))
	}
	if len(p.Ops) == 0 {
		cmd.Println(cli.FormatInfo("Nothing to do."))
		return nil
	}

	ok, err := confirm(cmd, p.Summary())
	if err != nil {
		return err
	}
	if !ok {
		cmd.Println(cli.FormatInfo("Canceled."))
		return nil
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx = interrupts.HandleInterrupts(ctx, true)

	bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(p.Ops), string(p.Action))
	svc := trading.NewService(store, accounts)
	result, runErr := svc.Execute(ctx, p, func(trading.Operation, error) {
		cli.Advance(bar)
	})

	if result != nil {
		cmd.Println(result.Summary())
		for _, f := range result.Failed {
			cmd.PrintErrln(cli.FormatError(fmt.Sprintf("%s: %v", f.Op.Name(), f.Err)))
		}
	}

	if runErr != nil {
		return runErr
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d of %d operations failed", len(result.Failed), len(p.Ops))
	}
	return nil
}
