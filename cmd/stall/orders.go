package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/stall-keeper/internal/cli"
	"github.com/Veraticus/stall-keeper/internal/common"
	"github.com/Veraticus/stall-keeper/internal/config"
	"github.com/Veraticus/stall-keeper/internal/expression"
	"github.com/Veraticus/stall-keeper/internal/inventory"
	"github.com/Veraticus/stall-keeper/internal/orders"
	"github.com/Veraticus/stall-keeper/internal/refdata"
	"github.com/Veraticus/stall-keeper/internal/storage"
	"github.com/Veraticus/stall-keeper/internal/tui"
)

func ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"buy-orders"},
		Short:   "Manage standing buy orders",
	}

	cmd.AddCommand(ordersListCmd())
	cmd.AddCommand(ordersDescribeCmd())
	cmd.AddCommand(ordersDeleteCmd())
	cmd.AddCommand(ordersDeleteAllCmd())
	cmd.AddCommand(ordersLockCmd(true))
	cmd.AddCommand(ordersLockCmd(false))
	cmd.AddCommand(ordersMatchCmd())
	cmd.AddCommand(ordersBrowseCmd())

	return cmd
}

// ordersEnv is what every online orders command needs.
type ordersEnv struct {
	store *storage.SQLiteStorage
	svc   *orders.Service
	rows  []orders.Row
	// complete is set when every configured account answered.
	complete bool
}

func (e *ordersEnv) Close() {
	_ = e.store.Close()
}

// loadOrders opens storage, builds the service and loads every account's
// orders. Accounts that fail are reported and left out.
func loadOrders(cmd *cobra.Command) (*ordersEnv, error) {
	ctx := cmd.Context()
	settings := config.LoadSettings(viper.GetViper())

	accounts, err := loadAccounts(settings)
	if err != nil {
		return nil, err
	}
	accountName, _ := cmd.Flags().GetString("account")
	if accounts, err = filterAccounts(accounts, accountName); err != nil {
		return nil, err
	}

	store, err := initStorage(ctx, settings)
	if err != nil {
		return nil, err
	}

	svc := orders.NewService(store, loadTables(settings), accounts)
	result, err := svc.Load(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	reportAccountErrors(cmd, result.Errors)

	return &ordersEnv{
		store:    store,
		svc:      svc,
		rows:     result.Rows,
		complete: len(result.Errors) == 0 && accountName == "",
	}, nil
}

func ordersListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List buy orders with readable descriptions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sortField, _ := cmd.Flags().GetString("sort")
			desc, _ := cmd.Flags().GetBool("desc")

			env, err := loadOrders(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := orders.SortRows(env.rows, sortField, !desc); err != nil {
				return inputError(err)
			}

			if env.complete {
				if pruned, err := env.svc.PruneLocks(cmd.Context(), env.rows); err != nil {
					slog.Warn("Failed to prune order locks", "error", err)
				} else if pruned > 0 {
					slog.Info("Pruned locks of orders that no longer exist", "count", pruned)
				}
			}
			return writeOrders(cmd, env.rows, time.Now())
		},
	}

	cmd.Flags().String("account", "", "Only this account")
	cmd.Flags().String("sort", "age", "Sort by label, price, age or qty")
	cmd.Flags().Bool("desc", false, "Sort descending")

	return cmd
}

func writeOrders(cmd *cobra.Command, rows []orders.Row, now time.Time) error {
	if len(rows) == 0 {
		cmd.Println(cli.FormatInfo("No buy orders."))
		return nil
	}

	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		table = append(table, orderRow(r, now))
	}
	if err := cli.WriteTable(cmd.OutOrStdout(),
		[]string{"", "Order", "Qty", "Price", "Age", "ID", "Account"}, table); err != nil {
		return err
	}

	cmd.Printf("\n%d orders\n", len(rows))
	return nil
}

func orderRow(r orders.Row, now time.Time) []string {
	mark := ""
	if r.Locked {
		mark = cli.LockIcon
	}
	return []string{
		mark,
		cli.RenderLabel(r.Label),
		strconv.Itoa(r.Order.Quantity()),
		r.Price(),
		r.Age(now),
		r.ID(),
		r.Account,
	}
}

func ordersDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <expression>",
		Short: "Describe a buy order expression without contacting the marketplace",
		Example: `  stall orders describe 'FloatValue < 0.07 and (DefIndex == 7 and PaintIndex == 282)'
  stall orders describe 'HasSticker(76, -1, 2) and StatTrak == true'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := config.LoadSettings(viper.GetViper())
			tables := loadTables(settings)

			descriptor, err := expression.Parse(args[0], tables)
			if err != nil {
				return inputError(err)
			}

			label := descriptor.Render()
			if label.Text == "" {
				label.Text = expression.UnknownOrder
			}
			cmd.Println(cli.RenderLabel(label))
			if label.Contradiction {
				cmd.Println(cli.FormatWarning(label.Tooltip))
			}
			for _, msg := range unresolved(descriptor, tables) {
				cmd.PrintErrln(cli.FormatWarning(msg))
			}
			return nil
		},
	}
}

// unresolved lists the skin pairs and sticker ids the reference tables could
// not name.
func unresolved(d *expression.Descriptor, tables *refdata.Tables) []string {
	var msgs []string
	for _, p := range d.Pairs {
		if _, ok := tables.SkinName(p.DefIndex, p.PaintIndex); ok {
			continue
		}
		msg := fmt.Sprintf("Unknown skin (DefIndex %d, PaintIndex %d)", p.DefIndex, p.PaintIndex)
		if other, ok := tables.SkinNameByDefIndex(p.DefIndex); ok {
			msg += "; DefIndex " + strconv.Itoa(p.DefIndex) + " is also " + other
		}
		msgs = append(msgs, msg)
	}
	for _, st := range d.Stickers {
		if s, ok := tables.Sticker(st.StickerID); ok && s.Name != "" {
			continue
		}
		msgs = append(msgs, fmt.Sprintf("Unknown sticker %d", st.StickerID))
	}
	return msgs
}

func ordersDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <order-id>...",
		Short: "Delete buy orders; locked orders are skipped",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadOrders(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			ok, err := confirm(cmd, fmt.Sprintf("You are about to delete %d buy orders: %s", len(args), joinIDs(args)))
			if err != nil || !ok {
				return err
			}

			return runDelete(cmd, len(args), func(progress orders.Progress) (*orders.DeleteResult, error) {
				return env.svc.Delete(cmd.Context(), env.rows, args, progress)
			})
		},
	}

	cmd.Flags().String("account", "", "Only this account")
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func ordersDeleteAllCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every unlocked buy order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadOrders(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			if len(env.rows) == 0 {
				cmd.Println(cli.FormatInfo("No buy orders."))
				return nil
			}

			ok, err := confirm(cmd, fmt.Sprintf("You are about to delete all %d buy orders. Locked orders will be kept.", len(env.rows)))
			if err != nil || !ok {
				return err
			}

			return runDelete(cmd, len(env.rows), func(progress orders.Progress) (*orders.DeleteResult, error) {
				return env.svc.DeleteAll(cmd.Context(), env.rows, progress)
			})
		},
	}

	cmd.Flags().String("account", "", "Only this account")
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func runDelete(cmd *cobra.Command, total int, run func(orders.Progress) (*orders.DeleteResult, error)) error {
	bar := cli.NewProgressBar(cmd.ErrOrStderr(), total, "Deleting orders")
	result, err := run(func(orders.Row, error) {
		cli.Advance(bar)
	})
	if result != nil {
		cmd.Println(result.Summary())
	}
	if err != nil {
		return err
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d orders could not be deleted", len(result.Failed))
	}
	return nil
}

func ordersLockCmd(lock bool) *cobra.Command {
	use, short := "unlock <order-id>...", "Allow buy orders to be deleted again"
	if lock {
		use, short = "lock <order-id>...", "Protect buy orders from deletion"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if !lock {
				settings := config.LoadSettings(viper.GetViper())
				store, err := initStorage(ctx, settings)
				if err != nil {
					return err
				}
				defer func() { _ = store.Close() }()

				for _, id := range args {
					if err := store.UnlockOrder(ctx, id); err != nil {
						if errors.Is(err, common.ErrNotFound) {
							cmd.PrintErrln(cli.FormatWarning("Order " + id + " was not locked."))
							continue
						}
						return err
					}
					cmd.Println(cli.FormatSuccess("Unlocked " + id))
				}
				return nil
			}

			env, err := loadOrders(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			labels := make(map[string]string, len(env.rows))
			for _, r := range env.rows {
				labels[r.ID()] = r.Label.Text
			}

			for _, id := range args {
				label, ok := labels[id]
				if !ok {
					cmd.PrintErrln(cli.FormatWarning("Unknown order " + id + "."))
					continue
				}
				if err := env.svc.Lock(ctx, id, label); err != nil {
					return err
				}
				cmd.Println(cli.FormatSuccess("Locked " + id + " " + label))
			}
			return nil
		},
	}
}

func ordersMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match <expression>",
		Short: "List inventory items that would fill a buy order expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			evaluator, err := expression.NewEvaluator()
			if err != nil {
				return err
			}
			matcher, err := evaluator.Compile(args[0])
			if err != nil {
				return inputError(err)
			}

			settings := config.LoadSettings(viper.GetViper())
			accounts, err := loadAccounts(settings)
			if err != nil {
				return err
			}
			accountName, _ := cmd.Flags().GetString("account")
			if accounts, err = filterAccounts(accounts, accountName); err != nil {
				return err
			}

			rows, err := inventory.Matching(loadInventory(cmd, accounts), matcher)
			if err != nil {
				return err
			}
			return writeInventory(cmd, rows, time.Now())
		},
	}

	cmd.Flags().String("account", "", "Only this account")

	return cmd
}

func ordersBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse buy orders interactively and toggle locks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadOrders(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			_, err = tui.Run(cmd.Context(), tui.Config{
				Rows:   env.rows,
				Toggle: env.svc.ToggleLock,
			})
			return err
		},
	}

	cmd.Flags().String("account", "", "Only this account")

	return cmd
}
