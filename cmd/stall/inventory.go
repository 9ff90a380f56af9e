package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/stall-keeper/internal/cli"
	"github.com/Veraticus/stall-keeper/internal/config"
	"github.com/Veraticus/stall-keeper/internal/inventory"
	"github.com/Veraticus/stall-keeper/internal/model"
	"github.com/Veraticus/stall-keeper/internal/pricing"
)

func inventoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Browse inventory items and stall listings",
	}

	cmd.AddCommand(inventoryListCmd())

	return cmd
}

func inventoryListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List inventory items with their listing state",
		RunE:  runInventoryList,
	}

	addInventoryFilterFlags(cmd)
	cmd.Flags().String("sort", "name", "Sort by name, price, float or age")
	cmd.Flags().Bool("desc", false, "Sort descending")

	return cmd
}

func addInventoryFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("account", "", "Only this account")
	cmd.Flags().StringP("query", "q", "", "Case-insensitive name search")
	cmd.Flags().String("sticker", "", "Only items with a sticker whose name contains this")
	cmd.Flags().String("collection", "", "Only items from this collection")
	cmd.Flags().StringSlice("rarity", nil, "Only these rarities (name or code)")
	cmd.Flags().StringSlice("condition", nil, "Only these wear conditions (FN, MW, FT, WW, BS)")
	cmd.Flags().Float64("min-float", 0, "Minimum float value")
	cmd.Flags().Float64("max-float", 0, "Maximum float value")
	cmd.Flags().Bool("listed", false, "Only items on sale")
	cmd.Flags().Bool("unlisted", false, "Only items not on sale")
}

// inventoryFilter builds a filter from the flags added by addInventoryFilterFlags.
func inventoryFilter(cmd *cobra.Command) (inventory.Filter, error) {
	f := inventory.Filter{}
	flags := cmd.Flags()

	f.Query, _ = flags.GetString("query")
	f.Sticker, _ = flags.GetString("sticker")
	f.Collection, _ = flags.GetString("collection")

	rarities, _ := flags.GetStringSlice("rarity")
	for _, r := range rarities {
		rarity, err := model.ParseRarity(r)
		if err != nil {
			return f, err
		}
		f.Rarities = append(f.Rarities, rarity)
	}

	conditions, _ := flags.GetStringSlice("condition")
	for _, c := range conditions {
		condition, err := model.ParseCondition(c)
		if err != nil {
			return f, err
		}
		f.Conditions = append(f.Conditions, condition)
	}

	if flags.Changed("min-float") {
		v, _ := flags.GetFloat64("min-float")
		f.MinFloat = &v
	}
	if flags.Changed("max-float") {
		v, _ := flags.GetFloat64("max-float")
		f.MaxFloat = &v
	}

	listed, _ := flags.GetBool("listed")
	unlisted, _ := flags.GetBool("unlisted")
	switch {
	case listed && unlisted:
		return f, fmt.Errorf("--listed and --unlisted are mutually exclusive")
	case listed:
		f.Listed = &listed
	case unlisted:
		no := false
		f.Listed = &no
	}

	return f, nil
}

func runInventoryList(cmd *cobra.Command, _ []string) error {
	filter, err := inventoryFilter(cmd)
	if err != nil {
		return err
	}

	sortName, _ := cmd.Flags().GetString("sort")
	field, err := inventory.ParseSortField(sortName)
	if err != nil {
		return err
	}
	desc, _ := cmd.Flags().GetBool("desc")

	settings := config.LoadSettings(viper.GetViper())
	accounts, err := loadAccounts(settings)
	if err != nil {
		return err
	}
	accountName, _ := cmd.Flags().GetString("account")
	if accounts, err = filterAccounts(accounts, accountName); err != nil {
		return err
	}

	rows := filter.Apply(loadInventory(cmd, accounts))
	inventory.Sort(rows, field, !desc)

	return writeInventory(cmd, rows, time.Now())
}

func writeInventory(cmd *cobra.Command, rows []inventory.Row, now time.Time) error {
	if len(rows) == 0 {
		cmd.Println(cli.FormatInfo("No items found."))
		return nil
	}

	table := make([][]string, 0, len(rows))
	listed := 0
	for _, r := range rows {
		table = append(table, inventoryRow(r, now))
		if r.Listed() {
			listed++
		}
	}

	if err := cli.WriteTable(cmd.OutOrStdout(),
		[]string{"Name", "Float", "Seed", "Rarity", "Wear", "Price", "Age", "Asset ID", "Listing ID", "Account"},
		table); err != nil {
		return err
	}

	cmd.Printf("\n%d items, %d listed\n", len(rows), listed)
	return nil
}

func inventoryRow(r inventory.Row, now time.Time) []string {
	float := ""
	if r.Item.FloatValue > 0 {
		float = strconv.FormatFloat(r.Item.FloatValue, 'f', -1, 64)
	}

	price, age := "", ""
	if r.Listed() {
		price = pricing.FormatCents(r.Price)
		age = inventory.FormatAge(r.ListedAt, now)
	}

	return []string{
		r.Item.MarketHashName,
		float,
		strconv.Itoa(r.Item.PaintSeed),
		cli.RenderRarity(r.Item.Rarity),
		string(r.Item.Condition()),
		price,
		age,
		r.Item.AssetID,
		r.ListingID,
		r.Account,
	}
}
