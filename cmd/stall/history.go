package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/stall-keeper/internal/cli"
	"github.com/Veraticus/stall-keeper/internal/config"
	"github.com/Veraticus/stall-keeper/internal/model"
	"github.com/Veraticus/stall-keeper/internal/pricing"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent marketplace writes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			settings := config.LoadSettings(viper.GetViper())
			store, err := initStorage(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			records, err := store.GetRecentActions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				cmd.Println(cli.FormatInfo("No actions recorded yet."))
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, r := range records {
				rows = append(rows, historyRow(r))
			}
			return cli.WriteTable(cmd.OutOrStdout(),
				[]string{"When", "Account", "Action", "Target", "Item", "Price", "Result"}, rows)
		},
	}

	cmd.Flags().Int("limit", 50, "Number of entries to show")

	return cmd
}

func historyRow(r model.ActionRecord) []string {
	price := ""
	switch {
	case r.Action == model.ActionReprice:
		price = fmt.Sprintf("%s → %s", pricing.FormatCents(r.OldPriceCents), pricing.FormatCents(r.PriceCents))
	case r.PriceCents > 0:
		price = pricing.FormatCents(r.PriceCents)
	}

	result := cli.SuccessIcon
	if !r.Succeeded() {
		result = cli.ErrorIcon + " " + r.Error
	}

	return []string{
		r.CreatedAt.Local().Format("2006-01-02 15:04"),
		r.Account,
		string(r.Action),
		r.TargetID,
		r.ItemName,
		price,
		result,
	}
}
