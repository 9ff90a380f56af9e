package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/stall-keeper/internal/cli"
	"github.com/Veraticus/stall-keeper/internal/config"
	"github.com/Veraticus/stall-keeper/internal/sheets"
)

// tableWriter is the part of the Sheets writer the export commands use.
type tableWriter interface {
	Write(ctx context.Context, table sheets.Table) (string, error)
}

// newTableWriter connects to Google Sheets. Tests replace it.
var newTableWriter = func(ctx context.Context) (tableWriter, error) {
	cfg, err := config.LoadSheetsConfig()
	if err != nil {
		return nil, inputError(fmt.Errorf("google sheets is not configured: %w", err))
	}
	writer, err := sheets.NewWriter(ctx, *cfg, slog.Default())
	if err != nil {
		return nil, err
	}
	return writer, nil
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export buy orders or inventory to Google Sheets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "orders",
		Short: "Export every account's buy orders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadOrders(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			return writeExport(cmd, sheets.OrdersTable(env.rows, time.Now()))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "inventory",
		Short: "Export every account's inventory and listings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings := config.LoadSettings(viper.GetViper())
			accounts, err := loadAccounts(settings)
			if err != nil {
				return err
			}
			accountName, _ := cmd.Flags().GetString("account")
			if accounts, err = filterAccounts(accounts, accountName); err != nil {
				return err
			}

			return writeExport(cmd, sheets.InventoryTable(loadInventory(cmd, accounts), time.Now()))
		},
	})

	cmd.AddCommand(exportAuthCmd())

	for _, sub := range cmd.Commands() {
		if sub.Name() != "auth" {
			sub.Flags().String("account", "", "Only this account")
		}
	}

	return cmd
}

func writeExport(cmd *cobra.Command, table sheets.Table) error {
	writer, err := newTableWriter(cmd.Context())
	if err != nil {
		return err
	}

	id, err := writer.Write(cmd.Context(), table)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	cmd.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d rows to %q in spreadsheet %s", len(table.Rows), table.Title, id)))
	return nil
}

func exportAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize Google Sheets access with OAuth2 and print the refresh token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			clientID := viper.GetString("sheets.client_id")
			clientSecret := viper.GetString("sheets.client_secret")
			if clientID == "" || clientSecret == "" {
				return inputError(fmt.Errorf("set sheets.client_id and sheets.client_secret first"))
			}

			tokenFile, _ := cmd.Flags().GetString("token-file")
			token, err := sheets.GetOrCreateToken(cmd.Context(), sheets.OAuth2Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				TokenFile:    config.ExpandPath(tokenFile),
			})
			if err != nil {
				return err
			}

			cmd.Println(cli.FormatSuccess("Authorized. Add this to the sheets section of the config:"))
			cmd.Printf("  refresh_token: %s\n", token.RefreshToken)
			return nil
		},
	}

	cmd.Flags().String("token-file", config.DefaultTokenFile, "Where to cache the OAuth2 token")

	return cmd
}
