package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/stall-keeper/internal/cli"
	"github.com/Veraticus/stall-keeper/internal/common"
	"github.com/Veraticus/stall-keeper/internal/config"
	"github.com/Veraticus/stall-keeper/internal/csfloat"
	"github.com/Veraticus/stall-keeper/internal/inventory"
	"github.com/Veraticus/stall-keeper/internal/refdata"
	"github.com/Veraticus/stall-keeper/internal/service"
	"github.com/Veraticus/stall-keeper/internal/storage"
)

// newMarketplace builds the client for one API key. Tests replace it.
var newMarketplace = func(apiKey string, settings config.Settings) service.Marketplace {
	return csfloat.NewClient(apiKey,
		csfloat.WithBaseURL(settings.BaseURL),
		csfloat.WithWriteInterval(settings.WriteInterval))
}

// initStorage opens the database and brings its schema up to date.
func initStorage(ctx context.Context, settings config.Settings) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(settings.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func loadTables(settings config.Settings) *refdata.Tables {
	return refdata.Load(settings.SkinsPath, settings.StickersPath)
}

// loadAccounts creates one marketplace client per configured key.
func loadAccounts(settings config.Settings) ([]service.Account, error) {
	configured, err := config.LoadAccounts(viper.GetViper())
	if err != nil {
		if errors.Is(err, common.ErrNoAccounts) {
			return nil, common.NewUserError("No API keys configured. Add api_keys or accounts to the config file.", err)
		}
		return nil, err
	}

	accounts := make([]service.Account, 0, len(configured))
	for _, acct := range configured {
		accounts = append(accounts, service.Account{
			Name:   acct.Label(),
			Client: newMarketplace(acct.APIKey, settings),
		})
	}
	return accounts, nil
}

// filterAccounts keeps the account named by the --account flag, if given.
func filterAccounts(accounts []service.Account, name string) ([]service.Account, error) {
	if name == "" {
		return accounts, nil
	}
	for _, a := range accounts {
		if a.Name == name {
			return []service.Account{a}, nil
		}
	}
	return nil, fmt.Errorf("no account named %q", name)
}

// loadInventory fetches the merged inventory view and reports accounts that
// failed without aborting.
func loadInventory(cmd *cobra.Command, accounts []service.Account) []inventory.Row {
	result := inventory.Load(cmd.Context(), accounts)
	reportAccountErrors(cmd, result.Errors)
	return result.Rows
}

func reportAccountErrors(cmd *cobra.Command, errs []error) {
	for _, err := range errs {
		cmd.PrintErrln(cli.FormatWarning(err.Error()))
	}
}

func newPrompter(cmd *cobra.Command) *cli.Prompter {
	return cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
}

// confirm asks before a write unless --yes was given.
func confirm(cmd *cobra.Command, summary string) (bool, error) {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		cmd.Println(summary)
		return true, nil
	}
	return newPrompter(cmd).Confirm(cmd.Context(), summary, "Continue?")
}

func joinIDs(ids []string) string {
	return strings.Join(ids, ", ")
}

// inputError reports bad user input without the wrapped error chain.
func inputError(err error) error {
	return common.NewUserError(err.Error(), err)
}
