package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/stall-keeper/internal/cli"
	"github.com/Veraticus/stall-keeper/internal/config"
	"github.com/Veraticus/stall-keeper/internal/pricing"
)

func accountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "account",
		Short: "Show the user behind each configured API key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings := config.LoadSettings(viper.GetViper())
			accounts, err := loadAccounts(settings)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(accounts))
			for _, a := range accounts {
				user, err := a.Client.GetUser(cmd.Context())
				if err != nil {
					cmd.PrintErrln(cli.FormatError(a.Name + ": " + err.Error()))
					continue
				}
				rows = append(rows, []string{
					a.Name,
					user.Username,
					user.SteamID,
					pricing.FormatCents(user.Balance),
					pricing.FormatCents(user.Pending),
				})
			}

			return cli.WriteTable(cmd.OutOrStdout(), []string{"Account", "User", "Steam ID", "Balance", "Pending"}, rows)
		},
	}
}
