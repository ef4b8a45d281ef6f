package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/espachat/internal/app"
	"github.com/vovakirdan/espachat/internal/auth"
)

// newAdminCmd manages administrator flags offline, which is how the first
// administrator gets created.
func newAdminCmd(opts *rootOptions) *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}

	adminCmd.AddCommand(newSetAdminCmd(opts, "promote", "Grant administrator rights to a registered user", true))
	adminCmd.AddCommand(newSetAdminCmd(opts, "demote", "Revoke administrator rights from a user", false))

	return adminCmd
}

func newSetAdminCmd(opts *rootOptions, use, short string, admin bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(opts)
			if err != nil {
				return err
			}

			st, err := app.OpenStore(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close()

			accounts := auth.NewService(st, cfg.Chat.GuestPrefix)
			acc, err := accounts.SetAdmin(commandContext(cmd), args[0], admin)
			if err != nil {
				return fmt.Errorf("%s %s: %w", use, args[0], err)
			}

			state := "no longer an administrator"
			if acc.IsAdmin {
				state = "now an administrator"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", acc.Name, state)
			return nil
		},
	}
}
