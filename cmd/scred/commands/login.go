package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// login: exchange email and password for a token and save the profile.
func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = prompt(cmd, "Password: "); err != nil {
					return err
				}
			}
			creds, err := wire.Directory.LogIn(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			name := ""
			if prev, err := wire.Profile(); err == nil && prev.AccountID == creds.AccountID {
				name = prev.Name
			}
			if err := wire.SaveCredentials(name, email, creds); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", creds.AccountID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted if empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
