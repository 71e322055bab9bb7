package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func signupCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account on the directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = prompt(cmd, "Password: "); err != nil {
					return err
				}
			}
			creds, err := wire.Directory.SignUp(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			if err := wire.SaveCredentials(name, email, creds); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created. ID: %s\nRun `scred init` to create and publish your keys.\n", creds.AccountID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted if empty)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// prompt writes label and reads one line from the command's stdin.
func prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("%s required", strings.TrimSuffix(strings.ToLower(label), ": "))
	}
	return line, nil
}
