package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	var republish bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate identity keys, store them securely and publish the public key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := wire.Identity()
			if err != nil {
				return err
			}
			_, fp, status, err := ids.EnsureIdentity(cmd.Context(), wire.Slot())
			if err != nil {
				return err
			}
			if republish {
				if status, err = ids.Publish(cmd.Context(), wire.Slot()); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\nFingerprint: %s\n", status, fp)
			return nil
		},
	}
	cmd.Flags().BoolVar(&republish, "republish", false, "send an existing public key to the directory again")
	return cmd
}
