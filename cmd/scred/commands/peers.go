package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"scred/internal/crypto"
	"scred/internal/domain"
)

func peersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "peers",
		Short: "List directory accounts you can chat with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := wire.Profile(); err != nil {
				return err
			}
			peers, err := wire.Directory.ListPeers(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tONLINE\tFINGERPRINT")
			for _, p := range peers {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", p.ID, p.Name, p.Email, p.IsOnline, peerFingerprint(p))
			}
			return tw.Flush()
		},
	}
}

func peerFingerprint(p domain.Peer) domain.Fingerprint {
	spki, err := crypto.B64Decode(p.PublicKey)
	if err != nil || len(spki) == 0 {
		return "-"
	}
	return crypto.Fingerprint(spki)
}
