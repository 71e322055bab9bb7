package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// trustCmd re-pins a peer whose directory key no longer matches the one seen
// on first contact.
func trustCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trust <peer>",
		Short: "Accept a peer's current public key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			peer, err := wire.FindPeer(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			sessions, err := wire.Sessions()
			if err != nil {
				return err
			}
			if err := sessions.TrustPeerKey(peer); err != nil {
				return fmt.Errorf("trusting %q: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Now trusting %s (%s), fingerprint %s\n", peer.Name, peer.ID, peerFingerprint(peer))
			return nil
		},
	}
}
