package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"scred/internal/domain"
)

// chat <peer>: interactive conversation over the relay. Each stdin line is
// sent as one message; /quit or EOF ends the chat.
func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <peer>",
		Short: "Chat with a peer (account id, email or name)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			peer, err := wire.FindPeer(ctx, args[0])
			if err != nil {
				return err
			}
			messages, err := wire.Messages(ctx)
			if err != nil {
				return err
			}
			conv, err := messages.OpenConversation(ctx, peer)
			if err != nil {
				return fmt.Errorf("starting chat with %q: %w", args[0], err)
			}
			defer conv.Close()

			fmt.Fprintf(out, "Chatting with %s (fingerprint %s). Type /quit to leave.\n", peer.Name, peerFingerprint(peer))

			done := make(chan struct{})
			defer close(done)
			lines := readLines(cmd.InOrStdin(), done)

			for {
				select {
				case <-ctx.Done():
					return nil
				case line, ok := <-lines:
					if !ok || strings.TrimSpace(line) == "/quit" {
						return nil
					}
					if strings.TrimSpace(line) == "" {
						continue
					}
					if err := conv.Send(ctx, line); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "send failed: %v\n", err)
					}
				case ev, ok := <-conv.Events():
					if !ok {
						fmt.Fprintln(out, "Connection closed.")
						return nil
					}
					printEvent(out, peer, ev)
				}
			}
		},
	}
}

// readLines scans r on its own goroutine. The returned channel is closed at
// EOF or once done is closed; a read already blocked in r is left to finish
// on its own.
func readLines(r io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}

func printEvent(w io.Writer, peer domain.Peer, ev domain.ConversationEvent) {
	ts := ev.At.Format("15:04:05")
	switch ev.Kind {
	case domain.EventDelivered:
		fmt.Fprintf(w, "[%s] %s: %s\n", ts, peer.Name, ev.Plaintext)
	case domain.EventSent:
		fmt.Fprintf(w, "[%s] you: %s\n", ts, ev.Plaintext)
	case domain.EventUndeliverable:
		fmt.Fprintf(w, "[%s] ! %s\n", ts, domain.Status(ev.Err))
	}
}
