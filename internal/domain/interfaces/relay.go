package interfaces

import (
	"context"

	domaintypes "scred/internal/domain/types"
)

// DirectoryClient talks to the public-key directory, all with context.
type DirectoryClient interface {
	SignUp(ctx context.Context, name, email, password string) (domaintypes.Credentials, error)
	LogIn(ctx context.Context, email, password string) (domaintypes.Credentials, error)
	PublishPublicKey(ctx context.Context, publicKeyB64 string) error
	ListPeers(ctx context.Context) ([]domaintypes.Peer, error)
}

// Transport relays opaque ratchet messages between the members of a room.
// Inbound frames arrive on a single channel that is closed when the
// transport shuts down.
type Transport interface {
	Join(ctx context.Context, room domaintypes.RoomID) error
	Send(ctx context.Context, room domaintypes.RoomID, msg domaintypes.Message) error
	Inbound() <-chan domaintypes.Frame
	Close() error
}
