package interfaces

import (
	"context"

	domaintypes "scred/internal/domain/types"
)

// IdentityService creates, publishes and inspects the device identity.
type IdentityService interface {
	EnsureIdentity(ctx context.Context, slot domaintypes.SlotName) (
		domaintypes.IdentityKeyPair,
		domaintypes.Fingerprint,
		string,
		error,
	)
	FingerprintIdentity(slot domaintypes.SlotName) (domaintypes.Fingerprint, error)
}

// SessionService establishes sessions with directory peers.
type SessionService interface {
	EstablishSession(ctx context.Context, peer domaintypes.Peer) (domaintypes.Session, error)
}

// Conversation is a running, transport-bound session with one peer.
type Conversation interface {
	Send(ctx context.Context, plaintext string) error
	Events() <-chan domaintypes.ConversationEvent
	Close() error
}

// MessageService opens conversations with peers.
type MessageService interface {
	OpenConversation(ctx context.Context, peer domaintypes.Peer) (Conversation, error)
}
