package interfaces

import domaintypes "scred/internal/domain/types"

// IdentityStore persists identity key pairs by slot name. It is opened once
// per process and closed on shutdown.
type IdentityStore interface {
	Get(name domaintypes.SlotName) (domaintypes.IdentityKeyPair, bool, error)
	Put(name domaintypes.SlotName, keyPair domaintypes.IdentityKeyPair) error
	Close() error
}

// KnownPeerStore pins the first public key seen for each peer account.
type KnownPeerStore interface {
	LoadPeerKey(peer domaintypes.AccountID) (string, bool, error)
	PinPeerKey(peer domaintypes.AccountID, publicKeyB64 string) error
}
