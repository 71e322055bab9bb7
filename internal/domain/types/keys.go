package types

import "crypto/ecdh"

// IdentityKeyPair is the long-term P-256 key-agreement pair of a device.
// The private half never leaves the device.
type IdentityKeyPair struct {
	PrivateKey *ecdh.PrivateKey
	PublicKey  *ecdh.PublicKey
}

// Valid reports whether both halves are present.
func (kp IdentityKeyPair) Valid() bool {
	return kp.PrivateKey != nil && kp.PublicKey != nil
}

// PublicKeyMaterial is a peer public key imported from its Base64 SPKI form.
type PublicKeyMaterial struct {
	Key *ecdh.PublicKey
	// SPKI is the DER encoding the key was imported from.
	SPKI []byte
}

// SharedSecret is the raw 256-bit ECDH output. It is only ever fed to the KDF.
type SharedSecret [32]byte

// Slice returns the secret as a []byte.
func (s *SharedSecret) Slice() []byte { return s[:] }

// RootKey seeds one ratchet chain.
type RootKey [32]byte

// Slice returns the key as a []byte.
func (k *RootKey) Slice() []byte { return k[:] }

// ChainKey is the ratchet's internal KDF input.
type ChainKey [32]byte

// Slice returns the key as a []byte.
func (k *ChainKey) Slice() []byte { return k[:] }

// MessageKey is a single-use AES-256-GCM key.
type MessageKey [32]byte

// Slice returns the key as a []byte.
func (k *MessageKey) Slice() []byte { return k[:] }
