// Package kdf implements the root-to-chain key derivation of the scred ratchet.
package kdf

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"scred/internal/domain"
	"scred/internal/util/memzero"
)

const (
	// Info is the application-specific HKDF info string.
	Info = "Scred-v1"

	inputSize  = 32
	outputSize = 64
)

// Salt is the pre-agreed HKDF salt: 32 zero bytes.
var Salt = make([]byte, sha256.Size)

// DeriveKeysFromRoot expands a 32-byte root (or chain) key into the next
// chain key and a message key. Identical input always yields identical output.
func DeriveKeysFromRoot(root []byte) (domain.ChainKey, domain.MessageKey, error) {
	const op = "derive keys from root"

	var (
		ck domain.ChainKey
		mk domain.MessageKey
	)
	if len(root) != inputSize {
		return ck, mk, domain.NewProtocolError(domain.ErrKeyDerivation, op,
			fmt.Errorf("want %d-byte input key, got %d", inputSize, len(root)))
	}
	okm, err := Expand(root, Salt, []byte(Info), outputSize)
	if err != nil {
		return ck, mk, domain.NewProtocolError(domain.ErrKeyDerivation, op, err)
	}
	copy(ck[:], okm[:inputSize])
	copy(mk[:], okm[inputSize:])
	memzero.Zero(okm)
	return ck, mk, nil
}

// Expand runs HKDF-SHA256 and returns size bytes of output key material.
func Expand(ikm, salt, info []byte, size int) ([]byte, error) {
	r := hkdf.New(sha256.New, ikm, salt, info)
	out := make([]byte, size)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}
