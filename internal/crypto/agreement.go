package crypto

import (
	"crypto/ecdh"
	"fmt"

	"scred/internal/domain"
	"scred/internal/util/memzero"
)

// DeriveSharedSecret runs ECDH between the local private key and a peer
// public key. DeriveSharedSecret(a.priv, b.pub) == DeriveSharedSecret(b.priv, a.pub).
func DeriveSharedSecret(priv *ecdh.PrivateKey, peer *ecdh.PublicKey) (domain.SharedSecret, error) {
	const op = "derive shared secret"

	var out domain.SharedSecret
	if priv == nil || peer == nil {
		return out, domain.NewProtocolError(domain.ErrKeyAgreement, op, errNilKey)
	}
	raw, err := priv.ECDH(peer)
	if err != nil {
		return out, domain.NewProtocolError(domain.ErrKeyAgreement, op, err)
	}
	defer memzero.Zero(raw)
	if len(raw) != len(out) {
		return out, domain.NewProtocolError(domain.ErrKeyAgreement, op,
			fmt.Errorf("want %d-byte secret, got %d", len(out), len(raw)))
	}
	copy(out[:], raw)
	return out, nil
}
