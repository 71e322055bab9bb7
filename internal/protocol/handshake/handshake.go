package handshake

import (
	"encoding/binary"
	"fmt"

	"scred/internal/crypto"
	"scred/internal/domain"
	"scred/internal/protocol/kdf"
	"scred/internal/util/memzero"
)

const directionInfo = "Scred-v1/direction"

// Roots holds the two directional root keys of a session, from the local
// party's point of view.
type Roots struct {
	Send domain.RootKey
	Recv domain.RootKey
}

// Wipe zeroes both roots.
func (r *Roots) Wipe() {
	memzero.ZeroAll(r.Send.Slice(), r.Recv.Slice())
}

// DeriveRoots agrees on a shared secret with peer and splits it into the
// send and receive roots for local.
func DeriveRoots(local domain.IdentityKeyPair, peer domain.PublicKeyMaterial) (Roots, error) {
	if !local.Valid() {
		return Roots{}, domain.NewProtocolError(domain.ErrKeyAgreement, "derive roots",
			fmt.Errorf("local identity is incomplete"))
	}
	if peer.Key == nil {
		return Roots{}, domain.NewProtocolError(domain.ErrKeyAgreement, "derive roots",
			fmt.Errorf("peer public key is missing"))
	}
	if peer.Key.Curve() != crypto.Curve() || local.PublicKey.Curve() != crypto.Curve() {
		return Roots{}, domain.NewProtocolError(domain.ErrKeyAgreement, "derive roots",
			fmt.Errorf("keys are not both on P-256"))
	}

	localSPKI, err := crypto.MarshalPublicKey(local.PublicKey)
	if err != nil {
		return Roots{}, err
	}
	// Re-encode the peer key so both sides hash the same canonical bytes.
	peerSPKI, err := crypto.MarshalPublicKey(peer.Key)
	if err != nil {
		return Roots{}, err
	}

	secret, err := crypto.DeriveSharedSecret(local.PrivateKey, peer.Key)
	if err != nil {
		return Roots{}, err
	}
	root := domain.RootKey(secret)
	defer memzero.ZeroAll(secret.Slice(), root.Slice())

	send, err := directionRoot(root, localSPKI, peerSPKI)
	if err != nil {
		return Roots{}, err
	}
	recv, err := directionRoot(root, peerSPKI, localSPKI)
	if err != nil {
		return Roots{}, err
	}
	return Roots{Send: send, Recv: recv}, nil
}

// directionRoot derives the root for messages travelling from → to.
func directionRoot(root domain.RootKey, from, to []byte) (domain.RootKey, error) {
	var out domain.RootKey

	info := make([]byte, 0, len(directionInfo)+4+len(from)+len(to))
	info = append(info, directionInfo...)
	info = binary.BigEndian.AppendUint16(info, uint16(len(from)))
	info = append(info, from...)
	info = binary.BigEndian.AppendUint16(info, uint16(len(to)))
	info = append(info, to...)

	okm, err := kdf.Expand(root[:], kdf.Salt, info, len(out))
	if err != nil {
		return out, domain.NewProtocolError(domain.ErrKeyDerivation, "derive direction root", err)
	}
	copy(out[:], okm)
	memzero.Zero(okm)
	return out, nil
}
