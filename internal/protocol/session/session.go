package session

import (
	"encoding/binary"
	"fmt"

	"scred/internal/crypto"
	"scred/internal/domain"
	"scred/internal/protocol/cipher"
	"scred/internal/protocol/handshake"
	"scred/internal/protocol/kdf"
	"scred/internal/protocol/ratchet"
)

// Establish imports peerPublicKeyB64, agrees on a shared secret with local
// and seeds both ratchet directions. Establishment is all-or-nothing.
func Establish(local domain.IdentityKeyPair, peerPublicKeyB64 string) (domain.Session, error) {
	peer, err := crypto.ImportPublicKey(peerPublicKeyB64)
	if err != nil {
		return domain.Session{}, fmt.Errorf("establish session: %w", err)
	}
	return EstablishWith(local, peer)
}

// EstablishWith is Establish for an already imported peer key.
func EstablishWith(local domain.IdentityKeyPair, peer domain.PublicKeyMaterial) (domain.Session, error) {
	roots, err := handshake.DeriveRoots(local, peer)
	if err != nil {
		return domain.Session{}, fmt.Errorf("establish session: %w", err)
	}
	defer roots.Wipe()

	send, err := ratchet.Init(roots.Send)
	if err != nil {
		return domain.Session{}, fmt.Errorf("establish session: send chain: %w", err)
	}
	recv, err := ratchet.Init(roots.Recv)
	if err != nil {
		ratchet.Wipe(&send)
		return domain.Session{}, fmt.Errorf("establish session: recv chain: %w", err)
	}
	if len(peer.SPKI) == 0 {
		if peer.SPKI, err = crypto.MarshalPublicKey(peer.Key); err != nil {
			return domain.Session{}, fmt.Errorf("establish session: %w", err)
		}
	}
	return domain.Session{Local: local, Peer: peer, Send: send, Recv: recv}, nil
}

// SendMessage encrypts plaintext under the current send key and advances the
// send direction. The returned Message carries the counter it was sealed at.
func SendMessage(s domain.Session, plaintext string) (domain.Message, domain.Session, error) {
	if !s.Established() {
		return domain.Message{}, s, domain.NewProtocolError(domain.ErrSessionNotEstablished, "send message", nil)
	}

	// Refuse before sealing so an exhausted message key is never reused.
	if err := ratchet.CheckAdvance(s.Send); err != nil {
		return domain.Message{}, s, err
	}
	n := s.Send.MessageCount
	payload, err := cipher.Seal(s.Send.MessageKey, plaintext, AssociatedData(n))
	if err != nil {
		return domain.Message{}, s, err
	}
	next, err := ratchet.Advance(s.Send)
	if err != nil {
		return domain.Message{}, s, err
	}

	out := s
	out.Send = next
	return domain.Message{N: n, EncryptedPayload: payload}, out, nil
}

// ReceiveMessage decrypts msg with the current receive key. A counter that is
// not the next expected one fails with domain.ErrMessageOutOfOrder; a
// payload that does not authenticate fails with domain.ErrAuthentication. In
// both cases s is returned unchanged.
func ReceiveMessage(s domain.Session, msg domain.Message) (string, domain.Session, error) {
	const op = "receive message"

	if !s.Established() {
		return "", s, domain.NewProtocolError(domain.ErrSessionNotEstablished, op, nil)
	}
	if msg.N != s.Recv.MessageCount {
		return "", s, domain.NewProtocolError(domain.ErrMessageOutOfOrder, op,
			fmt.Errorf("got n=%d, want n=%d", msg.N, s.Recv.MessageCount))
	}

	plaintext, err := cipher.Open(s.Recv.MessageKey, msg.IV, msg.Ciphertext, AssociatedData(msg.N))
	if err != nil {
		return "", s, err
	}
	next, err := ratchet.Advance(s.Recv)
	if err != nil {
		return "", s, err
	}

	out := s
	out.Recv = next
	return plaintext, out, nil
}

// AssociatedData is the AEAD additional data for message n.
func AssociatedData(n uint32) []byte {
	ad := make([]byte, 0, len(kdf.Info)+4)
	ad = append(ad, kdf.Info...)
	return binary.BigEndian.AppendUint32(ad, n)
}
