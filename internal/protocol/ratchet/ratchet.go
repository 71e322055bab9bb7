package ratchet

import (
	"errors"
	"math"

	"scred/internal/domain"
	"scred/internal/protocol/kdf"
	"scred/internal/util/memzero"
)

var errChainExhausted = errors.New("ratchet chain exhausted")

// Init seeds a ratchet direction from its root key. The returned state has
// MessageCount 0 and holds the key for the first message.
func Init(root domain.RootKey) (domain.RatchetState, error) {
	ck, mk, err := kdf.DeriveKeysFromRoot(root[:])
	if err != nil {
		return domain.RatchetState{}, err
	}
	return domain.RatchetState{ChainKey: ck, MessageKey: mk}, nil
}

// CheckAdvance fails with domain.ErrKeyDerivation when st is the last state
// of its chain. The counter is 32 bits on the wire, so a chain ends at
// math.MaxUint32.
func CheckAdvance(st domain.RatchetState) error {
	if st.MessageCount == math.MaxUint32 {
		return domain.NewProtocolError(domain.ErrKeyDerivation, "advance ratchet", errChainExhausted)
	}
	return nil
}

// Advance derives the state for the next message. st is left untouched.
func Advance(st domain.RatchetState) (domain.RatchetState, error) {
	if err := CheckAdvance(st); err != nil {
		return st, err
	}
	ck, mk, err := kdf.DeriveKeysFromRoot(st.ChainKey[:])
	if err != nil {
		return st, err
	}
	return domain.RatchetState{
		ChainKey:     ck,
		MessageKey:   mk,
		MessageCount: st.MessageCount + 1,
	}, nil
}

// Wipe zeroes the key material held by st.
func Wipe(st *domain.RatchetState) {
	memzero.ZeroAll(st.ChainKey.Slice(), st.MessageKey.Slice())
}
