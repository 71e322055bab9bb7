package types

// RatchetState is one direction of a symmetric ratchet. It is a value:
// advancing produces a new state and never mutates the old one.
type RatchetState struct {
	ChainKey     ChainKey
	MessageKey   MessageKey
	MessageCount uint32
}
