// Package ratchet implements the symmetric key ratchet of a scred session.
//
// A RatchetState holds a chain key, the message key for the next message and
// the number of messages already processed in its direction. Advancing feeds
// the chain key back through the KDF, so every message key is used once and
// earlier keys cannot be recomputed from later state.
//
// Functions here take and return RatchetState values; nothing is mutated in
// place. Callers that share a state across goroutines must serialise access.
package ratchet
