// Package session establishes sessions with directory peers.
//
// It loads the device identity from the store, checks the peer's published
// key against the key pinned on first contact, and hands both to the pure
// coordinator in protocol/session. Sessions are not persisted.
package session
