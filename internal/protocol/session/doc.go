// Package session is the pure session coordinator.
//
// Establish builds a Session from a local identity and a peer's published
// key. SendMessage and ReceiveMessage encrypt and decrypt one message each
// and return the replacement Session; the input Session is never modified.
// Step folds both into a single state transition over events, so the
// coordinator can be driven by any transport without touching the network.
//
// A Session is not safe for concurrent use. Own it from one goroutine.
package session
