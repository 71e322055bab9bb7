// Package store provides local persistence for scred clients.
//
// Identity key pairs are sealed with a passphrase-derived key (scrypt +
// ChaCha20-Poly1305) and kept either as one file per slot
// (IdentityFileStore) or in a badger database (BadgerIdentityStore). Both
// are opened once per process and must be closed on shutdown.
//
// Account profiles and pinned peer keys are plain JSON files. All methods
// are safe for concurrent use.
package store
