// Package identity manages the device identity key pair.
//
// EnsureIdentity loads the key pair for a slot or, on first use, generates
// one, stores it and publishes its public half to the directory.
package identity
