// Package handshake derives the per-direction root keys of a scred session.
//
// # Overview
//
// Both parties compute the same ECDH P-256 shared secret from their own
// identity private key and the other party's published public key. That
// secret is the session root key. Because it is symmetric, it cannot by
// itself give the two directions of a conversation independent chains, so
// each direction root is separated with HKDF-SHA256:
//
//	root(A→B) = HKDF(secret, salt=0³², info="Scred-v1/direction" || len(A)||SPKI(A) || len(B)||SPKI(B))
//
// Alice's send root equals Bob's receive root and vice versa. The roots are
// then expanded by the kdf package into the first chain/message keys.
//
// # Security notes
//
// Only public material crosses the wire. The raw shared secret is wiped once
// both roots have been derived.
package handshake
