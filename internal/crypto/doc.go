// Package crypto exposes the key primitives used by scred.
//
// Contents
//
//   - P-256 identity key generation, SPKI export and import
//     (GenerateIdentityKeyPair, ExportPublicKey, ImportPublicKey)
//   - Elliptic-curve Diffie–Hellman over the imported keys (DeriveSharedSecret)
//   - Conversion to and from the persisted identity form
//     (MarshalIdentity, UnmarshalIdentity)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// Every failure is a *domain.ProtocolError whose kind is one of
// domain.ErrKeyGeneration, domain.ErrKeyFormat or domain.ErrKeyAgreement.
// Shared secrets are returned as fixed-size arrays; callers should wipe them
// once the KDF has consumed them.
package crypto
