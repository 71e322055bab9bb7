// Package cipher seals and opens scred messages with AES-256-GCM.
//
// IVs are 12 random bytes drawn per encryption. IV and ciphertext (with the
// 16-byte tag appended) travel Base64-encoded.
package cipher

import (
	"crypto/aes"
	gocipher "crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"scred/internal/crypto"
	"scred/internal/domain"
)

// IVSize is the GCM nonce length in bytes.
const IVSize = 12

var (
	errBadIV    = errors.New("iv must be 12 bytes")
	errBadInput = errors.New("malformed base64")
)

// EncryptMessage encrypts plaintext under key with a fresh random IV.
func EncryptMessage(key domain.MessageKey, plaintext string) (domain.EncryptedPayload, error) {
	return Seal(key, plaintext, nil)
}

// DecryptMessage reverses EncryptMessage. Any failure to authenticate is
// reported as domain.ErrAuthentication.
func DecryptMessage(key domain.MessageKey, iv, ciphertext string) (string, error) {
	return Open(key, iv, ciphertext, nil)
}

// Seal is EncryptMessage with additional authenticated data.
func Seal(key domain.MessageKey, plaintext string, ad []byte) (domain.EncryptedPayload, error) {
	aead, err := newGCM(key)
	if err != nil {
		return domain.EncryptedPayload{}, fmt.Errorf("encrypt message: %w", err)
	}
	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return domain.EncryptedPayload{}, fmt.Errorf("encrypt message: iv: %w", err)
	}
	ct := aead.Seal(nil, iv, []byte(plaintext), ad)
	return domain.EncryptedPayload{
		IV:         crypto.B64(iv),
		Ciphertext: crypto.B64(ct),
	}, nil
}

// Open is DecryptMessage with additional authenticated data.
func Open(key domain.MessageKey, iv, ciphertext string, ad []byte) (string, error) {
	const op = "decrypt message"

	nonce, err := crypto.B64Decode(iv)
	if err != nil {
		return "", domain.NewProtocolError(domain.ErrAuthentication, op, errBadInput)
	}
	if len(nonce) != IVSize {
		return "", domain.NewProtocolError(domain.ErrAuthentication, op, errBadIV)
	}
	ct, err := crypto.B64Decode(ciphertext)
	if err != nil {
		return "", domain.NewProtocolError(domain.ErrAuthentication, op, errBadInput)
	}

	aead, err := newGCM(key)
	if err != nil {
		return "", domain.NewProtocolError(domain.ErrAuthentication, op, err)
	}
	pt, err := aead.Open(nil, nonce, ct, ad)
	if err != nil {
		return "", domain.NewProtocolError(domain.ErrAuthentication, op, err)
	}
	return string(pt), nil
}

func newGCM(key domain.MessageKey) (gocipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return gocipher.NewGCM(block)
}
