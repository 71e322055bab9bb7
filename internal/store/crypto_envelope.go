package store

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"scred/internal/util/memzero"
)

const (
	// The current supported version of the encrypted blob format.
	keystoreFormatVersion = 1
	saltSize              = 16
)

var (
	// Returned when the passphrase is incorrect or the ciphertext has been modified / corrupted.
	errWrongPassphrase = errors.New("wrong passphrase or corrupted identity")
	errNoPassphrase    = errors.New("identity store passphrase is empty")
)

// blob is the stored JSON structure holding the ciphertext and KDF parameters.
type blob struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Nonce  []byte `json:"nonce"`
	Cipher []byte `json:"cipher"`
}

// ScryptParams tunes the passphrase KDF.
type ScryptParams struct {
	N, R, P int
}

// DefaultScryptParams is what stores use unless told otherwise.
var DefaultScryptParams = ScryptParams{N: 1 << 15, R: 8, P: 1}

// envelope seals identity records under a passphrase-derived key. The
// label (the slot name) is bound as associated data so a blob cannot be
// moved to another slot.
type envelope struct {
	passphrase []byte
	params     ScryptParams
}

func newEnvelope(passphrase string, params ScryptParams) (*envelope, error) {
	if passphrase == "" {
		return nil, errNoPassphrase
	}
	return &envelope{passphrase: []byte(passphrase), params: params}, nil
}

// seal derives a key from the passphrase and seals raw into a JSON blob.
func (e *envelope) seal(label string, raw []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	aead, err := e.aead(salt, e.params)
	if err != nil {
		return nil, err
	}
	ct := aead.Seal(nil, nonce, raw, additionalData(salt, label))

	return json.Marshal(blob{
		V:      keystoreFormatVersion,
		Salt:   salt,
		N:      e.params.N,
		R:      e.params.R,
		P:      e.params.P,
		Nonce:  nonce,
		Cipher: ct,
	})
}

// open decodes the JSON blob and decrypts it with a key derived from the passphrase.
func (e *envelope) open(label string, b []byte) ([]byte, error) {
	var bl blob
	if err := json.Unmarshal(b, &bl); err != nil {
		return nil, err
	}
	if bl.V > keystoreFormatVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", bl.V)
	}
	if len(bl.Nonce) != chacha20poly1305.NonceSize {
		return nil, errWrongPassphrase
	}

	aead, err := e.aead(bl.Salt, ScryptParams{N: bl.N, R: bl.R, P: bl.P})
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, bl.Nonce, bl.Cipher, additionalData(bl.Salt, label))
	if err != nil {
		return nil, errWrongPassphrase
	}
	return pt, nil
}

func (e *envelope) aead(salt []byte, p ScryptParams) (cipher.AEAD, error) {
	key, err := scrypt.Key(e.passphrase, salt, p.N, p.R, p.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)
	return chacha20poly1305.New(key)
}

// wipe drops the passphrase from memory.
func (e *envelope) wipe() {
	memzero.Zero(e.passphrase)
}

func additionalData(salt []byte, label string) []byte {
	ad := make([]byte, 0, len(salt)+len(label))
	ad = append(ad, salt...)
	return append(ad, label...)
}
