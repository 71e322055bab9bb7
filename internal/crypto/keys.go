package crypto

import (
	"bytes"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"time"

	"scred/internal/domain"
)

// CurveName is recorded alongside persisted identity keys.
const CurveName = "P-256"

var (
	errWrongCurve  = errors.New("key is not on P-256")
	errNilKey      = errors.New("nil key")
	errKeyMismatch = errors.New("public key does not match private key")
)

// Curve returns the agreed key-agreement curve.
func Curve() ecdh.Curve { return ecdh.P256() }

// GenerateIdentityKeyPair returns a fresh P-256 key-agreement pair.
func GenerateIdentityKeyPair() (domain.IdentityKeyPair, error) {
	return generateFrom(rand.Reader)
}

func generateFrom(r io.Reader) (domain.IdentityKeyPair, error) {
	priv, err := Curve().GenerateKey(r)
	if err != nil {
		return domain.IdentityKeyPair{}, domain.NewProtocolError(
			domain.ErrKeyGeneration, "generate identity key pair", err)
	}
	return domain.IdentityKeyPair{PrivateKey: priv, PublicKey: priv.PublicKey()}, nil
}

// ExportPublicKey encodes pub as Base64 SPKI. The output is deterministic.
func ExportPublicKey(pub *ecdh.PublicKey) (string, error) {
	der, err := MarshalPublicKey(pub)
	if err != nil {
		return "", err
	}
	return B64(der), nil
}

// MarshalPublicKey returns the DER SPKI encoding of pub.
func MarshalPublicKey(pub *ecdh.PublicKey) ([]byte, error) {
	if pub == nil {
		return nil, domain.NewProtocolError(domain.ErrKeyFormat, "export public key", errNilKey)
	}
	if pub.Curve() != Curve() {
		return nil, domain.NewProtocolError(domain.ErrKeyFormat, "export public key", errWrongCurve)
	}
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, domain.NewProtocolError(domain.ErrKeyFormat, "export public key", err)
	}
	return der, nil
}

// ImportPublicKey is the inverse of ExportPublicKey. It fails with
// domain.ErrKeyFormat when the encoding is malformed or the key is not P-256.
func ImportPublicKey(encoded string) (domain.PublicKeyMaterial, error) {
	const op = "import public key"

	der, err := B64Decode(encoded)
	if err != nil {
		return domain.PublicKeyMaterial{}, domain.NewProtocolError(domain.ErrKeyFormat, op, err)
	}
	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return domain.PublicKeyMaterial{}, domain.NewProtocolError(domain.ErrKeyFormat, op, err)
	}

	var pub *ecdh.PublicKey
	switch k := parsed.(type) {
	case *ecdsa.PublicKey:
		if k.Curve != elliptic.P256() {
			return domain.PublicKeyMaterial{}, domain.NewProtocolError(domain.ErrKeyFormat, op, errWrongCurve)
		}
		if pub, err = k.ECDH(); err != nil {
			return domain.PublicKeyMaterial{}, domain.NewProtocolError(domain.ErrKeyFormat, op, err)
		}
	case *ecdh.PublicKey:
		if k.Curve() != Curve() {
			return domain.PublicKeyMaterial{}, domain.NewProtocolError(domain.ErrKeyFormat, op, errWrongCurve)
		}
		pub = k
	default:
		return domain.PublicKeyMaterial{}, domain.NewProtocolError(
			domain.ErrKeyFormat, op, fmt.Errorf("unsupported key type %T", parsed))
	}
	return domain.PublicKeyMaterial{Key: pub, SPKI: der}, nil
}

// MaterialFromPublicKey wraps a local public key the same way ImportPublicKey does.
func MaterialFromPublicKey(pub *ecdh.PublicKey) (domain.PublicKeyMaterial, error) {
	der, err := MarshalPublicKey(pub)
	if err != nil {
		return domain.PublicKeyMaterial{}, err
	}
	return domain.PublicKeyMaterial{Key: pub, SPKI: der}, nil
}

// MarshalIdentity converts kp into its persisted form.
func MarshalIdentity(kp domain.IdentityKeyPair) (domain.IdentityRecord, error) {
	if !kp.Valid() {
		return domain.IdentityRecord{}, domain.NewProtocolError(domain.ErrKeyFormat, "marshal identity", errNilKey)
	}
	return domain.IdentityRecord{
		Curve:      CurveName,
		Private:    kp.PrivateKey.Bytes(),
		Public:     kp.PublicKey.Bytes(),
		CreatedUTC: time.Now().Unix(),
	}, nil
}

// UnmarshalIdentity rebuilds a key pair from its persisted form and checks
// that the stored public half belongs to the private half.
func UnmarshalIdentity(rec domain.IdentityRecord) (domain.IdentityKeyPair, error) {
	const op = "unmarshal identity"

	if rec.Curve != CurveName {
		return domain.IdentityKeyPair{}, domain.NewProtocolError(domain.ErrKeyFormat, op, errWrongCurve)
	}
	priv, err := Curve().NewPrivateKey(rec.Private)
	if err != nil {
		return domain.IdentityKeyPair{}, domain.NewProtocolError(domain.ErrKeyFormat, op, err)
	}
	pub := priv.PublicKey()
	if len(rec.Public) > 0 && !bytes.Equal(pub.Bytes(), rec.Public) {
		return domain.IdentityKeyPair{}, domain.NewProtocolError(domain.ErrKeyFormat, op, errKeyMismatch)
	}
	return domain.IdentityKeyPair{PrivateKey: priv, PublicKey: pub}, nil
}
