package crypto_test

import (
	"crypto/ecdh"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scred/internal/crypto"
	"scred/internal/domain"
)

func TestDeriveSharedSecret_Symmetric(t *testing.T) {
	for i := 0; i < 16; i++ {
		a := mustKeyPair(t)
		b := mustKeyPair(t)

		ab, err := crypto.DeriveSharedSecret(a.PrivateKey, b.PublicKey)
		require.NoError(t, err)
		ba, err := crypto.DeriveSharedSecret(b.PrivateKey, a.PublicKey)
		require.NoError(t, err)
		assert.Equal(t, ab, ba)
		assert.NotEqual(t, domain.SharedSecret{}, ab)
	}
}

func TestDeriveSharedSecret_DistinctPeers(t *testing.T) {
	a := mustKeyPair(t)
	b := mustKeyPair(t)
	c := mustKeyPair(t)

	ab, err := crypto.DeriveSharedSecret(a.PrivateKey, b.PublicKey)
	require.NoError(t, err)
	ac, err := crypto.DeriveSharedSecret(a.PrivateKey, c.PublicKey)
	require.NoError(t, err)
	assert.NotEqual(t, ab, ac)
}

func TestDeriveSharedSecret_MismatchedCurve(t *testing.T) {
	a := mustKeyPair(t)
	x, err := ecdh.X25519().GenerateKey(rand.Reader)
	require.NoError(t, err)

	_, err = crypto.DeriveSharedSecret(a.PrivateKey, x.PublicKey())
	assert.ErrorIs(t, err, domain.ErrKeyAgreement)
}

func TestDeriveSharedSecret_NilKeys(t *testing.T) {
	a := mustKeyPair(t)

	_, err := crypto.DeriveSharedSecret(nil, a.PublicKey)
	assert.ErrorIs(t, err, domain.ErrKeyAgreement)
	_, err = crypto.DeriveSharedSecret(a.PrivateKey, nil)
	assert.ErrorIs(t, err, domain.ErrKeyAgreement)
}
