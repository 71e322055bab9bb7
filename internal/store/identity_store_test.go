package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scred/internal/crypto"
	"scred/internal/domain"
	"scred/internal/store"
)

var fastKDF = store.WithScryptParams(store.ScryptParams{N: 1 << 10, R: 8, P: 1})

type opener func(t *testing.T, dir, pass string) (domain.IdentityStore, error)

var backends = map[string]opener{
	"file": func(t *testing.T, dir, pass string) (domain.IdentityStore, error) {
		return store.NewIdentityFileStore(dir, pass, fastKDF)
	},
	"badger": func(t *testing.T, dir, pass string) (domain.IdentityStore, error) {
		return store.OpenBadgerIdentityStore(filepath.Join(dir, "badger"), pass, fastKDF)
	},
}

func newKeyPair(t *testing.T) domain.IdentityKeyPair {
	t.Helper()
	kp, err := crypto.GenerateIdentityKeyPair()
	require.NoError(t, err)
	return kp
}

func TestIdentity_PutGet(t *testing.T) {
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			s, err := open(t, t.TempDir(), "pass")
			require.NoError(t, err)
			defer s.Close()

			_, ok, err := s.Get(domain.DefaultSlot)
			require.NoError(t, err)
			assert.False(t, ok, "empty store returned an identity")

			kp := newKeyPair(t)
			require.NoError(t, s.Put(domain.DefaultSlot, kp))

			got, ok, err := s.Get(domain.DefaultSlot)
			require.NoError(t, err)
			require.True(t, ok)
			assert.True(t, kp.PrivateKey.Equal(got.PrivateKey))
			assert.True(t, kp.PublicKey.Equal(got.PublicKey))
		})
	}
}

func TestIdentity_SurvivesReopen(t *testing.T) {
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			kp := newKeyPair(t)

			s, err := open(t, dir, "pass")
			require.NoError(t, err)
			require.NoError(t, s.Put("work", kp))
			require.NoError(t, s.Close())

			s, err = open(t, dir, "pass")
			require.NoError(t, err)
			defer s.Close()

			got, ok, err := s.Get("work")
			require.NoError(t, err)
			require.True(t, ok)
			assert.True(t, kp.PublicKey.Equal(got.PublicKey))

			_, ok, err = s.Get(domain.DefaultSlot)
			require.NoError(t, err)
			assert.False(t, ok, "slots must be independent")
		})
	}
}

func TestIdentity_WrongPassphrase_Fails(t *testing.T) {
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()

			s, err := open(t, dir, "correct")
			require.NoError(t, err)
			require.NoError(t, s.Put(domain.DefaultSlot, newKeyPair(t)))
			require.NoError(t, s.Close())

			s, err = open(t, dir, "wrong")
			require.NoError(t, err)
			defer s.Close()

			_, _, err = s.Get(domain.DefaultSlot)
			assert.Error(t, err)
		})
	}
}

func TestIdentity_EmptyPassphraseRejected(t *testing.T) {
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			_, err := open(t, t.TempDir(), "")
			assert.Error(t, err)
		})
	}
}

func TestIdentityFile_BlobBoundToSlot(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewIdentityFileStore(dir, "pass", fastKDF)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put("a", newKeyPair(t)))

	// Move a's file into b's place.
	b, err := os.ReadFile(filepath.Join(dir, "identity-a.json.enc"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "identity-b.json.enc"), b, 0o600))

	_, _, err = s.Get("b")
	assert.Error(t, err)
}

func TestIdentity_RejectsBadSlot(t *testing.T) {
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			s, err := open(t, t.TempDir(), "pass")
			require.NoError(t, err)
			defer s.Close()

			for _, slot := range []domain.SlotName{"", "../escape", "a/b", "sp ace", "identity:x"} {
				assert.Error(t, s.Put(slot, newKeyPair(t)), "put slot %q", slot)
				_, _, err := s.Get(slot)
				assert.Error(t, err, "get slot %q", slot)
			}
			require.NoError(t, s.Put("work.2", newKeyPair(t)))
		})
	}
}

func TestIdentityFile_FileMode(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewIdentityFileStore(dir, "pass", fastKDF)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Put(domain.DefaultSlot, newKeyPair(t)))

	fi, err := os.Stat(filepath.Join(dir, "identity-identityKey.json.enc"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}

func TestBadger_InMemory(t *testing.T) {
	s, err := store.OpenBadgerIdentityStore("", "pass", fastKDF)
	require.NoError(t, err)
	defer s.Close()

	kp := newKeyPair(t)
	require.NoError(t, s.Put(domain.DefaultSlot, kp))
	got, ok, err := s.Get(domain.DefaultSlot)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, kp.PublicKey.Equal(got.PublicKey))
}
