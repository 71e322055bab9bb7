package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"scred/internal/crypto"
	"scred/internal/domain"
	"scred/internal/util/memzero"
)

var slotPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// IdentityFileStore persists identity key pairs to disk, one encrypted file
// per slot.
type IdentityFileStore struct {
	dir string
	env *envelope
	mu  sync.Mutex
}

// NewIdentityFileStore returns an IdentityFileStore rooted at dir whose
// files are sealed under passphrase.
func NewIdentityFileStore(dir, passphrase string, opts ...Option) (*IdentityFileStore, error) {
	o := applyOptions(opts)
	env, err := newEnvelope(passphrase, o.scrypt)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create identity dir: %w", err)
	}
	return &IdentityFileStore{dir: dir, env: env}, nil
}

// Put encrypts keyPair and writes it under name.
func (s *IdentityFileStore) Put(name domain.SlotName, keyPair domain.IdentityKeyPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.path(name)
	if err != nil {
		return err
	}
	ct, err := sealIdentity(s.env, name, keyPair)
	if err != nil {
		return err
	}
	return writeFile(path, ct, 0o600)
}

// Get reads and decrypts the key pair stored under name.
func (s *IdentityFileStore) Get(name domain.SlotName) (domain.IdentityKeyPair, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.path(name)
	if err != nil {
		return domain.IdentityKeyPair{}, false, err
	}
	b, err := readFile(path)
	if err != nil || b == nil {
		return domain.IdentityKeyPair{}, false, err
	}
	kp, err := openIdentity(s.env, name, b)
	if err != nil {
		return domain.IdentityKeyPair{}, false, err
	}
	return kp, true, nil
}

// Close wipes the cached passphrase.
func (s *IdentityFileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.env.wipe()
	return nil
}

func (s *IdentityFileStore) path(name domain.SlotName) (string, error) {
	if err := checkSlot(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, "identity-"+name.String()+".json.enc"), nil
}

// checkSlot applies the same slot naming rule to every backend.
func checkSlot(name domain.SlotName) error {
	if !slotPattern.MatchString(name.String()) {
		return fmt.Errorf("invalid identity slot %q", name)
	}
	return nil
}

func sealIdentity(env *envelope, name domain.SlotName, kp domain.IdentityKeyPair) ([]byte, error) {
	rec, err := crypto.MarshalIdentity(kp)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(raw)
	return env.seal(name.String(), raw)
}

func openIdentity(env *envelope, name domain.SlotName, b []byte) (domain.IdentityKeyPair, error) {
	pt, err := env.open(name.String(), b)
	if err != nil {
		return domain.IdentityKeyPair{}, fmt.Errorf("open identity %q: %w", name, err)
	}
	defer memzero.Zero(pt)

	var rec domain.IdentityRecord
	if err := json.Unmarshal(pt, &rec); err != nil {
		return domain.IdentityKeyPair{}, fmt.Errorf("decode identity %q: %w", name, err)
	}
	return crypto.UnmarshalIdentity(rec)
}

// Compile-time assertion that IdentityFileStore implements domain.IdentityStore.
var _ domain.IdentityStore = (*IdentityFileStore)(nil)
