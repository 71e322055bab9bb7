package store

import (
	"path/filepath"
	"strings"
	"sync"

	"scred/internal/domain"
)

const accountsFile = "accounts.json"

// AccountFileStore persists one account profile per directory server.
type AccountFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewAccountFileStore returns an AccountFileStore rooted at dir.
func NewAccountFileStore(dir string) *AccountFileStore {
	return &AccountFileStore{dir: dir}
}

// SaveAccountProfile stores or replaces the profile for profile.ServerURL.
func (s *AccountFileStore) SaveAccountProfile(profile domain.AccountProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.load()
	if err != nil {
		return err
	}
	profile.ServerURL = accountKey(profile.ServerURL)
	profiles[profile.ServerURL] = profile
	return s.save(profiles)
}

// LoadAccountProfile retrieves the profile saved for serverURL.
func (s *AccountFileStore) LoadAccountProfile(serverURL string) (domain.AccountProfile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.load()
	if err != nil {
		return domain.AccountProfile{}, false, err
	}
	profile, ok := profiles[accountKey(serverURL)]
	return profile, ok, nil
}

// DeleteAccountProfile forgets the profile for serverURL. Deleting a missing
// profile is not an error.
func (s *AccountFileStore) DeleteAccountProfile(serverURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.load()
	if err != nil {
		return err
	}
	key := accountKey(serverURL)
	if _, ok := profiles[key]; !ok {
		return nil
	}
	delete(profiles, key)
	return s.save(profiles)
}

func (s *AccountFileStore) load() (map[string]domain.AccountProfile, error) {
	profiles := make(map[string]domain.AccountProfile)
	if err := readJSON(filepath.Join(s.dir, accountsFile), &profiles); err != nil {
		return nil, err
	}
	if profiles == nil {
		profiles = make(map[string]domain.AccountProfile)
	}
	return profiles, nil
}

func (s *AccountFileStore) save(profiles map[string]domain.AccountProfile) error {
	return writeJSON(filepath.Join(s.dir, accountsFile), profiles, 0o600)
}

// accountKey normalises a server URL so "http://h/" and "http://h" match.
func accountKey(serverURL string) string {
	return strings.TrimRight(strings.TrimSpace(serverURL), "/")
}

// Compile-time assertion that AccountFileStore implements domain.AccountStore.
var _ domain.AccountStore = (*AccountFileStore)(nil)
