package store

import (
	"path/filepath"
	"sync"

	"scred/internal/domain"
)

const knownPeersFilename = "known_peers.json"

// KnownPeerFileStore records the first public key seen for each peer.
type KnownPeerFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewKnownPeerFileStore returns a KnownPeerFileStore rooted at dir.
func NewKnownPeerFileStore(dir string) *KnownPeerFileStore {
	return &KnownPeerFileStore{dir: dir}
}

// PinPeerKey records publicKeyB64 as the trusted key for peer, replacing any
// previous pin.
func (s *KnownPeerFileStore) PinPeerKey(peer domain.AccountID, publicKeyB64 string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, knownPeersFilename)
	peers, err := s.load(path)
	if err != nil {
		return err
	}
	peers[peer] = publicKeyB64
	return writeJSON(path, peers, 0o600)
}

// LoadPeerKey returns the pinned key for peer, if any.
func (s *KnownPeerFileStore) LoadPeerKey(peer domain.AccountID) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	peers, err := s.load(filepath.Join(s.dir, knownPeersFilename))
	if err != nil {
		return "", false, err
	}
	key, ok := peers[peer]
	return key, ok, nil
}

// load never returns a nil map, even when the file holds a JSON null.
func (s *KnownPeerFileStore) load(path string) (map[domain.AccountID]string, error) {
	peers := map[domain.AccountID]string{}
	if err := readJSON(path, &peers); err != nil {
		return nil, err
	}
	if peers == nil {
		peers = map[domain.AccountID]string{}
	}
	return peers, nil
}

// Compile-time assertion that KnownPeerFileStore implements domain.KnownPeerStore.
var _ domain.KnownPeerStore = (*KnownPeerFileStore)(nil)
