package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"scred/internal/crypto"
	"scred/internal/domain"
	"scred/internal/protocol/session"
)

var (
	// ErrNoIdentity indicates the local identity has not been created yet.
	ErrNoIdentity = errors.New("could not find your own identity key; run init first")
	// ErrPeerHasNoKey indicates the peer never published a public key.
	ErrPeerHasNoKey = errors.New("peer user does not have a public key")
)

// Service establishes sessions for one identity slot.
//
// Establishment:
//   - Load our identity key pair from the store.
//   - Compare the peer's published key with the pinned key, pinning it on
//     first contact.
//   - Derive the two ratchet directions from the ECDH shared secret.
type Service struct {
	idStore    domain.IdentityStore
	knownPeers domain.KnownPeerStore
	slot       domain.SlotName
	timeout    time.Duration
	log        *logrus.Logger
}

// New constructs a session Service. A zero timeout disables the deadline.
func New(
	idStore domain.IdentityStore,
	knownPeers domain.KnownPeerStore,
	slot domain.SlotName,
	timeout time.Duration,
	log *logrus.Logger,
) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		idStore:    idStore,
		knownPeers: knownPeers,
		slot:       slot,
		timeout:    timeout,
		log:        log,
	}
}

// EstablishSession builds a fresh Session with peer.
func (s *Service) EstablishSession(ctx context.Context, peer domain.Peer) (domain.Session, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	local, ok, err := s.idStore.Get(s.slot)
	if err != nil {
		return domain.Session{}, fmt.Errorf("load identity: %w", err)
	}
	if !ok {
		return domain.Session{}, ErrNoIdentity
	}
	if peer.PublicKey == "" {
		return domain.Session{}, fmt.Errorf("%s: %w", peer.ID, ErrPeerHasNoKey)
	}

	sess, err := session.Establish(local, peer.PublicKey)
	if err != nil {
		return domain.Session{}, err
	}
	// Key agreement is not cancellable; honour a deadline that passed meanwhile.
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}
	if err := s.checkPin(peer); err != nil {
		return domain.Session{}, err
	}

	s.log.WithFields(logrus.Fields{
		"peer":        peer.ID,
		"fingerprint": crypto.Fingerprint(sess.Peer.SPKI),
	}).Info("session established")
	return sess, nil
}

// TrustPeerKey replaces the pinned key for peer with its current key.
func (s *Service) TrustPeerKey(peer domain.Peer) error {
	if peer.PublicKey == "" {
		return fmt.Errorf("%s: %w", peer.ID, ErrPeerHasNoKey)
	}
	if _, err := crypto.ImportPublicKey(peer.PublicKey); err != nil {
		return err
	}
	if err := s.knownPeers.PinPeerKey(peer.ID, peer.PublicKey); err != nil {
		return fmt.Errorf("pin peer key: %w", err)
	}
	s.log.WithField("peer", peer.ID).Warn("peer key re-pinned")
	return nil
}

func (s *Service) checkPin(peer domain.Peer) error {
	if s.knownPeers == nil {
		return nil
	}
	pinned, ok, err := s.knownPeers.LoadPeerKey(peer.ID)
	if err != nil {
		return fmt.Errorf("load pinned key: %w", err)
	}
	if !ok {
		if err := s.knownPeers.PinPeerKey(peer.ID, peer.PublicKey); err != nil {
			return fmt.Errorf("pin peer key: %w", err)
		}
		return nil
	}
	if pinned != peer.PublicKey {
		return domain.NewProtocolError(domain.ErrPeerKeyChanged, "establish session",
			fmt.Errorf("peer %s", peer.ID))
	}
	return nil
}

// Compile-time assertion that Service implements domain.SessionService.
var _ domain.SessionService = (*Service)(nil)
