package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"scred/internal/crypto"
	"scred/internal/domain"
)

// Status lines reported by EnsureIdentity.
const (
	StatusConfigured       = "Security keys are properly configured."
	StatusPublished        = "Your account is now fully secured and ready."
	StatusAlreadyPublished = "Security keys are already set up on the server."
	StatusLocalOnly        = "Private key stored securely on your device."
)

// ErrNoIdentity is returned when a slot holds no key pair.
var ErrNoIdentity = errors.New("no identity in slot; run init first")

// Service manages identity creation and access using a backing store.
type Service struct {
	store     domain.IdentityStore
	directory domain.DirectoryClient
	log       *logrus.Logger
}

// New returns an identity service. directory may be nil, in which case new
// keys are kept local only.
func New(s domain.IdentityStore, directory domain.DirectoryClient, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{store: s, directory: directory, log: log}
}

// EnsureIdentity returns the key pair in slot, creating and publishing it if
// the slot is empty. The returned string is a human-readable status line.
func (s *Service) EnsureIdentity(
	ctx context.Context,
	slot domain.SlotName,
) (domain.IdentityKeyPair, domain.Fingerprint, string, error) {
	kp, ok, err := s.store.Get(slot)
	if err != nil {
		return domain.IdentityKeyPair{}, "", "", fmt.Errorf("load identity: %w", err)
	}
	if ok {
		fp, err := fingerprint(kp)
		if err != nil {
			return domain.IdentityKeyPair{}, "", "", err
		}
		return kp, fp, StatusConfigured, nil
	}

	if kp, err = crypto.GenerateIdentityKeyPair(); err != nil {
		return domain.IdentityKeyPair{}, "", "", err
	}
	if err := s.store.Put(slot, kp); err != nil {
		return domain.IdentityKeyPair{}, "", "", fmt.Errorf("store identity: %w", err)
	}
	pub, err := crypto.ExportPublicKey(kp.PublicKey)
	if err != nil {
		return domain.IdentityKeyPair{}, "", "", err
	}
	fp, err := fingerprint(kp)
	if err != nil {
		return domain.IdentityKeyPair{}, "", "", err
	}
	entry := s.log.WithFields(logrus.Fields{"slot": slot, "fingerprint": fp})
	entry.Info("identity key generated")

	status, err := s.publish(ctx, pub, entry)
	if err != nil {
		return kp, fp, "", err
	}
	return kp, fp, status, nil
}

// Publish (re)sends the public key in slot to the directory, for keys whose
// first publication failed.
func (s *Service) Publish(ctx context.Context, slot domain.SlotName) (string, error) {
	pub, err := s.PublicKey(slot)
	if err != nil {
		return "", err
	}
	return s.publish(ctx, pub, s.log.WithField("slot", slot))
}

func (s *Service) publish(ctx context.Context, pub string, entry *logrus.Entry) (string, error) {
	if s.directory == nil {
		return StatusLocalOnly, nil
	}
	err := s.directory.PublishPublicKey(ctx, pub)
	switch {
	case errors.Is(err, domain.ErrAlreadyPublished):
		entry.Warn("directory already holds a key for this account")
		return StatusAlreadyPublished, nil
	case err != nil:
		return "", fmt.Errorf("publish public key: %w", err)
	}
	entry.Info("identity key published")
	return StatusPublished, nil
}

// FingerprintIdentity returns a short fingerprint of the public key in slot.
func (s *Service) FingerprintIdentity(slot domain.SlotName) (domain.Fingerprint, error) {
	kp, ok, err := s.store.Get(slot)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoIdentity
	}
	return fingerprint(kp)
}

// PublicKey returns the Base64 SPKI encoding of the public key in slot.
func (s *Service) PublicKey(slot domain.SlotName) (string, error) {
	kp, ok, err := s.store.Get(slot)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoIdentity
	}
	return crypto.ExportPublicKey(kp.PublicKey)
}

func fingerprint(kp domain.IdentityKeyPair) (domain.Fingerprint, error) {
	spki, err := crypto.MarshalPublicKey(kp.PublicKey)
	if err != nil {
		return "", err
	}
	return crypto.Fingerprint(spki), nil
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
