package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"scred/internal/domain"
	"scred/internal/relay"
	identitysvc "scred/internal/services/identity"
	messagesvc "scred/internal/services/message"
	sessionsvc "scred/internal/services/session"
	"scred/internal/store"
)

// ErrNotLoggedIn is returned by operations that need a directory account.
var ErrNotLoggedIn = errors.New("not logged in to this server; run signup or login first")

// Wire bundles the stores, clients and services used by the CLI. The
// identity store is opened on first use, once per process, and closed by
// Close.
type Wire struct {
	Config     ClientConfig
	Log        *logrus.Logger
	Accounts   *store.AccountFileStore
	KnownPeers *store.KnownPeerFileStore
	Directory  *relay.HTTP

	passphrase string
	storeOpts  []store.Option

	mu         sync.Mutex
	identities domain.IdentityStore
	transport  domain.Transport
}

// NewWire constructs the dependency graph from cfg. passphrase unlocks the
// identity store and may be empty for commands that never touch it.
func NewWire(cfg ClientConfig, passphrase string, log *logrus.Logger, opts ...store.Option) (*Wire, error) {
	if log == nil {
		log = logrus.New()
	}
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, fmt.Errorf("create home: %w", err)
	}

	w := &Wire{
		Config:     cfg,
		Log:        log,
		Accounts:   store.NewAccountFileStore(cfg.Home),
		KnownPeers: store.NewKnownPeerFileStore(cfg.Home),
		Directory:  relay.NewHTTP(cfg.ServerURL),
		passphrase: passphrase,
		storeOpts:  append([]store.Option{store.WithLogger(log)}, opts...),
	}

	profile, ok, err := w.Accounts.LoadAccountProfile(cfg.ServerURL)
	if err != nil {
		return nil, err
	}
	if ok {
		w.Directory.Token = profile.Token
	}
	return w, nil
}

// Profile returns the saved account for the configured server.
func (w *Wire) Profile() (domain.AccountProfile, error) {
	profile, ok, err := w.Accounts.LoadAccountProfile(w.Config.ServerURL)
	if err != nil {
		return domain.AccountProfile{}, err
	}
	if !ok {
		return domain.AccountProfile{}, ErrNotLoggedIn
	}
	return profile, nil
}

// SaveCredentials records a sign-up or log-in result for the configured
// server and uses its token from now on.
func (w *Wire) SaveCredentials(name, email string, creds domain.Credentials) error {
	w.Directory.Token = creds.Token
	return w.Accounts.SaveAccountProfile(domain.AccountProfile{
		ServerURL: w.Config.ServerURL,
		AccountID: creds.AccountID,
		Name:      name,
		Email:     email,
		Token:     creds.Token,
	})
}

// Logout forgets the saved account for the configured server. Local keys are
// kept.
func (w *Wire) Logout() error {
	w.Directory.Token = ""
	return w.Accounts.DeleteAccountProfile(w.Config.ServerURL)
}

// Slot is the configured identity slot.
func (w *Wire) Slot() domain.SlotName { return domain.SlotName(w.Config.Slot) }

// IdentityStore opens the configured identity backend.
func (w *Wire) IdentityStore() (domain.IdentityStore, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.identities != nil {
		return w.identities, nil
	}
	if w.passphrase == "" {
		return nil, fmt.Errorf("passphrase required (--passphrase or %s)", PassphraseEnv)
	}

	var (
		ids domain.IdentityStore
		err error
	)
	switch w.Config.Storage {
	case StorageBadger:
		ids, err = store.OpenBadgerIdentityStore(filepath.Join(w.Config.Home, "keys.badger"), w.passphrase, w.storeOpts...)
	default:
		ids, err = store.NewIdentityFileStore(filepath.Join(w.Config.Home, "keys"), w.passphrase, w.storeOpts...)
	}
	if err != nil {
		return nil, fmt.Errorf("open identity store: %w", err)
	}
	w.identities = ids
	return ids, nil
}

// Identity returns the identity service. New keys are published only when
// logged in.
func (w *Wire) Identity() (*identitysvc.Service, error) {
	ids, err := w.IdentityStore()
	if err != nil {
		return nil, err
	}
	var dir domain.DirectoryClient
	if w.Directory.Token != "" {
		dir = w.Directory
	}
	return identitysvc.New(ids, dir, w.Log), nil
}

// Sessions returns the session service bound to the configured slot.
func (w *Wire) Sessions() (*sessionsvc.Service, error) {
	ids, err := w.IdentityStore()
	if err != nil {
		return nil, err
	}
	return sessionsvc.New(ids, w.KnownPeers, w.Slot(), w.Config.EstablishTimeout, w.Log), nil
}

// Messages dials the relay and returns a message service for the logged-in
// account. The transport is closed by Close.
func (w *Wire) Messages(ctx context.Context) (*messagesvc.Service, error) {
	profile, err := w.Profile()
	if err != nil {
		return nil, err
	}
	sessions, err := w.Sessions()
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.transport == nil {
		t, err := relay.Dial(ctx, w.Config.ServerURL, profile.Token, w.Log)
		if err != nil {
			return nil, err
		}
		w.transport = t
	}
	return messagesvc.New(profile.AccountID, sessions, w.transport, w.Log), nil
}

// FindPeer looks ref up in the directory by account ID, email or name.
func (w *Wire) FindPeer(ctx context.Context, ref string) (domain.Peer, error) {
	peers, err := w.Directory.ListPeers(ctx)
	if err != nil {
		return domain.Peer{}, err
	}
	for _, p := range peers {
		if string(p.ID) == ref || strings.EqualFold(p.Email, ref) {
			return p, nil
		}
	}
	var match []domain.Peer
	for _, p := range peers {
		if p.Name == ref {
			match = append(match, p)
		}
	}
	switch len(match) {
	case 0:
		return domain.Peer{}, fmt.Errorf("peer %q: %w", ref, domain.ErrNotFound)
	case 1:
		return match[0], nil
	}
	return domain.Peer{}, fmt.Errorf("peer %q is ambiguous; use the account id", ref)
}

// Close releases the transport and the identity store and forgets the
// passphrase. It is safe to call more than once.
func (w *Wire) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.passphrase = ""

	var errs []error
	if w.transport != nil {
		errs = append(errs, w.transport.Close())
		w.transport = nil
	}
	if w.identities != nil {
		errs = append(errs, w.identities.Close())
		w.identities = nil
	}
	return errors.Join(errs...)
}
