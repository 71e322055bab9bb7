package store

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"scred/internal/domain"
)

const prefixIdentity = "identity:"

// BadgerIdentityStore keeps encrypted identity records in a badger database,
// one key per slot. The value format is the same envelope the file store
// writes.
type BadgerIdentityStore struct {
	db  *badger.DB
	env *envelope
}

// OpenBadgerIdentityStore opens (or creates) a badger database at dir. An
// empty dir opens an in-memory database.
func OpenBadgerIdentityStore(dir, passphrase string, opts ...Option) (*BadgerIdentityStore, error) {
	o := applyOptions(opts)
	env, err := newEnvelope(passphrase, o.scrypt)
	if err != nil {
		return nil, err
	}

	bopts := badger.DefaultOptions(dir).WithLogger(badgerLogger{o.log})
	if dir == "" {
		bopts = bopts.WithInMemory(true)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger identity store: %w", err)
	}
	return &BadgerIdentityStore{db: db, env: env}, nil
}

// Put encrypts keyPair and stores it under name.
func (s *BadgerIdentityStore) Put(name domain.SlotName, keyPair domain.IdentityKeyPair) error {
	key, err := identityKey(name)
	if err != nil {
		return err
	}
	ct, err := sealIdentity(s.env, name, keyPair)
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, ct)
	})
	if err != nil {
		return fmt.Errorf("persist identity %q: %w", name, err)
	}
	return nil
}

// Get loads and decrypts the key pair stored under name.
func (s *BadgerIdentityStore) Get(name domain.SlotName) (domain.IdentityKeyPair, bool, error) {
	key, err := identityKey(name)
	if err != nil {
		return domain.IdentityKeyPair{}, false, err
	}
	var b []byte
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		b, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.IdentityKeyPair{}, false, nil
	}
	if err != nil {
		return domain.IdentityKeyPair{}, false, fmt.Errorf("read identity %q: %w", name, err)
	}
	kp, err := openIdentity(s.env, name, b)
	if err != nil {
		return domain.IdentityKeyPair{}, false, err
	}
	return kp, true, nil
}

// Close wipes the cached passphrase and closes the database.
func (s *BadgerIdentityStore) Close() error {
	s.env.wipe()
	return s.db.Close()
}

func identityKey(name domain.SlotName) ([]byte, error) {
	if err := checkSlot(name); err != nil {
		return nil, err
	}
	return []byte(prefixIdentity + name.String()), nil
}

// badgerLogger adapts logrus to badger.Logger, demoting badger's chatty
// info output to debug.
type badgerLogger struct {
	log *logrus.Logger
}

func (l badgerLogger) Errorf(f string, v ...any)   { l.log.Errorf("badger: "+f, v...) }
func (l badgerLogger) Warningf(f string, v ...any) { l.log.Warnf("badger: "+f, v...) }
func (l badgerLogger) Infof(f string, v ...any)    { l.log.Debugf("badger: "+f, v...) }
func (l badgerLogger) Debugf(f string, v ...any)   { l.log.Debugf("badger: "+f, v...) }

var (
	_ domain.IdentityStore = (*BadgerIdentityStore)(nil)
	_ badger.Logger        = badgerLogger{}
)
