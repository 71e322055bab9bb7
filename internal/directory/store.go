package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"scred/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS identity_keys (
	account_id TEXT PRIMARY KEY REFERENCES accounts(id),
	public_key TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
`

// Account is a stored account row.
type Account struct {
	ID           domain.AccountID
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Store keeps accounts and identity keys in SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the database at path. ":memory:" gives a
// private in-memory database.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open directory database: %w", err)
	}
	// One connection: SQLite serialises writers anyway and an in-memory
	// database only exists on the connection that created it.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialise directory database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// CreateAccount inserts a new account. A taken email yields domain.ErrConflict.
func (s *Store) CreateAccount(ctx context.Context, name, email, passwordHash string) (Account, error) {
	a := Account{
		ID:           domain.AccountID(uuid.NewString()),
		Name:         name,
		Email:        normaliseEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Email, a.PasswordHash, a.CreatedAt.Unix())
	if isConstraint(err, sqlite3.ErrConstraintUnique) {
		return Account{}, fmt.Errorf("email %s: %w", a.Email, domain.ErrConflict)
	}
	if err != nil {
		return Account{}, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

// AccountByEmail looks an account up by email.
func (s *Store) AccountByEmail(ctx context.Context, email string) (Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM accounts WHERE email = ?`,
		normaliseEmail(email)))
}

// AccountByID looks an account up by ID.
func (s *Store) AccountByID(ctx context.Context, id domain.AccountID) (Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM accounts WHERE id = ?`, id))
}

func (s *Store) scanAccount(row *sql.Row) (Account, error) {
	var (
		a       Account
		created int64
	)
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, domain.ErrNotFound
	}
	if err != nil {
		return Account{}, err
	}
	a.CreatedAt = time.Unix(created, 0).UTC()
	return a, nil
}

// PublishKey records the identity key of account. Keys are set once; a
// second call yields domain.ErrAlreadyPublished.
func (s *Store) PublishKey(ctx context.Context, account domain.AccountID, publicKeyB64 string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO identity_keys (account_id, public_key, created_at) VALUES (?, ?, ?)`,
		account, publicKeyB64, time.Now().UTC().Unix())
	if isConstraint(err, sqlite3.ErrConstraintPrimaryKey) || isConstraint(err, sqlite3.ErrConstraintUnique) {
		return domain.ErrAlreadyPublished
	}
	if err != nil {
		return fmt.Errorf("publish key: %w", err)
	}
	return nil
}

// Peers lists every account other than self that has published a key,
// ordered by name.
func (s *Store) Peers(ctx context.Context, self domain.AccountID) ([]domain.Peer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.name, a.email, k.public_key
		FROM accounts a
		JOIN identity_keys k ON k.account_id = a.id
		WHERE a.id <> ?
		ORDER BY a.name ASC, a.id ASC`, self)
	if err != nil {
		return nil, fmt.Errorf("list peers: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Peer, 0)
	for rows.Next() {
		var p domain.Peer
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.PublicKey); err != nil {
			return nil, fmt.Errorf("list peers: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func isConstraint(err error, code sqlite3.ErrNoExtended) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == code
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
