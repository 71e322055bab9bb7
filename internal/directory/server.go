package directory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"scred/internal/crypto"
	"scred/internal/domain"
)

const (
	minPasswordLength = 8
	maxBodyBytes      = 16 << 10
)

// Hub is the websocket side of the server.
type Hub interface {
	ServeWS(w http.ResponseWriter, r *http.Request, account domain.AccountID)
	IsOnline(account domain.AccountID) bool
}

// Server serves the directory API and hands /ws to the hub.
type Server struct {
	store     *Store
	tokens    *Tokens
	hub       Hub
	log       *logrus.Logger
	passwords PasswordParams
	mux       *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithPasswordParams overrides the Argon2id cost used for new accounts.
func WithPasswordParams(p PasswordParams) Option {
	return func(s *Server) { s.passwords = p }
}

// NewServer wires the routes.
func NewServer(store *Store, tokens *Tokens, hub Hub, log *logrus.Logger, opts ...Option) *Server {
	if log == nil {
		log = logrus.New()
	}
	s := &Server{
		store:     store,
		tokens:    tokens,
		hub:       hub,
		log:       log,
		passwords: DefaultPasswordParams,
		mux:       http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("POST /accounts", s.handleSignUp)
	s.mux.HandleFunc("POST /sessions", s.handleLogIn)
	s.mux.Handle("POST /keys", s.authenticated(s.handlePublishKey))
	s.mux.Handle("GET /users", s.authenticated(s.handleListUsers))
	s.mux.Handle("GET /ws", s.authenticated(s.handleWS))
	return s
}

// ServeHTTP implements http.Handler with request tracing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	withRequestTrace(s.log, s.mux).ServeHTTP(w, r)
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var in domain.SignUpRequest
	if !decode(w, r, &in) {
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || !validEmail(in.Email) {
		writeError(w, http.StatusBadRequest, "name and a valid email are required")
		return
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := HashPassword(in.Password, s.passwords)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	acct, err := s.store.CreateAccount(r.Context(), in.Name, in.Email, hash)
	if errors.Is(err, domain.ErrConflict) {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.issue(w, r, http.StatusCreated, acct.ID)
}

func (s *Server) handleLogIn(w http.ResponseWriter, r *http.Request) {
	var in domain.LogInRequest
	if !decode(w, r, &in) {
		return
	}
	acct, err := s.store.AccountByEmail(r.Context(), in.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.internalError(w, r, err)
		return
	}
	ok := false
	if err == nil {
		if ok, err = VerifyPassword(in.Password, acct.PasswordHash); err != nil {
			s.internalError(w, r, err)
			return
		}
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	s.issue(w, r, http.StatusOK, acct.ID)
}

func (s *Server) handlePublishKey(w http.ResponseWriter, r *http.Request, account domain.AccountID) {
	var in domain.PublishKeyRequest
	if !decode(w, r, &in) {
		return
	}
	if in.PublicKey == "" {
		writeError(w, http.StatusBadRequest, "publicKey is required")
		return
	}
	if _, err := crypto.ImportPublicKey(in.PublicKey); err != nil {
		writeError(w, http.StatusBadRequest, "publicKey is not a P-256 SPKI key")
		return
	}

	err := s.store.PublishKey(r.Context(), account, in.PublicKey)
	if errors.Is(err, domain.ErrAlreadyPublished) {
		writeError(w, http.StatusConflict, "public key already set")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.log.WithFields(logrus.Fields{
		"account":     account,
		"fingerprint": fingerprintOf(in.PublicKey),
	}).Info("identity key published")
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, account domain.AccountID) {
	peers, err := s.store.Peers(r.Context(), account)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	for i := range peers {
		peers[i].IsOnline = s.hub != nil && s.hub.IsOnline(peers[i].ID)
	}
	writeJSON(w, http.StatusOK, peers)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request, account domain.AccountID) {
	if s.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "relay unavailable")
		return
	}
	s.hub.ServeWS(w, r, account)
}

type authedHandler func(http.ResponseWriter, *http.Request, domain.AccountID)

// authenticated resolves the bearer token (header or ?token=) to a live account.
func (s *Server) authenticated(next authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, err := s.authenticate(r.Context(), bearerToken(r))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, account)
	})
}

func (s *Server) authenticate(ctx context.Context, token string) (domain.AccountID, error) {
	if token == "" {
		return "", domain.ErrUnauthorized
	}
	id, err := s.tokens.Verify(token)
	if err != nil {
		return "", err
	}
	if _, err := s.store.AccountByID(ctx, id); err != nil {
		return "", domain.ErrUnauthorized
	}
	return id, nil
}

func (s *Server) issue(w http.ResponseWriter, r *http.Request, status int, id domain.AccountID) {
	tok, err := s.tokens.Issue(id)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, status, domain.Credentials{AccountID: id, Token: tok})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.WithError(err).WithFields(logrus.Fields{
		"path":       r.URL.Path,
		"request_id": r.Header.Get(requestIDHeader),
	}).Error("request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func bearerToken(r *http.Request) string {
	if raw := r.Header.Get("Authorization"); raw != "" {
		scheme, tok, ok := strings.Cut(raw, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
	}
	return r.URL.Query().Get("token")
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, domain.ErrorResponse{Error: msg})
}

func validEmail(s string) bool {
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == strings.TrimSpace(s)
}

func fingerprintOf(publicKeyB64 string) domain.Fingerprint {
	spki, err := crypto.B64Decode(publicKeyB64)
	if err != nil {
		return ""
	}
	return crypto.Fingerprint(spki)
}
