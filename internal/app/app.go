package app

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"scred/internal/directory"
	"scred/internal/hub"
)

// Server is the relay process: the directory API and the websocket hub
// behind one handler.
type Server struct {
	Handler http.Handler

	store *directory.Store
	hub   *hub.Hub
}

// NewServer opens the directory database and builds the handler. opts are
// passed to the directory server.
func NewServer(cfg ServerConfig, log *logrus.Logger, opts ...directory.Option) (*Server, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.New()
	}
	st, err := directory.OpenStore(cfg.Database)
	if err != nil {
		return nil, err
	}
	h := hub.New(log)
	tokens := directory.NewTokens([]byte(cfg.JWTSecret), cfg.TokenTTL)

	return &Server{
		Handler: directory.NewServer(st, tokens, h, log, opts...),
		store:   st,
		hub:     h,
	}, nil
}

// Close disconnects websocket clients and closes the database.
func (s *Server) Close() error {
	s.hub.Close()
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close directory: %w", err)
	}
	return nil
}
