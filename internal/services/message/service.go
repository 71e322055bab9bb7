package message

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"scred/internal/domain"
)

var (
	// ErrConversationOpen is returned when a room already has a running conversation.
	ErrConversationOpen = errors.New("conversation with peer already open")
	// ErrConversationClosed is returned by Send after Close.
	ErrConversationClosed = errors.New("conversation closed")
)

// Service opens conversations for the local account and routes inbound
// transport frames to them by room.
type Service struct {
	self      domain.AccountID
	sessions  domain.SessionService
	transport domain.Transport
	log       *logrus.Logger

	mu            sync.Mutex
	conversations map[domain.RoomID]*conversation
	dispatchOnce  sync.Once
}

// New constructs a message Service for account self.
func New(
	self domain.AccountID,
	sessions domain.SessionService,
	transport domain.Transport,
	log *logrus.Logger,
) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		self:          self,
		sessions:      sessions,
		transport:     transport,
		log:           log,
		conversations: make(map[domain.RoomID]*conversation),
	}
}

// OpenConversation establishes a session with peer, joins their shared room
// and starts the conversation loop.
func (s *Service) OpenConversation(ctx context.Context, peer domain.Peer) (domain.Conversation, error) {
	if peer.ID == s.self {
		return nil, fmt.Errorf("open conversation: cannot chat with yourself")
	}
	room := domain.NewRoomID(s.self, peer.ID)

	s.mu.Lock()
	if _, ok := s.conversations[room]; ok {
		s.mu.Unlock()
		return nil, ErrConversationOpen
	}
	s.mu.Unlock()

	sess, err := s.sessions.EstablishSession(ctx, peer)
	if err != nil {
		return nil, err
	}
	c := newConversation(room, peer.ID, sess, s.transport, s.log)
	c.onClose = func() { s.forget(room, c) }

	s.mu.Lock()
	if _, ok := s.conversations[room]; ok {
		s.mu.Unlock()
		return nil, ErrConversationOpen
	}
	s.conversations[room] = c
	s.mu.Unlock()

	s.dispatchOnce.Do(func() { go s.dispatch() })
	go c.run()

	if err := s.transport.Join(ctx, room); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("join room: %w", err)
	}
	s.log.WithFields(logrus.Fields{"room": room, "peer": peer.ID}).Info("conversation opened")
	return c, nil
}

// dispatch fans transport frames out to conversations until the transport
// closes its inbound channel.
func (s *Service) dispatch() {
	for f := range s.transport.Inbound() {
		switch f.Type {
		case domain.FrameMessage:
			if f.Message == nil {
				continue
			}
			if c := s.lookup(f.Room); c != nil {
				c.deliver(*f.Message)
			} else {
				s.log.WithField("room", f.Room).Debug("message for unknown room dropped")
			}
		case domain.FrameJoined:
			s.log.WithField("room", f.Room).Debug("joined room")
		case domain.FrameError:
			s.log.WithFields(logrus.Fields{"room": f.Room, "error": f.Error}).Warn("relay error")
			if c := s.lookup(f.Room); c != nil {
				c.relayError(errors.New(f.Error))
			}
		}
	}

	s.mu.Lock()
	open := make([]*conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		open = append(open, c)
	}
	s.mu.Unlock()
	for _, c := range open {
		_ = c.Close()
	}
}

func (s *Service) lookup(room domain.RoomID) *conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversations[room]
}

func (s *Service) forget(room domain.RoomID, c *conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conversations[room] == c {
		delete(s.conversations, room)
	}
}

// Compile-time assertion that Service implements domain.MessageService.
var _ domain.MessageService = (*Service)(nil)
