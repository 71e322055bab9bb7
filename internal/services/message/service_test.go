package message_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scred/internal/crypto"
	"scred/internal/domain"
	protosession "scred/internal/protocol/session"
	"scred/internal/services/message"
)

// loopback is one end of an in-memory relay. Messages sent on one end arrive
// as frames on the other.
type loopback struct {
	mu     sync.Mutex
	peer   *loopback
	joined map[domain.RoomID]bool
	in     chan domain.Frame
	closed bool
}

func newLoopbackPair() (*loopback, *loopback) {
	a := &loopback{joined: map[domain.RoomID]bool{}, in: make(chan domain.Frame, 16)}
	b := &loopback{joined: map[domain.RoomID]bool{}, in: make(chan domain.Frame, 16)}
	a.peer, b.peer = b, a
	return a, b
}

func (l *loopback) Join(_ context.Context, room domain.RoomID) error {
	l.mu.Lock()
	l.joined[room] = true
	l.mu.Unlock()
	l.inject(domain.Frame{Type: domain.FrameJoined, Room: room})
	return nil
}

func (l *loopback) Send(_ context.Context, room domain.RoomID, msg domain.Message) error {
	l.mu.Lock()
	ok := l.joined[room]
	l.mu.Unlock()
	if !ok {
		return errors.New("not joined")
	}
	l.peer.inject(domain.Frame{Type: domain.FrameMessage, Room: room, Message: &msg})
	return nil
}

func (l *loopback) inject(f domain.Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.in <- f
	}
}

func (l *loopback) Inbound() <-chan domain.Frame { return l.in }

func (l *loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.in)
	}
	return nil
}

type fixedSessions struct {
	sessions map[domain.AccountID]domain.Session
	err      error
}

func (f fixedSessions) EstablishSession(_ context.Context, peer domain.Peer) (domain.Session, error) {
	if f.err != nil {
		return domain.Session{}, f.err
	}
	return f.sessions[peer.ID], nil
}

type side struct {
	svc       *message.Service
	transport *loopback
	self      domain.Peer
}

func newSides(t *testing.T) (alice, bob side) {
	t.Helper()
	ka, err := crypto.GenerateIdentityKeyPair()
	require.NoError(t, err)
	kb, err := crypto.GenerateIdentityKeyPair()
	require.NoError(t, err)
	pa, err := crypto.ExportPublicKey(ka.PublicKey)
	require.NoError(t, err)
	pb, err := crypto.ExportPublicKey(kb.PublicKey)
	require.NoError(t, err)

	sa, err := protosession.Establish(ka, pb)
	require.NoError(t, err)
	sb, err := protosession.Establish(kb, pa)
	require.NoError(t, err)

	alicePeer := domain.Peer{ID: "alice", PublicKey: pa}
	bobPeer := domain.Peer{ID: "bob", PublicKey: pb}

	ta, tb := newLoopbackPair()
	t.Cleanup(func() { _ = ta.Close(); _ = tb.Close() })
	log, _ := test.NewNullLogger()

	alice = side{
		svc:       message.New("alice", fixedSessions{sessions: map[domain.AccountID]domain.Session{"bob": sa}}, ta, log),
		transport: ta,
		self:      alicePeer,
	}
	bob = side{
		svc:       message.New("bob", fixedSessions{sessions: map[domain.AccountID]domain.Session{"alice": sb}}, tb, log),
		transport: tb,
		self:      bobPeer,
	}
	return alice, bob
}

func open(t *testing.T, from, to side) domain.Conversation {
	t.Helper()
	conv, err := from.svc.OpenConversation(context.Background(), to.self)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conv.Close() })
	return conv
}

func next(t *testing.T, conv domain.Conversation) domain.ConversationEvent {
	t.Helper()
	select {
	case ev, ok := <-conv.Events():
		require.True(t, ok, "events closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for conversation event")
		return domain.ConversationEvent{}
	}
}

func TestConversation_BothDirections(t *testing.T) {
	alice, bob := newSides(t)
	a := open(t, alice, bob)
	b := open(t, bob, alice)
	ctx := context.Background()

	require.NoError(t, a.Send(ctx, "hello bob"))
	sent := next(t, a)
	assert.Equal(t, domain.EventSent, sent.Kind)
	assert.Equal(t, uint32(0), sent.N)
	assert.Equal(t, domain.NewRoomID("alice", "bob"), sent.Room)

	got := next(t, b)
	assert.Equal(t, domain.EventDelivered, got.Kind)
	assert.Equal(t, "hello bob", got.Plaintext)

	require.NoError(t, a.Send(ctx, "second"))
	next(t, a)
	got = next(t, b)
	assert.Equal(t, uint32(1), got.N)
	assert.Equal(t, "second", got.Plaintext)

	require.NoError(t, b.Send(ctx, "hi alice"))
	assert.Equal(t, domain.EventSent, next(t, b).Kind)
	got = next(t, a)
	assert.Equal(t, domain.EventDelivered, got.Kind)
	assert.Equal(t, uint32(0), got.N)
	assert.Equal(t, "hi alice", got.Plaintext)
}

func TestConversation_UndeliverableKeepsSession(t *testing.T) {
	alice, bob := newSides(t)
	a := open(t, alice, bob)
	b := open(t, bob, alice)
	room := domain.NewRoomID("alice", "bob")

	bogus := domain.Message{N: 7, EncryptedPayload: domain.EncryptedPayload{IV: "AAAAAAAAAAAAAAAA", Ciphertext: "AAAA"}}
	bob.transport.inject(domain.Frame{Type: domain.FrameMessage, Room: room, Message: &bogus})

	ev := next(t, b)
	assert.Equal(t, domain.EventUndeliverable, ev.Kind)
	assert.Equal(t, uint32(7), ev.N)

	require.NoError(t, a.Send(context.Background(), "still fine"))
	next(t, a)
	ev = next(t, b)
	assert.Equal(t, domain.EventDelivered, ev.Kind)
	assert.Equal(t, "still fine", ev.Plaintext)
}

func TestConversation_RelayErrorFrame(t *testing.T) {
	alice, bob := newSides(t)
	a := open(t, alice, bob)
	room := domain.NewRoomID("alice", "bob")

	alice.transport.inject(domain.Frame{Type: domain.FrameError, Room: room, Error: "not a member of room"})

	ev := next(t, a)
	assert.Equal(t, domain.EventUndeliverable, ev.Kind)
	require.Error(t, ev.Err)
	assert.Contains(t, ev.Err.Error(), "not a member")
}

func TestConversation_Close(t *testing.T) {
	alice, bob := newSides(t)
	a := open(t, alice, bob)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	select {
	case _, ok := <-a.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("events not closed")
	}
	assert.ErrorIs(t, a.Send(context.Background(), "late"), message.ErrConversationClosed)

	// A closed conversation frees its room.
	again := open(t, alice, bob)
	assert.NotNil(t, again)
}

func TestConversation_TransportShutdownClosesConversations(t *testing.T) {
	alice, bob := newSides(t)
	a := open(t, alice, bob)

	require.NoError(t, alice.transport.Close())

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-a.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("conversation survived transport shutdown")
		}
	}
}

func TestOpenConversation_Rejects(t *testing.T) {
	alice, bob := newSides(t)
	ctx := context.Background()

	_, err := alice.svc.OpenConversation(ctx, alice.self)
	assert.Error(t, err)

	open(t, alice, bob)
	_, err = alice.svc.OpenConversation(ctx, bob.self)
	assert.ErrorIs(t, err, message.ErrConversationOpen)
}

func TestOpenConversation_SessionFailure(t *testing.T) {
	ta, _ := newLoopbackPair()
	log, _ := test.NewNullLogger()
	svc := message.New("alice", fixedSessions{err: domain.ErrPeerKeyChanged}, ta, log)

	_, err := svc.OpenConversation(context.Background(), domain.Peer{ID: "bob"})
	assert.ErrorIs(t, err, domain.ErrPeerKeyChanged)
}

func TestSend_RespectsContext(t *testing.T) {
	alice, bob := newSides(t)
	a := open(t, alice, bob)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, a.Send(ctx, "never"), context.Canceled)
}
