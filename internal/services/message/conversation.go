package message

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"scred/internal/domain"
	"scred/internal/protocol/ratchet"
	"scred/internal/protocol/session"
)

const (
	inboundBacklog = 64
	eventBacklog   = 64
)

type outboundRequest struct {
	ctx       context.Context
	plaintext string
	result    chan error
}

type conversation struct {
	room      domain.RoomID
	peer      domain.AccountID
	transport domain.Transport
	log       *logrus.Entry

	inbound  chan domain.Message
	notices  chan error
	outbound chan outboundRequest
	events   chan domain.ConversationEvent
	done     chan struct{}

	closeOnce sync.Once
	onClose   func()

	// Owned by run.
	session domain.Session
}

func newConversation(
	room domain.RoomID,
	peer domain.AccountID,
	sess domain.Session,
	transport domain.Transport,
	log *logrus.Logger,
) *conversation {
	return &conversation{
		room:      room,
		peer:      peer,
		transport: transport,
		log:       log.WithFields(logrus.Fields{"room": room, "peer": peer}),
		inbound:   make(chan domain.Message, inboundBacklog),
		notices:   make(chan error, 8),
		outbound:  make(chan outboundRequest),
		events:    make(chan domain.ConversationEvent, eventBacklog),
		done:      make(chan struct{}),
		session:   sess,
	}
}

// Send encrypts plaintext and hands it to the transport. It returns once the
// message was written or failed.
func (c *conversation) Send(ctx context.Context, plaintext string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	req := outboundRequest{ctx: ctx, plaintext: plaintext, result: make(chan error, 1)}
	select {
	case c.outbound <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrConversationClosed
	}
	select {
	case err := <-req.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrConversationClosed
	}
}

// Events yields delivered, sent and undeliverable messages. It is closed
// after Close.
func (c *conversation) Events() <-chan domain.ConversationEvent { return c.events }

// Close stops the conversation and wipes its session keys.
func (c *conversation) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.onClose != nil {
			c.onClose()
		}
	})
	return nil
}

// deliver queues an inbound message, dropping it if the conversation is
// closed or hopelessly behind.
func (c *conversation) deliver(msg domain.Message) {
	select {
	case c.inbound <- msg:
	case <-c.done:
	default:
		c.log.WithField("n", msg.N).Warn("inbound backlog full, message dropped")
	}
}

// relayError reports an error frame the hub sent for this room.
func (c *conversation) relayError(err error) {
	select {
	case c.notices <- err:
	case <-c.done:
	default:
	}
}

func (c *conversation) run() {
	defer func() {
		ratchet.Wipe(&c.session.Send)
		ratchet.Wipe(&c.session.Recv)
		close(c.events)
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.inbound:
			c.step(session.Inbound{Message: msg}, nil)
		case req := <-c.outbound:
			c.step(session.Outbound{Plaintext: req.plaintext}, &req)
		case err := <-c.notices:
			c.emit(domain.ConversationEvent{Kind: domain.EventUndeliverable, Err: err})
		}
	}
}

func (c *conversation) step(ev session.Event, req *outboundRequest) {
	next, eff, err := session.Step(c.session, ev)
	c.session = next
	if err != nil {
		c.log.WithError(err).Error("session step failed")
		if req != nil {
			req.result <- err
		}
		return
	}

	switch eff := eff.(type) {
	case session.Transmit:
		// The send key is spent whether or not the write succeeds; the peer
		// will see the gap as an out-of-order message.
		err := c.transport.Send(req.ctx, c.room, eff.Message)
		req.result <- err
		if err != nil {
			c.log.WithError(err).WithField("n", eff.Message.N).Warn("transmit failed")
			return
		}
		c.emit(domain.ConversationEvent{Kind: domain.EventSent, N: eff.Message.N, Plaintext: req.plaintext})

	case session.Deliver:
		c.emit(domain.ConversationEvent{Kind: domain.EventDelivered, N: eff.N, Plaintext: eff.Plaintext})

	case session.Undeliverable:
		c.log.WithError(eff.Err).WithField("n", eff.N).Warn("message undeliverable")
		c.emit(domain.ConversationEvent{Kind: domain.EventUndeliverable, N: eff.N, Err: eff.Err})
	}
}

// emit publishes ev unless the conversation is closing.
func (c *conversation) emit(ev domain.ConversationEvent) {
	ev.Room = c.room
	ev.At = time.Now()
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

var _ domain.Conversation = (*conversation)(nil)
