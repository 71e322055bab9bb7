package session

import (
	"errors"

	"scred/internal/domain"
)

var errUnknownEvent = errors.New("unknown session event")

// Event is an input to Step.
type Event interface{ isEvent() }

// Outbound asks for Plaintext to be encrypted for the peer.
type Outbound struct{ Plaintext string }

// Inbound carries a Message received from the peer.
type Inbound struct{ Message domain.Message }

func (Outbound) isEvent() {}
func (Inbound) isEvent()  {}

// Effect is what the caller must do after a Step.
type Effect interface{ isEffect() }

// Transmit hands Message to the transport.
type Transmit struct{ Message domain.Message }

// Deliver shows a decrypted message to the user.
type Deliver struct {
	N         uint32
	Plaintext string
}

// Undeliverable reports an inbound message that could not be decrypted.
type Undeliverable struct {
	N   uint32
	Err error
}

func (Transmit) isEffect()      {}
func (Deliver) isEffect()       {}
func (Undeliverable) isEffect() {}

// Step applies ev to s and returns the next session and the effect to carry
// out. Failed decryptions become an Undeliverable effect and leave the
// session usable; every other failure is returned as an error together with
// the unchanged session.
func Step(s domain.Session, ev Event) (domain.Session, Effect, error) {
	switch ev := ev.(type) {
	case Outbound:
		msg, next, err := SendMessage(s, ev.Plaintext)
		if err != nil {
			return s, nil, err
		}
		return next, Transmit{Message: msg}, nil

	case Inbound:
		if !s.Established() {
			return s, nil, domain.NewProtocolError(domain.ErrSessionNotEstablished, "receive message", nil)
		}
		plaintext, next, err := ReceiveMessage(s, ev.Message)
		if err != nil {
			return s, Undeliverable{N: ev.Message.N, Err: err}, nil
		}
		return next, Deliver{N: ev.Message.N, Plaintext: plaintext}, nil

	default:
		return s, nil, errUnknownEvent
	}
}
