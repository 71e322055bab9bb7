package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scred/internal/crypto"
	"scred/internal/domain"
	"scred/internal/protocol/session"
)

func TestStep_OutboundInbound(t *testing.T) {
	alice, bob := pair(t)

	alice, eff, err := session.Step(alice, session.Outbound{Plaintext: "ping"})
	require.NoError(t, err)
	tx, ok := eff.(session.Transmit)
	require.True(t, ok, "want Transmit, got %T", eff)
	assert.EqualValues(t, 1, alice.Send.MessageCount)

	bob, eff, err = session.Step(bob, session.Inbound{Message: tx.Message})
	require.NoError(t, err)
	d, ok := eff.(session.Deliver)
	require.True(t, ok, "want Deliver, got %T", eff)
	assert.Equal(t, "ping", d.Plaintext)
	assert.EqualValues(t, 0, d.N)
	assert.EqualValues(t, 1, bob.Recv.MessageCount)
}

func TestStep_UndeliverableKeepsSession(t *testing.T) {
	alice, bob := pair(t)

	_, eff, err := session.Step(alice, session.Outbound{Plaintext: "one"})
	require.NoError(t, err)
	first := eff.(session.Transmit).Message
	raw, err := crypto.B64Decode(first.Ciphertext)
	require.NoError(t, err)
	raw[0] ^= 0xff
	first.Ciphertext = crypto.B64(raw)

	next, eff, err := session.Step(bob, session.Inbound{Message: first})
	require.NoError(t, err)
	u, ok := eff.(session.Undeliverable)
	require.True(t, ok, "want Undeliverable, got %T", eff)
	assert.ErrorIs(t, u.Err, domain.ErrAuthentication)
	assert.Equal(t, bob, next)

	// Bob can still send.
	_, eff, err = session.Step(next, session.Outbound{Plaintext: "still here"})
	require.NoError(t, err)
	assert.IsType(t, session.Transmit{}, eff)
}

func TestStep_OutOfOrder(t *testing.T) {
	alice, bob := pair(t)

	alice, eff1, err := session.Step(alice, session.Outbound{Plaintext: "p1"})
	require.NoError(t, err)
	_, eff2, err := session.Step(alice, session.Outbound{Plaintext: "p2"})
	require.NoError(t, err)

	bob, eff, err := session.Step(bob, session.Inbound{Message: eff2.(session.Transmit).Message})
	require.NoError(t, err)
	u := eff.(session.Undeliverable)
	assert.ErrorIs(t, u.Err, domain.ErrMessageOutOfOrder)
	assert.EqualValues(t, 1, u.N)

	_, eff, err = session.Step(bob, session.Inbound{Message: eff1.(session.Transmit).Message})
	require.NoError(t, err)
	assert.Equal(t, "p1", eff.(session.Deliver).Plaintext)
}

func TestStep_NotEstablished(t *testing.T) {
	var s domain.Session
	_, eff, err := session.Step(s, session.Outbound{Plaintext: "x"})
	assert.ErrorIs(t, err, domain.ErrSessionNotEstablished)
	assert.Nil(t, eff)

	_, eff, err = session.Step(s, session.Inbound{})
	assert.ErrorIs(t, err, domain.ErrSessionNotEstablished)
	assert.Nil(t, eff)
}
