package relay_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scred/internal/crypto"
	"scred/internal/directory"
	"scred/internal/domain"
	"scred/internal/hub"
	"scred/internal/relay"
)

type server struct {
	url string
	hub *hub.Hub
}

func newServer(t *testing.T) server {
	t.Helper()
	st, err := directory.OpenStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	log, _ := test.NewNullLogger()
	h := hub.New(log)
	s := directory.NewServer(st, directory.NewTokens([]byte("secret"), time.Hour), h, log,
		directory.WithPasswordParams(directory.PasswordParams{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32}))
	srv := httptest.NewServer(s)
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})
	return server{url: srv.URL, hub: h}
}

type account struct {
	client *relay.HTTP
	creds  domain.Credentials
	key    string
}

func newAccount(t *testing.T, ctx context.Context, base, name string) account {
	t.Helper()
	c := relay.NewHTTP(base)
	creds, err := c.SignUp(ctx, name, name+"@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, creds.Token, c.Token)

	kp, err := crypto.GenerateIdentityKeyPair()
	require.NoError(t, err)
	key, err := crypto.ExportPublicKey(kp.PublicKey)
	require.NoError(t, err)
	require.NoError(t, c.PublishPublicKey(ctx, key))
	return account{client: c, creds: creds, key: key}
}

func dial(t *testing.T, ctx context.Context, base string, a account) *relay.WS {
	t.Helper()
	log, _ := test.NewNullLogger()
	ws, err := relay.Dial(ctx, base, a.creds.Token, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func next(t *testing.T, ws *relay.WS) domain.Frame {
	t.Helper()
	select {
	case f, ok := <-ws.Inbound():
		require.True(t, ok, "inbound closed")
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return domain.Frame{}
	}
}

func TestDirectoryClient(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)

	alice := newAccount(t, ctx, srv.url, "alice")
	bob := newAccount(t, ctx, srv.url, "bob")

	err := alice.client.PublishPublicKey(ctx, bob.key)
	assert.ErrorIs(t, err, domain.ErrAlreadyPublished)
	assert.ErrorIs(t, err, domain.ErrConflict)

	peers, err := alice.client.ListPeers(ctx)
	require.NoError(t, err)
	require.Len(t, peers, 1)
	assert.Equal(t, bob.creds.AccountID, peers[0].ID)
	assert.Equal(t, bob.key, peers[0].PublicKey)

	login := relay.NewHTTP(srv.url + "/")
	creds, err := login.LogIn(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, alice.creds.AccountID, creds.AccountID)

	_, err = relay.NewHTTP(srv.url).LogIn(ctx, "alice@example.com", "nope-nope")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	var se *relay.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 401, se.Code)
	assert.NotEmpty(t, se.Detail)

	_, err = relay.NewHTTP(srv.url).ListPeers(ctx)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTransport_RoomRelay(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)

	alice := newAccount(t, ctx, srv.url, "alice")
	bob := newAccount(t, ctx, srv.url, "bob")
	carol := newAccount(t, ctx, srv.url, "carol")

	aws := dial(t, ctx, srv.url, alice)
	bws := dial(t, ctx, srv.url, bob)
	cws := dial(t, ctx, srv.url, carol)

	room := domain.NewRoomID(alice.creds.AccountID, bob.creds.AccountID)

	require.NoError(t, aws.Join(ctx, room))
	assert.Equal(t, domain.FrameJoined, next(t, aws).Type)
	require.NoError(t, bws.Join(ctx, room))
	assert.Equal(t, domain.FrameJoined, next(t, bws).Type)

	// Carol is not a member of the alice/bob room.
	require.NoError(t, cws.Join(ctx, room))
	f := next(t, cws)
	assert.Equal(t, domain.FrameError, f.Type)
	assert.Equal(t, room, f.Room)

	msg := domain.Message{N: 0, EncryptedPayload: domain.EncryptedPayload{IV: "aXY=", Ciphertext: "Y3Q="}}
	require.NoError(t, aws.Send(ctx, room, msg))

	got := next(t, bws)
	assert.Equal(t, domain.FrameMessage, got.Type)
	assert.Equal(t, room, got.Room)
	assert.Equal(t, alice.creds.AccountID, got.From)
	require.NotNil(t, got.Message)
	assert.Equal(t, msg, *got.Message)

	// No echo: alice's next frame is bob's reply, not her own message.
	reply := domain.Message{N: 0, EncryptedPayload: domain.EncryptedPayload{IV: "cmU=", Ciphertext: "cGx5"}}
	require.NoError(t, bws.Send(ctx, room, reply))
	got = next(t, aws)
	assert.Equal(t, bob.creds.AccountID, got.From)
	assert.Equal(t, reply, *got.Message)

	// Sending into a room that was never joined is refused.
	require.NoError(t, cws.Send(ctx, room, msg))
	assert.Equal(t, domain.FrameError, next(t, cws).Type)
}

func TestTransport_Presence(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)

	alice := newAccount(t, ctx, srv.url, "alice")
	bob := newAccount(t, ctx, srv.url, "bob")

	isOnline := func() bool {
		peers, err := alice.client.ListPeers(ctx)
		return err == nil && len(peers) == 1 && peers[0].IsOnline
	}
	assert.False(t, isOnline())

	bws := dial(t, ctx, srv.url, bob)
	assert.Eventually(t, isOnline, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, bws.Close())
	assert.Eventually(t, func() bool { return !srv.hub.IsOnline(bob.creds.AccountID) }, 2*time.Second, 20*time.Millisecond)

	_, open := <-bws.Inbound()
	assert.False(t, open, "inbound must close with the transport")
	assert.Error(t, bws.Join(ctx, "dm:a:b"))
}

func TestDial_Unauthorized(t *testing.T) {
	srv := newServer(t)
	log, _ := test.NewNullLogger()
	_, err := relay.Dial(context.Background(), srv.url, "bogus", log)
	assert.Error(t, err)
}
