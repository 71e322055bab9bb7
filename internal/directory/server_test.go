package directory_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scred/internal/crypto"
	"scred/internal/directory"
	"scred/internal/domain"
)

var fastPasswords = directory.PasswordParams{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32}

type fakeHub struct{ online map[domain.AccountID]bool }

func (h *fakeHub) ServeWS(w http.ResponseWriter, _ *http.Request, _ domain.AccountID) {
	w.WriteHeader(http.StatusTeapot)
}

func (h *fakeHub) IsOnline(id domain.AccountID) bool { return h.online[id] }

type fixture struct {
	srv  *httptest.Server
	hub  *fakeHub
	logs *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := directory.OpenStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	hub := &fakeHub{online: map[domain.AccountID]bool{}}
	s := directory.NewServer(st, directory.NewTokens([]byte("test-secret"), time.Hour), hub, log,
		directory.WithPasswordParams(fastPasswords))

	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, hub: hub, logs: hook}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (f *fixture) signUp(t *testing.T, name, email string) domain.Credentials {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/accounts", "", domain.SignUpRequest{Name: name, Email: email, Password: "correct horse"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var c domain.Credentials
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&c))
	require.NotEmpty(t, c.AccountID)
	require.NotEmpty(t, c.Token)
	return c
}

func publicKey(t *testing.T) string {
	t.Helper()
	kp, err := crypto.GenerateIdentityKeyPair()
	require.NoError(t, err)
	b64, err := crypto.ExportPublicKey(kp.PublicKey)
	require.NoError(t, err)
	return b64
}

func TestSignUpAndLogIn(t *testing.T) {
	f := newFixture(t)
	c := f.signUp(t, "alice", "Alice@Example.com")

	resp := f.do(t, http.MethodPost, "/sessions", "", domain.LogInRequest{Email: "alice@example.com", Password: "correct horse"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got domain.Credentials
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, c.AccountID, got.AccountID)

	resp = f.do(t, http.MethodPost, "/sessions", "", domain.LogInRequest{Email: "alice@example.com", Password: "wrong password"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/sessions", "", domain.LogInRequest{Email: "nobody@example.com", Password: "correct horse"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignUp_Validation(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "alice", "alice@example.com")

	cases := []struct {
		name string
		in   any
		want int
	}{
		{"duplicate email", domain.SignUpRequest{Name: "a2", Email: "ALICE@example.com", Password: "long enough"}, http.StatusConflict},
		{"missing name", domain.SignUpRequest{Email: "b@example.com", Password: "long enough"}, http.StatusBadRequest},
		{"bad email", domain.SignUpRequest{Name: "b", Email: "not-an-email", Password: "long enough"}, http.StatusBadRequest},
		{"short password", domain.SignUpRequest{Name: "b", Email: "b@example.com", Password: "short"}, http.StatusBadRequest},
		{"unknown field", map[string]string{"name": "b", "email": "b@example.com", "password": "long enough", "admin": "yes"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		resp := f.do(t, http.MethodPost, "/accounts", "", tc.in)
		assert.Equal(t, tc.want, resp.StatusCode, tc.name)
	}
}

func TestPublishKey(t *testing.T) {
	f := newFixture(t)
	c := f.signUp(t, "alice", "alice@example.com")
	key := publicKey(t)

	resp := f.do(t, http.MethodPost, "/keys", "", domain.PublishKeyRequest{PublicKey: key})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "no token")

	resp = f.do(t, http.MethodPost, "/keys", "garbage.token.here", domain.PublishKeyRequest{PublicKey: key})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "bad token")

	resp = f.do(t, http.MethodPost, "/keys", c.Token, domain.PublishKeyRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing key")

	resp = f.do(t, http.MethodPost, "/keys", c.Token, domain.PublishKeyRequest{PublicKey: crypto.B64([]byte("nope"))})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "invalid key")

	resp = f.do(t, http.MethodPost, "/keys", c.Token, domain.PublishKeyRequest{PublicKey: key})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/keys", c.Token, domain.PublishKeyRequest{PublicKey: publicKey(t)})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "second publish")
}

func TestListUsers(t *testing.T) {
	f := newFixture(t)
	alice := f.signUp(t, "alice", "alice@example.com")
	bob := f.signUp(t, "bob", "bob@example.com")
	f.signUp(t, "carol", "carol@example.com") // never publishes

	aliceKey, bobKey := publicKey(t), publicKey(t)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/keys", alice.Token, domain.PublishKeyRequest{PublicKey: aliceKey}).StatusCode)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/keys", bob.Token, domain.PublishKeyRequest{PublicKey: bobKey}).StatusCode)
	f.hub.online[bob.AccountID] = true

	resp := f.do(t, http.MethodGet, "/users", alice.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var peers []domain.Peer
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&peers))

	require.Len(t, peers, 1)
	assert.Equal(t, bob.AccountID, peers[0].ID)
	assert.Equal(t, "bob", peers[0].Name)
	assert.Equal(t, bobKey, peers[0].PublicKey)
	assert.True(t, peers[0].IsOnline)

	resp = f.do(t, http.MethodGet, "/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWSRequiresAuth(t *testing.T) {
	f := newFixture(t)
	c := f.signUp(t, "alice", "alice@example.com")

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/ws", "", nil).StatusCode)
	assert.Equal(t, http.StatusTeapot, f.do(t, http.MethodGet, "/ws?token="+c.Token, "", nil).StatusCode)
}

func TestRequestIDAndAccessLog(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodGet, f.srv.URL+"/users", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "rid-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "rid-123", resp.Header.Get("X-Request-ID"))

	resp = f.do(t, http.MethodGet, "/users", "", nil)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	// The entry is written after the response has been flushed.
	assert.Eventually(t, func() bool {
		for _, e := range f.logs.AllEntries() {
			if e.Message == "request" && e.Data["request_id"] == "rid-123" {
				return e.Data["status"] == http.StatusUnauthorized && e.Data["path"] == "/users"
			}
		}
		return false
	}, time.Second, 10*time.Millisecond, "no access log entry for rid-123")
}
