package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"scred/internal/domain"
)

// HTTP is the directory client. Token, once set, is sent as a bearer token
// on every request.
type HTTP struct {
	Base  string
	HTTP  *http.Client
	Token string
}

func NewHTTP(base string) *HTTP {
	return &HTTP{Base: strings.TrimRight(base, "/"), HTTP: http.DefaultClient}
}

// SignUp creates an account and adopts its token.
func (c *HTTP) SignUp(ctx context.Context, name, email, password string) (domain.Credentials, error) {
	var out domain.Credentials
	in := domain.SignUpRequest{Name: name, Email: email, Password: password}
	if err := c.post(ctx, "/accounts", in, &out); err != nil {
		return domain.Credentials{}, err
	}
	c.Token = out.Token
	return out, nil
}

// LogIn exchanges credentials for a token and adopts it.
func (c *HTTP) LogIn(ctx context.Context, email, password string) (domain.Credentials, error) {
	var out domain.Credentials
	in := domain.LogInRequest{Email: email, Password: password}
	if err := c.post(ctx, "/sessions", in, &out); err != nil {
		return domain.Credentials{}, err
	}
	c.Token = out.Token
	return out, nil
}

// PublishPublicKey registers our public key. A key that is already set
// yields domain.ErrAlreadyPublished.
func (c *HTTP) PublishPublicKey(ctx context.Context, publicKeyB64 string) error {
	err := c.post(ctx, "/keys", domain.PublishKeyRequest{PublicKey: publicKeyB64}, nil)
	if errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("%w: %w", domain.ErrAlreadyPublished, err)
	}
	return err
}

// ListPeers returns the other accounts with a published key.
func (c *HTTP) ListPeers(ctx context.Context) ([]domain.Peer, error) {
	var out []domain.Peer
	if err := c.getJSON(ctx, "/users", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTP) post(ctx context.Context, path string, in any, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTP) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *HTTP) do(req *http.Request, out any) error {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return statusError(req, resp)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// StatusError is a non-2xx directory response.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Status string
	Detail string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("directory %s %s: %s", e.Method, e.URL, e.Status)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap maps well-known statuses onto domain sentinels.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		return domain.ErrConflict
	}
	return nil
}

func statusError(req *http.Request, resp *http.Response) error {
	var body domain.ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return &StatusError{
		Method: req.Method,
		URL:    req.URL.String(),
		Code:   resp.StatusCode,
		Status: resp.Status,
		Detail: body.Error,
	}
}

var _ domain.DirectoryClient = (*HTTP)(nil)
