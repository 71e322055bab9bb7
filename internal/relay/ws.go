package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"scred/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 64 << 10
	inboundBacklog = 64
)

var errTransportClosed = errors.New("transport closed")

// WS is a websocket Transport to the relay hub.
type WS struct {
	conn *websocket.Conn
	log  *logrus.Logger

	writeMu sync.Mutex
	inbound chan domain.Frame
	done    chan struct{}
	once    sync.Once
}

// Dial connects to the hub at base (an http(s) or ws(s) URL) and
// authenticates with token.
func Dial(ctx context.Context, base, token string, log *logrus.Logger) (*WS, error) {
	if log == nil {
		log = logrus.New()
	}
	u, err := wsURL(base)
	if err != nil {
		return nil, err
	}
	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u, hdr)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial relay %s: %s: %w", u, resp.Status, err)
		}
		return nil, fmt.Errorf("dial relay %s: %w", u, err)
	}
	conn.SetReadLimit(maxFrameSize)

	t := &WS{
		conn:    conn,
		log:     log,
		inbound: make(chan domain.Frame, inboundBacklog),
		done:    make(chan struct{}),
	}
	go t.readLoop()
	go t.pingLoop()
	return t, nil
}

// Join subscribes to room. The hub answers with a joined or error frame.
func (t *WS) Join(ctx context.Context, room domain.RoomID) error {
	return t.write(ctx, domain.Frame{Type: domain.FrameJoin, Room: room})
}

// Send relays msg to the other members of room.
func (t *WS) Send(ctx context.Context, room domain.RoomID, msg domain.Message) error {
	return t.write(ctx, domain.Frame{Type: domain.FrameMessage, Room: room, Message: &msg})
}

// Inbound yields frames from the hub until the connection ends.
func (t *WS) Inbound() <-chan domain.Frame { return t.inbound }

// Close sends a close frame and tears the connection down.
func (t *WS) Close() error {
	var err error
	t.once.Do(func() {
		close(t.done)
		t.writeMu.Lock()
		_ = t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		t.writeMu.Unlock()
		err = t.conn.Close()
	})
	return err
}

func (t *WS) write(ctx context.Context, f domain.Frame) error {
	select {
	case <-t.done:
		return errTransportClosed
	default:
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	_ = t.conn.SetWriteDeadline(deadline)
	if err := t.conn.WriteJSON(f); err != nil {
		return fmt.Errorf("relay write %s: %w", f.Type, err)
	}
	return nil
}

func (t *WS) readLoop() {
	defer close(t.inbound)

	_ = t.conn.SetReadDeadline(time.Now().Add(pongWait))
	t.conn.SetPongHandler(func(string) error {
		return t.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var f domain.Frame
		if err := t.conn.ReadJSON(&f); err != nil {
			select {
			case <-t.done:
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					t.log.WithError(err).Warn("relay connection lost")
				}
			}
			return
		}
		select {
		case t.inbound <- f:
		case <-t.done:
			return
		}
	}
}

func (t *WS) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.writeMu.Lock()
			err := t.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			t.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// wsURL turns a directory base URL into the hub endpoint.
func wsURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("parse relay url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported relay url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/ws") + "/ws"
	return u.String(), nil
}

var _ domain.Transport = (*WS)(nil)
