package hub

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"scred/internal/domain"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 64 << 10
	sendBacklog  = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	id      string
	account domain.AccountID
	conn    *websocket.Conn
	send    chan domain.Frame
	rooms   map[domain.RoomID]struct{}
}

// Hub routes frames between the connections joined to each room.
type Hub struct {
	log *logrus.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	rooms   map[domain.RoomID]map[*client]struct{}
	online  map[domain.AccountID]int
}

// New returns an empty hub.
func New(log *logrus.Logger) *Hub {
	if log == nil {
		log = logrus.New()
	}
	return &Hub{
		log:     log,
		clients: make(map[*client]struct{}),
		rooms:   make(map[domain.RoomID]map[*client]struct{}),
		online:  make(map[domain.AccountID]int),
	}
}

// ServeWS upgrades the request and serves the connection for account until
// it disconnects. The caller must have authenticated the request.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, account domain.AccountID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).WithField("account", account).Debug("websocket upgrade failed")
		return
	}
	c := &client{
		id:      uuid.NewString(),
		account: account,
		conn:    conn,
		send:    make(chan domain.Frame, sendBacklog),
		rooms:   make(map[domain.RoomID]struct{}),
	}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

// IsOnline reports whether account has at least one open connection.
func (h *Hub) IsOnline(account domain.AccountID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.online[account] > 0
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c.conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.online[c.account]++
	n := h.online[c.account]
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{"account": c.account, "client": c.id, "conns": n}).Info("client connected")
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for room := range c.rooms {
		members := h.rooms[room]
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if h.online[c.account]--; h.online[c.account] <= 0 {
		delete(h.online, c.account)
	}
	close(c.send)
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{"account": c.account, "client": c.id}).Info("client disconnected")
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var f domain.Frame
		if err := c.conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.WithError(err).WithField("client", c.id).Debug("read failed")
			}
			return
		}
		h.handle(c, f)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case f, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteJSON(f); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
