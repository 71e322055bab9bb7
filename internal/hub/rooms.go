package hub

import (
	"github.com/sirupsen/logrus"

	"scred/internal/domain"
)

const (
	errNotMember = "not a member of this room"
	errNotJoined = "join the room before sending"
	errNoMessage = "message frame without message"
	errBadFrame  = "unknown frame type"
)

func (h *Hub) handle(c *client, f domain.Frame) {
	switch f.Type {
	case domain.FrameJoin:
		h.join(c, f.Room)
	case domain.FrameMessage:
		h.relay(c, f)
	default:
		h.reply(c, domain.Frame{Type: domain.FrameError, Room: f.Room, Error: errBadFrame})
	}
}

func (h *Hub) join(c *client, room domain.RoomID) {
	if !room.Has(c.account) {
		h.reply(c, domain.Frame{Type: domain.FrameError, Room: room, Error: errNotMember})
		return
	}

	h.mu.Lock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{"account": c.account, "room": room}).Debug("joined room")
	h.reply(c, domain.Frame{Type: domain.FrameJoined, Room: room})
}

func (h *Hub) relay(c *client, f domain.Frame) {
	if f.Message == nil {
		h.reply(c, domain.Frame{Type: domain.FrameError, Room: f.Room, Error: errNoMessage})
		return
	}
	out := domain.Frame{Type: domain.FrameMessage, Room: f.Room, From: c.account, Message: f.Message}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, joined := c.rooms[f.Room]; !joined {
		h.sendLocked(c, domain.Frame{Type: domain.FrameError, Room: f.Room, Error: errNotJoined})
		return
	}
	for peer := range h.rooms[f.Room] {
		if peer == c {
			continue
		}
		h.sendLocked(peer, out)
	}
}

func (h *Hub) reply(c *client, f domain.Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.sendLocked(c, f)
}

// sendLocked queues f for c. h.mu must be held. A client that cannot keep
// up loses the frame.
func (h *Hub) sendLocked(c *client, f domain.Frame) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- f:
	default:
		h.log.WithFields(logrus.Fields{"account": c.account, "room": f.Room}).Warn("send buffer full, dropping frame")
	}
}
