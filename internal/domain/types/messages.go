package types

import "time"

// EncryptedPayload is the AEAD output at the wire boundary.
type EncryptedPayload struct {
	IV         string `json:"iv"`
	Ciphertext string `json:"ciphertext"`
}

// Message is one ratchet message: the sender's counter plus the payload.
type Message struct {
	N uint32 `json:"n"`
	EncryptedPayload
}

// FrameType tags relay frames.
type FrameType string

const (
	FrameJoin    FrameType = "join"
	FrameJoined  FrameType = "joined"
	FrameMessage FrameType = "message"
	FrameError   FrameType = "error"
)

// Frame is the unit exchanged with the relay hub over the websocket.
type Frame struct {
	Type    FrameType `json:"type"`
	Room    RoomID    `json:"room,omitempty"`
	From    AccountID `json:"from,omitempty"`
	Message *Message  `json:"message,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// EventKind tags conversation events.
type EventKind int

const (
	EventDelivered EventKind = iota
	EventSent
	EventUndeliverable
)

// ConversationEvent is what a running conversation reports to its owner.
type ConversationEvent struct {
	Kind      EventKind
	Room      RoomID
	N         uint32
	Plaintext string
	Err       error
	At        time.Time
}
