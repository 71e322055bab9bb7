package types

import "strings"

// AccountID is the opaque, stable identifier the directory assigns to an account.
type AccountID string

// String returns the string form of the account identifier.
func (id AccountID) String() string { return string(id) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// SlotName names an entry in the local identity store.
type SlotName string

// String returns the string form of the slot name.
func (s SlotName) String() string { return string(s) }

// DefaultSlot is the slot the device identity lives in unless configured otherwise.
const DefaultSlot SlotName = "identityKey"

// RoomID names a relay room shared by exactly two accounts.
type RoomID string

// String returns the string form of the room identifier.
func (r RoomID) String() string { return string(r) }

const roomPrefix = "dm:"

// NewRoomID returns the canonical room for a and b. Both peers compute the
// same value without coordinating, whatever the argument order.
func NewRoomID(a, b AccountID) RoomID {
	if a > b {
		a, b = b, a
	}
	return RoomID(roomPrefix + string(a) + ":" + string(b))
}

// Members splits a canonical room identifier back into its two accounts.
func (r RoomID) Members() (AccountID, AccountID, bool) {
	rest, ok := strings.CutPrefix(string(r), roomPrefix)
	if !ok {
		return "", "", false
	}
	a, b, ok := strings.Cut(rest, ":")
	if !ok || a == "" || b == "" || a > b {
		return "", "", false
	}
	return AccountID(a), AccountID(b), true
}

// Has reports whether id is one of the two members of the room.
func (r RoomID) Has(id AccountID) bool {
	a, b, ok := r.Members()
	return ok && (id == a || id == b)
}
