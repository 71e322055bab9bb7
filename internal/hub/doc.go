// Package hub is the websocket relay of the scred server.
//
// Each authenticated connection may join direct-message rooms it is a member
// of (see domain.RoomID) and send ratchet messages into them. A message is
// forwarded to every other connection joined to the same room and never
// echoed back to its sender. The hub only sees ciphertext.
package hub
