// Package relay holds the client side of the scred server.
//
// HTTP talks to the public-key directory: account sign-up and log-in, key
// publication and the peer listing. WS is the Transport to the relay hub: it
// joins rooms and exchanges ratchet messages as JSON frames over a single
// websocket, delivering everything inbound on one channel.
//
// All requests accept a context for cancellation and deadlines. Non-2xx
// directory responses come back as *StatusError, which unwraps to
// domain.ErrUnauthorized, domain.ErrNotFound or domain.ErrConflict.
package relay
