// Package message runs conversations over the relay transport.
//
// A conversation owns one Session and a single goroutine. That goroutine
// drains the conversation's inbound channel (fed from the transport) and its
// outbound request channel, applies each event to the session through the
// pure coordinator and carries out the resulting effect: transmitting a
// message, delivering plaintext or reporting an undeliverable message.
// Session state is only ever touched by that goroutine.
package message
