// Package main runs the scred relay: the public-key directory and the
// websocket hub that forwards encrypted messages between room members.
//
// HTTP API
//
//	POST /accounts {name, email, password}
//	    Create an account. 201 {id, token}; 409 if the email is taken.
//
//	POST /sessions {email, password}
//	    Log in. 200 {id, token}; 401 on bad credentials.
//
//	POST /keys {publicKey}                       (bearer token)
//	    Publish the account's identity key once. 201; 400 if not a P-256
//	    SPKI; 409 if a key is already set.
//
//	GET /users                                   (bearer token)
//	    Other accounts with a published key and their online status.
//
//	GET /ws                                      (bearer token or ?token=)
//	    Upgrade to a websocket speaking join/joined/message/error frames.
//
// Behaviour
//
//   - Accounts and keys live in SQLite (--db); rooms and presence are in
//     memory and lost on restart.
//   - Every request gets one structured access-log entry with a request ID.
//   - SIGINT or SIGTERM drains HTTP requests and disconnects websocket
//     clients before exiting.
//
// The relay never sees plaintext or private keys; messages are forwarded as
// ciphertext to the other member of a "dm:<a>:<b>" room and never echoed.
package main
