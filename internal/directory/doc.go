// Package directory is the HTTP side of the scred server: accounts,
// bearer-token authentication, the public-key directory and the entry point
// to the websocket hub.
//
// Routes:
//
//	POST /accounts  {name,email,password}  -> 201 {id,token}
//	POST /sessions  {email,password}       -> 200 {id,token}
//	POST /keys      {publicKey}            -> 201 | 400 | 401 | 409
//	GET  /users                            -> 200 [{id,name,email,isOnline,publicKey}]
//	GET  /ws                               -> websocket upgrade (hub)
//
// Accounts and identity keys live in SQLite. Passwords are stored as
// Argon2id hashes; tokens are HS256 JWTs whose subject is the account ID.
package directory
