// Package app wires application dependencies for the CLI and the relay.
//
// Configuration is YAML (ClientConfig, ServerConfig) overlaid by command-line
// flags. Wire builds the client graph: the account and known-peer stores, the
// directory client, and on demand the identity store, the session and message
// services and the websocket transport. Server builds the relay: the SQLite
// directory, the token issuer and the hub behind one http.Handler.
package app
