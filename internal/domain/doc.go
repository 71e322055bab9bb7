// Package domain defines core data models and interfaces shared across the app.
// It contains plain types (keys, ratchet state, wire frames), the protocol
// error taxonomy, and contracts (interfaces) only.
package domain
