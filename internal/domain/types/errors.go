package types

import "errors"

// Protocol failure kinds. Every failure raised by the protocol packages
// matches exactly one of these with errors.Is.
var (
	ErrKeyGeneration         = errors.New("key generation failed")
	ErrKeyFormat             = errors.New("malformed or incompatible public key")
	ErrKeyAgreement          = errors.New("key agreement failed")
	ErrKeyDerivation         = errors.New("key derivation failed")
	ErrAuthentication        = errors.New("message authentication failed")
	ErrSessionNotEstablished = errors.New("session not established")
	ErrMessageOutOfOrder     = errors.New("message counter out of order")
	ErrPeerKeyChanged        = errors.New("peer public key changed")
)

// Directory failures.
var (
	ErrAlreadyPublished = errors.New("identity key already published")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
)

var statusText = map[error]string{
	ErrKeyGeneration:         "Could not generate identity keys.",
	ErrKeyFormat:             "The peer's public key is invalid.",
	ErrKeyAgreement:          "Could not agree on a shared secret with the peer.",
	ErrKeyDerivation:         "Could not derive session keys.",
	ErrAuthentication:        "Message could not be decrypted; it was tampered with or sent under another key.",
	ErrSessionNotEstablished: "No secure session with this peer yet.",
	ErrMessageOutOfOrder:     "Message arrived out of order and was dropped.",
	ErrPeerKeyChanged:        "The peer's identity key changed since it was first seen.",
}

// ProtocolError is the typed failure of a protocol operation.
type ProtocolError struct {
	Kind error
	Op   string
	Err  error
}

// NewProtocolError returns a ProtocolError of the given kind.
func NewProtocolError(kind error, op string, cause error) *ProtocolError {
	return &ProtocolError{Kind: kind, Op: op, Err: cause}
}

func (e *ProtocolError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *ProtocolError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Status returns a human-readable status line for the failure.
func (e *ProtocolError) Status() string {
	if s, ok := statusText[e.Kind]; ok {
		return "Error: " + s
	}
	return "Error: " + e.Kind.Error()
}

// Status renders any error as a status line, preferring the protocol text.
func Status(err error) string {
	if err == nil {
		return ""
	}
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Status()
	}
	return "Error: " + err.Error()
}
