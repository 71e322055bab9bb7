package types

// Session binds the local identity, one peer key and the two ratchet
// directions. It lives as long as the conversation and is never persisted.
type Session struct {
	Local IdentityKeyPair
	Peer  PublicKeyMaterial
	Send  RatchetState
	Recv  RatchetState
}

// Established reports whether the session carries both key halves it needs.
func (s Session) Established() bool {
	return s.Local.Valid() && s.Peer.Key != nil
}
