package types

// IdentityRecord is the persisted form of an IdentityKeyPair.
type IdentityRecord struct {
	Curve      string `json:"curve"`
	Private    []byte `json:"private"`
	Public     []byte `json:"public"`
	CreatedUTC int64  `json:"created_utc"`
}
