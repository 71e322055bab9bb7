package types

// AccountProfile identifies a scred account on a specific directory server.
type AccountProfile struct {
	ServerURL string    `json:"server_url" yaml:"server_url"`
	AccountID AccountID `json:"account_id" yaml:"account_id"`
	Name      string    `json:"name" yaml:"name"`
	Email     string    `json:"email" yaml:"email"`
	Token     string    `json:"token" yaml:"token"`
}

// Credentials is what the directory returns on sign-up or log-in.
type Credentials struct {
	AccountID AccountID `json:"id"`
	Token     string    `json:"token"`
}

// Peer is one entry of the public-key directory.
type Peer struct {
	ID        AccountID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsOnline  bool      `json:"isOnline"`
	PublicKey string    `json:"publicKey,omitempty"`
}

// SignUpRequest is the body of POST /accounts.
type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LogInRequest is the body of POST /sessions.
type LogInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PublishKeyRequest is the body of POST /keys.
type PublishKeyRequest struct {
	PublicKey string `json:"publicKey"`
}

// ErrorResponse is the JSON body of every non-2xx directory response.
type ErrorResponse struct {
	Error string `json:"error"`
}
