package domain

import "time"

// RefreshToken is one entry in a user's refresh-token list. Only the
// SHA-256 fingerprint of the opaque token is stored.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TokenPair is what a successful login, registration, or refresh hands
// back to the transport layer.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}
