package domain

import "time"

// Role is the coarse permission level of a user. There are no scopes;
// the API only distinguishes regular users from admins.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID           string
	Name         string
	Email        string     // unique, stored lowercase
	PasswordHash string     // argon2 encoded
	Role         Role
	Avatar       string     // optional URL
	Active       bool       // soft-disable flag; inactive users cannot log in
	LastLogin    *time.Time // nullable, stamped on successful login
	TOTPSecret   *string    // base32 TOTP secret (nullable)
	TOTPEnabled  *time.Time // when the second factor was activated (nullable)
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MFAActive reports whether login requires a TOTP code for this user.
func (u User) MFAActive() bool {
	return u.TOTPEnabled != nil && u.TOTPSecret != nil && *u.TOTPSecret != ""
}
