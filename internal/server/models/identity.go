// Package models holds the identity records and authorization views shared
// by the auth server's repositories, services and transport.
package models

import "time"

// Identity is a registered account.
type Identity struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string

	Name      string
	Phone     string
	BirthDate string
	Gender    string

	Roles RoleSet

	Enabled               bool
	AccountNonExpired     bool
	AccountNonLocked      bool
	CredentialsNonExpired bool

	// TokenVersion is embedded in every issued token. Bumping it invalidates
	// all outstanding tokens of the identity.
	TokenVersion int64

	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt *time.Time
}

// Active reports whether the identity may authenticate.
func (i *Identity) Active() bool {
	return i.Enabled && i.AccountNonExpired && i.AccountNonLocked && i.CredentialsNonExpired
}
