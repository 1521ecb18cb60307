package models

// Principal is the per-request authorization view of an identity. It is
// rebuilt from a fresh identity lookup and never stored.
type Principal struct {
	ID           string
	Username     string
	Email        string
	Roles        RoleSet
	TokenVersion int64
}

// NewPrincipal copies the authorization-relevant fields of i.
func NewPrincipal(i *Identity) *Principal {
	return &Principal{
		ID:           i.ID,
		Username:     i.Username,
		Email:        i.Email,
		Roles:        NewRoleSet(i.Roles...),
		TokenVersion: i.TokenVersion,
	}
}
