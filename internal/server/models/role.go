package models

import (
	"fmt"
	"slices"
	"strings"
)

// Role is a closed authorization tag.
type Role string

const (
	RoleUser       Role = "ROLE_USER"
	RoleInstructor Role = "ROLE_INSTRUCTOR"
	RoleAdmin      Role = "ROLE_ADMIN"
)

// DefaultRole is assigned when an identity would otherwise have no roles.
const DefaultRole = RoleUser

var knownRoles = map[Role]struct{}{
	RoleUser:       {},
	RoleInstructor: {},
	RoleAdmin:      {},
}

// ParseRole accepts only known tags.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(s))
	if _, ok := knownRoles[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// RoleSet is a sorted, duplicate-free list of roles.
type RoleSet []Role

// NewRoleSet normalizes roles and falls back to DefaultRole when empty.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, 0, len(roles))
	for _, r := range roles {
		if !slices.Contains(set, r) {
			set = append(set, r)
		}
	}
	if len(set) == 0 {
		set = append(set, DefaultRole)
	}
	slices.Sort(set)
	return set
}

// ParseRoleSet parses raw tags, rejecting unknown ones.
func ParseRoleSet(raw []string) (RoleSet, error) {
	roles := make([]Role, 0, len(raw))
	for _, s := range raw {
		r, err := ParseRole(s)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return NewRoleSet(roles...), nil
}

func (s RoleSet) Has(r Role) bool {
	return slices.Contains(s, r)
}

func (s RoleSet) Strings() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = string(r)
	}
	return out
}
