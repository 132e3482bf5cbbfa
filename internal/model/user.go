package model

import "strings"

// RoleAdmin is the role that suppresses notification generation.
const RoleAdmin = "admin"

// User is the identity a synchronizer runs for.
type User struct {
	ID   string `json:"id"`
	Role string `json:"role,omitempty"`
}

// IsAdmin reports whether the user holds the admin role ("admin" or "Admin").
func (u User) IsAdmin() bool {
	return strings.EqualFold(strings.TrimSpace(u.Role), RoleAdmin)
}
