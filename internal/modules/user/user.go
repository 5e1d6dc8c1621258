package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the marketplace role of a user.
type Role string

const (
	RoleCustomer Role = "Customer"
	RoleSeller   Role = "Seller"
	RoleAdmin    Role = "Admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// ParseRole accepts a role name case-insensitively. Empty input yields
// RoleCustomer.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RoleCustomer, true
	}
	for _, r := range []Role{RoleCustomer, RoleSeller, RoleAdmin} {
		if strings.EqualFold(s, string(r)) {
			return r, true
		}
	}
	return "", false
}

// User represents a user in the system.
// @Description User information
// @Description with id, name, email, type, created_at, and updated_at
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"type"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RegisterRequest is the payload for creating a user.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Type     string `json:"type"`
}

// UpdateRequest carries profile changes. Nil fields are left untouched.
type UpdateRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Type     *string `json:"type"`
}

// Actor is the authenticated caller acting on user records.
type Actor struct {
	ID   string
	Role Role
}

// CanManage reports whether the actor may read or change the user with id.
func (a Actor) CanManage(id string) bool {
	return a.Role == RoleAdmin || a.ID == id
}

// UserPage is one page of the user directory.
type UserPage struct {
	Users       []*User `json:"users"`
	TotalUsers  int     `json:"total_users"`
	CurrentPage int     `json:"current_page"`
	TotalPages  int     `json:"total_pages"`
}
