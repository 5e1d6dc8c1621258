package user

import (
	"context"

	"github.com/georgemunganga/marketplace-api/internal/platform/pagination"
)

// Service defines the interface for user-related business logic.
type Service interface {
	RegisterUser(ctx context.Context, req RegisterRequest) (*User, error)
	// GetUser returns a user to themselves or to an admin.
	GetUser(ctx context.Context, actor Actor, id string) (*User, error)
	Profile(ctx context.Context, actor Actor) (*User, error)
	ListUsers(ctx context.Context, actor Actor, page pagination.Page) (*UserPage, error)
	UpdateUser(ctx context.Context, actor Actor, id string, req UpdateRequest) (*User, error)
	DeleteUser(ctx context.Context, actor Actor, id string) error
}
