package user

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
	"github.com/georgemunganga/marketplace-api/internal/platform/pagination"
)

const minPasswordLength = 6

type service struct {
	repo Repository
}

// NewService creates a new user service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) RegisterUser(ctx context.Context, req RegisterRequest) (*User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.InvalidInput("name is required")
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	role, err := assignableRole(req.Type)
	if err != nil {
		return nil, err
	}
	hashedPassword, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         role,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *service) GetUser(ctx context.Context, actor Actor, id string) (*User, error) {
	if !actor.CanManage(id) {
		return nil, apperr.Forbidden("you can only view your own account")
	}
	return s.repo.GetUserByID(ctx, id)
}

func (s *service) Profile(ctx context.Context, actor Actor) (*User, error) {
	return s.repo.GetUserByID(ctx, actor.ID)
}

func (s *service) ListUsers(ctx context.Context, actor Actor, page pagination.Page) (*UserPage, error) {
	if actor.Role != RoleAdmin {
		return nil, apperr.Forbidden("only admins can list users")
	}
	users, total, err := s.repo.ListUsers(ctx, page)
	if err != nil {
		return nil, err
	}
	return &UserPage{
		Users:       users,
		TotalUsers:  total,
		CurrentPage: page.Number,
		TotalPages:  page.TotalPages(total),
	}, nil
}

func (s *service) UpdateUser(ctx context.Context, actor Actor, id string, req UpdateRequest) (*User, error) {
	if !actor.CanManage(id) {
		return nil, apperr.Forbidden("you can only update your own account")
	}
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperr.InvalidInput("name must not be empty")
		}
		user.Name = name
	}
	if req.Email != nil {
		if user.Email, err = normalizeEmail(*req.Email); err != nil {
			return nil, err
		}
	}
	if req.Type != nil {
		if user.Role, err = assignableRole(*req.Type); err != nil {
			return nil, err
		}
	}
	if req.Password != nil {
		if user.PasswordHash, err = hashPassword(*req.Password); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) DeleteUser(ctx context.Context, actor Actor, id string) error {
	if !actor.CanManage(id) {
		return apperr.Forbidden("you can only delete your own account")
	}
	if actor.Role == RoleAdmin && actor.ID == id {
		return apperr.Forbidden("admins cannot delete their own account")
	}
	return s.repo.DeleteUser(ctx, id)
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", apperr.InvalidInput("a valid email is required")
	}
	return email, nil
}

// assignableRole parses a role a caller may hold through the API. Admin
// accounts are provisioned out of band.
func assignableRole(raw string) (Role, error) {
	role, ok := ParseRole(raw)
	if !ok {
		return "", apperr.InvalidInput("type must be one of Customer, Seller")
	}
	if role == RoleAdmin {
		return "", apperr.Forbidden("the Admin role cannot be assigned through the API")
	}
	return role, nil
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", apperr.InvalidInput("password must be at least %d characters", minPasswordLength)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
