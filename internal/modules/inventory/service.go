package inventory

import (
	"context"

	"github.com/georgemunganga/marketplace-api/internal/modules/auth"
	"github.com/georgemunganga/marketplace-api/internal/modules/user"
	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
)

// Service exposes direct stock edits to product owners and admins. Order
// placement goes through Repository inside its own transaction instead.
type Service interface {
	GetStock(ctx context.Context, productID string) (*StockItem, error)
	UpdateStock(ctx context.Context, p auth.Principal, productID string, qty int) (*StockItem, error)
	SetAvailability(ctx context.Context, p auth.Principal, productID string, available bool) (*StockItem, error)
}

type service struct {
	repo Repository
}

// NewService creates a new inventory service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetStock(ctx context.Context, productID string) (*StockItem, error) {
	return s.repo.Get(ctx, productID)
}

func (s *service) UpdateStock(ctx context.Context, p auth.Principal, productID string, qty int) (*StockItem, error) {
	if qty < 0 {
		return nil, apperr.InvalidInput("quantity must not be negative")
	}
	if err := s.authorize(ctx, p, productID); err != nil {
		return nil, err
	}
	if err := s.repo.SetStock(ctx, productID, qty); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, productID)
}

func (s *service) SetAvailability(ctx context.Context, p auth.Principal, productID string, available bool) (*StockItem, error) {
	if err := s.authorize(ctx, p, productID); err != nil {
		return nil, err
	}
	if err := s.repo.SetAvailability(ctx, productID, available); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, productID)
}

func (s *service) authorize(ctx context.Context, p auth.Principal, productID string) error {
	if p.Is(user.RoleAdmin) {
		return nil
	}
	if !p.Is(user.RoleSeller) {
		return apperr.Forbidden("only sellers and admins can manage stock")
	}
	item, err := s.repo.Get(ctx, productID)
	if err != nil {
		return err
	}
	if item.SellerID.String() != p.UserID {
		return apperr.Forbidden("you can only manage stock of your own products")
	}
	return nil
}
