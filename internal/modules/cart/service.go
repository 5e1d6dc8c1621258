package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/marketplace-api/internal/modules/inventory"
	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
)

// Service defines cart business logic. All calls act on the caller's own cart.
type Service interface {
	AddItem(ctx context.Context, customerID string, req AddItemRequest) (*Item, error)
	GetCart(ctx context.Context, customerID string) (*Cart, error)
	UpdateQuantity(ctx context.Context, customerID, productID string, qty int) error
	RemoveItem(ctx context.Context, customerID, productID string) error
	// Clear empties the cart. The order engine calls it after an order commits.
	Clear(ctx context.Context, customerID string) error
}

type service struct {
	repo     Repository
	products inventory.Repository
}

func NewService(repo Repository, products inventory.Repository) Service {
	return &service{repo: repo, products: products}
}

func (s *service) AddItem(ctx context.Context, customerID string, req AddItemRequest) (*Item, error) {
	if req.Quantity < 1 {
		return nil, apperr.InvalidInput("quantity must be at least 1")
	}
	product, err := s.products.FetchActive(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product.InStock < req.Quantity {
		return nil, apperr.InsufficientStock(req.ProductID, product.Name, product.InStock, req.Quantity)
	}
	cid, err := uuid.Parse(customerID)
	if err != nil {
		return nil, apperr.InvalidInput("invalid customer id")
	}

	item := &Item{
		ID:           uuid.New(),
		CustomerID:   cid,
		ProductID:    product.ProductID,
		Quantity:     req.Quantity,
		ProductName:  product.Name,
		ProductPrice: product.Price,
		InStock:      product.InStock,
	}
	if err := s.repo.Upsert(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) GetCart(ctx context.Context, customerID string) (*Cart, error) {
	items, err := s.repo.List(ctx, customerID)
	if err != nil {
		return nil, err
	}
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(decimal.NewFromFloat(it.ProductPrice).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return &Cart{Items: items, Subtotal: subtotal.Round(2).InexactFloat64()}, nil
}

func (s *service) UpdateQuantity(ctx context.Context, customerID, productID string, qty int) error {
	if qty < 1 {
		return apperr.InvalidInput("quantity must be at least 1")
	}
	return s.repo.UpdateQuantity(ctx, customerID, productID, qty)
}

func (s *service) RemoveItem(ctx context.Context, customerID, productID string) error {
	return s.repo.Remove(ctx, customerID, productID)
}

func (s *service) Clear(ctx context.Context, customerID string) error {
	return s.repo.Clear(ctx, customerID)
}
