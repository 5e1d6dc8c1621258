package catalog

import (
	"context"

	"github.com/georgemunganga/marketplace-api/internal/platform/pagination"
)

// Repository defines the interface for product data storage.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, filter ListFilter, page pagination.Page) ([]*Product, int, error)
	Update(ctx context.Context, p *Product) error
	// Deactivate hides a product from listings without removing it, so
	// past order lines keep their reference.
	Deactivate(ctx context.Context, id string) error
	// Rate records userID's rating, replacing any earlier one.
	Rate(ctx context.Context, productID, userID string, rating int) error

	ListCategories(ctx context.Context) ([]*Category, error)
	GetCategory(ctx context.Context, id string) (*Category, error)
	// CreateCategory inserts c and returns it with created=true. When a
	// category of the same name ignoring case exists, that one is returned
	// with created=false.
	CreateCategory(ctx context.Context, c *Category) (stored *Category, created bool, err error)
}
