package order

import (
	"context"

	"github.com/georgemunganga/marketplace-api/internal/modules/inventory"
	"github.com/georgemunganga/marketplace-api/internal/platform/pagination"
)

// Repository defines order storage. Reads resolve customer and seller
// display fields.
type Repository interface {
	Insert(ctx context.Context, o *Order) error
	// GetByID returns NotFound when the order does not exist.
	GetByID(ctx context.Context, id string) (*Order, error)
	// GetForUpdate is GetByID holding a row lock until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id string) (*Order, error)
	// GetByNumber looks an order up by its public order number.
	GetByNumber(ctx context.Context, number string) (*Order, error)
	// List returns orders newest first with the total count matching filter.
	List(ctx context.Context, filter ListFilter, page pagination.Page) ([]*Order, int, error)
	UpdateStatus(ctx context.Context, id string, change StatusChange) error
	// Analytics aggregates all orders, or those holding sellerID's lines
	// when sellerID is set.
	Analytics(ctx context.Context, sellerID string) (*Rollup, error)
}

// Stock is the part of the product store the engine mutates.
type Stock interface {
	FetchActive(ctx context.Context, productID string) (*inventory.StockItem, error)
	DecrementStock(ctx context.Context, productID string, qty int) (int, error)
	RestoreStock(ctx context.Context, productID string, qty int) error
}

// Tx groups the stores bound to one transaction.
type Tx struct {
	Orders Repository
	Stock  Stock
}

// UnitOfWork runs fn atomically. Any error returned by fn discards every
// write made through tx.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
