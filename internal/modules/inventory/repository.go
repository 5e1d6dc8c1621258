package inventory

import "context"

// Repository defines product stock storage. Implementations must make
// DecrementStock a single conditional write so concurrent orders cannot
// oversell.
type Repository interface {
	// Get returns the product regardless of its active flag.
	Get(ctx context.Context, productID string) (*StockItem, error)
	// FetchActive returns NotFound for missing or inactive products.
	FetchActive(ctx context.Context, productID string) (*StockItem, error)
	// DecrementStock reduces stock by qty only if at least qty is available
	// and returns the remaining count. Otherwise it fails with
	// InsufficientStock and leaves stock untouched.
	DecrementStock(ctx context.Context, productID string, qty int) (int, error)
	RestoreStock(ctx context.Context, productID string, qty int) error
	SetStock(ctx context.Context, productID string, qty int) error
	SetAvailability(ctx context.Context, productID string, active bool) error
}
