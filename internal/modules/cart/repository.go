package cart

import "context"

// Repository defines cart storage.
type Repository interface {
	// Upsert adds qty to the customer's row for the product, creating it when absent.
	Upsert(ctx context.Context, item *Item) error
	List(ctx context.Context, customerID string) ([]*Item, error)
	UpdateQuantity(ctx context.Context, customerID, productID string, qty int) error
	Remove(ctx context.Context, customerID, productID string) error
	Clear(ctx context.Context, customerID string) error
}
