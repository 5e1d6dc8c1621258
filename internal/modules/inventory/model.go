package inventory

import "github.com/google/uuid"

// StockItem is the slice of a product the order engine needs: price and
// seller to snapshot, name to report shortages, and the current count.
type StockItem struct {
	ProductID uuid.UUID `json:"product_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	InStock   int       `json:"in_stock"`
	IsActive  bool      `json:"is_active"`
}
