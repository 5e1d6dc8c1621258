package cart

import (
	"time"

	"github.com/google/uuid"
)

// Item is one product in a customer's cart. Product fields are resolved on
// read and never stored with the cart row.
type Item struct {
	ID           uuid.UUID `json:"id"`
	CustomerID   uuid.UUID `json:"customer_id"`
	ProductID    uuid.UUID `json:"product_id"`
	Quantity     int       `json:"quantity"`
	ProductName  string    `json:"product_name,omitempty"`
	ProductPrice float64   `json:"product_price,omitempty"`
	InStock      int       `json:"in_stock"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Cart is the customer's cart with a running subtotal.
type Cart struct {
	Items    []*Item `json:"items"`
	Subtotal float64 `json:"subtotal"`
}

// AddItemRequest adds quantity of a product, merging with an existing row.
type AddItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}
