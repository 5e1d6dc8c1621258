package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Product is a listing owned by a seller. Stock is managed through the
// inventory module; the catalog only reads it.
type Product struct {
	ID            uuid.UUID `json:"id"`
	SellerID      uuid.UUID `json:"seller_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Price         float64   `json:"price"`
	InStock       int       `json:"in_stock"`
	Categories    []string  `json:"categories"`
	IsActive      bool      `json:"is_active"`
	AverageRating float64   `json:"average_rating"`
	RatingCount   int       `json:"rating_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Category is a named product grouping. Names are unique ignoring case.
type Category struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ListFilter narrows product listings. Zero values do not filter.
type ListFilter struct {
	Category   string
	Categories []string // matches products in any of these
	SellerID   string
	Query      string // case-insensitive match on name or description
	MinPrice   *float64
	MaxPrice   *float64
	ActiveOnly bool
}

const (
	MinRating = 1
	MaxRating = 5
)
