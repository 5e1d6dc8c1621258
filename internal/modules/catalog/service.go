package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/georgemunganga/marketplace-api/internal/modules/auth"
	"github.com/georgemunganga/marketplace-api/internal/modules/user"
	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
	"github.com/georgemunganga/marketplace-api/internal/platform/pagination"
)

// Service defines catalog business logic.
type Service interface {
	CreateProduct(ctx context.Context, p auth.Principal, req ProductRequest) (*Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, filter ListFilter, page pagination.Page) (*ProductPage, error)
	UpdateProduct(ctx context.Context, p auth.Principal, id string, req ProductRequest) (*Product, error)
	// DeleteProduct deactivates the product. Only its seller or an admin may.
	DeleteProduct(ctx context.Context, p auth.Principal, id string) error
	// SearchProducts matches active products by name or description.
	SearchProducts(ctx context.Context, query string, page pagination.Page) (*ProductPage, error)
	// SellerProducts lists the calling seller's products, inactive included.
	SellerProducts(ctx context.Context, p auth.Principal, page pagination.Page) (*ProductPage, error)
	RateProduct(ctx context.Context, p auth.Principal, id string, rating int) (*Product, error)

	ListCategories(ctx context.Context) ([]*Category, error)
	GetCategory(ctx context.Context, id string) (*Category, error)
	// CreateCategory returns the existing category with created=false when
	// the name is already taken ignoring case.
	CreateCategory(ctx context.Context, p auth.Principal, req CategoryRequest) (*Category, bool, error)
}

// CategoryRequest is the payload for creating a category.
type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProductRequest holds the data for creating or updating a product.
// SellerID is honoured only for Admin callers.
type ProductRequest struct {
	SellerID    string   `json:"seller_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	InStock     int      `json:"in_stock"`
	Categories  []string `json:"categories"`
	IsActive    *bool    `json:"is_active"`
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products      []*Product `json:"products"`
	TotalProducts int        `json:"total_products"`
	CurrentPage   int        `json:"current_page"`
	TotalPages    int        `json:"total_pages"`
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (req ProductRequest) validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return apperr.InvalidInput("name is required")
	}
	if req.Price < 0 {
		return apperr.InvalidInput("price must not be negative")
	}
	if req.InStock < 0 {
		return apperr.InvalidInput("in_stock must not be negative")
	}
	return nil
}

func (s *service) CreateProduct(ctx context.Context, principal auth.Principal, req ProductRequest) (*Product, error) {
	if !principal.Is(user.RoleSeller) && !principal.Is(user.RoleAdmin) {
		return nil, apperr.Forbidden("only sellers and admins can create products")
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	owner := principal.UserID
	if principal.Is(user.RoleAdmin) && req.SellerID != "" {
		owner = req.SellerID
	}
	sellerID, err := uuid.Parse(owner)
	if err != nil {
		return nil, apperr.InvalidInput("invalid seller_id")
	}

	p := &Product{
		ID:          uuid.New(),
		SellerID:    sellerID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		InStock:     req.InStock,
		Categories:  normalizeCategories(req.Categories),
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	if err := s.ensureCategories(ctx, p.Categories, principal.UserID); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListProducts(ctx context.Context, filter ListFilter, page pagination.Page) (*ProductPage, error) {
	if filter.MinPrice != nil && *filter.MinPrice < 0 || filter.MaxPrice != nil && *filter.MaxPrice < 0 {
		return nil, apperr.InvalidInput("price bounds must not be negative")
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, apperr.InvalidInput("min_price must not exceed max_price")
	}
	filter.Category = strings.ToLower(strings.TrimSpace(filter.Category))
	filter.Categories = normalizeCategories(filter.Categories)
	filter.Query = strings.TrimSpace(filter.Query)

	products, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return &ProductPage{
		Products:      products,
		TotalProducts: total,
		CurrentPage:   page.Number,
		TotalPages:    page.TotalPages(total),
	}, nil
}

func (s *service) UpdateProduct(ctx context.Context, principal auth.Principal, id string, req ProductRequest) (*Product, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.Is(user.RoleAdmin) && !(principal.Is(user.RoleSeller) && p.SellerID.String() == principal.UserID) {
		return nil, apperr.Forbidden("you can only update your own products")
	}

	p.Name = strings.TrimSpace(req.Name)
	p.Description = req.Description
	p.Price = req.Price
	if req.Categories != nil {
		p.Categories = normalizeCategories(req.Categories)
		if err := s.ensureCategories(ctx, p.Categories, principal.UserID); err != nil {
			return nil, err
		}
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) DeleteProduct(ctx context.Context, principal auth.Principal, id string) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !principal.Is(user.RoleAdmin) && !(principal.Is(user.RoleSeller) && p.SellerID.String() == principal.UserID) {
		return apperr.Forbidden("you can only delete your own products")
	}
	return s.repo.Deactivate(ctx, id)
}

func (s *service) SearchProducts(ctx context.Context, query string, page pagination.Page) (*ProductPage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.InvalidInput("search query is required")
	}
	return s.ListProducts(ctx, ListFilter{Query: query, ActiveOnly: true}, page)
}

func (s *service) SellerProducts(ctx context.Context, principal auth.Principal, page pagination.Page) (*ProductPage, error) {
	if !principal.Is(user.RoleSeller) {
		return nil, apperr.Forbidden("only sellers have their own products")
	}
	return s.ListProducts(ctx, ListFilter{SellerID: principal.UserID}, page)
}

func (s *service) RateProduct(ctx context.Context, principal auth.Principal, id string, rating int) (*Product, error) {
	if rating < MinRating || rating > MaxRating {
		return nil, apperr.InvalidInput("rating must be between %d and %d", MinRating, MaxRating)
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, apperr.NotFound("product not found")
	}
	if err := s.repo.Rate(ctx, id, principal.UserID, rating); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListCategories(ctx context.Context) ([]*Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *service) GetCategory(ctx context.Context, id string) (*Category, error) {
	return s.repo.GetCategory(ctx, id)
}

func (s *service) CreateCategory(ctx context.Context, principal auth.Principal, req CategoryRequest) (*Category, bool, error) {
	if !principal.Is(user.RoleAdmin) {
		return nil, false, apperr.Forbidden("only admins can create categories")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, false, apperr.InvalidInput("category name is required")
	}
	return s.repo.CreateCategory(ctx, newCategory(name, strings.TrimSpace(req.Description), principal.UserID))
}

// ensureCategories registers product category names that are not yet known.
func (s *service) ensureCategories(ctx context.Context, names []string, creator string) error {
	for _, name := range names {
		if _, _, err := s.repo.CreateCategory(ctx, newCategory(name, "", creator)); err != nil {
			return err
		}
	}
	return nil
}

func newCategory(name, description, creator string) *Category {
	c := &Category{ID: uuid.New(), Name: name, Description: description, IsActive: true}
	if id, err := uuid.Parse(creator); err == nil {
		c.CreatedBy = &id
	}
	return c
}

func normalizeCategories(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, c := range in {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
