package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
	"github.com/georgemunganga/marketplace-api/internal/platform/database"
)

type postgresRepo struct{ db database.DBTX }

// NewPostgresRepository works against either the pool or an open transaction.
func NewPostgresRepository(db database.DBTX) Repository { return &postgresRepo{db: db} }

func parseProductID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperr.InvalidInput("invalid product id: %s", id)
	}
	return uid, nil
}

func (r *postgresRepo) Get(ctx context.Context, productID string) (*StockItem, error) {
	uid, err := parseProductID(productID)
	if err != nil {
		return nil, err
	}
	item := &StockItem{}
	err = r.db.QueryRowContext(ctx, `
		SELECT id, seller_id, name, price, in_stock, is_active
		FROM products WHERE id=$1`, uid).
		Scan(&item.ProductID, &item.SellerID, &item.Name, &item.Price, &item.InStock, &item.IsActive)
	if database.IsNoRows(err) {
		return nil, apperr.NotFound("product not found: %s", productID)
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return item, nil
}

func (r *postgresRepo) FetchActive(ctx context.Context, productID string) (*StockItem, error) {
	item, err := r.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !item.IsActive {
		return nil, apperr.NotFound("product not found: %s", productID)
	}
	return item, nil
}

func (r *postgresRepo) DecrementStock(ctx context.Context, productID string, qty int) (int, error) {
	if qty < 1 {
		return 0, apperr.InvalidInput("quantity must be at least 1")
	}
	uid, err := parseProductID(productID)
	if err != nil {
		return 0, err
	}
	var remaining int
	err = r.db.QueryRowContext(ctx, `
		UPDATE products SET in_stock = in_stock - $2, updated_at = NOW()
		WHERE id = $1 AND is_active AND in_stock >= $2
		RETURNING in_stock`, uid, qty).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !database.IsNoRows(err) {
		return 0, apperr.Storage(err)
	}

	// The guard rejected the write; report why.
	item, err := r.FetchActive(ctx, productID)
	if err != nil {
		return 0, err
	}
	return 0, apperr.InsufficientStock(productID, item.Name, item.InStock, qty)
}

func (r *postgresRepo) RestoreStock(ctx context.Context, productID string, qty int) error {
	if qty < 1 {
		return nil
	}
	uid, err := parseProductID(productID)
	if err != nil {
		return err
	}
	return r.exec(ctx, productID,
		`UPDATE products SET in_stock = in_stock + $2, updated_at = NOW() WHERE id = $1`, uid, qty)
}

func (r *postgresRepo) SetStock(ctx context.Context, productID string, qty int) error {
	if qty < 0 {
		return apperr.InvalidInput("stock must not be negative")
	}
	uid, err := parseProductID(productID)
	if err != nil {
		return err
	}
	return r.exec(ctx, productID,
		`UPDATE products SET in_stock = $2, updated_at = NOW() WHERE id = $1`, uid, qty)
}

func (r *postgresRepo) SetAvailability(ctx context.Context, productID string, active bool) error {
	uid, err := parseProductID(productID)
	if err != nil {
		return err
	}
	return r.exec(ctx, productID,
		`UPDATE products SET is_active = $2, updated_at = NOW() WHERE id = $1`, uid, active)
}

func (r *postgresRepo) exec(ctx context.Context, productID, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return apperr.Storage(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage(err)
	}
	if n == 0 {
		return apperr.NotFound("product not found: %s", productID)
	}
	return nil
}
