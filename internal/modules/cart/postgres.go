package cart

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
	"github.com/georgemunganga/marketplace-api/internal/platform/database"
)

type postgresRepo struct{ db database.DBTX }

func NewPostgresRepository(db database.DBTX) Repository { return &postgresRepo{db: db} }

func parseIDs(customerID, productID string) (uuid.UUID, uuid.UUID, error) {
	cid, err := uuid.Parse(customerID)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperr.InvalidInput("invalid customer id")
	}
	pid, err := uuid.Parse(productID)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperr.InvalidInput("invalid product id")
	}
	return cid, pid, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, item *Item) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (id, customer_id, product_id, quantity)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (customer_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, quantity, created_at, updated_at`,
		item.ID, item.CustomerID, item.ProductID, item.Quantity).
		Scan(&item.ID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	return apperr.Storage(err)
}

func (r *postgresRepo) List(ctx context.Context, customerID string) ([]*Item, error) {
	cid, err := uuid.Parse(customerID)
	if err != nil {
		return nil, apperr.InvalidInput("invalid customer id")
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.customer_id, c.product_id, c.quantity, p.name, p.price, p.in_stock, c.created_at, c.updated_at
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.customer_id = $1
		ORDER BY c.created_at`, cid)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	items := []*Item{}
	for rows.Next() {
		it := &Item{}
		if err := rows.Scan(&it.ID, &it.CustomerID, &it.ProductID, &it.Quantity,
			&it.ProductName, &it.ProductPrice, &it.InStock, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, apperr.Storage(err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err)
	}
	return items, nil
}

func (r *postgresRepo) UpdateQuantity(ctx context.Context, customerID, productID string, qty int) error {
	cid, pid, err := parseIDs(customerID, productID)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity=$3, updated_at=NOW() WHERE customer_id=$1 AND product_id=$2`, cid, pid, qty)
	return affected(res, err)
}

func (r *postgresRepo) Remove(ctx context.Context, customerID, productID string) error {
	cid, pid, err := parseIDs(customerID, productID)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE customer_id=$1 AND product_id=$2`, cid, pid)
	return affected(res, err)
}

func (r *postgresRepo) Clear(ctx context.Context, customerID string) error {
	cid, err := uuid.Parse(customerID)
	if err != nil {
		return apperr.InvalidInput("invalid customer id")
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE customer_id=$1`, cid)
	return apperr.Storage(err)
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return apperr.Storage(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage(err)
	}
	if n == 0 {
		return apperr.NotFound("item not in cart")
	}
	return nil
}
