package order

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/georgemunganga/marketplace-api/internal/modules/inventory"
	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
	"github.com/georgemunganga/marketplace-api/internal/platform/database"
	"github.com/georgemunganga/marketplace-api/internal/platform/pagination"
)

const orderColumns = `
	o.id, o.order_number, o.customer_id, COALESCE(u.name, ''), COALESCE(u.email, ''),
	o.street, o.city, o.state, o.zip_code, o.country,
	o.payment_method, o.payment_status, o.status,
	o.total_amount, o.discount_amount, o.tax_amount, o.shipping_cost, o.final_amount,
	o.order_notes, o.tracking_number, o.estimated_delivery,
	o.delivered_at, o.cancelled_at, o.cancel_reason, o.created_at, o.updated_at`

const orderFrom = ` FROM orders o LEFT JOIN users u ON u.id = o.customer_id`

type postgresRepo struct{ db database.DBTX }

// NewPostgresRepository works against either the pool or an open transaction.
func NewPostgresRepository(db database.DBTX) Repository { return &postgresRepo{db: db} }

// Insert writes the order and its lines. Callers run it inside a
// transaction together with the stock decrements.
func (r *postgresRepo) Insert(ctx context.Context, o *Order) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO orders
		  (id, order_number, customer_id, street, city, state, zip_code, country,
		   payment_method, payment_status, status,
		   total_amount, discount_amount, tax_amount, shipping_cost, final_amount,
		   order_notes, tracking_number, estimated_delivery)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		RETURNING created_at, updated_at`,
		o.ID, o.OrderNumber, o.Customer.ID,
		o.ShippingAddress.Street, o.ShippingAddress.City, o.ShippingAddress.State,
		o.ShippingAddress.ZipCode, o.ShippingAddress.Country,
		o.PaymentMethod, o.PaymentStatus, o.Status,
		o.TotalAmount, o.DiscountAmount, o.TaxAmount, o.ShippingCost, o.FinalAmount,
		o.OrderNotes, o.TrackingNumber, o.EstimatedDelivery).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return apperr.Conflict("order number already in use")
	}
	if err != nil {
		return apperr.Storage(fmt.Errorf("insert order: %w", err))
	}

	for i, item := range o.Items {
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO order_items
			  (id, order_id, position, product_id, product_name, seller_id, quantity, unit_price, line_total)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			item.ID, o.ID, i, item.ProductID, item.ProductName, item.Seller.ID,
			item.Quantity, item.UnitPrice, item.LineTotal)
		if err != nil {
			return apperr.Storage(fmt.Errorf("insert order item: %w", err))
		}
	}
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.InvalidInput("invalid order id")
	}
	return r.get(ctx, ` WHERE o.id=$1`, uid)
}

func (r *postgresRepo) GetForUpdate(ctx context.Context, id string) (*Order, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.InvalidInput("invalid order id")
	}
	return r.get(ctx, ` WHERE o.id=$1 FOR UPDATE OF o`, uid)
}

func (r *postgresRepo) GetByNumber(ctx context.Context, number string) (*Order, error) {
	return r.get(ctx, ` WHERE o.order_number=$1`, number)
}

func (r *postgresRepo) get(ctx context.Context, where string, arg any) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT`+orderColumns+orderFrom+where, arg).Scan)
	if database.IsNoRows(err) {
		return nil, apperr.NotFound("order not found")
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if err := r.attachItems(ctx, []*Order{o}, ""); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) List(ctx context.Context, filter ListFilter, page pagination.Page) ([]*Order, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	n := 1
	if filter.CustomerID != "" {
		cid, err := uuid.Parse(filter.CustomerID)
		if err != nil {
			return nil, 0, apperr.InvalidInput("invalid customer id")
		}
		where += fmt.Sprintf(` AND o.customer_id=$%d`, n)
		args = append(args, cid)
		n++
	}
	if filter.SellerID != "" {
		sid, err := uuid.Parse(filter.SellerID)
		if err != nil {
			return nil, 0, apperr.InvalidInput("invalid seller id")
		}
		where += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM order_items si WHERE si.order_id = o.id AND si.seller_id=$%d)`, n)
		args = append(args, sid)
		n++
	}
	if filter.Status != "" {
		where += fmt.Sprintf(` AND o.status=$%d`, n)
		args = append(args, filter.Status)
		n++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders o`+where, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Storage(err)
	}

	query := `SELECT` + orderColumns + orderFrom + where +
		fmt.Sprintf(` ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d`, n, n+1)
	rows, err := r.db.QueryContext(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, apperr.Storage(err)
	}
	defer rows.Close()

	orders := []*Order{}
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, 0, apperr.Storage(err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Storage(err)
	}
	if err := r.attachItems(ctx, orders, filter.SellerID); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// attachItems loads the lines of orders in one query. With sellerID set
// only that seller's lines are loaded.
func (r *postgresRepo) attachItems(ctx context.Context, orders []*Order, sellerID string) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	byID := make(map[uuid.UUID]*Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID.String()
		byID[o.ID] = o
		o.Items = []*Item{}
	}

	query := `
		SELECT i.order_id, i.id, i.product_id, i.product_name, i.seller_id,
		       COALESCE(s.name, ''), COALESCE(s.email, ''), i.quantity, i.unit_price, i.line_total
		FROM order_items i
		LEFT JOIN users s ON s.id = i.seller_id
		WHERE i.order_id = ANY($1::uuid[])`
	args := []any{pq.Array(ids)}
	if sellerID != "" {
		query += ` AND i.seller_id = $2`
		args = append(args, sellerID)
	}
	query += ` ORDER BY i.order_id, i.position`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return apperr.Storage(err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID uuid.UUID
		it := &Item{}
		if err := rows.Scan(&orderID, &it.ID, &it.ProductID, &it.ProductName, &it.Seller.ID,
			&it.Seller.Name, &it.Seller.Email, &it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return apperr.Storage(err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return apperr.Storage(rows.Err())
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, change StatusChange) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return apperr.InvalidInput("invalid order id")
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $2,
		    delivered_at = COALESCE($3, delivered_at),
		    cancelled_at = COALESCE($4, cancelled_at),
		    cancel_reason = COALESCE($5, cancel_reason),
		    updated_at = $6
		WHERE id = $1`,
		uid, change.Status, change.DeliveredAt, change.CancelledAt, change.CancelReason, change.UpdatedAt)
	if err != nil {
		return apperr.Storage(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage(err)
	}
	if n == 0 {
		return apperr.NotFound("order not found")
	}
	return nil
}

func (r *postgresRepo) Analytics(ctx context.Context, sellerID string) (*Rollup, error) {
	scope := ""
	args := []any{}
	if sellerID != "" {
		sid, err := uuid.Parse(sellerID)
		if err != nil {
			return nil, apperr.InvalidInput("invalid seller id")
		}
		scope = ` WHERE EXISTS (SELECT 1 FROM order_items si WHERE si.order_id = o.id AND si.seller_id = $1)`
		args = append(args, sid)
	}

	rollup := &Rollup{ByStatus: map[Status]int{}}
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(o.final_amount), 0), COALESCE(AVG(o.final_amount), 0)
		FROM orders o`+scope, args...).
		Scan(&rollup.TotalOrders, &rollup.TotalRevenue, &rollup.AvgOrderValue)
	if err != nil {
		return nil, apperr.Storage(err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT o.status, COUNT(*) FROM orders o`+scope+` GROUP BY o.status`, args...)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, apperr.Storage(err)
		}
		rollup.ByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err)
	}

	if sellerID != "" {
		var revenue float64
		err := r.db.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(line_total), 0) FROM order_items WHERE seller_id = $1`, args...).
			Scan(&revenue)
		if err != nil {
			return nil, apperr.Storage(err)
		}
		rollup.SellerRevenue = &revenue
	}
	return rollup, nil
}

func scanOrder(scan func(...any) error) (*Order, error) {
	o := &Order{}
	var (
		estimated   sql.NullTime
		deliveredAt sql.NullTime
		cancelledAt sql.NullTime
		reason      sql.NullString
	)
	err := scan(&o.ID, &o.OrderNumber, &o.Customer.ID, &o.Customer.Name, &o.Customer.Email,
		&o.ShippingAddress.Street, &o.ShippingAddress.City, &o.ShippingAddress.State,
		&o.ShippingAddress.ZipCode, &o.ShippingAddress.Country,
		&o.PaymentMethod, &o.PaymentStatus, &o.Status,
		&o.TotalAmount, &o.DiscountAmount, &o.TaxAmount, &o.ShippingCost, &o.FinalAmount,
		&o.OrderNotes, &o.TrackingNumber, &estimated,
		&deliveredAt, &cancelledAt, &reason, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if estimated.Valid {
		o.EstimatedDelivery = estimated.Time
	}
	if deliveredAt.Valid {
		t := deliveredAt.Time
		o.DeliveredAt = &t
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		o.CancelledAt = &t
	}
	o.CancelReason = reason.String
	return o, nil
}

type postgresUnitOfWork struct{ db *sql.DB }

// NewPostgresUnitOfWork binds order and stock stores to one transaction per call.
func NewPostgresUnitOfWork(db *sql.DB) UnitOfWork { return &postgresUnitOfWork{db: db} }

func (u *postgresUnitOfWork) Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return database.WithTx(ctx, u.db, func(sqlTx *sql.Tx) error {
		return fn(ctx, Tx{
			Orders: NewPostgresRepository(sqlTx),
			Stock:  inventory.NewPostgresRepository(sqlTx),
		})
	})
}
