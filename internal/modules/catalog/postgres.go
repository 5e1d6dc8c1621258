package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
	"github.com/georgemunganga/marketplace-api/internal/platform/database"
	"github.com/georgemunganga/marketplace-api/internal/platform/pagination"
)

const productColumns = `id, seller_id, name, description, price, in_stock, categories, is_active, created_at, updated_at,
	COALESCE((SELECT AVG(r.rating) FROM product_ratings r WHERE r.product_id = products.id), 0),
	(SELECT COUNT(*) FROM product_ratings r WHERE r.product_id = products.id)`

const categoryColumns = `id, name, description, created_by, is_active, created_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type postgresRepo struct{ db database.DBTX }

func NewPostgresRepository(db database.DBTX) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, p *Product) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products (id, seller_id, name, description, price, in_stock, categories, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		p.ID, p.SellerID, p.Name, p.Description, p.Price,
		p.InStock, pq.Array(p.Categories), p.IsActive).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	return apperr.Storage(err)
}

func scanProduct(scan func(...any) error) (*Product, error) {
	p := &Product{}
	var categories pq.StringArray
	err := scan(&p.ID, &p.SellerID, &p.Name, &p.Description, &p.Price,
		&p.InStock, &categories, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		&p.AverageRating, &p.RatingCount)
	if err != nil {
		return nil, err
	}
	p.Categories = []string(categories)
	if p.Categories == nil {
		p.Categories = []string{}
	}
	return p, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.InvalidInput("invalid product id")
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, uid)
	p, err := scanProduct(row.Scan)
	if database.IsNoRows(err) {
		return nil, apperr.NotFound("product not found")
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return p, nil
}

func (r *postgresRepo) List(ctx context.Context, filter ListFilter, page pagination.Page) ([]*Product, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	n := 1
	if filter.Category != "" {
		where += fmt.Sprintf(` AND $%d = ANY(categories)`, n)
		args = append(args, filter.Category)
		n++
	}
	if filter.SellerID != "" {
		sid, err := uuid.Parse(filter.SellerID)
		if err != nil {
			return nil, 0, apperr.InvalidInput("invalid seller id")
		}
		where += fmt.Sprintf(` AND seller_id=$%d`, n)
		args = append(args, sid)
		n++
	}
	if len(filter.Categories) > 0 {
		where += fmt.Sprintf(` AND categories && $%d`, n)
		args = append(args, pq.Array(filter.Categories))
		n++
	}
	if filter.Query != "" {
		where += fmt.Sprintf(` AND (name ILIKE $%d OR description ILIKE $%d)`, n, n)
		args = append(args, "%"+likeEscaper.Replace(filter.Query)+"%")
		n++
	}
	if filter.MinPrice != nil {
		where += fmt.Sprintf(` AND price >= $%d`, n)
		args = append(args, *filter.MinPrice)
		n++
	}
	if filter.MaxPrice != nil {
		where += fmt.Sprintf(` AND price <= $%d`, n)
		args = append(args, *filter.MaxPrice)
		n++
	}
	if filter.ActiveOnly {
		where += ` AND is_active=true`
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Storage(err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, n, n+1)
	rows, err := r.db.QueryContext(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, apperr.Storage(err)
	}
	defer rows.Close()

	products := []*Product{}
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, 0, apperr.Storage(err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Storage(err)
	}
	return products, total, nil
}

// Update writes the descriptive fields. Stock is left to the inventory module
// so concurrent order placement never races a product edit.
func (r *postgresRepo) Update(ctx context.Context, p *Product) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE products
		SET name=$1, description=$2, price=$3, categories=$4, is_active=$5, updated_at=NOW()
		WHERE id=$6
		RETURNING in_stock, updated_at`,
		p.Name, p.Description, p.Price, pq.Array(p.Categories), p.IsActive, p.ID).
		Scan(&p.InStock, &p.UpdatedAt)
	if database.IsNoRows(err) {
		return apperr.NotFound("product not found")
	}
	return apperr.Storage(err)
}

func (r *postgresRepo) Deactivate(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return apperr.InvalidInput("invalid product id")
	}
	res, err := r.db.ExecContext(ctx, `UPDATE products SET is_active=false, updated_at=NOW() WHERE id=$1`, uid)
	if err != nil {
		return apperr.Storage(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return apperr.Storage(err)
	} else if n == 0 {
		return apperr.NotFound("product not found")
	}
	return nil
}

func (r *postgresRepo) Rate(ctx context.Context, productID, userID string, rating int) error {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return apperr.InvalidInput("invalid product id")
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return apperr.InvalidInput("invalid user id")
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO product_ratings (product_id, user_id, rating)
		VALUES ($1,$2,$3)
		ON CONFLICT (product_id, user_id) DO UPDATE SET rating = EXCLUDED.rating, updated_at = NOW()`,
		pid, uid, rating)
	if database.IsForeignKeyViolation(err) {
		return apperr.NotFound("product not found")
	}
	return apperr.Storage(err)
}

func scanCategory(scan func(...any) error) (*Category, error) {
	c := &Category{}
	var createdBy uuid.NullUUID
	if err := scan(&c.ID, &c.Name, &c.Description, &createdBy, &c.IsActive, &c.CreatedAt); err != nil {
		return nil, err
	}
	if createdBy.Valid {
		c.CreatedBy = &createdBy.UUID
	}
	return c, nil
}

func (r *postgresRepo) ListCategories(ctx context.Context) ([]*Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE is_active=true ORDER BY name`)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	categories := []*Category{}
	for rows.Next() {
		c, err := scanCategory(rows.Scan)
		if err != nil {
			return nil, apperr.Storage(err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err)
	}
	return categories, nil
}

func (r *postgresRepo) GetCategory(ctx context.Context, id string) (*Category, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.InvalidInput("invalid category id")
	}
	c, err := scanCategory(r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id=$1`, uid).Scan)
	if database.IsNoRows(err) {
		return nil, apperr.NotFound("category not found")
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return c, nil
}

func (r *postgresRepo) CreateCategory(ctx context.Context, c *Category) (*Category, bool, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO categories (id, name, description, created_by, is_active)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT ((LOWER(name))) DO NOTHING
		RETURNING created_at`,
		c.ID, c.Name, c.Description, c.CreatedBy, c.IsActive).
		Scan(&c.CreatedAt)
	if err == nil {
		return c, true, nil
	}
	if !database.IsNoRows(err) {
		return nil, false, apperr.Storage(err)
	}

	existing, err := scanCategory(r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE LOWER(name) = LOWER($1)`, c.Name).Scan)
	if err != nil {
		return nil, false, apperr.Storage(err)
	}
	return existing, false, nil
}
