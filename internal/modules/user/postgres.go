package user

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
	"github.com/georgemunganga/marketplace-api/internal/platform/database"
	"github.com/georgemunganga/marketplace-api/internal/platform/pagination"
)

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL user repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, user.ID, user.Name, user.Email, user.PasswordHash, user.Role).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return apperr.Conflict("a user with this email already exists")
	}
	return apperr.Storage(err)
}

func (r *postgresRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.scan(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *postgresRepository) GetUserByID(ctx context.Context, id string) (*User, error) {
	parsedID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.scan(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, parsedID))
}

func (r *postgresRepository) ListUsers(ctx context.Context, page pagination.Page) ([]*User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, apperr.Storage(err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset())
	if err != nil {
		return nil, 0, apperr.Storage(err)
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		user, err := scanUser(rows.Scan)
		if err != nil {
			return nil, 0, apperr.Storage(err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Storage(err)
	}
	return users, total, nil
}

func (r *postgresRepository) UpdateUser(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, password_hash = $3, role = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, user.Name, user.Email, user.PasswordHash, user.Role, user.ID).
		Scan(&user.UpdatedAt)
	switch {
	case database.IsNoRows(err):
		return apperr.NotFound("user not found")
	case database.IsUniqueViolation(err):
		return apperr.Conflict("a user with this email already exists")
	}
	return apperr.Storage(err)
}

// DeleteUser removes the account together with its cart, likes and ratings.
// Users still referenced by products or orders are kept.
func (r *postgresRepository) DeleteUser(ctx context.Context, id string) error {
	parsedID, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, parsedID)
	if database.IsForeignKeyViolation(err) {
		return apperr.Conflict("user still owns products or orders")
	}
	if err != nil {
		return apperr.Storage(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

func parseID(id string) (uuid.UUID, error) {
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperr.InvalidInput("invalid user id")
	}
	return parsedID, nil
}

func (r *postgresRepository) scan(row *sql.Row) (*User, error) {
	user, err := scanUser(row.Scan)
	if database.IsNoRows(err) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return user, nil
}

func scanUser(scan func(...any) error) (*User, error) {
	user := &User{}
	err := scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
