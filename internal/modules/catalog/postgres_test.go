package catalog

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
	"github.com/georgemunganga/marketplace-api/internal/platform/pagination"
)

var productRowColumns = []string{
	"id", "seller_id", "name", "description", "price", "in_stock", "categories", "is_active", "created_at", "updated_at",
	"avg", "count",
}

func TestPostgresListBuildsFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sellerID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM products WHERE 1=1 AND $1 = ANY(categories) AND seller_id=$2 AND is_active=true`)).
		WithArgs("toys", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY created_at DESC LIMIT $3 OFFSET $4`)).
		WithArgs("toys", sqlmock.AnyArg(), 5, 5).
		WillReturnRows(sqlmock.NewRows(productRowColumns).
			AddRow(uuid.NewString(), sellerID.String(), "Kite", "", 12.5, 7, "{toys,outdoor}", true, now, now, "4.5000", 2))

	repo := NewPostgresRepository(db)
	products, total, err := repo.List(context.Background(),
		ListFilter{Category: "toys", SellerID: sellerID.String(), ActiveOnly: true},
		pagination.Page{Number: 2, Limit: 5})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 11 || len(products) != 1 {
		t.Fatalf("unexpected result total=%d len=%d", total, len(products))
	}
	if got := products[0].Categories; len(got) != 2 || got[1] != "outdoor" {
		t.Fatalf("categories not scanned: %v", got)
	}
	if products[0].AverageRating != 4.5 || products[0].RatingCount != 2 {
		t.Fatalf("rating not scanned: %+v", products[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM products WHERE id=\$1`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = NewPostgresRepository(db).GetByID(context.Background(), uuid.NewString())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgresListSearchAndPriceRange(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	lo, hi := 10.0, 99.5
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM products WHERE 1=1 AND categories && $1 AND (name ILIKE $2 OR description ILIKE $2) AND price >= $3 AND price <= $4`)).
		WithArgs(sqlmock.AnyArg(), `%50\%\_off%`, lo, hi).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`LIMIT $5 OFFSET $6`)).
		WillReturnRows(sqlmock.NewRows(productRowColumns))

	_, total, err := NewPostgresRepository(db).List(context.Background(),
		ListFilter{Categories: []string{"home", "garden"}, Query: "50%_off", MinPrice: &lo, MaxPrice: &hi},
		pagination.Page{Number: 1, Limit: 10})
	if err != nil || total != 0 {
		t.Fatalf("list: total=%d err=%v", total, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresCreateCategoryReturnsExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	existingID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT ((LOWER(name))) DO NOTHING`)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE LOWER(name) = LOWER($1)`)).WithArgs("TOYS").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_by", "is_active", "created_at"}).
			AddRow(existingID.String(), "Toys", "", nil, true, time.Now()))

	c, created, err := NewPostgresRepository(db).CreateCategory(context.Background(), &Category{ID: uuid.New(), Name: "TOYS", IsActive: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created || c.ID != existingID || c.CreatedBy != nil {
		t.Fatalf("expected existing category, got %+v created=%v", c, created)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresDeactivateMissingProduct(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE products SET is_active=false`)).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := NewPostgresRepository(db).Deactivate(context.Background(), uuid.NewString()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
