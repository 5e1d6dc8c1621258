package like

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestPostgresToggle(t *testing.T) {
	cases := []struct {
		name  string
		rows  *sqlmock.Rows
		liked bool
	}{
		{"inserted", sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()), true},
		{"removed", sqlmock.NewRows([]string{"id"}), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("sqlmock: %v", err)
			}
			defer db.Close()

			userID, productID := uuid.New(), uuid.New()
			mock.ExpectQuery(regexp.QuoteMeta(`WHERE NOT EXISTS (SELECT 1 FROM removed)`)).
				WithArgs(sqlmock.AnyArg(), userID.String(), "Product", productID.String()).
				WillReturnRows(tc.rows)

			liked, err := NewPostgresRepository(db).Toggle(context.Background(), userID, EntityProduct, productID)
			if err != nil {
				t.Fatalf("toggle: %v", err)
			}
			if liked != tc.liked {
				t.Fatalf("expected liked=%v, got %v", tc.liked, liked)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("expectations: %v", err)
			}
		})
	}
}

func TestPostgresForUserAnyType(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	userID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE user_id = $1 AND ($2 = '' OR likeable_type = $2)`)).
		WithArgs(userID.String(), "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "likeable_type", "likeable_id", "created_at"}).
			AddRow(uuid.NewString(), userID.String(), "Category", uuid.NewString(), time.Now()))

	likes, err := NewPostgresRepository(db).ForUser(context.Background(), userID, "")
	if err != nil {
		t.Fatalf("for user: %v", err)
	}
	if len(likes) != 1 || likes[0].EntityType != EntityCategory {
		t.Fatalf("unexpected likes %+v", likes)
	}
}
