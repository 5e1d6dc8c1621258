package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
)

func TestStorageHidesCause(t *testing.T) {
	err := Storage(fmt.Errorf("select order: %w", sql.ErrConnDone))

	if got := KindOf(err); got != KindStorageFailure {
		t.Fatalf("expected storage failure, got %s", got)
	}
	if msg := PublicMessage(err); msg != "something went wrong" {
		t.Fatalf("expected generic message, got %q", msg)
	}
	if !errors.Is(err, sql.ErrConnDone) {
		t.Fatalf("expected cause to be preserved for logging")
	}
}

func TestStoragePassesClassifiedErrors(t *testing.T) {
	nf := NotFound("order not found")
	if err := Storage(nf); err != nf {
		t.Fatalf("expected classified error to pass through, got %v", err)
	}
	if Storage(nil) != nil {
		t.Fatalf("expected nil for nil input")
	}
}

func TestInsufficientStockDetails(t *testing.T) {
	err := InsufficientStock("p-1", "Desk Lamp", 2, 3)

	if !Is(err, KindInsufficientStock) {
		t.Fatalf("expected insufficient stock kind")
	}
	if msg := PublicMessage(err); msg != "insufficient stock for product: Desk Lamp" {
		t.Fatalf("unexpected message %q", msg)
	}
	details := PublicDetails(err)
	if details["available"] != 2 || details["requested"] != 3 {
		t.Fatalf("unexpected details %#v", details)
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindStorageFailure {
		t.Fatalf("expected unclassified errors to degrade to storage failure, got %s", got)
	}
	if msg := PublicMessage(errors.New("pq: relation missing")); msg != "something went wrong" {
		t.Fatalf("expected generic message, got %q", msg)
	}
}
