package pagination

import (
	"net/url"
	"testing"

	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		query   string
		want    Page
		wantErr bool
	}{
		{name: "defaults", query: "", want: Page{Number: 1, Limit: 10}},
		{name: "explicit", query: "page=3&limit=20", want: Page{Number: 3, Limit: 20}},
		{name: "clamped", query: "limit=500", want: Page{Number: 1, Limit: MaxLimit}},
		{name: "zero page", query: "page=0", wantErr: true},
		{name: "garbage limit", query: "limit=ten", wantErr: true},
		{name: "last allowed page", query: "page=1000000&limit=100", want: Page{Number: MaxPage, Limit: 100}},
		{name: "page past max", query: "page=1000001", wantErr: true},
		{name: "offset overflow", query: "page=92233720368547759&limit=100", wantErr: true},
		{name: "beyond int64", query: "page=99999999999999999999", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tc.query)
			got, err := Parse(values)
			if tc.wantErr {
				if !apperr.Is(err, apperr.KindInvalidInput) {
					t.Fatalf("expected invalid input, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestPageMath(t *testing.T) {
	p := Page{Number: 3, Limit: 10}
	if p.Offset() != 20 {
		t.Fatalf("expected offset 20, got %d", p.Offset())
	}
	if got := p.TotalPages(21); got != 3 {
		t.Fatalf("expected 3 pages, got %d", got)
	}
	if got := p.TotalPages(0); got != 0 {
		t.Fatalf("expected 0 pages, got %d", got)
	}
}

func TestMaxPageOffsetIsNonNegative(t *testing.T) {
	p := Page{Number: MaxPage, Limit: MaxLimit}
	if got := p.Offset(); got <= 0 || got != (MaxPage-1)*MaxLimit {
		t.Fatalf("unexpected offset %d", got)
	}
}
