package pagination

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
)

const (
	// DefaultLimit is used when the client omits limit.
	DefaultLimit = 10
	// MaxLimit caps limit to keep listings bounded.
	MaxLimit = 100
	// MaxPage bounds page so Offset stays far from integer overflow.
	MaxPage = 1_000_000
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Limit  int
}

// Offset is the number of rows to skip.
func (p Page) Offset() int {
	if p.Number <= 1 {
		return 0
	}
	return (p.Number - 1) * p.Limit
}

// TotalPages is ceil(total/limit).
func (p Page) TotalPages(total int) int {
	if p.Limit <= 0 || total <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

// Parse reads page and limit from query values. Absent values take defaults;
// malformed or non-positive values are invalid input, as are pages past
// MaxPage. Limits above MaxLimit are clamped.
func Parse(values url.Values) (Page, error) {
	page := Page{Number: 1, Limit: DefaultLimit}

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Page{}, apperr.InvalidInput("page must be a positive integer")
		}
		if n > MaxPage {
			return Page{}, apperr.InvalidInput("page must not exceed %d", MaxPage)
		}
		page.Number = n
	}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Page{}, apperr.InvalidInput("limit must be a positive integer")
		}
		page.Limit = min(n, MaxLimit)
	}
	return page, nil
}
