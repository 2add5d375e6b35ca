package pagination

import (
	"fmt"
	"math"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Query parameter names accepted by list endpoints.
const (
	PageParam     = "page"
	PageSizeParam = "pageSize"
)

// Params holds 1-based page parameters extracted from a request.
type Params struct {
	Page     int
	PageSize int
}

// FromContext reads page and pageSize from the query string. A missing
// parameter is left at zero so the caller's range check rejects it; a
// non-numeric one is an error.
func FromContext(c echo.Context) (Params, error) {
	page, err := parseInt(c.QueryParam(PageParam))
	if err != nil {
		return Params{}, fmt.Errorf("invalid %s: %w", PageParam, err)
	}
	size, err := parseInt(c.QueryParam(PageSizeParam))
	if err != nil {
		return Params{}, fmt.Errorf("invalid %s: %w", PageSizeParam, err)
	}
	return Params{Page: page, PageSize: size}, nil
}

func parseInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// Valid reports whether both page and page size are at least 1.
func (p Params) Valid() bool {
	return p.Page >= 1 && p.PageSize >= 1
}

// Limit is the number of rows to take.
func (p Params) Limit() int {
	return p.PageSize
}

// Offset is the number of matching rows to skip. It saturates at
// math.MaxInt, which lies past every row, instead of overflowing.
func (p Params) Offset() int {
	if !p.Valid() {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PageSize
}
