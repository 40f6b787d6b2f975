package common

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ledgerline/expensed/internal/store"
)

// Pagination defaults and bounds, matching the original API contract.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// Page holds parsed pagination parameters.
type Page struct {
	Number int
	Size   int
}

// Offset converts the page number into a row offset.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// TotalPages computes the page count for a total row count.
func (p Page) TotalPages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + p.Size - 1) / p.Size
}

// ParsePage reads page and page_size query parameters.
func ParsePage(r *http.Request) (Page, error) {
	p := Page{Number: 1, Size: DefaultPageSize}

	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, fmt.Errorf("page must be a positive integer")
		}
		p.Number = n
	}

	if raw := r.URL.Query().Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxPageSize {
			return p, fmt.Errorf("page_size must be between 1 and %d", MaxPageSize)
		}
		p.Size = n
	}

	return p, nil
}

// ParseDateRange reads optional start_date and end_date query
// parameters in RFC 3339 format.
func ParseDateRange(r *http.Request) (store.DateRange, error) {
	var dr store.DateRange

	if raw := r.URL.Query().Get("start_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return dr, fmt.Errorf("start_date must be RFC 3339")
		}
		dr.Start = &t
	}

	if raw := r.URL.Query().Get("end_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return dr, fmt.Errorf("end_date must be RFC 3339")
		}
		dr.End = &t
	}

	return dr, nil
}
