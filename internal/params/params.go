// Package params reads list-query parameters shared by the reservation and
// refund-queue endpoints.
package params

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 15
	MaxLimit     = 30
)

// Pagination is the page request plus the metadata echoed back to clients.
// Query keys are case sensitive: ?page=2&limit=10.
type Pagination struct {
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	Page       int  `json:"page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// ParsePagination never fails. Unparseable or out-of-range values fall back
// to page 1 and DefaultLimit; limits above MaxLimit are capped.
func ParsePagination(q url.Values) Pagination {
	p := Pagination{Limit: DefaultLimit, Page: 1}

	if n, ok := positive(q.Get("limit")); ok {
		p.Limit = min(n, MaxLimit)
	}
	if n, ok := positive(q.Get("page")); ok {
		p.Page = n
	}
	p.Offset = (p.Page - 1) * p.Limit
	return p
}

func positive(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ComputeMeta fills the totals once the store has counted matching rows.
func (p *Pagination) ComputeMeta(total int) {
	p.Total = total
	if p.Limit > 0 {
		p.TotalPages = (total + p.Limit - 1) / p.Limit
	}
	p.HasPrev = p.Page > 1
	p.HasNext = p.Page*p.Limit < total
}
