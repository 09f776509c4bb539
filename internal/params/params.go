// Package params parses query string values shared by list endpoints.
package params

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Pagination holds the requested page and, after ComputeMeta, the totals.
//
//	/places?page=2&limit=10 -> Pagination{Limit: 10, Page: 2, Offset: 10}
type Pagination struct {
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	Page       int  `json:"page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// ParsePagination reads ?limit= and ?page=. Bad values fall back to
// defaults and limit is capped at MaxLimit.
func ParsePagination(q url.Values) Pagination {
	p := Pagination{Limit: DefaultLimit, Page: 1}

	if limit, err := strconv.Atoi(strings.TrimSpace(q.Get("limit"))); err == nil && limit > 0 {
		p.Limit = min(limit, MaxLimit)
	}
	if page, err := strconv.Atoi(strings.TrimSpace(q.Get("page"))); err == nil && page > 0 {
		p.Page = page
	}

	p.Offset = (p.Page - 1) * p.Limit
	return p
}

// ComputeMeta fills the totals once the matching row count is known.
func (p *Pagination) ComputeMeta(total int) {
	p.Total = total
	if p.Limit > 0 {
		p.TotalPages = int(math.Ceil(float64(total) / float64(p.Limit)))
	}
	p.HasPrev = p.Page > 1
	p.HasNext = p.Page*p.Limit < total
}

// Float parses a required float query value.
func Float(q url.Values, key string) (float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, fmt.Errorf("query parameter %q is required", key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("query parameter %q must be a number", key)
	}
	return v, nil
}

// FloatOr parses an optional float query value.
func FloatOr(q url.Values, key string, fallback float64) (float64, error) {
	if strings.TrimSpace(q.Get(key)) == "" {
		return fallback, nil
	}
	return Float(q, key)
}

// ID parses a positive integer identifier such as a chi URL param.
func ID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
