package domain

import (
	"math"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Pagination is returned alongside every listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// PageRequest describes which slice of a listing the caller wants.
type PageRequest struct {
	Page   int
	Limit  int
	Search string
}

// ParsePageRequest reads raw query values. Missing, non-numeric or
// non-positive values fall back to the defaults; limit is clamped to maxLimit
// when maxLimit > 0.
func ParsePageRequest(page, limit, search string, maxLimit int) PageRequest {
	req := PageRequest{
		Page:   parsePositive(page, DefaultPage),
		Limit:  parsePositive(limit, DefaultLimit),
		Search: strings.TrimSpace(search),
	}
	return req.Normalize(maxLimit)
}

// Normalize applies the same defaults and bounds as ParsePageRequest.
func (r PageRequest) Normalize(maxLimit int) PageRequest {
	if r.Page < 1 {
		r.Page = DefaultPage
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if maxLimit > 0 && r.Limit > maxLimit {
		r.Limit = maxLimit
	}
	if maxPage := math.MaxInt/r.Limit + 1; r.Page > maxPage {
		r.Page = maxPage
	}
	return r
}

// Offset is the number of rows skipped before the page starts. It never
// overflows; pages past the end simply come back empty.
func (r PageRequest) Offset() int {
	if r.Page < 1 || r.Limit < 1 {
		return 0
	}
	if r.Page-1 > math.MaxInt/r.Limit {
		return math.MaxInt
	}
	return (r.Page - 1) * r.Limit
}

// NewPagination computes totalPages as ceil(total/limit).
func NewPagination(req PageRequest, total int) Pagination {
	totalPages := 0
	if req.Limit > 0 {
		totalPages = (total + req.Limit - 1) / req.Limit
	}
	return Pagination{
		Page:       req.Page,
		Limit:      req.Limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

func parsePositive(raw string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
