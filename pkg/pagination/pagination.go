// Package pagination reads page/limit query parameters for list endpoints.
package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a resolved page request.
type Params struct {
	Page  int
	Limit int
}

// Offset is the number of rows to skip.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Metadata accompanies a page of results.
type Metadata struct {
	TotalItems  int64 `json:"totalItems"`
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// Extract reads ?page= and ?limit=. Missing or invalid values fall back to the
// defaults and limit is capped at MaxLimit.
func Extract(c *gin.Context) Params {
	p := Params{
		Page:  positiveOr(c.Query("page"), DefaultPage),
		Limit: positiveOr(c.Query("limit"), DefaultLimit),
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// MetadataFrom describes the page p out of total items.
func MetadataFrom(total int64, p Params) Metadata {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Metadata{
		TotalItems:  total,
		CurrentPage: p.Page,
		PageSize:    p.Limit,
		TotalPages:  pages,
		HasNextPage: p.Page < pages,
		HasPrevPage: p.Page > 1,
	}
}

func positiveOr(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
