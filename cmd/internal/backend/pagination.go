package backend

import (
	"net/url"
	"strconv"
)

// DefaultPageLimit is the page size the console views use.
const DefaultPageLimit = 10

// Page selects one page of a list endpoint. Page numbers start at 1.
type Page struct {
	Page  int
	Limit int
}

// Values renders the page as query parameters, filling defaults.
func (p Page) Values() url.Values {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	return url.Values{
		"page":  {strconv.Itoa(p.Page)},
		"limit": {strconv.Itoa(p.Limit)},
	}
}

// Paginated is a list response. The backend reports page totals as
// totalPages on some resources and pageCount on others.
type Paginated[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages,omitempty"`
	PageCount  int `json:"pageCount,omitempty"`
}

// Pages returns the page total regardless of which field carried it.
func (p Paginated[T]) Pages() int {
	if p.TotalPages > 0 {
		return p.TotalPages
	}
	return p.PageCount
}
