package handlers

import (
	"maps"
	"net/url"
	"strconv"

	"github.com/serroba/recipebox/internal/shortlink"
)

// PageRequest holds page-number pagination parameters.
type PageRequest struct {
	Page  int `default:"1" doc:"Page number"    minimum:"1" query:"page"`
	Limit int `default:"6" doc:"Items per page" maximum:"100" minimum:"1" query:"limit"`
}

func (p PageRequest) offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is a paginated collection with links to its neighbours.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// newPage builds the envelope of results for page p of total items. Links
// keep query and point at path on the host the client used.
func newPage[T any](urls shortlink.URLBuilder, path string, query url.Values, p PageRequest, total int, results []T) Page[T] {
	page := Page[T]{Count: total, Results: results}

	link := func(n int) *string {
		q := maps.Clone(query)
		if q == nil {
			q = url.Values{}
		}

		q.Set("page", strconv.Itoa(n))
		q.Set("limit", strconv.Itoa(p.Limit))

		s := urls.Absolute(path + "?" + q.Encode())

		return &s
	}

	if p.offset()+len(results) < total {
		page.Next = link(p.Page + 1)
	}

	if p.Page > 1 {
		page.Previous = link(p.Page - 1)
	}

	return page
}
