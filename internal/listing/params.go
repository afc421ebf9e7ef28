// Package listing implements paginated, searchable, filterable views over the
// backend's collection endpoints.
package listing

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Paging bounds.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// reserved query keys that are never treated as filters.
var reserved = map[string]bool{"page": true, "limit": true, "search": true}

// Params is the query state of one list view.
type Params struct {
	Search   string            `json:"search,omitempty"`
	Filters  map[string]string `json:"filters,omitempty"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

// Query renders p on top of defaults. Empty search and empty filter values
// are left out.
func (p Params) Query(defaults url.Values) url.Values {
	q := url.Values{}
	for k, vs := range defaults {
		q[k] = append([]string(nil), vs...)
	}

	page := p.Page
	if page < 1 {
		page = 1
	}
	q.Set("page", strconv.Itoa(page))
	if p.PageSize > 0 {
		q.Set("limit", strconv.Itoa(p.PageSize))
	}
	if s := strings.TrimSpace(p.Search); s != "" {
		q.Set("search", s)
	}
	for k, v := range p.Filters {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q
}

// FilterKeys returns the filter names in sorted order.
func (p Params) FilterKeys() []string {
	keys := make([]string, 0, len(p.Filters))
	for k := range p.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p Params) clone() Params {
	out := p
	out.Filters = make(map[string]string, len(p.Filters))
	for k, v := range p.Filters {
		out.Filters[k] = v
	}
	return out
}

// ParseParams reads list parameters from an incoming query string. Unknown
// keys become filters; page and limit fall back to sane values.
func ParseParams(q url.Values, defaultPageSize int) Params {
	if defaultPageSize <= 0 {
		defaultPageSize = DefaultPageSize
	}
	p := Params{
		Search:   strings.TrimSpace(q.Get("search")),
		Filters:  map[string]string{},
		Page:     atoiOr(q.Get("page"), 1),
		PageSize: atoiOr(q.Get("limit"), defaultPageSize),
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	for k := range q {
		if reserved[k] {
			continue
		}
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			p.Filters[k] = v
		}
	}
	return p
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
