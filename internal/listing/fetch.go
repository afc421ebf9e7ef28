package listing

import (
	"context"
	"net/http"
	"net/url"

	"sangihetrip/internal/apiclient"
)

// Doer is the part of the REST client a list needs.
type Doer interface {
	Do(ctx context.Context, sess apiclient.Session, req apiclient.Request, out any) (*apiclient.Envelope, error)
}

// Page is one page of a collection.
type Page[T any] struct {
	Items []T            `json:"items"`
	Meta  apiclient.Meta `json:"meta"`
}

// FetchPage performs an authenticated GET of endpoint and decodes the
// envelope's data array and meta. Items is never nil.
func FetchPage[T any](ctx context.Context, d Doer, sess apiclient.Session, endpoint string, query url.Values) (Page[T], error) {
	var items []T
	env, err := d.Do(ctx, sess, apiclient.Request{
		Method: http.MethodGet,
		Path:   endpoint,
		Query:  query,
		Auth:   apiclient.AuthRequired,
	}, &items)
	if err != nil {
		return Page[T]{}, err
	}
	if items == nil {
		items = []T{}
	}

	page := Page[T]{Items: items}
	if env != nil && env.Meta != nil {
		page.Meta = *env.Meta
	} else {
		// Unpaginated endpoints answer with a bare array.
		page.Meta = apiclient.Meta{Page: 1, Limit: len(items), TotalItems: len(items), TotalPages: 1}
	}
	return page, nil
}
