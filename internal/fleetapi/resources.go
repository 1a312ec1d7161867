package fleetapi

import (
	"context"
	"net/http"
	"net/url"
)

// queryParam is one named query value. Zero values are dropped.
type queryParam struct {
	name  string
	value any
}

func buildQuery(params ...queryParam) (url.Values, error) {
	query := url.Values{}
	for _, p := range params {
		if err := addQueryParam(query, p.name, p.value); err != nil {
			return nil, err
		}
	}
	return query, nil
}

// list fetches one page of a collection endpoint.
func list[T any](ctx context.Context, c *Client, path string, params ...queryParam) (*Page[T], error) {
	query, err := buildQuery(params...)
	if err != nil {
		return nil, err
	}

	var items []T
	meta, err := c.do(ctx, http.MethodGet, path, query, nil, &items)
	if err != nil {
		return nil, err
	}

	page := &Page[T]{Items: items}
	if meta != nil {
		page.Meta = *meta
	}
	return page, nil
}

// get fetches a single resource.
func get[T any](ctx context.Context, c *Client, path string, params ...queryParam) (*T, error) {
	query, err := buildQuery(params...)
	if err != nil {
		return nil, err
	}

	var result T
	if _, err := c.do(ctx, http.MethodGet, path, query, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// send issues a write with a JSON body and decodes the resource the backend returns.
func send[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	var result T
	if _, err := c.do(ctx, method, path, nil, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
