package services

import "context"

// Page is the Spotify paging object.
type Page[T any] struct {
	Href     string  `json:"href"`
	Items    []T     `json:"items"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
	Total    int     `json:"total"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// HasNext reports whether the API signalled another page.
func (p *Page[T]) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}

// PageFetcher loads one page of at most limit items starting at offset.
type PageFetcher[T any] func(ctx context.Context, limit, offset int) (*Page[T], error)

// Paginate drains a paged endpoint in order.
//
// The offset advances by the number of items each page returned. It stops when a page has no
// next link or comes back empty. A failing page discards everything fetched so far.
func Paginate[T any](ctx context.Context, pageSize int, fetch PageFetcher[T]) ([]T, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	var all []T
	offset := 0
	for {
		page, err := fetch(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}

		all = append(all, page.Items...)
		if !page.HasNext() || len(page.Items) == 0 {
			return all, nil
		}
		offset += len(page.Items)
	}
}
