// Package paging drives page-token pagination and incremental update scans.
//
// A token is a page number. -1 marks an exhausted listing and is echoed back
// without fetching anything, so callers may call Step again safely.
package paging

import (
	"context"
	"iter"
)

const (
	Terminal = -1

	// FullPage is the listing page size. A shorter page is the last one.
	FullPage = 10
)

type Cursor struct {
	Page     int
	Terminal bool
}

func CursorFromToken(token int) Cursor {
	switch {
	case token < 0:
		return Cursor{Terminal: true}
	case token == 0:
		return Cursor{Page: 1}
	default:
		return Cursor{Page: token}
	}
}

func (c Cursor) Token() int {
	if c.Terminal {
		return Terminal
	}
	return c.Page
}

type Page[T any] struct {
	Items []T
	Next  int
}

type FetchFunc[T any] func(ctx context.Context, page int) ([]T, error)

// Step performs one pagination transition for token.
func Step[T any](ctx context.Context, token int, fetch FetchFunc[T]) (Page[T], error) {
	cur := CursorFromToken(token)
	if cur.Terminal {
		return Page[T]{Items: []T{}, Next: Terminal}, nil
	}

	items, err := fetch(ctx, cur.Page)
	if err != nil {
		return Page[T]{}, err
	}
	if items == nil {
		items = []T{}
	}

	next := cur.Page + 1
	if len(items) < FullPage {
		next = Terminal
	}

	return Page[T]{Items: items, Next: next}, nil
}

// Walk repeats Step from start until the listing is exhausted, the consumer
// stops, or a page fails. A failure is yielded once and ends the walk.
func Walk[T any](ctx context.Context, start int, fetch FetchFunc[T]) iter.Seq2[Page[T], error] {
	return func(yield func(Page[T], error) bool) {
		token := start
		for {
			if err := ctx.Err(); err != nil {
				yield(Page[T]{}, err)
				return
			}

			p, err := Step(ctx, token, fetch)
			if err != nil {
				yield(Page[T]{}, err)
				return
			}
			if !yield(p, nil) || p.Next == Terminal {
				return
			}

			token = p.Next
		}
	}
}
