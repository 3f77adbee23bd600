package paging

import (
	"context"
	"iter"

	"github.com/brogergvhs/flamed/internal/extract"
	"github.com/brogergvhs/flamed/internal/providers"
)

// UpdatePass reads the latest-updates listing once; page counts passes from 1.
// known holds every id that must not be reported again.
type UpdatePass func(ctx context.Context, page int, known map[providers.SeriesID]struct{}) (extract.UpdatePage, error)

// UpdateCursor is the state of a single update scan.
type UpdateCursor struct {
	Page     int
	Matched  []providers.SeriesID
	Continue bool

	known map[providers.SeriesID]struct{}
}

func NewUpdateCursor(known []providers.SeriesID) *UpdateCursor {
	c := &UpdateCursor{
		Page:     1,
		Continue: true,
		known:    make(map[providers.SeriesID]struct{}, len(known)),
	}
	for _, id := range known {
		c.known[id] = struct{}{}
	}

	return c
}

// Known returns the caller's ids plus everything matched so far.
func (c *UpdateCursor) Known() map[providers.SeriesID]struct{} {
	return c.known
}

// Advance folds one pass into the cursor and returns the ids it had not seen
// before. A pass without new ids ends the scan even if the listing never
// reached the cutoff.
func (c *UpdateCursor) Advance(res extract.UpdatePage) []providers.SeriesID {
	var fresh []providers.SeriesID
	for _, id := range res.IDs {
		if _, ok := c.known[id]; ok {
			continue
		}
		c.known[id] = struct{}{}
		c.Matched = append(c.Matched, id)
		fresh = append(fresh, id)
	}

	c.Page++
	c.Continue = res.Continue && len(fresh) > 0

	return fresh
}

// ScanUpdates yields each non-empty batch of updated ids as soon as its pass
// completes. Batches already yielded stay delivered when a later pass fails.
func ScanUpdates(ctx context.Context, known []providers.SeriesID, pass UpdatePass) iter.Seq2[providers.UpdateBatch, error] {
	return func(yield func(providers.UpdateBatch, error) bool) {
		cur := NewUpdateCursor(known)

		for cur.Continue {
			if err := ctx.Err(); err != nil {
				yield(providers.UpdateBatch{}, err)
				return
			}

			res, err := pass(ctx, cur.Page, cur.Known())
			if err != nil {
				yield(providers.UpdateBatch{}, err)
				return
			}

			fresh := cur.Advance(res)
			if len(fresh) == 0 {
				continue
			}
			if !yield(providers.UpdateBatch{IDs: fresh}, nil) {
				return
			}
		}
	}
}
