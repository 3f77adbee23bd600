// Package extract turns fetched Flame Scans pages into typed entities. Every
// routine is a pure function over an already parsed goquery document: it
// either returns a fully populated value or a typed error.
package extract

import (
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/brogergvhs/flamed/internal/providers"
)

type Kind int

const (
	KindDetail Kind = iota + 1
	KindChapters
	KindChapterImages
	KindSearch
	KindViewMore
	KindHome
	KindUpdates
	KindTraversal
)

func (k Kind) String() string {
	switch k {
	case KindDetail:
		return "detail"
	case KindChapters:
		return "chapters"
	case KindChapterImages:
		return "chapter images"
	case KindSearch:
		return "search"
	case KindViewMore:
		return "view more"
	case KindHome:
		return "home"
	case KindUpdates:
		return "updates"
	case KindTraversal:
		return "traversal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	ErrMissingField      = errors.New("missing field")
	ErrMalformedDocument = errors.New("malformed document")
)

// FieldError reports a mandatory node set that stayed empty after every
// selector fallback was tried.
type FieldError struct {
	Kind  Kind
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("extract %s: missing field %q", e.Kind, e.Field)
}

func (e *FieldError) Unwrap() error {
	return ErrMissingField
}

func missing(k Kind, field string) error {
	return &FieldError{Kind: k, Field: field}
}

// Context is the per-call input that is not part of the document itself.
type Context struct {
	SeriesID providers.SeriesID
	BaseURL  string
	Now      time.Time

	// Update scans only.
	Since time.Time
	Known map[providers.SeriesID]struct{}
}

func (c Context) now() time.Time {
	if c.Now.IsZero() {
		return time.Now()
	}
	return c.Now
}

// UpdatePage is the outcome of one pass over the latest-updates listing.
// Continue is false once a tile older than the cutoff was reached.
type UpdatePage struct {
	IDs      []providers.SeriesID
	Continue bool
}

// Result holds the value produced by Extract. Only the field matching the
// requested Kind is set.
type Result struct {
	Detail    providers.SeriesDetail
	Chapters  []providers.ChapterRef
	Pages     []string
	Tiles     []providers.Tile
	Sections  []providers.HomeSection
	Updates   UpdatePage
	Traversal string
}

func Extract(doc *goquery.Document, kind Kind, ectx Context) (Result, error) {
	if doc == nil || doc.Selection == nil {
		return Result{}, fmt.Errorf("extract %s: %w", kind, ErrMalformedDocument)
	}

	var (
		res Result
		err error
	)

	switch kind {
	case KindDetail:
		res.Detail, err = detail(doc.Selection, ectx)
	case KindChapters:
		res.Chapters, err = chapters(doc.Selection, ectx)
	case KindChapterImages:
		res.Pages, err = chapterImages(doc.Selection, ectx)
	case KindSearch, KindViewMore:
		res.Tiles, err = listing(doc.Selection, kind, ectx)
	case KindHome:
		res.Sections, err = homeSections(doc.Selection, ectx)
	case KindUpdates:
		res.Updates, err = updates(doc.Selection, ectx)
	case KindTraversal:
		res.Traversal = traversal(doc.Selection, ectx)
	default:
		return Result{}, fmt.Errorf("extract %s: %w", kind, ErrMalformedDocument)
	}

	if err != nil {
		return Result{}, err
	}

	return res, nil
}
