package flamescans

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/brogergvhs/flamed/internal/extract"
	"github.com/brogergvhs/flamed/internal/fetch"
	"github.com/brogergvhs/flamed/internal/paging"
	"github.com/brogergvhs/flamed/internal/providers"
	"github.com/brogergvhs/flamed/internal/util"
)

const DefaultBaseURL = "https://flamescans.org"

var (
	ErrUnknownSection = errors.New("unknown home section")
	ErrInvalidInput   = errors.New("invalid input")
)

type Options struct {
	BaseURL string
	// TraversalPath seeds the series path prefix until the home page is read.
	TraversalPath string
	Now           func() time.Time
	Logger        interface {
		Debugf(string, ...any)
	}
}

// Source is the Flame Scans implementation of providers.Source. It owns one
// scheduler, so every operation shares the same request budget.
type Source struct {
	sched *fetch.Scheduler
	base  string
	now   func() time.Time
	log   interface{ Debugf(string, ...any) }

	mu        sync.RWMutex
	traversal string
}

var _ providers.Source = (*Source)(nil)

func New(sched *fetch.Scheduler, opts Options) *Source {
	base := opts.BaseURL
	if base == "" {
		base = sched.BaseURL()
	}
	if base == "" {
		base = DefaultBaseURL
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Source{
		sched:     sched,
		base:      strings.TrimRight(base, "/"),
		now:       now,
		log:       opts.Logger,
		traversal: strings.Trim(opts.TraversalPath, "/"),
	}
}

func (s *Source) debugf(format string, args ...any) {
	if s.log != nil {
		s.log.Debugf(format, args...)
	}
}

func (s *Source) Traversal() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.traversal
}

func (s *Source) setTraversal(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p != s.traversal {
		s.debugf("traversal path %q -> %q\n", s.traversal, p)
	}
	s.traversal = p
}

// RefreshTraversal reads the current series path prefix from the home page.
func (s *Source) RefreshTraversal(ctx context.Context) (string, error) {
	doc, err := s.sched.FetchDOM(ctx, s.base, nil)
	if err != nil {
		return "", err
	}

	return s.readTraversal(doc)
}

func (s *Source) readTraversal(doc *goquery.Document) (string, error) {
	res, err := extract.Extract(doc, extract.KindTraversal, s.ectx(""))
	if err != nil {
		return "", err
	}
	s.setTraversal(res.Traversal)

	return res.Traversal, nil
}

func (s *Source) ectx(id providers.SeriesID) extract.Context {
	return extract.Context{SeriesID: id, BaseURL: s.base, Now: s.now()}
}

func (s *Source) seriesURL(id providers.SeriesID) string {
	if t := s.Traversal(); t != "" {
		return fmt.Sprintf("%s/%s/series/%s/", s.base, t, id)
	}
	return fmt.Sprintf("%s/series/%s/", s.base, id)
}

func (s *Source) ShareURL(id providers.SeriesID) string {
	return fmt.Sprintf("%s/series/%s", s.base, id)
}

func (s *Source) seriesPage(ctx context.Context, id providers.SeriesID) (*goquery.Document, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, fmt.Errorf("%w: empty series id", ErrInvalidInput)
	}

	return s.sched.FetchDOM(ctx, s.seriesURL(id), nil)
}

func (s *Source) GetDetails(ctx context.Context, id providers.SeriesID) (providers.SeriesDetail, error) {
	doc, err := s.seriesPage(ctx, id)
	if err != nil {
		return providers.SeriesDetail{}, fmt.Errorf("details %s: %w", id, err)
	}

	res, err := extract.Extract(doc, extract.KindDetail, s.ectx(id))
	if err != nil {
		return providers.SeriesDetail{}, fmt.Errorf("details %s: %w", id, err)
	}

	d := res.Detail
	d.ShareURL = s.ShareURL(id)

	return d, nil
}

func (s *Source) GetChapters(ctx context.Context, id providers.SeriesID) ([]providers.ChapterRef, error) {
	doc, err := s.seriesPage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("chapters %s: %w", id, err)
	}

	res, err := extract.Extract(doc, extract.KindChapters, s.ectx(id))
	if err != nil {
		return nil, fmt.Errorf("chapters %s: %w", id, err)
	}

	return res.Chapters, nil
}

// chapterURL resolves chapterID against the base URL and refuses anything
// that points off the site.
func (s *Source) chapterURL(chapterID string) (string, error) {
	chapterID = strings.TrimSpace(chapterID)
	if chapterID == "" {
		return "", fmt.Errorf("%w: empty chapter id", ErrInvalidInput)
	}

	base, err := url.Parse(s.base + "/")
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(chapterID)
	if err != nil {
		return "", fmt.Errorf("%w: chapter id %q: %v", ErrInvalidInput, chapterID, err)
	}

	u := base.ResolveReference(ref)
	if (u.Scheme != "http" && u.Scheme != "https") || !util.SameHost(u, base) {
		return "", fmt.Errorf("%w: chapter %q is not on %s", ErrInvalidInput, chapterID, base.Host)
	}

	return u.String(), nil
}

// GetChapterContent fetches chapterID, which is the chapter URL exactly as
// GetChapters returned it.
func (s *Source) GetChapterContent(ctx context.Context, id providers.SeriesID, chapterID string) (providers.ChapterContent, error) {
	target, err := s.chapterURL(chapterID)
	if err != nil {
		return providers.ChapterContent{}, err
	}

	doc, err := s.sched.FetchDOM(ctx, target, nil)
	if err != nil {
		return providers.ChapterContent{}, fmt.Errorf("chapter %s: %w", chapterID, err)
	}

	res, err := extract.Extract(doc, extract.KindChapterImages, s.ectx(id))
	if err != nil {
		return providers.ChapterContent{}, fmt.Errorf("chapter %s: %w", chapterID, err)
	}

	return providers.ChapterContent{SeriesID: id, ChapterID: chapterID, Pages: res.Pages}, nil
}

func (s *Source) Search(ctx context.Context, query string, token int) (providers.PagedTiles, error) {
	fetchPage := func(ctx context.Context, page int) ([]providers.Tile, error) {
		target := fmt.Sprintf("%s/page/%d/", s.base, page)
		return s.tiles(ctx, target, url.Values{"s": {strings.TrimSpace(query)}}, extract.KindSearch)
	}

	p, err := paging.Step(ctx, token, fetchPage)
	if err != nil {
		return providers.PagedTiles{}, fmt.Errorf("search %q: %w", query, err)
	}

	return providers.PagedTiles{Tiles: p.Items, Next: p.Next}, nil
}

func (s *Source) ViewMore(ctx context.Context, sectionID string, token int) (providers.PagedTiles, error) {
	if _, err := s.viewMoreParams(sectionID, 1); err != nil {
		return providers.PagedTiles{}, err
	}

	fetchPage := func(ctx context.Context, page int) ([]providers.Tile, error) {
		params, _ := s.viewMoreParams(sectionID, page)
		return s.tiles(ctx, s.base+"/series/", params, extract.KindViewMore)
	}

	p, err := paging.Step(ctx, token, fetchPage)
	if err != nil {
		return providers.PagedTiles{}, fmt.Errorf("view more %s: %w", sectionID, err)
	}

	return providers.PagedTiles{Tiles: p.Items, Next: p.Next}, nil
}

func (s *Source) viewMoreParams(sectionID string, page int) (url.Values, error) {
	switch sectionID {
	case extract.SectionLatest:
		return url.Values{"page": {strconv.Itoa(page)}, "order": {"update"}}, nil
	case extract.SectionPopular:
		return url.Values{
			"page":   {strconv.Itoa(page)},
			"status": {""},
			"type":   {""},
			"order":  {"popular"},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, sectionID)
	}
}

func (s *Source) tiles(ctx context.Context, target string, params url.Values, kind extract.Kind) ([]providers.Tile, error) {
	doc, err := s.sched.FetchDOM(ctx, target, params)
	if err != nil {
		return nil, err
	}

	res, err := extract.Extract(doc, kind, s.ectx(""))
	if err != nil {
		return nil, err
	}

	return res.Tiles, nil
}

// HomeSections reads the home page once, refreshing the traversal path from
// it, and yields its sections in page order.
func (s *Source) HomeSections(ctx context.Context) iter.Seq2[providers.HomeSection, error] {
	return func(yield func(providers.HomeSection, error) bool) {
		doc, err := s.sched.FetchDOM(ctx, s.base, nil)
		if err != nil {
			yield(providers.HomeSection{}, fmt.Errorf("home: %w", err))
			return
		}

		if _, err := s.readTraversal(doc); err != nil {
			yield(providers.HomeSection{}, fmt.Errorf("home: %w", err))
			return
		}

		res, err := extract.Extract(doc, extract.KindHome, s.ectx(""))
		if err != nil {
			yield(providers.HomeSection{}, fmt.Errorf("home: %w", err))
			return
		}

		for _, sec := range res.Sections {
			if !yield(sec, nil) {
				return
			}
		}
	}
}

// ScanUpdates re-reads the latest-updates listing on the home page and yields
// ids updated at or after since that are not in known. Every pass excludes
// what earlier passes matched, so a pass with nothing new ends the scan.
func (s *Source) ScanUpdates(ctx context.Context, since time.Time, known []providers.SeriesID) iter.Seq2[providers.UpdateBatch, error] {
	pass := func(ctx context.Context, page int, seen map[providers.SeriesID]struct{}) (extract.UpdatePage, error) {
		doc, err := s.sched.FetchDOM(ctx, s.base, nil)
		if err != nil {
			return extract.UpdatePage{}, fmt.Errorf("updates pass %d: %w", page, err)
		}

		ectx := s.ectx("")
		ectx.Since = since
		ectx.Known = seen

		res, err := extract.Extract(doc, extract.KindUpdates, ectx)
		if err != nil {
			return extract.UpdatePage{}, fmt.Errorf("updates pass %d: %w", page, err)
		}

		s.debugf("updates pass %d: %d new, continue=%t\n", page, len(res.Updates.IDs), res.Updates.Continue)

		return res.Updates, nil
	}

	return paging.ScanUpdates(ctx, known, pass)
}

func (s *Source) BypassRequest() (*http.Request, error) {
	return s.sched.BypassRequest()
}
