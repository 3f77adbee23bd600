package providers

import (
	"context"
	"iter"
	"net/http"
	"sort"
	"strings"
	"time"
)

// SeriesID is the site's slug for a title. It is stable across requests.
type SeriesID string

type Status int

const (
	StatusUnknown Status = iota
	StatusOngoing
	StatusCompleted
	StatusHiatus
)

func (s Status) String() string {
	switch s {
	case StatusOngoing:
		return "ONGOING"
	case StatusCompleted:
		return "COMPLETED"
	case StatusHiatus:
		return "HIATUS"
	default:
		return "UNKNOWN"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	*s = ParseStatus(string(b))
	return nil
}

// ParseStatus maps the site's status label to a Status. Matching is
// case-insensitive and anything unrecognised is StatusUnknown.
func ParseStatus(label string) Status {
	l := strings.ToLower(strings.TrimSpace(label))

	switch {
	case l == "":
		return StatusUnknown
	case strings.Contains(l, "ongoing"):
		return StatusOngoing
	case strings.Contains(l, "completed"):
		return StatusCompleted
	case strings.Contains(l, "hiatus"):
		return StatusHiatus
	default:
		return StatusUnknown
	}
}

type SeriesDetail struct {
	ID          SeriesID `json:"id"`
	Title       string   `json:"title"`
	Cover       string   `json:"cover"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	Tags        []string `json:"tags"`
	Rating      float64  `json:"rating"`
	ShareURL    string   `json:"share_url,omitempty"`
}

// ChapterRef points at one chapter. ID is the chapter URL exactly as the site
// links it.
type ChapterRef struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Ordinal   float64   `json:"ordinal"`
	Published time.Time `json:"published"`
}

type ChapterContent struct {
	SeriesID  SeriesID `json:"series_id"`
	ChapterID string   `json:"chapter_id"`
	Pages     []string `json:"pages"`
}

// Tile is the minimal listing entry shared by search, home and view-more pages.
type Tile struct {
	ID       SeriesID `json:"id"`
	Title    string   `json:"title"`
	Cover    string   `json:"cover"`
	Subtitle string   `json:"subtitle,omitempty"`
}

type HomeSection struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Tiles    []Tile `json:"tiles"`
	ViewMore bool   `json:"view_more"`
}

// PagedTiles is one page of a listing. Next is the page token to pass back:
// a page number, or -1 once the listing is exhausted.
type PagedTiles struct {
	Tiles []Tile `json:"tiles"`
	Next  int    `json:"next"`
}

type UpdateBatch struct {
	IDs []SeriesID `json:"ids"`
}

type Source interface {
	GetDetails(ctx context.Context, id SeriesID) (SeriesDetail, error)
	GetChapters(ctx context.Context, id SeriesID) ([]ChapterRef, error)
	GetChapterContent(ctx context.Context, id SeriesID, chapterID string) (ChapterContent, error)
	Search(ctx context.Context, query string, token int) (PagedTiles, error)
	HomeSections(ctx context.Context) iter.Seq2[HomeSection, error]
	ViewMore(ctx context.Context, sectionID string, token int) (PagedTiles, error)
	ScanUpdates(ctx context.Context, since time.Time, known []SeriesID) iter.Seq2[UpdateBatch, error]
	BypassRequest() (*http.Request, error)
	ShareURL(id SeriesID) string
}

// SortChapters orders chapters by ascending ordinal. Chapters sharing an
// ordinal keep the newest first.
func SortChapters(chs []ChapterRef) {
	sort.SliceStable(chs, func(i, j int) bool {
		if chs[i].Ordinal != chs[j].Ordinal {
			return chs[i].Ordinal < chs[j].Ordinal
		}
		return chs[i].Published.After(chs[j].Published)
	})
}
