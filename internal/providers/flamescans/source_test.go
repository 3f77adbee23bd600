package flamescans

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brogergvhs/flamed/internal/fetch"
	"github.com/brogergvhs/flamed/internal/paging"
	"github.com/brogergvhs/flamed/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeSite serves a small copy of the site and records every request.
type fakeSite struct {
	*httptest.Server

	mu       sync.Mutex
	requests []string
	blocked  bool
	results  int
}

func newFakeSite(t *testing.T) *fakeSite {
	t.Helper()

	fs := &fakeSite{results: 13}
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, fs.homePage())
	})
	mux.HandleFunc("/page/{n}/", func(w http.ResponseWriter, r *http.Request) {
		if !r.URL.Query().Has("s") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, fs.searchPage(r.PathValue("n")))
	})
	mux.HandleFunc("/ab12cd/series/{id}/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, seriesPage(fs.URL))
	})
	mux.HandleFunc("/series/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/series/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, fs.searchPage(r.URL.Query().Get("page")))
	})
	mux.HandleFunc("/solo-leveling-chapter-1/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<div id="readerarea"><img src="/p/1.jpg"><img data-src="/p/2.jpg"></div>`)
	})

	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.requests = append(fs.requests, r.URL.RequestURI())
		blocked := fs.blocked
		fs.mu.Unlock()

		if blocked {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(fs.Close)

	return fs
}

func (fs *fakeSite) hits() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.requests...)
}

func (fs *fakeSite) homePage() string {
	return `<html><body>
<div class="flame-logo"><div class="logo"><a href="` + fs.URL + `/ab12cd/">Flame</a></div></div>
<div class="bixbox"><div class="releases"><h2>Latest Update</h2></div>` + updatesPage(
		[2]string{"c", "5 mins ago"},
		[2]string{"a", "20 mins ago"},
		[2]string{"d", "40 mins ago"},
	) + `</div>
<div class="bixbox"><div class="releases"><h2>Popular</h2></div>
  <div class="listupd"><div class="bs"><div class="bsx"><a href="` + fs.URL + `/ab12cd/series/p/" title="P"><img src="/p.jpg"></a></div></div></div>
</div>
</body></html>`
}

// searchPage serves fs.results tiles, FullPage at a time.
func (fs *fakeSite) searchPage(page string) string {
	var n int
	_, _ = fmt.Sscanf(page, "%d", &n)

	var b strings.Builder
	b.WriteString(`<div class="listupd">`)
	for i := (n - 1) * paging.FullPage; i < n*paging.FullPage && i < fs.results; i++ {
		fmt.Fprintf(&b, `<div class="bs"><div class="bsx"><a href="%s/series/s%d/" title="S%d"><img src="/s%d.jpg"></a></div></div>`, fs.URL, i, i, i)
	}
	b.WriteString(`</div>`)

	return b.String()
}

func updatesPage(entries ...[2]string) string {
	var b strings.Builder
	b.WriteString(`<div class="listupd">`)
	for _, e := range entries {
		fmt.Fprintf(&b, `<div class="utao"><div class="uta"><div class="imgu"><a class="series" href="/series/%s/" title="%s"><img src="/x.jpg"></a></div>`+
			`<div class="luf"><ul><li><a href="#">Chapter 1</a><span>%s</span></li></ul></div></div></div>`, e[0], e[0], e[1])
	}
	b.WriteString(`</div>`)
	return b.String()
}

func seriesPage(base string) string {
	return `<div class="thumb"><img src="/cover.jpg"></div>
<h1 class="entry-title">Solo Leveling</h1>
<div class="tsinfo"><div class="imptdt">Status <i>Completed</i></div></div>
<div class="mgen"><a>Action</a></div>
<div class="eplister" id="chapterlist"><ul>
<li><a href="` + base + `/solo-leveling-chapter-2/"><span class="chapternum">Chapter 2</span><span class="chapterdate">1 day ago</span></a></li>
<li><a href="` + base + `/solo-leveling-chapter-1/"><span class="chapternum">Chapter 1</span><span class="chapterdate">2 days ago</span></a></li>
</ul></div>`
}

func newSource(fs *fakeSite, traversal string) (*Source, *fetch.Scheduler) {
	sched := fetch.New(fs.Client(), fetch.Options{
		BaseURL:           fs.URL,
		RequestsPerSecond: 1000,
		Backoff:           time.Millisecond,
	})
	src := New(sched, Options{TraversalPath: traversal, Now: func() time.Time { return now }})
	return src, sched
}

func TestHomeSectionsRefreshTraversal(t *testing.T) {
	fs := newFakeSite(t)
	src, _ := newSource(fs, "")

	var ids []string
	for sec, err := range src.HomeSections(context.Background()) {
		require.NoError(t, err)
		ids = append(ids, sec.ID)
	}

	assert.Equal(t, []string{"2", "3"}, ids)
	assert.Equal(t, "ab12cd", src.Traversal())
	assert.Equal(t, []string{"/"}, fs.hits())

	d, err := src.GetDetails(context.Background(), "solo-leveling")
	require.NoError(t, err)
	assert.Equal(t, "Solo Leveling", d.Title)
	assert.Equal(t, providers.StatusCompleted, d.Status)
	assert.Equal(t, fs.URL+"/cover.jpg", d.Cover)
	assert.Equal(t, fs.URL+"/series/solo-leveling", d.ShareURL)
	assert.Equal(t, "/ab12cd/series/solo-leveling/", fs.hits()[1])
}

func TestGetDetailsWithoutTraversal(t *testing.T) {
	fs := newFakeSite(t)
	src, _ := newSource(fs, "")

	_, err := src.GetDetails(context.Background(), "solo-leveling")
	assert.ErrorIs(t, err, fetch.ErrTransport)

	hits := fs.hits()
	assert.Len(t, hits, fetch.DefaultAttempts)
	for _, h := range hits {
		assert.Equal(t, "/series/solo-leveling/", h)
	}
}

func TestGetChaptersAndContent(t *testing.T) {
	fs := newFakeSite(t)
	src, _ := newSource(fs, "ab12cd")

	chs, err := src.GetChapters(context.Background(), "solo-leveling")
	require.NoError(t, err)
	require.Len(t, chs, 2)
	assert.Equal(t, 2.0, chs[0].Ordinal)
	assert.Equal(t, now.Add(-24*time.Hour), chs[0].Published)

	content, err := src.GetChapterContent(context.Background(), "solo-leveling", chs[1].ID)
	require.NoError(t, err)
	assert.Equal(t, providers.SeriesID("solo-leveling"), content.SeriesID)
	assert.Equal(t, chs[1].ID, content.ChapterID)
	assert.Equal(t, []string{fs.URL + "/p/1.jpg", fs.URL + "/p/2.jpg"}, content.Pages)
}

func TestInvalidInput(t *testing.T) {
	fs := newFakeSite(t)
	src, _ := newSource(fs, "")

	_, err := src.GetDetails(context.Background(), " ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = src.GetChapterContent(context.Background(), "x", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Empty(t, fs.hits())
}

func TestChapterContentStaysOnSite(t *testing.T) {
	fs := newFakeSite(t)
	src, _ := newSource(fs, "")

	var foreignHits atomic.Int32
	foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		foreignHits.Add(1)
		fmt.Fprint(w, `<div id="readerarea"><img src="/x.jpg"></div>`)
	}))
	defer foreign.Close()

	for _, id := range []string{
		foreign.URL + "/solo-leveling-chapter-1/",
		"//" + strings.TrimPrefix(foreign.URL, "http://") + "/solo-leveling-chapter-1/",
		"file:///etc/passwd",
	} {
		_, err := src.GetChapterContent(context.Background(), "solo-leveling", id)
		assert.ErrorIs(t, err, ErrInvalidInput, id)
	}
	assert.Zero(t, foreignHits.Load())
	assert.Empty(t, fs.hits())

	content, err := src.GetChapterContent(context.Background(), "solo-leveling", "/solo-leveling-chapter-1/")
	require.NoError(t, err)
	assert.Equal(t, "/solo-leveling-chapter-1/", content.ChapterID)
	assert.Len(t, content.Pages, 2)
}

func TestSearchPaging(t *testing.T) {
	fs := newFakeSite(t)
	src, _ := newSource(fs, "")

	first, err := src.Search(context.Background(), "solo leveling", 0)
	require.NoError(t, err)
	assert.Len(t, first.Tiles, 10)
	assert.Equal(t, 2, first.Next)
	assert.Equal(t, providers.SeriesID("s0"), first.Tiles[0].ID)

	second, err := src.Search(context.Background(), "solo leveling", first.Next)
	require.NoError(t, err)
	assert.Len(t, second.Tiles, 3)
	assert.Equal(t, paging.Terminal, second.Next)

	for i := 0; i < 2; i++ {
		done, err := src.Search(context.Background(), "solo leveling", second.Next)
		require.NoError(t, err)
		assert.Empty(t, done.Tiles)
		assert.Equal(t, paging.Terminal, done.Next)
	}

	assert.Equal(t, []string{
		"/page/1/?s=solo+leveling",
		"/page/2/?s=solo+leveling",
	}, fs.hits())
}

func TestViewMore(t *testing.T) {
	fs := newFakeSite(t)
	src, _ := newSource(fs, "")

	p, err := src.ViewMore(context.Background(), "2", 0)
	require.NoError(t, err)
	assert.Len(t, p.Tiles, 10)
	assert.Equal(t, 2, p.Next)

	p, err = src.ViewMore(context.Background(), "3", 2)
	require.NoError(t, err)
	assert.Len(t, p.Tiles, 3)
	assert.Equal(t, paging.Terminal, p.Next)

	p, err = src.ViewMore(context.Background(), "3", paging.Terminal)
	require.NoError(t, err)
	assert.Empty(t, p.Tiles)
	assert.Equal(t, paging.Terminal, p.Next)

	assert.Equal(t, []string{
		"/series/?order=update&page=1",
		"/series/?order=popular&page=2&status=&type=",
	}, fs.hits())
}

func TestViewMoreUnknownSection(t *testing.T) {
	fs := newFakeSite(t)
	src, _ := newSource(fs, "")

	_, err := src.ViewMore(context.Background(), "popular-today", 0)
	assert.ErrorIs(t, err, ErrUnknownSection)
	assert.Empty(t, fs.hits())
}

func TestScanUpdates(t *testing.T) {
	fs := newFakeSite(t)
	src, _ := newSource(fs, "")

	var batches [][]providers.SeriesID
	for b, err := range src.ScanUpdates(context.Background(), now.Add(-6*time.Hour), []providers.SeriesID{"a", "b"}) {
		require.NoError(t, err)
		batches = append(batches, b.IDs)
	}

	assert.Equal(t, [][]providers.SeriesID{{"c", "d"}}, batches)
	assert.Equal(t, []string{"/", "/"}, fs.hits())
}

func TestScanUpdatesNeverLeavesHomePage(t *testing.T) {
	fs := newFakeSite(t)
	src, _ := newSource(fs, "")

	var got []providers.SeriesID
	for b, err := range src.ScanUpdates(context.Background(), now.Add(-30*time.Minute), nil) {
		require.NoError(t, err)
		got = append(got, b.IDs...)
	}

	assert.Equal(t, []providers.SeriesID{"c", "a"}, got)
	for _, h := range fs.hits() {
		assert.Equal(t, "/", h)
	}
}

func TestBlockedIsReportedWithoutRetry(t *testing.T) {
	fs := newFakeSite(t)
	fs.mu.Lock()
	fs.blocked = true
	fs.mu.Unlock()
	src, sched := newSource(fs, "")

	_, err := src.GetDetails(context.Background(), "solo-leveling")
	assert.ErrorIs(t, err, fetch.ErrBlocked)

	for _, err := range src.HomeSections(context.Background()) {
		assert.ErrorIs(t, err, fetch.ErrBlocked)
	}

	var scanErr error
	for _, err := range src.ScanUpdates(context.Background(), now.Add(-time.Hour), nil) {
		scanErr = err
	}
	assert.ErrorIs(t, scanErr, fetch.ErrBlocked)

	assert.EqualValues(t, 0, sched.Retries())
	assert.Len(t, fs.hits(), 3)
}

func TestShareURLAndBypass(t *testing.T) {
	sched := fetch.New(nil, fetch.Options{BaseURL: DefaultBaseURL})
	src := New(sched, Options{})

	assert.Equal(t, "https://flamescans.org/series/omniscient-reader", src.ShareURL("omniscient-reader"))

	req, err := src.BypassRequest()
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, req.URL.String())
	assert.Equal(t, DefaultBaseURL+"/", req.Header.Get("Referer"))
	assert.NotEmpty(t, req.Header.Get("User-Agent"))
}
