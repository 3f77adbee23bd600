package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScheduler(srv *httptest.Server, opts Options) *Scheduler {
	opts.BaseURL = srv.URL
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = 1000
	}
	if opts.Backoff == 0 {
		opts.Backoff = time.Millisecond
	}
	return New(srv.Client(), opts)
}

func TestFetchBlockedIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := newScheduler(srv, Options{Attempts: 5})
	_, err := s.Fetch(context.Background(), srv.URL+"/series/x/", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBlocked)
	assert.True(t, IsBlocked(err))
	assert.Contains(t, err.Error(), "Cloudflare")
	assert.EqualValues(t, 0, s.Retries())
	assert.EqualValues(t, 1, hits.Load())

	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusServiceUnavailable, fe.Status)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("<html><body><h1>ok</h1></body></html>"))
	}))
	defer srv.Close()

	s := newScheduler(srv, Options{Attempts: 5})
	doc, err := s.Fetch(context.Background(), srv.URL, nil)

	require.NoError(t, err)
	assert.Contains(t, doc.Body, "<h1>ok</h1>")
	assert.Equal(t, http.StatusOK, doc.Status)
	assert.EqualValues(t, 2, s.Retries())
}

func TestFetchGivesUpAfterAttempts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := newScheduler(srv, Options{Attempts: 3})
	_, err := s.Fetch(context.Background(), srv.URL, nil)

	assert.ErrorIs(t, err, ErrTransport)
	assert.EqualValues(t, 3, hits.Load())
	assert.EqualValues(t, 2, s.Retries())
}

func TestFetchHTTPErrorsSpendAttemptBudget(t *testing.T) {
	tests := []struct {
		name   string
		status int
		hits   int32
	}{
		{"not found", http.StatusNotFound, 3},
		{"forbidden", http.StatusForbidden, 3},
		{"too many requests", http.StatusTooManyRequests, 3},
		{"bad gateway", http.StatusBadGateway, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			s := newScheduler(srv, Options{Attempts: 3})
			_, err := s.Fetch(context.Background(), srv.URL, nil)

			assert.ErrorIs(t, err, ErrTransport)
			assert.NotErrorIs(t, err, ErrBlocked)
			assert.Equal(t, tt.hits, hits.Load())
			assert.EqualValues(t, 2, s.Retries())
		})
	}
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	s := newScheduler(srv, Options{Attempts: 2, Timeout: 50 * time.Millisecond})
	_, err := s.Fetch(context.Background(), srv.URL, nil)

	assert.ErrorIs(t, err, ErrTimeout)
	assert.EqualValues(t, 1, s.Retries())
}

func TestFetchCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newScheduler(srv, Options{Attempts: 5})
	_, err := s.Fetch(ctx, srv.URL, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, s.Retries())
}

func TestFetchHeadersAndParams(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	s := newScheduler(srv, Options{UserAgent: "test-agent/1.0"})
	_, err := s.Fetch(context.Background(), srv.URL+"/page/2/", url.Values{"s": {"solo leveling"}})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "test-agent/1.0", got.Header.Get("User-Agent"))
	assert.Equal(t, srv.URL+"/", got.Header.Get("Referer"))
	assert.Equal(t, "/page/2/", got.URL.Path)
	assert.Equal(t, "s=solo+leveling", got.URL.RawQuery)
}

func TestFetchDefaultUserAgent(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	s := newScheduler(srv, Options{})
	_, err := s.Fetch(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Contains(t, ua, "Mozilla/5.0")
}

func TestFetchDecodesCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<p>caf\xe9</p>"))
	}))
	defer srv.Close()

	s := newScheduler(srv, Options{})
	doc, err := s.FetchDOM(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "café", doc.Find("p").Text())
	assert.Equal(t, srv.URL, doc.Url.String())
}

func TestFetchRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	s := newScheduler(srv, Options{RequestsPerSecond: 20})

	start := time.Now()
	for i := 0; i < 4; i++ {
		_, err := s.Fetch(context.Background(), srv.URL, nil)
		require.NoError(t, err)
	}

	assert.GreaterOrEqual(t, time.Since(start), 140*time.Millisecond)
}

func TestFetchRejectsRelativeURL(t *testing.T) {
	s := New(nil, Options{BaseURL: "https://flamescans.org"})
	_, err := s.Fetch(context.Background(), "/series/x/", nil)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestBypassRequest(t *testing.T) {
	s := New(nil, Options{BaseURL: "https://flamescans.org/", UserAgent: "ua"})

	req, err := s.BypassRequest()
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "https://flamescans.org", req.URL.String())
	assert.Equal(t, "ua", req.Header.Get("User-Agent"))
	assert.Equal(t, "https://flamescans.org/", req.Header.Get("Referer"))
}
