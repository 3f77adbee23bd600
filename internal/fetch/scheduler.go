// Package fetch performs rate limited, retried GET requests against the
// site and hands back decoded page bodies.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/brogergvhs/flamed/internal/util"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

const (
	DefaultRequestsPerSecond = 3
	DefaultTimeout           = 8 * time.Second
	DefaultAttempts          = 5
	DefaultBackoff           = 500 * time.Millisecond
)

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Options struct {
	BaseURL           string
	UserAgent         string
	RequestsPerSecond float64
	Timeout           time.Duration
	Attempts          int
	Backoff           time.Duration
	Logger            interface {
		Debugf(string, ...any)
	}
}

// Document is a fetched page with its body already decoded to UTF-8.
type Document struct {
	URL    string
	Status int
	Body   string
}

// Scheduler owns the request budget for one site. All operations sharing a
// Scheduler share its rate ceiling.
type Scheduler struct {
	client  Doer
	opts    Options
	limiter *rate.Limiter
	retries atomic.Int64
}

func New(client Doer, opts Options) *Scheduler {
	if client == nil {
		client = http.DefaultClient
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.Backoff < 0 {
		opts.Backoff = 0
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	opts.UserAgent = util.PickUserAgent(opts.UserAgent)

	return &Scheduler{
		client:  client,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
	}
}

func (s *Scheduler) BaseURL() string {
	return s.opts.BaseURL
}

// Retries returns how many extra attempts were made since the scheduler was
// created.
func (s *Scheduler) Retries() int64 {
	return s.retries.Load()
}

func (s *Scheduler) debugf(format string, args ...any) {
	if s.opts.Logger != nil {
		s.opts.Logger.Debugf(format, args...)
	}
}

// Fetch GETs rawURL with params merged into its query. Timeouts, connection
// errors, 429 and 5xx responses are retried with linear backoff; a 503 is
// reported as ErrBlocked straight away.
func (s *Scheduler) Fetch(ctx context.Context, rawURL string, params url.Values) (*Document, error) {
	target, err := buildURL(rawURL, params)
	if err != nil {
		return nil, &Error{Kind: ErrTransport, URL: rawURL, Err: err}
	}

	var lastErr error
	for attempt := 1; attempt <= s.opts.Attempts; attempt++ {
		if attempt > 1 {
			s.retries.Add(1)
			if err := sleep(ctx, s.opts.Backoff*time.Duration(attempt-1)); err != nil {
				return nil, fmt.Errorf("fetch %s: %w", target, err)
			}
		}

		doc, err := s.attempt(ctx, target)
		if err == nil {
			return doc, nil
		}

		lastErr = err
		if !retryable(err) {
			return nil, err
		}

		s.debugf("attempt %d/%d for %s failed: %v\n", attempt, s.opts.Attempts, target, err)
	}

	return nil, lastErr
}

// FetchDOM is Fetch followed by parsing the body.
func (s *Scheduler) FetchDOM(ctx context.Context, rawURL string, params url.Values) (*goquery.Document, error) {
	page, err := s.Fetch(ctx, rawURL, params)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", page.URL, err)
	}
	if u, err := url.Parse(page.URL); err == nil {
		doc.Url = u
	}

	return doc, nil
}

func (s *Scheduler) attempt(ctx context.Context, target string) (*Document, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}

	actx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &Error{Kind: ErrTransport, URL: target, Err: err}
	}
	s.decorate(req)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, s.classify(ctx, target, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, &Error{Kind: ErrBlocked, URL: target, Status: resp.StatusCode}
	case resp.StatusCode >= 400:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &Error{Kind: ErrTransport, URL: target, Status: resp.StatusCode}
	}

	r, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		r = resp.Body
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, s.classify(ctx, target, err)
	}

	s.debugf("GET %s -> %d (%s in %s)\n", target, resp.StatusCode, util.Human(int64(len(body))), time.Since(start).Round(time.Millisecond))

	return &Document{URL: target, Status: resp.StatusCode, Body: string(body)}, nil
}

func (s *Scheduler) classify(ctx context.Context, target string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("fetch %s: %w", target, ctx.Err())
	}

	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &Error{Kind: ErrTimeout, URL: target, Err: err}
	}

	return &Error{Kind: ErrTransport, URL: target, Err: err}
}

func (s *Scheduler) decorate(req *http.Request) {
	req.Header.Set("User-Agent", s.opts.UserAgent)
	req.Header.Set("Referer", s.opts.BaseURL+"/")
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	}
}

// BypassRequest builds the request an external challenge solver should
// replay to obtain clearance cookies. It is never sent by the scheduler.
func (s *Scheduler) BypassRequest() (*http.Request, error) {
	req, err := http.NewRequest(http.MethodGet, s.opts.BaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("bypass request: %w", err)
	}
	s.decorate(req)

	return req, nil
}

func buildURL(rawURL string, params url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("not an absolute url: %q", rawURL)
	}

	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
