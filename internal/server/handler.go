// Package server exposes a providers.Source over HTTP/JSON, with a websocket
// endpoint that streams update batches as they are found.
package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/brogergvhs/flamed/internal/providers"
	"github.com/brogergvhs/flamed/internal/providers/flamescans"
)

// NewRouter mounts Handler under /api with request ids attached.
func NewRouter(src providers.Source, rr *Responder) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Mount("/api", Handler(src, rr))

	return r
}

func Handler(src providers.Source, rr *Responder) http.Handler {
	r := chi.NewRouter()

	r.Get("/series/{id}", func(w http.ResponseWriter, r *http.Request) {
		d, err := src.GetDetails(r.Context(), providers.SeriesID(chi.URLParam(r, "id")))
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), d)
	})

	r.Get("/series/{id}/chapters", func(w http.ResponseWriter, r *http.Request) {
		chs, err := src.GetChapters(r.Context(), providers.SeriesID(chi.URLParam(r, "id")))
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		if r.URL.Query().Get("sort") == "asc" {
			providers.SortChapters(chs)
		}

		rr.SendJson(w, r.Context(), struct {
			Chapters []providers.ChapterRef `json:"chapters"`
		}{Chapters: chs})
	})

	r.Get("/series/{id}/content", func(w http.ResponseWriter, r *http.Request) {
		chapter := r.URL.Query().Get("chapter")
		if chapter == "" {
			rr.RespondError(w, r.Context(), fmt.Errorf("%w: chapter is required", flamescans.ErrInvalidInput))
			return
		}

		c, err := src.GetChapterContent(r.Context(), providers.SeriesID(chi.URLParam(r, "id")), chapter)
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), c)
	})

	r.Get("/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query := strings.TrimSpace(q.Get("q"))
		if query == "" {
			rr.RespondError(w, r.Context(), fmt.Errorf("%w: q is required", flamescans.ErrInvalidInput))
			return
		}

		p, err := src.Search(r.Context(), query, getIntOrDefault("page", q, 0))
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), p)
	})

	r.Get("/home", func(w http.ResponseWriter, r *http.Request) {
		sections := make([]providers.HomeSection, 0)
		for sec, err := range src.HomeSections(r.Context()) {
			if err != nil {
				rr.RespondError(w, r.Context(), err)
				return
			}
			sections = append(sections, sec)
		}

		rr.SendJson(w, r.Context(), struct {
			Sections []providers.HomeSection `json:"sections"`
		}{Sections: sections})
	})

	r.Get("/sections/{id}", func(w http.ResponseWriter, r *http.Request) {
		p, err := src.ViewMore(r.Context(), chi.URLParam(r, "id"), getIntOrDefault("page", r.URL.Query(), 0))
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), p)
	})

	r.Get("/updates", func(w http.ResponseWriter, r *http.Request) {
		since, known, err := updateParams(r.URL.Query(), time.Now())
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		batches := make([]providers.UpdateBatch, 0)
		for b, err := range src.ScanUpdates(r.Context(), since, known) {
			if err != nil {
				// Batches found before the failure are still reported.
				rr.RespondErrorWith(w, r.Context(), err, map[string]any{
					"since":   since,
					"batches": batches,
				})
				return
			}
			batches = append(batches, b)
		}

		rr.SendJson(w, r.Context(), struct {
			Since   time.Time               `json:"since"`
			Batches []providers.UpdateBatch `json:"batches"`
		}{Since: since, Batches: batches})
	})

	r.Get("/updates/ws", updatesWS(src, rr))

	r.Get("/bypass", func(w http.ResponseWriter, r *http.Request) {
		req, err := src.BypassRequest()
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		headers := map[string]string{}
		for k := range req.Header {
			headers[k] = req.Header.Get(k)
		}

		rr.SendJson(w, r.Context(), struct {
			Method  string            `json:"method"`
			URL     string            `json:"url"`
			Headers map[string]string `json:"headers"`
		}{Method: req.Method, URL: req.URL.String(), Headers: headers})
	})

	return r
}

// updateParams reads since (RFC 3339 or a duration back from now, default
// 24h) and a comma separated known list.
func updateParams(q url.Values, now time.Time) (time.Time, []providers.SeriesID, error) {
	since := now.Add(-24 * time.Hour)

	if raw := strings.TrimSpace(q.Get("since")); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			since = t
		} else if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			since = now.Add(-d)
		} else {
			return time.Time{}, nil, fmt.Errorf("%w: since must be RFC 3339 or a positive duration", flamescans.ErrInvalidInput)
		}
	}

	var known []providers.SeriesID
	for _, raw := range getMulti("known", q) {
		known = append(known, providers.SeriesID(raw))
	}

	return since, known, nil
}

func getIntOrDefault(key string, q url.Values, default_ int) int {
	if ls := q.Get(key); ls != "" {
		v, err := strconv.Atoi(ls)
		if err == nil {
			return v
		}
	}

	return default_
}

// getMulti accepts both repeated keys and comma separated values.
func getMulti(key string, q url.Values) []string {
	raw, ok := q[key]
	if !ok {
		return nil
	}

	var out []string
	for _, v := range raw {
		for p := range strings.SplitSeq(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}

	return out
}
