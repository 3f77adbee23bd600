package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"unicode"
	"unicode/utf8"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/brogergvhs/flamed/internal/extract"
	"github.com/brogergvhs/flamed/internal/fetch"
	"github.com/brogergvhs/flamed/internal/providers/flamescans"
	"github.com/brogergvhs/flamed/internal/ui"
)

type Responder struct {
	Log       *ui.Logger
	DebugMode bool
}

func (rr *Responder) logger(ctx context.Context) *ui.Logger {
	l := rr.Log
	if l == nil {
		l = ui.NewLogger(rr.DebugMode)
	}
	if id := middleware.GetReqID(ctx); id != "" {
		return l.With("req=" + id)
	}
	return l
}

// RespondError maps err to a status, logs it under a fresh error id and
// renders a JSON error body.
func (rr *Responder) RespondError(w http.ResponseWriter, ctx context.Context, err error) {
	rr.RespondErrorWith(w, ctx, err, nil)
}

// RespondErrorWith is RespondError with extra fields merged into the body,
// used to hand back results gathered before the failure.
func (rr *Responder) RespondErrorWith(w http.ResponseWriter, ctx context.Context, err error, extra map[string]any) {
	status := statusFor(err)
	errID := uuid.NewString()

	if status >= http.StatusInternalServerError {
		rr.logger(ctx).Errorf("%s (err_id=%s)\n", err, errID)
	} else {
		rr.logger(ctx).Debugf("%s (err_id=%s)\n", err, errID)
	}

	rr.renderError(w, ctx, status, err.Error(), errID, extra)
}

func (rr *Responder) SendJson(w http.ResponseWriter, ctx context.Context, data any) {
	bs, err := json.Marshal(data)
	if err != nil {
		rr.RespondError(w, ctx, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = io.Copy(w, bytes.NewReader(bs))
}

func (rr *Responder) renderError(w http.ResponseWriter, ctx context.Context, status int, message, errID string, extra map[string]any) {
	data := map[string]any{"error_id": errID}
	for k, v := range extra {
		data[k] = v
	}

	// Unclassified failures only show details in debug mode.
	if status != http.StatusInternalServerError || rr.DebugMode {
		r, s := utf8.DecodeRuneInString(message)
		data["error"] = string(unicode.ToUpper(r)) + message[s:]
	} else {
		data["error"] = "Unknown error occurred while processing your request. Error ID: " + errID
	}

	bs, err := json.Marshal(data)
	if err == nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	} else {
		rr.logger(ctx).Errorf("cannot marshal error response body: %v\n", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		bs = []byte("unknown error")
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.Copy(w, bytes.NewReader(bs))
}

func statusFor(err error) int {
	var fe *fetch.Error

	switch {
	case errors.Is(err, flamescans.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, flamescans.ErrUnknownSection):
		return http.StatusNotFound
	case errors.Is(err, fetch.ErrBlocked):
		return http.StatusServiceUnavailable
	case errors.Is(err, fetch.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &fe) && fe.Status == http.StatusNotFound:
		return http.StatusNotFound
	case errors.Is(err, fetch.ErrTransport),
		errors.Is(err, extract.ErrMissingField),
		errors.Is(err, extract.ErrMalformedDocument):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
