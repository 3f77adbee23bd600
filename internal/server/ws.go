package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brogergvhs/flamed/internal/providers"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Frame is one websocket message of an update stream: a "batch" per
// UpdateBatch, then either "error" or "done".
type Frame struct {
	Type  string               `json:"type"`
	IDs   []providers.SeriesID `json:"ids,omitempty"`
	Error string               `json:"error,omitempty"`
}

func updatesWS(src providers.Source, rr *Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since, known, err := updateParams(r.URL.Query(), time.Now())
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			rr.logger(r.Context()).Debugf("websocket upgrade: %v\n", err)
			return
		}
		defer ws.Close()

		ctx := r.Context()
		for b, err := range src.ScanUpdates(ctx, since, known) {
			if err != nil {
				_ = ws.WriteJSON(Frame{Type: "error", Error: err.Error()})
				return
			}
			if err := ws.WriteJSON(Frame{Type: "batch", IDs: b.IDs}); err != nil {
				rr.logger(ctx).Debugf("websocket write: %v\n", err)
				return
			}
		}

		_ = ws.WriteJSON(Frame{Type: "done"})
		_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
}
