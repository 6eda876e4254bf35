package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Events streams a session's notifications as Server-Sent Events.
// GET /api/sessions/{id}/events
//
// The stream opens with a "snapshot" event, then relays state, rolled, used
// and moved events until the client disconnects or the session closes,
// which ends the stream with "done".
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	s, ok := h.hub.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found", CodeNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported", "STREAM_ERROR")
		return
	}

	// Streams outlive the server's write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.log.Debug("clear write deadline", zap.Error(err))
	}

	events, unsubscribe := s.Subscribe()
	defer unsubscribe()

	snap, err := s.Snapshot(r.Context())
	if err != nil {
		h.sessionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeSSEEvent(w, "snapshot", snap)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				writeSSEEvent(w, "done", nil)
				flusher.Flush()
				return
			}
			writeSSEEvent(w, ev.Type, ev.Data)
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes a Server-Sent Event to the response.
func writeSSEEvent(w http.ResponseWriter, event string, data any) {
	fmt.Fprintf(w, "event: %s\n", event)
	if data != nil {
		jsonData, _ := json.Marshal(data)
		fmt.Fprintf(w, "data: %s\n", jsonData)
	}
	fmt.Fprintf(w, "\n")
}
