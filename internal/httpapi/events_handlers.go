package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"signalsdr-engine/internal/events"
)

const sseKeepAlive = 25 * time.Second

type EventsHandler struct {
	Hub *events.Hub
}

// ServeSSE streams run events. ?types=run.,draft.queued narrows the stream;
// each frame is named after its event type.
func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.Hub.Subscribe(queryList(r, "types")...)
	defer h.Hub.Unsubscribe(ch)

	writeFrame(w, events.New(RequestIDFrom(r.Context()), events.Ping, nil))
	flusher.Flush()

	tick := time.NewTicker(sseKeepAlive)
	defer tick.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case e, ok := <-ch:
			if !ok {
				return
			}
			writeFrame(w, e)
			flusher.Flush()
		}
	}
}

func writeFrame(w http.ResponseWriter, e events.Event) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, e.JSON())
}
