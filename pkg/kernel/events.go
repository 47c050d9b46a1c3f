package kernel

import (
	"fmt"
	"net/http"
	"time"

	"github.com/manthysbr/modelpilot/internal/core/services"
)

const sseKeepAlive = 15 * time.Second

// handleEventsSSE streams engine events (switches, availability, usage, catalog
// reloads, task results) as server-sent events. ?type= narrows the stream.
// GET /v1/events
func (s *Server) handleEventsSSE(w http.ResponseWriter, r *http.Request) {
	if s.eventBus == nil {
		http.Error(w, "event stream not configured", http.StatusNotFound)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	filter := services.EventType(r.URL.Query().Get("type"))

	// SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, unsub := s.eventBus.SubscribeGlobal()
	defer unsub()

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if filter != "" && evt.Type != filter {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, evt.Data)
			flusher.Flush()
		}
	}
}
