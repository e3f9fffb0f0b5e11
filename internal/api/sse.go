package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fouedh91760/a-level-saver-sub001/internal/telemetry"
)

const sseHeartbeat = 30 * time.Second

// handleCatalogStream handles GET /v1/catalog/stream. It sends an init event with
// the current ETag, then one update event per published catalog.
func (s *Server) handleCatalogStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		InternalError(w, r, "Streaming unsupported")
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	updates, unsubscribe := s.holder.Subscribe()
	defer unsubscribe()

	telemetry.SSEClients.Inc()
	defer telemetry.SSEClients.Dec()

	writeEvent(w, "init", s.holder.Load().ETag)
	flusher.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case etag := <-updates:
			writeEvent(w, "update", etag)
			flusher.Flush()
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event, etag string) {
	data, _ := json.Marshal(map[string]string{"etag": etag})
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
