package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"mdbrowser/internal/library"
)

const pingInterval = 25 * time.Second

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

func writeSSEEvent(w io.Writer, event string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", b)
	return err
}

// handleEvents streams library changes as server-sent events. The stream ends
// when the client goes away or the watcher is replaced by a new base.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	if !s.opts.Watch {
		writeError(w, http.StatusNotFound, "file watching is disabled")
		return
	}
	watcher := s.currentWatcher()
	if watcher == nil {
		if s.lib.Base() == "" {
			writeLibraryError(w, r, library.ErrNoBase)
			return
		}
		writeError(w, http.StatusServiceUnavailable, "file watcher unavailable")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// Streams outlive the server write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	events, unsubscribe := watcher.Subscribe()
	defer unsubscribe()

	setSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	if err := writeSSEEvent(w, "ready", map[string]string{"base": watcher.Base()}); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeSSEEvent(w, "change", ev); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
