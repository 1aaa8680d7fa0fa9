package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/iceiceblakey1/atelier/internal/router"
)

type sseChunk struct {
	Text string `json:"text"`
}

type sseError struct {
	Error string `json:"error"`
}

// streamSSE drains a chunk stream onto the response as server-sent events.
// The stream is terminated with a [DONE] marker; a hard failure after zero
// or more chunks is reported as a final error event.
func streamSSE(w http.ResponseWriter, s *router.Stream) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.Close()
		httpError(w, http.StatusInternalServerError, "api_error", "streaming not supported")
		return
	}
	defer s.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for chunk := range s.Chunks() {
		payload, err := json.Marshal(sseChunk{Text: chunk})
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	if err := s.Err(); err != nil {
		payload, merr := json.Marshal(sseError{Error: err.Error()})
		if merr == nil {
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}
