package sse

import (
	"aichat-server/internal/logger"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Event names pushed to the chat client
const (
	EventConversation = "conversation"
	EventChunk        = "chunk"
	EventDone         = "done"
	EventError        = "error"
)

// Sink receives the ordered, typed push events of one chat turn.
type Sink interface {
	Send(event string, data any)
}

// Writer pushes server-sent events over an HTTP response, one
// blank-line-terminated frame per event, flushed immediately.
type Writer struct {
	w       io.Writer
	flusher http.Flusher
}

// NewWriter prepares a response for server-sent events and returns the push
// writer for it. Fails when the underlying writer cannot flush.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("streaming not supported")
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	// keep reverse proxies from buffering the stream
	header.Set("X-Accel-Buffering", "no")

	return &Writer{w: w, flusher: flusher}, nil
}

// Send writes one event frame. A payload that cannot be serialized is
// replaced by a serialization_error payload instead of dropping the frame.
func (wr *Writer) Send(event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		logger.Log.WithError(err).WithField("event", event).Error("Failed to serialize push event")
		payload, _ = json.Marshal(map[string]string{
			"error":   "serialization_error",
			"message": err.Error(),
		})
	}

	fmt.Fprintf(wr.w, "event: %s\ndata: %s\n\n", event, payload)
	wr.flusher.Flush()
}
