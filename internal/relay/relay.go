// Package relay implements the per-turn protocol engine that translates
// upstream stream events into client push events, accumulating the full
// response and settling exactly once.
package relay

import (
	"aichat-server/internal/llm"
	"aichat-server/internal/metrics"
	"aichat-server/internal/sse"
	"strings"
	"time"
)

// State of one chat turn
type State int

const (
	// StateStreaming accepts deltas and terminal signals
	StateStreaming State = iota
	// StateSettledOK is terminal: the done event has been pushed
	StateSettledOK
	// StateSettledError is terminal: the error event has been pushed
	StateSettledError
)

// Error codes pushed to the client on a failed turn
const (
	CodeChatError    = "chat_error"
	CodeStreamError  = "stream_error"
	CodeTimeoutError = "timeout_error"
)

// Error is a settled turn failure. It doubles as the payload of the
// terminal error push event.
type Error struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// Relay owns the transient state of one chat turn: the content accumulator
// and the settlement flag. A relay belongs to exactly one turn and is
// discarded on settlement; it is never shared across turns.
type Relay struct {
	sink    sse.Sink
	acc     strings.Builder
	state   State
	failure *Error
}

// New creates the relay for one turn, pushing into sink
func New(sink sse.Sink) *Relay {
	return &Relay{sink: sink, state: StateStreaming}
}

// State returns the current turn state
func (r *Relay) State() State {
	return r.state
}

// Settled reports whether a terminal event has been pushed
func (r *Relay) Settled() bool {
	return r.state != StateStreaming
}

// Content returns the accumulated response so far
func (r *Relay) Content() string {
	return r.acc.String()
}

// Err returns the settled failure, nil while streaming or on success
func (r *Relay) Err() *Error {
	return r.failure
}

// HandleDelta appends one content delta to the accumulator and forwards it
// to the client. Deltas arriving after settlement are silently dropped.
func (r *Relay) HandleDelta(content string) {
	if r.Settled() {
		return
	}
	r.acc.WriteString(content)
	r.sink.Send(sse.EventChunk, map[string]string{"content": content})
	metrics.DeltasTotal.Inc()
}

// HandleDone settles the turn successfully and pushes the terminal done
// event carrying the full accumulated content. No-op once settled.
func (r *Relay) HandleDone() {
	if r.Settled() {
		return
	}
	r.state = StateSettledOK
	r.sink.Send(sse.EventDone, map[string]string{"content": r.acc.String()})
}

// HandleEnd settles a stream that ended without an explicit terminal
// signal: accumulated content counts as a completed turn, an empty
// accumulator is a hard failure.
func (r *Relay) HandleEnd() {
	if r.Settled() {
		return
	}
	if r.acc.Len() > 0 {
		r.HandleDone()
		return
	}
	r.HandleFailure(CodeChatError, "no response received from the model")
}

// HandleFailure settles the turn as failed and pushes the terminal error
// event. No-op once settled, so a failure racing a completed turn never
// produces a second terminal event.
func (r *Relay) HandleFailure(code, message string) {
	if r.Settled() {
		return
	}
	r.state = StateSettledError
	r.failure = &Error{Code: code, Message: message}
	r.sink.Send(sse.EventError, r.failure)
}

// Run drives the relay until settlement. Upstream events race the model
// timeout; whichever terminal condition fires first wins and every later
// signal is a no-op. Returns the accumulated content, or the settled
// *Error whose terminal event has already been pushed.
func (r *Relay) Run(events <-chan llm.Event, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for !r.Settled() {
		select {
		case ev, ok := <-events:
			if !ok {
				r.HandleEnd()
				continue
			}
			switch ev.Type {
			case llm.EventDelta:
				r.HandleDelta(ev.Content)
			case llm.EventDone:
				r.HandleDone()
			case llm.EventEnd:
				r.HandleEnd()
			case llm.EventError:
				r.HandleFailure(CodeStreamError, ev.Err.Error())
			}
		case <-timer.C:
			r.HandleFailure(CodeTimeoutError, "request timed out, please try again later")
		}
	}

	if r.state == StateSettledError {
		return "", r.failure
	}
	return r.Content(), nil
}
