package relay

import (
	"aichat-server/internal/llm"
	"aichat-server/internal/sse"
	"aichat-server/internal/testutil"
	"errors"
	"testing"
	"time"
)

func terminalEvents(sink *testutil.MockSink) []testutil.SentEvent {
	var out []testutil.SentEvent
	for _, ev := range sink.Events {
		if ev.Event == sse.EventDone || ev.Event == sse.EventError {
			out = append(out, ev)
		}
	}
	return out
}

func TestRelayDeltaAccumulation(t *testing.T) {
	sink := &testutil.MockSink{}
	r := New(sink)

	r.HandleDelta("Hel")
	r.HandleDelta("lo")
	r.HandleDone()

	if r.Content() != "Hello" {
		t.Errorf("Expected accumulated content %q, got %q", "Hello", r.Content())
	}

	chunks := sink.Named(sse.EventChunk)
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunk events, got %d", len(chunks))
	}
	if chunks[0].Data.(map[string]string)["content"] != "Hel" {
		t.Errorf("First chunk should carry the first delta")
	}

	done := sink.Named(sse.EventDone)
	if len(done) != 1 {
		t.Fatalf("Expected 1 done event, got %d", len(done))
	}
	if done[0].Data.(map[string]string)["content"] != "Hello" {
		t.Errorf("Done event should carry the full content")
	}
}

func TestRelaySettlementIsIdempotent(t *testing.T) {
	sink := &testutil.MockSink{}
	r := New(sink)

	r.HandleDelta("hi")
	r.HandleDone()
	r.HandleDone()
	r.HandleEnd()
	r.HandleFailure(CodeStreamError, "late failure")
	r.HandleDelta("late delta")

	if got := terminalEvents(sink); len(got) != 1 {
		t.Errorf("Expected exactly one terminal event, got %d", len(got))
	}
	if r.Content() != "hi" {
		t.Errorf("Late delta must not be accumulated, got %q", r.Content())
	}
	if len(sink.Named(sse.EventChunk)) != 1 {
		t.Errorf("Late delta must not be pushed")
	}
	if r.State() != StateSettledOK {
		t.Errorf("First settlement wins, got state %v", r.State())
	}
}

func TestRelayEndWithContent(t *testing.T) {
	sink := &testutil.MockSink{}
	r := New(sink)

	r.HandleDelta("partial answer")
	r.HandleEnd()

	if r.State() != StateSettledOK {
		t.Errorf("End with content should settle ok, got %v", r.State())
	}
	done := sink.Named(sse.EventDone)
	if len(done) != 1 || done[0].Data.(map[string]string)["content"] != "partial answer" {
		t.Errorf("Done event should carry the accumulated content")
	}
}

func TestRelayEndWithoutContent(t *testing.T) {
	sink := &testutil.MockSink{}
	r := New(sink)

	r.HandleEnd()

	if r.State() != StateSettledError {
		t.Fatalf("End without content should settle as error, got %v", r.State())
	}
	if r.Err().Code != CodeChatError {
		t.Errorf("Expected %s, got %s", CodeChatError, r.Err().Code)
	}
	errs := sink.Named(sse.EventError)
	if len(errs) != 1 {
		t.Fatalf("Expected 1 error event, got %d", len(errs))
	}
}

func TestRunSuccess(t *testing.T) {
	sink := &testutil.MockSink{}
	events := make(chan llm.Event, 3)
	events <- llm.Event{Type: llm.EventDelta, Content: "Hel"}
	events <- llm.Event{Type: llm.EventDelta, Content: "lo"}
	events <- llm.Event{Type: llm.EventDone}
	close(events)

	content, err := New(sink).Run(events, time.Second)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if content != "Hello" {
		t.Errorf("Expected content %q, got %q", "Hello", content)
	}
	if got := terminalEvents(sink); len(got) != 1 || got[0].Event != sse.EventDone {
		t.Errorf("Expected one done terminal event, got %v", got)
	}
}

func TestRunClosedChannelWithoutTerminal(t *testing.T) {
	sink := &testutil.MockSink{}
	events := make(chan llm.Event, 1)
	events <- llm.Event{Type: llm.EventDelta, Content: "half"}
	close(events)

	content, err := New(sink).Run(events, time.Second)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if content != "half" {
		t.Errorf("Expected content %q, got %q", "half", content)
	}
}

func TestRunStreamError(t *testing.T) {
	sink := &testutil.MockSink{}
	events := make(chan llm.Event, 2)
	events <- llm.Event{Type: llm.EventDelta, Content: "some"}
	events <- llm.Event{Type: llm.EventError, Err: errors.New("connection reset")}
	close(events)

	_, err := New(sink).Run(events, time.Second)
	if err == nil {
		t.Fatal("Expected an error")
	}
	relayErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if relayErr.Code != CodeStreamError {
		t.Errorf("Expected %s, got %s", CodeStreamError, relayErr.Code)
	}
	if got := terminalEvents(sink); len(got) != 1 || got[0].Event != sse.EventError {
		t.Errorf("Expected one error terminal event, got %v", got)
	}
}

func TestRunTimeout(t *testing.T) {
	sink := &testutil.MockSink{}
	events := make(chan llm.Event) // never produces

	_, err := New(sink).Run(events, 20*time.Millisecond)
	if err == nil {
		t.Fatal("Expected a timeout error")
	}
	relayErr, ok := err.(*Error)
	if !ok || relayErr.Code != CodeTimeoutError {
		t.Errorf("Expected %s, got %v", CodeTimeoutError, err)
	}
	if got := terminalEvents(sink); len(got) != 1 || got[0].Event != sse.EventError {
		t.Errorf("Expected one error terminal event, got %v", got)
	}
}

func TestRunTimeoutIgnoresLaterEvents(t *testing.T) {
	sink := &testutil.MockSink{}
	events := make(chan llm.Event, 2)

	r := New(sink)
	_, err := r.Run(events, 20*time.Millisecond)
	if err == nil {
		t.Fatal("Expected a timeout error")
	}

	// a late terminal signal after settlement changes nothing
	r.HandleDone()
	if got := terminalEvents(sink); len(got) != 1 {
		t.Errorf("Expected exactly one terminal event, got %d", len(got))
	}
}
