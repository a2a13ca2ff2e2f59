package llm

import (
	"bytes"
	"encoding/json"
)

// EventType tags one normalized event read from the upstream stream.
type EventType int

const (
	// EventDelta carries one incremental fragment of assistant content
	EventDelta EventType = iota
	// EventDone is an explicit terminal signal: [DONE] or a finish_reason
	EventDone
	// EventEnd is the transport ending without an explicit terminal signal
	EventEnd
	// EventError is a transport-level failure
	EventError
	// EventMalformed is a data line that failed to parse as JSON; the
	// reader logs and skips it without aborting the stream
	EventMalformed
)

// Event is one normalized upstream stream event.
type Event struct {
	Type    EventType
	Content string // delta text, or the raw payload for EventMalformed
	Err     error  // set for EventError and EventMalformed
}

// streamChunk mirrors the provider's per-line JSON payload
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
			Role    string `json:"role"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

var dataPrefix = []byte("data:")

// streamParser splits the upstream byte stream into data lines and parses
// them into events. The transport delivers arbitrary byte chunks that need
// not align with line boundaries, so a trailing partial line is buffered
// until the rest of it arrives.
type streamParser struct {
	rem      []byte
	terminal bool
}

// Feed consumes one transport chunk and returns the events parsed from the
// complete lines it finished. Lines after a terminal signal are discarded.
func (p *streamParser) Feed(chunk []byte) []Event {
	if p.terminal {
		return nil
	}

	buf := append(p.rem, chunk...)

	var events []Event
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		line := buf[:i]
		buf = buf[i+1:]

		events = append(events, p.parseLine(line)...)
		if p.terminal {
			buf = nil
			break
		}
	}

	p.rem = buf
	return events
}

// Flush parses whatever is left in the buffer once the transport has ended.
// A final line is valid even without a trailing newline.
func (p *streamParser) Flush() []Event {
	if p.terminal {
		return nil
	}
	line := p.rem
	p.rem = nil
	return p.parseLine(line)
}

// Terminal reports whether an explicit terminal signal has been parsed
func (p *streamParser) Terminal() bool {
	return p.terminal
}

func (p *streamParser) parseLine(raw []byte) []Event {
	line := bytes.TrimSpace(raw)
	if len(line) == 0 || line[0] == ':' {
		// blank line or comment
		return nil
	}
	if !bytes.HasPrefix(line, dataPrefix) {
		// other SSE fields (event:, id:, retry:) carry no content here
		return nil
	}

	payload := bytes.TrimSpace(line[len(dataPrefix):])
	if bytes.Equal(payload, []byte("[DONE]")) {
		p.terminal = true
		return []Event{{Type: EventDone}}
	}

	var chunk streamChunk
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return []Event{{Type: EventMalformed, Content: string(payload), Err: err}}
	}

	var events []Event
	for _, choice := range chunk.Choices {
		if choice.Delta.Content != "" {
			events = append(events, Event{Type: EventDelta, Content: choice.Delta.Content})
		}
		if choice.FinishReason != nil && *choice.FinishReason != "" {
			// a finish_reason ends the stream even if [DONE] never arrives
			p.terminal = true
			events = append(events, Event{Type: EventDone})
			break
		}
	}
	return events
}
