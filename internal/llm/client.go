package llm

import (
	"aichat-server/internal/config"
	"aichat-server/internal/logger"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Message is one entry of the chat-completion context window.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the upstream chat-completion request body
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

// Client opens streaming requests against OpenAI-compatible chat-completion
// providers.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new upstream streaming client
func NewClient() *Client {
	return &Client{httpClient: &http.Client{}}
}

// ChatStream opens one streaming completion request and returns the channel
// of normalized stream events for the turn. The channel is closed when the
// stream terminates, the transport fails, or ctx is cancelled. Cancelling
// ctx also tears down the upstream socket.
func (c *Client) ChatStream(ctx context.Context, model config.ModelConfig, messages []Message) (<-chan Event, error) {
	if model.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for model %s", model.Name)
	}

	body, err := json.Marshal(chatRequest{
		Model:       model.Model,
		Messages:    messages,
		Temperature: model.Temperature,
		MaxTokens:   model.MaxTokens,
		Stream:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, model.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+model.APIKey)

	logger.Log.WithFields(logrus.Fields{
		"base_url":      model.BaseURL,
		"model":         model.Model,
		"message_count": len(messages),
	}).Info("Calling upstream model (streaming)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("upstream returned status %d: %s", resp.StatusCode, string(respBody))
	}

	events := make(chan Event)
	go c.readStream(ctx, resp.Body, events)
	return events, nil
}

// readStream reads raw transport chunks, feeds them through the line parser
// and forwards the resulting events until the stream terminates or the turn
// is cancelled.
func (c *Client) readStream(ctx context.Context, body io.ReadCloser, out chan<- Event) {
	defer close(out)
	defer body.Close()

	parser := &streamParser{}
	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			for _, ev := range parser.Feed(buf[:n]) {
				if !deliver(ctx, out, ev) {
					return
				}
			}
			if parser.Terminal() {
				// nothing after [DONE] or a finish_reason matters
				return
			}
		}
		if err != nil {
			if err == io.EOF {
				for _, ev := range parser.Flush() {
					if !deliver(ctx, out, ev) {
						return
					}
				}
				if !parser.Terminal() {
					deliver(ctx, out, Event{Type: EventEnd})
				}
				return
			}
			deliver(ctx, out, Event{Type: EventError, Err: err})
			return
		}
	}
}

// deliver forwards one event to the consumer. Malformed lines are logged
// and skipped here so downstream only ever sees well-formed events. Returns
// false when the turn has been cancelled.
func deliver(ctx context.Context, out chan<- Event, ev Event) bool {
	if ev.Type == EventMalformed {
		logger.Log.WithError(ev.Err).WithField("payload", ev.Content).Warn("Skipping unparseable stream line")
		return true
	}
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
