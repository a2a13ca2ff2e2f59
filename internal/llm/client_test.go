package llm

import (
	"aichat-server/internal/config"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testModel(baseURL string) config.ModelConfig {
	return config.ModelConfig{
		Name:        "test-model",
		APIKey:      "test-key",
		BaseURL:     baseURL,
		Model:       "test-model",
		MaxTokens:   128,
		Temperature: 0.5,
		TimeoutMS:   5000,
	}
}

func drain(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("Timed out draining event channel")
		}
	}
}

func TestChatStreamHappyPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient()
	events, err := client.ChatStream(context.Background(), testModel(server.URL), []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}

	got := drain(t, events)

	var sb strings.Builder
	done := 0
	for _, ev := range got {
		switch ev.Type {
		case EventDelta:
			sb.WriteString(ev.Content)
		case EventDone:
			done++
		}
	}
	if sb.String() != "Hello" {
		t.Errorf("Expected accumulated content %q, got %q", "Hello", sb.String())
	}
	if done != 1 {
		t.Errorf("Expected exactly one done event, got %d", done)
	}
}

func TestChatStreamUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid api key"}`)
	}))
	defer server.Close()

	client := NewClient()
	_, err := client.ChatStream(context.Background(), testModel(server.URL), nil)
	if err == nil {
		t.Fatal("Expected an error for a non-2xx response")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("Error should include the upstream status, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("Error should include the upstream body, got %v", err)
	}
}

func TestChatStreamEOFWithoutTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"cut off\"}}]}\n\n")
		// connection closes without [DONE]
	}))
	defer server.Close()

	client := NewClient()
	events, err := client.ChatStream(context.Background(), testModel(server.URL), nil)
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}

	got := drain(t, events)
	if len(got) == 0 || got[len(got)-1].Type != EventEnd {
		t.Errorf("Expected the stream to end with EventEnd, got %v", got)
	}
}

func TestChatStreamMissingAPIKey(t *testing.T) {
	client := NewClient()
	model := testModel("http://unused")
	model.APIKey = ""

	_, err := client.ChatStream(context.Background(), model, nil)
	if err == nil {
		t.Fatal("Expected an error when no API key is configured")
	}
}

func TestChatStreamCancellation(t *testing.T) {
	blocked := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"first\"}}]}\n\n")
		w.(http.Flusher).Flush()
		<-blocked
	}))
	defer server.Close()
	defer close(blocked)

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient()
	events, err := client.ChatStream(ctx, testModel(server.URL), nil)
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}

	// consume the first delta, then abandon the turn
	select {
	case <-events:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for the first event")
	}
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			// a buffered event may still slip through; the channel must
			// close right after
			if _, ok := <-events; ok {
				t.Error("Expected the event channel to close after cancellation")
			}
		}
	case <-time.After(2 * time.Second):
		t.Error("Event channel did not close after cancellation")
	}
}
