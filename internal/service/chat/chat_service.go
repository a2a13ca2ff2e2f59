package chat

import (
	"aichat-server/internal/config"
	"aichat-server/internal/llm"
	"aichat-server/internal/logger"
	"aichat-server/internal/metrics"
	"aichat-server/internal/relay"
	"aichat-server/internal/repository/db"
	"aichat-server/internal/sse"
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// StreamRequest carries one chat turn from the HTTP layer
type StreamRequest struct {
	Message        string
	ConversationID string
	Model          string
	SystemPrompt   string
	UserID         string
}

// StreamClient opens the upstream completion stream for one turn
type StreamClient interface {
	ChatStream(ctx context.Context, model config.ModelConfig, messages []llm.Message) (<-chan llm.Event, error)
}

// ChatService orchestrates chat turns: conversation resolution, message
// persistence, context assembly and the streaming relay.
type ChatService struct {
	db           db.Database
	models       *config.ModelsConfig
	client       StreamClient
	historyLimit int
}

// NewChatService creates a new ChatService
func NewChatService(database db.Database, appConfig *config.AppConfig) *ChatService {
	return &ChatService{
		db:           database,
		models:       appConfig.Models,
		client:       llm.NewClient(),
		historyLimit: appConfig.Chat.HistoryLimit,
	}
}

// StreamChat runs one chat turn end to end: it resolves the conversation,
// persists the user message, streams the upstream response into sink via
// the relay, and persists the assistant reply once the turn settles
// successfully. Every failure surfaces as a single terminal error event.
func (s *ChatService) StreamChat(ctx context.Context, req StreamRequest, sink sse.Sink) error {
	start := time.Now()
	model := s.models.Resolve(req.Model)

	conversation, err := s.getOrCreateConversation(req, model.Name)
	if err != nil {
		return s.failTurn(sink, start, relay.CodeChatError, err)
	}

	// Let the client render a placeholder before any content arrives
	sink.Send(sse.EventConversation, conversation)

	if _, err := s.db.AddMessage(conversation.ID, req.UserID, db.RoleUser, req.Message,
		db.StatusCompleted, model.Name, nil, nil, nil, nil); err != nil {
		return s.failTurn(sink, start, relay.CodeChatError, fmt.Errorf("failed to save user message: %w", err))
	}
	if err := s.db.TouchConversation(conversation.ID); err != nil {
		return s.failTurn(sink, start, relay.CodeChatError, fmt.Errorf("failed to update conversation: %w", err))
	}

	messages, err := s.buildContext(conversation.ID, req.SystemPrompt)
	if err != nil {
		return s.failTurn(sink, start, relay.CodeChatError, err)
	}

	logger.Log.WithFields(logrus.Fields{
		"conversation_id": conversation.ID,
		"model":           model.Name,
		"context_size":    len(messages),
	}).Debug("Starting streaming turn")

	// The turn owns the upstream request; cancelling releases the socket
	// whether the stream settled or timed out.
	upstreamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := s.client.ChatStream(upstreamCtx, model, messages)
	if err != nil {
		return s.failTurn(sink, start, relay.CodeStreamError, err)
	}

	r := relay.New(sink)
	content, runErr := r.Run(events, model.Timeout())
	cancel()
	if runErr != nil {
		s.observeTurn(start, runErr)
		logger.Log.WithError(runErr).WithField("conversation_id", conversation.ID).Error("Chat turn failed")
		// terminal error event already pushed by the relay
		return runErr
	}

	latency := int(time.Since(start).Milliseconds())
	if _, err := s.db.AddMessage(conversation.ID, req.UserID, db.RoleAssistant, content,
		db.StatusCompleted, model.Name, nil, nil, &latency, nil); err != nil {
		// The done event is already out; pushing an error now would break
		// the one-terminal-event guarantee, so only log the loss.
		logger.Log.WithError(err).WithField("conversation_id", conversation.ID).Error("Failed to save assistant message")
		return fmt.Errorf("failed to save assistant message: %w", err)
	}
	if err := s.db.TouchConversation(conversation.ID); err != nil {
		logger.Log.WithError(err).WithField("conversation_id", conversation.ID).Warn("Failed to update conversation after assistant message")
	}

	metrics.TurnsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	metrics.TurnDuration.Observe(time.Since(start).Seconds())

	logger.Log.WithFields(logrus.Fields{
		"conversation_id": conversation.ID,
		"response_chars":  len(content),
		"latency_ms":      latency,
	}).Info("Completed streaming turn")

	return nil
}

// getOrCreateConversation loads the requested conversation, verifying
// ownership, or creates a new one titled from the first user message
func (s *ChatService) getOrCreateConversation(req StreamRequest, modelName string) (*db.Conversation, error) {
	if req.ConversationID != "" {
		conversation, err := s.db.GetConversation(req.ConversationID)
		if err != nil {
			return nil, fmt.Errorf("conversation not found: %w", err)
		}
		if conversation.UserID != req.UserID {
			return nil, fmt.Errorf("unauthorized: user does not own this conversation")
		}
		return conversation, nil
	}

	return s.db.CreateConversation(req.UserID, deriveTitle(req.Message), modelName)
}

// deriveTitle derives a conversation title from the first user message:
// the first 20 characters, ellipsis-suffixed when truncated
func deriveTitle(message string) string {
	runes := []rune(message)
	if len(runes) > 20 {
		return string(runes[:20]) + "..."
	}
	return message
}

// buildContext assembles the bounded message window for the upstream call:
// an optional leading system instruction, then the most recent messages in
// chronological order, including the just-persisted user message
func (s *ChatService) buildContext(conversationID, systemPrompt string) ([]llm.Message, error) {
	var messages []llm.Message
	if systemPrompt != "" {
		messages = append(messages, llm.Message{Role: db.RoleSystem, Content: systemPrompt})
	}

	history, err := s.db.GetRecentMessages(conversationID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("error getting conversation history: %w", err)
	}

	return append(messages, history...), nil
}

// failTurn pushes the single terminal error event for a turn that failed
// before the relay settled anything
func (s *ChatService) failTurn(sink sse.Sink, start time.Time, code string, err error) error {
	logger.Log.WithError(err).Error("Chat turn failed")

	relayErr := &relay.Error{Code: code, Message: err.Error()}
	sink.Send(sse.EventError, relayErr)
	s.observeTurn(start, relayErr)

	return relayErr
}

func (s *ChatService) observeTurn(start time.Time, err error) {
	outcome := metrics.OutcomeError
	if relayErr, ok := err.(*relay.Error); ok && relayErr.Code == relay.CodeTimeoutError {
		outcome = metrics.OutcomeTimeout
	}
	metrics.TurnsTotal.WithLabelValues(outcome).Inc()
	metrics.TurnDuration.Observe(time.Since(start).Seconds())
}
