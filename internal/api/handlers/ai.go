package handlers

import (
	"aichat-server/internal/auth"
	"aichat-server/internal/logger"
	"aichat-server/internal/service/chat"
	"aichat-server/internal/service/conversation"
	"aichat-server/internal/sse"
	"aichat-server/pkg/validation"
	"encoding/json"
	"net/http"
	"strconv"
)

// ChatRequest is the body of a streaming chat turn
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
	Model          string `json:"model,omitempty"`
	SystemPrompt   string `json:"systemPrompt,omitempty"`
}

// CreateConversationRequest is the body for explicitly creating a conversation
type CreateConversationRequest struct {
	Title string `json:"title,omitempty"`
	Model string `json:"model,omitempty"`
}

// RenameConversationRequest is the body for renaming a conversation
type RenameConversationRequest struct {
	Title string `json:"title"`
}

// PageRequest is the body of paged list endpoints
type PageRequest struct {
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

// AIHandlers serves the chat streaming and conversation management endpoints
type AIHandlers struct {
	chatService         *chat.ChatService
	conversationService *conversation.ConversationService
	validator           *validation.ChatRequestValidator
}

// NewAIHandlers creates a new AIHandlers
func NewAIHandlers(chatService *chat.ChatService, conversationService *conversation.ConversationService) *AIHandlers {
	return &AIHandlers{
		chatService:         chatService,
		conversationService: conversationService,
		validator:           validation.NewChatRequestValidator(),
	}
}

// ChatStreamHandler runs one chat turn, streaming the model response to the
// client as server-sent events
func (h *AIHandlers) ChatStreamHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.ValidateMessage(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writer, err := sse.NewWriter(w)
	if err != nil {
		logger.Log.WithError(err).Error("Streaming unsupported by response writer")
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	// From here on the response is an event stream; errors travel inside it.
	h.chatService.StreamChat(r.Context(), chat.StreamRequest{
		Message:        req.Message,
		ConversationID: req.ConversationID,
		Model:          req.Model,
		SystemPrompt:   req.SystemPrompt,
		UserID:         auth.UserID(r),
	}, writer)
}

// CreateConversationHandler creates an empty conversation
func (h *AIHandlers) CreateConversationHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	conv, err := h.conversationService.Create(auth.UserID(r), req.Title, req.Model)
	if err != nil {
		logger.Log.WithError(err).Error("Error creating conversation")
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeResult(w, conv)
}

// ListConversationsHandler returns one page of the user's conversations
func (h *AIHandlers) ListConversationsHandler(w http.ResponseWriter, r *http.Request) {
	// absent or unparseable paging falls back to the default page
	pageNum, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	page, err := h.conversationService.List(auth.UserID(r), pageNum, limit)
	if err != nil {
		logger.Log.WithError(err).Error("Error listing conversations")
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeResult(w, page)
}

// GetConversationHandler returns a conversation with its full message history
func (h *AIHandlers) GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	detail, err := h.conversationService.Get(r.PathValue("id"), auth.UserID(r))
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeResult(w, detail)
}

// RenameConversationHandler updates a conversation title
func (h *AIHandlers) RenameConversationHandler(w http.ResponseWriter, r *http.Request) {
	var req RenameConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.ValidateTitle(req.Title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.conversationService.Rename(r.PathValue("id"), auth.UserID(r), req.Title)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeResult(w, conv)
}

// DeleteConversationHandler soft-deletes a conversation
func (h *AIHandlers) DeleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.conversationService.Delete(r.PathValue("id"), auth.UserID(r)); err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeResult(w, map[string]bool{"deleted": true})
}
