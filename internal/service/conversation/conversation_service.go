package conversation

import (
	"aichat-server/internal/config"
	"aichat-server/internal/repository/db"
	"fmt"
)

// DefaultTitle is used when a conversation is created without one
const DefaultTitle = "New conversation"

// Page is one page of listed conversations
type Page struct {
	Content       []db.Conversation `json:"content"`
	PageNum       int               `json:"pageNum"`
	PageSize      int               `json:"pageSize"`
	TotalElements int               `json:"totalElements"`
	TotalPages    int               `json:"totalPages"`
}

// Detail combines a conversation with its full message history
type Detail struct {
	Conversation *db.Conversation `json:"conversation"`
	Messages     []db.Message     `json:"messages"`
}

// ConversationService handles the business logic for conversation management
type ConversationService struct {
	db     db.Database
	models *config.ModelsConfig
}

// NewConversationService creates a new ConversationService
func NewConversationService(database db.Database, models *config.ModelsConfig) *ConversationService {
	return &ConversationService{
		db:     database,
		models: models,
	}
}

// Create creates a conversation explicitly, applying the default title and
// model when omitted
func (s *ConversationService) Create(userID, title, model string) (*db.Conversation, error) {
	if title == "" {
		title = DefaultTitle
	}
	resolved := s.models.Resolve(model)

	conversation, err := s.db.CreateConversation(userID, title, resolved.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conversation, nil
}

// List retrieves one page of a user's conversations, most recently active
// first
func (s *ConversationService) List(userID string, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	conversations, total, err := s.db.ListConversations(userID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve conversations: %w", err)
	}
	if conversations == nil {
		conversations = []db.Conversation{}
	}

	return &Page{
		Content:       conversations,
		PageNum:       page,
		PageSize:      limit,
		TotalElements: total,
		TotalPages:    (total + limit - 1) / limit,
	}, nil
}

// Get retrieves a conversation with its messages, verifying ownership
func (s *ConversationService) Get(conversationID, userID string) (*Detail, error) {
	conversation, err := s.ownedConversation(conversationID, userID)
	if err != nil {
		return nil, err
	}

	messages, err := s.db.GetConversationMessages(conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve messages: %w", err)
	}
	if messages == nil {
		messages = []db.Message{}
	}

	return &Detail{Conversation: conversation, Messages: messages}, nil
}

// Rename updates the title of a conversation the user owns
func (s *ConversationService) Rename(conversationID, userID, title string) (*db.Conversation, error) {
	if _, err := s.ownedConversation(conversationID, userID); err != nil {
		return nil, err
	}

	conversation, err := s.db.RenameConversation(conversationID, title)
	if err != nil {
		return nil, fmt.Errorf("failed to rename conversation: %w", err)
	}
	return conversation, nil
}

// Delete soft-deletes a conversation the user owns; rows are never removed
func (s *ConversationService) Delete(conversationID, userID string) error {
	if _, err := s.ownedConversation(conversationID, userID); err != nil {
		return err
	}

	if err := s.db.SoftDeleteConversation(conversationID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// ownedConversation loads a conversation and verifies the caller owns it
func (s *ConversationService) ownedConversation(conversationID, userID string) (*db.Conversation, error) {
	conversation, err := s.db.GetConversation(conversationID)
	if err != nil {
		return nil, fmt.Errorf("conversation not found: %w", err)
	}
	if conversation.UserID != userID {
		return nil, fmt.Errorf("unauthorized: user does not own this conversation")
	}
	return conversation, nil
}
