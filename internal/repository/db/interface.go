package db

import "aichat-server/internal/llm"

// Database is the persistence boundary for users, conversations and messages
type Database interface {
	// User methods
	CreateUser(username, email, password, phone string) (*User, error)
	GetUserByUsername(username string) (*User, error)
	GetUserByEmail(email string) (*User, error)
	GetUserByID(id string) (*User, error)
	ListUsers(page, limit int) ([]User, int, error)
	UpdateUserProfile(id, nickname, avatar, phone string) (*User, error)
	DeleteUser(id string) error

	// Conversation methods
	CreateConversation(userID, title, model string) (*Conversation, error)
	GetConversation(id string) (*Conversation, error)
	ListConversations(userID string, page, limit int) ([]Conversation, int, error)
	RenameConversation(id, title string) (*Conversation, error)
	SoftDeleteConversation(id string) error
	TouchConversation(id string) error

	// Message methods
	AddMessage(conversationID, userID, role, content, status, model string, tokenCount *int, cost *float64, responseTime *int, metadata map[string]any) (*Message, error)
	GetConversationMessages(conversationID string) ([]Message, error)
	GetRecentMessages(conversationID string, limit int) ([]llm.Message, error)

	Close() error
}
