package testutil

import (
	"aichat-server/internal/config"
	"aichat-server/internal/llm"
	"aichat-server/internal/repository/db"
	"context"
	"errors"
)

// MockDatabase is a mock implementation of db.Database for testing
type MockDatabase struct {
	CreateUserFunc        func(username, email, password, phone string) (*db.User, error)
	GetUserByUsernameFunc func(username string) (*db.User, error)
	GetUserByEmailFunc    func(email string) (*db.User, error)
	GetUserByIDFunc       func(id string) (*db.User, error)
	ListUsersFunc         func(page, limit int) ([]db.User, int, error)
	UpdateUserProfileFunc func(id, nickname, avatar, phone string) (*db.User, error)
	DeleteUserFunc        func(id string) error

	CreateConversationFunc     func(userID, title, model string) (*db.Conversation, error)
	GetConversationFunc        func(id string) (*db.Conversation, error)
	ListConversationsFunc      func(userID string, page, limit int) ([]db.Conversation, int, error)
	RenameConversationFunc     func(id, title string) (*db.Conversation, error)
	SoftDeleteConversationFunc func(id string) error
	TouchConversationFunc      func(id string) error

	AddMessageFunc              func(conversationID, userID, role, content, status, model string, tokenCount *int, cost *float64, responseTime *int, metadata map[string]any) (*db.Message, error)
	GetConversationMessagesFunc func(conversationID string) ([]db.Message, error)
	GetRecentMessagesFunc       func(conversationID string, limit int) ([]llm.Message, error)
}

func (m *MockDatabase) CreateUser(username, email, password, phone string) (*db.User, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(username, email, password, phone)
	}
	return nil, errors.New("CreateUser not mocked")
}

func (m *MockDatabase) GetUserByUsername(username string) (*db.User, error) {
	if m.GetUserByUsernameFunc != nil {
		return m.GetUserByUsernameFunc(username)
	}
	return nil, errors.New("GetUserByUsername not mocked")
}

func (m *MockDatabase) GetUserByEmail(email string) (*db.User, error) {
	if m.GetUserByEmailFunc != nil {
		return m.GetUserByEmailFunc(email)
	}
	return nil, errors.New("GetUserByEmail not mocked")
}

func (m *MockDatabase) GetUserByID(id string) (*db.User, error) {
	if m.GetUserByIDFunc != nil {
		return m.GetUserByIDFunc(id)
	}
	return nil, errors.New("GetUserByID not mocked")
}

func (m *MockDatabase) ListUsers(page, limit int) ([]db.User, int, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(page, limit)
	}
	return nil, 0, errors.New("ListUsers not mocked")
}

func (m *MockDatabase) UpdateUserProfile(id, nickname, avatar, phone string) (*db.User, error) {
	if m.UpdateUserProfileFunc != nil {
		return m.UpdateUserProfileFunc(id, nickname, avatar, phone)
	}
	return nil, errors.New("UpdateUserProfile not mocked")
}

func (m *MockDatabase) DeleteUser(id string) error {
	if m.DeleteUserFunc != nil {
		return m.DeleteUserFunc(id)
	}
	return errors.New("DeleteUser not mocked")
}

func (m *MockDatabase) CreateConversation(userID, title, model string) (*db.Conversation, error) {
	if m.CreateConversationFunc != nil {
		return m.CreateConversationFunc(userID, title, model)
	}
	return nil, errors.New("CreateConversation not mocked")
}

func (m *MockDatabase) GetConversation(id string) (*db.Conversation, error) {
	if m.GetConversationFunc != nil {
		return m.GetConversationFunc(id)
	}
	return nil, errors.New("GetConversation not mocked")
}

func (m *MockDatabase) ListConversations(userID string, page, limit int) ([]db.Conversation, int, error) {
	if m.ListConversationsFunc != nil {
		return m.ListConversationsFunc(userID, page, limit)
	}
	return nil, 0, errors.New("ListConversations not mocked")
}

func (m *MockDatabase) RenameConversation(id, title string) (*db.Conversation, error) {
	if m.RenameConversationFunc != nil {
		return m.RenameConversationFunc(id, title)
	}
	return nil, errors.New("RenameConversation not mocked")
}

func (m *MockDatabase) SoftDeleteConversation(id string) error {
	if m.SoftDeleteConversationFunc != nil {
		return m.SoftDeleteConversationFunc(id)
	}
	return errors.New("SoftDeleteConversation not mocked")
}

func (m *MockDatabase) TouchConversation(id string) error {
	if m.TouchConversationFunc != nil {
		return m.TouchConversationFunc(id)
	}
	return errors.New("TouchConversation not mocked")
}

func (m *MockDatabase) AddMessage(conversationID, userID, role, content, status, model string, tokenCount *int, cost *float64, responseTime *int, metadata map[string]any) (*db.Message, error) {
	if m.AddMessageFunc != nil {
		return m.AddMessageFunc(conversationID, userID, role, content, status, model, tokenCount, cost, responseTime, metadata)
	}
	return nil, errors.New("AddMessage not mocked")
}

func (m *MockDatabase) GetConversationMessages(conversationID string) ([]db.Message, error) {
	if m.GetConversationMessagesFunc != nil {
		return m.GetConversationMessagesFunc(conversationID)
	}
	return nil, errors.New("GetConversationMessages not mocked")
}

func (m *MockDatabase) GetRecentMessages(conversationID string, limit int) ([]llm.Message, error) {
	if m.GetRecentMessagesFunc != nil {
		return m.GetRecentMessagesFunc(conversationID, limit)
	}
	return nil, errors.New("GetRecentMessages not mocked")
}

func (m *MockDatabase) Close() error { return nil }

// SentEvent is one event captured by MockSink
type SentEvent struct {
	Event string
	Data  any
}

// MockSink records push events in the order they were sent
type MockSink struct {
	Events []SentEvent
}

func (m *MockSink) Send(event string, data any) {
	m.Events = append(m.Events, SentEvent{Event: event, Data: data})
}

// Named returns the events with the given name, in order
func (m *MockSink) Named(event string) []SentEvent {
	var out []SentEvent
	for _, e := range m.Events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// MockStreamClient is a mock upstream stream opener for testing
type MockStreamClient struct {
	ChatStreamFunc func(ctx context.Context, model config.ModelConfig, messages []llm.Message) (<-chan llm.Event, error)
}

func (m *MockStreamClient) ChatStream(ctx context.Context, model config.ModelConfig, messages []llm.Message) (<-chan llm.Event, error) {
	if m.ChatStreamFunc != nil {
		return m.ChatStreamFunc(ctx, model, messages)
	}
	return nil, errors.New("ChatStream not mocked")
}
