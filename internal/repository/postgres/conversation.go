package postgres

import (
	"aichat-server/internal/logger"
	"aichat-server/internal/repository/db"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CreateConversation creates a new conversation for a user
func (p *PostgresDB) CreateConversation(userID, title, model string) (*db.Conversation, error) {
	conv := &db.Conversation{
		ID:     uuid.New().String(),
		UserID: userID,
		Title:  title,
		Model:  model,
	}

	query := `
	INSERT INTO conversations (id, user_id, title, model, message_count, last_message_at)
	VALUES ($1, $2, $3, $4, 0, CURRENT_TIMESTAMP)
	RETURNING last_message_at, created_at, updated_at
	`

	err := p.conn.QueryRow(query, conv.ID, userID, title, model).Scan(&conv.LastMessageAt, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("error creating conversation: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"conversation_id": conv.ID,
		"user_id":         userID,
		"model":           model,
	}).Info("Created new conversation")

	return conv, nil
}

// GetConversation retrieves a specific conversation
func (p *PostgresDB) GetConversation(id string) (*db.Conversation, error) {
	var conv db.Conversation
	query := `
	SELECT id, user_id, title, COALESCE(model, ''), message_count, last_message_at, is_deleted, COALESCE(summary, ''), created_at, updated_at
	FROM conversations
	WHERE id = $1
	`

	err := p.conn.QueryRow(query, id).Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.Model, &conv.MessageCount,
		&conv.LastMessageAt, &conv.IsDeleted, &conv.Summary, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("conversation not found")
		}
		return nil, fmt.Errorf("error retrieving conversation: %w", err)
	}

	return &conv, nil
}

// ListConversations retrieves one page of a user's conversations, most
// recently active first, excluding soft-deleted ones. Returns the page and
// the total count.
func (p *PostgresDB) ListConversations(userID string, page, limit int) ([]db.Conversation, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM conversations WHERE user_id = $1 AND is_deleted = FALSE`
	if err := p.conn.QueryRow(countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting conversations: %w", err)
	}

	query := `
	SELECT id, user_id, title, COALESCE(model, ''), message_count, last_message_at, is_deleted, COALESCE(summary, ''), created_at, updated_at
	FROM conversations
	WHERE user_id = $1 AND is_deleted = FALSE
	ORDER BY last_message_at DESC
	LIMIT $2 OFFSET $3
	`

	rows, err := p.conn.Query(query, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying conversations: %w", err)
	}
	defer rows.Close()

	var conversations []db.Conversation
	for rows.Next() {
		var conv db.Conversation
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.Model, &conv.MessageCount,
			&conv.LastMessageAt, &conv.IsDeleted, &conv.Summary, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("error scanning conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}

	return conversations, total, nil
}

// RenameConversation updates a conversation title
func (p *PostgresDB) RenameConversation(id, title string) (*db.Conversation, error) {
	query := `
	UPDATE conversations
	SET title = $2, updated_at = CURRENT_TIMESTAMP
	WHERE id = $1
	`

	result, err := p.conn.Exec(query, id, title)
	if err != nil {
		return nil, fmt.Errorf("error renaming conversation: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, fmt.Errorf("conversation not found")
	}

	return p.GetConversation(id)
}

// SoftDeleteConversation marks a conversation deleted without removing rows
func (p *PostgresDB) SoftDeleteConversation(id string) error {
	query := `
	UPDATE conversations
	SET is_deleted = TRUE, updated_at = CURRENT_TIMESTAMP
	WHERE id = $1
	`

	result, err := p.conn.Exec(query, id)
	if err != nil {
		return fmt.Errorf("error deleting conversation: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("conversation not found")
	}

	logger.Log.WithField("conversation_id", id).Info("Soft-deleted conversation")
	return nil
}

// TouchConversation bumps the message counter and last-activity timestamp
// after a message append. The counter only ever increments.
func (p *PostgresDB) TouchConversation(id string) error {
	query := `
	UPDATE conversations
	SET message_count = message_count + 1,
	    last_message_at = CURRENT_TIMESTAMP,
	    updated_at = CURRENT_TIMESTAMP
	WHERE id = $1
	`

	if _, err := p.conn.Exec(query, id); err != nil {
		return fmt.Errorf("error updating conversation activity: %w", err)
	}
	return nil
}
