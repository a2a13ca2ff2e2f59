package postgres

import (
	"aichat-server/internal/llm"
	"aichat-server/internal/logger"
	"aichat-server/internal/repository/db"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AddMessage appends a message to a conversation
func (p *PostgresDB) AddMessage(conversationID, userID, role, content, status, model string, tokenCount *int, cost *float64, responseTime *int, metadata map[string]any) (*db.Message, error) {
	msg := &db.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		UserID:         userID,
		Role:           role,
		Content:        content,
		Status:         status,
		Model:          model,
		TokenCount:     tokenCount,
		Cost:           cost,
		ResponseTime:   responseTime,
		Metadata:       metadata,
	}

	var metadataJSON []byte
	if len(metadata) > 0 {
		var err error
		metadataJSON, err = json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("error encoding message metadata: %w", err)
		}
	}

	query := `
	INSERT INTO messages (id, conversation_id, user_id, role, content, status, model, token_count, cost, response_time, metadata)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING created_at
	`

	err := p.conn.QueryRow(query, msg.ID, conversationID, userID, role, content, status, model,
		tokenCount, cost, responseTime, metadataJSON).Scan(&msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error adding message: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"conversation_id": conversationID,
		"message_id":      msg.ID,
		"role":            role,
		"status":          status,
		"content_chars":   len(content),
	}).Debug("Added message to conversation")

	return msg, nil
}

// GetConversationMessages retrieves all messages of a conversation in
// chronological order
func (p *PostgresDB) GetConversationMessages(conversationID string) ([]db.Message, error) {
	query := `
	SELECT id, conversation_id, user_id, role, content, status, COALESCE(model, ''), token_count, cost, response_time, metadata, created_at
	FROM messages
	WHERE conversation_id = $1
	ORDER BY created_at ASC
	`

	rows, err := p.conn.Query(query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	defer rows.Close()

	var messages []db.Message
	for rows.Next() {
		var msg db.Message
		var metadataJSON []byte
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.UserID, &msg.Role, &msg.Content, &msg.Status,
			&msg.Model, &msg.TokenCount, &msg.Cost, &msg.ResponseTime, &metadataJSON, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning message: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &msg.Metadata); err != nil {
				logger.Log.WithError(err).WithField("message_id", msg.ID).Warn("Error decoding message metadata")
			}
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// GetRecentMessages retrieves the most recent messages of a conversation as
// a context window, oldest first
func (p *PostgresDB) GetRecentMessages(conversationID string, limit int) ([]llm.Message, error) {
	query := `
	SELECT role, content
	FROM messages
	WHERE conversation_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	`

	rows, err := p.conn.Query(query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying recent messages: %w", err)
	}
	defer rows.Close()

	var recent []llm.Message
	for rows.Next() {
		var msg llm.Message
		if err := rows.Scan(&msg.Role, &msg.Content); err != nil {
			return nil, fmt.Errorf("error scanning message: %w", err)
		}
		recent = append(recent, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading recent messages: %w", err)
	}

	// rows arrive newest-first; the model wants chronological order
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}

	return recent, nil
}
