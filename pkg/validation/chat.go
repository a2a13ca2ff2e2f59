package validation

import (
	"errors"
	"fmt"
)

// ChatRequestValidator validates chat-related requests
type ChatRequestValidator struct{}

// NewChatRequestValidator creates a new ChatRequestValidator
func NewChatRequestValidator() *ChatRequestValidator {
	return &ChatRequestValidator{}
}

// ValidateMessage validates a chat message
func (v *ChatRequestValidator) ValidateMessage(message string) error {
	if message == "" {
		return errors.New("message cannot be empty")
	}
	return nil
}

// ValidateTitle validates a conversation title
func (v *ChatRequestValidator) ValidateTitle(title string) error {
	if title == "" {
		return errors.New("title cannot be empty")
	}
	if len([]rune(title)) > 200 {
		return fmt.Errorf("title must be at most 200 characters long")
	}
	return nil
}

// ValidatePage validates pagination parameters
func (v *ChatRequestValidator) ValidatePage(page, limit int) error {
	if page < 0 {
		return fmt.Errorf("page must be positive, got %d", page)
	}
	if limit < 0 || limit > 100 {
		return fmt.Errorf("limit must be between 1 and 100, got %d", limit)
	}
	return nil
}
