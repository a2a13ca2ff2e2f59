package validation

import (
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	v := NewAuthRequestValidator()

	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid", "alice_01", false},
		{"valid with hyphen", "bob-the-builder", false},
		{"empty", "", true},
		{"too short", "ab", true},
		{"too long", strings.Repeat("a", 51), true},
		{"illegal characters", "alice!", true},
		{"spaces", "alice smith", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUsername(tt.username)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername(%q) error = %v, wantErr %v", tt.username, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	v := NewAuthRequestValidator()

	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid", "alice@example.com", false},
		{"valid with plus", "alice+tag@example.co.uk", false},
		{"empty", "", true},
		{"no at sign", "alice.example.com", true},
		{"no domain", "alice@", true},
		{"no tld", "alice@example", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	v := NewAuthRequestValidator()

	if err := v.ValidatePassword("secret123"); err != nil {
		t.Errorf("Expected a valid password, got %v", err)
	}
	if err := v.ValidatePassword(""); err == nil {
		t.Error("Expected an empty password to be rejected")
	}
	if err := v.ValidatePassword("12345"); err == nil {
		t.Error("Expected a short password to be rejected")
	}
	if err := v.ValidatePassword(strings.Repeat("x", 129)); err == nil {
		t.Error("Expected an overlong password to be rejected")
	}
}

func TestValidateRegisterRequest(t *testing.T) {
	v := NewAuthRequestValidator()

	if err := v.ValidateRegisterRequest("alice", "alice@example.com", "secret123"); err != nil {
		t.Errorf("Expected a valid registration, got %v", err)
	}
	if err := v.ValidateRegisterRequest("", "alice@example.com", "secret123"); err == nil {
		t.Error("Expected a missing username to be rejected")
	}
	if err := v.ValidateRegisterRequest("alice", "bad", "secret123"); err == nil {
		t.Error("Expected a bad email to be rejected")
	}
	if err := v.ValidateRegisterRequest("alice", "alice@example.com", "1"); err == nil {
		t.Error("Expected a bad password to be rejected")
	}
}

func TestValidateMessage(t *testing.T) {
	v := NewChatRequestValidator()

	if err := v.ValidateMessage("hello"); err != nil {
		t.Errorf("Expected a valid message, got %v", err)
	}
	if err := v.ValidateMessage(""); err == nil {
		t.Error("Expected an empty message to be rejected")
	}
}

func TestValidateTitle(t *testing.T) {
	v := NewChatRequestValidator()

	if err := v.ValidateTitle("My conversation"); err != nil {
		t.Errorf("Expected a valid title, got %v", err)
	}
	if err := v.ValidateTitle(""); err == nil {
		t.Error("Expected an empty title to be rejected")
	}
	if err := v.ValidateTitle(strings.Repeat("я", 201)); err == nil {
		t.Error("Expected an overlong title to be rejected")
	}
}
