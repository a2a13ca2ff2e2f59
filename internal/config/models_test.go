package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeModels(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write models config: %v", err)
	}
	return path
}

func TestNewModelsConfig(t *testing.T) {
	path := writeModels(t, `{
		"defaultModel": "main",
		"models": {
			"main": {"apiKey": "k1", "baseUrl": "https://api.example.com/v1", "model": "gpt-x", "maxTokens": 2048, "temperature": 0.7, "timeoutMs": 60000},
			"alt": {"apiKey": "k2", "baseUrl": "https://alt.example.com/v1", "model": "alt-x", "maxTokens": 1024, "temperature": 1.0, "timeoutMs": 30000}
		}
	}`)

	models, err := NewModelsConfig(path)
	if err != nil {
		t.Fatalf("NewModelsConfig failed: %v", err)
	}

	if models.DefaultModel() != "main" {
		t.Errorf("Expected default model main, got %q", models.DefaultModel())
	}

	main := models.Resolve("main")
	if main.Name != "main" {
		t.Errorf("Resolved model should carry its registry name, got %q", main.Name)
	}
	if main.Timeout() != 60*time.Second {
		t.Errorf("Expected 60s timeout, got %v", main.Timeout())
	}

	if !models.IsValidModel("alt") {
		t.Error("Expected alt to be a valid model")
	}
	if models.IsValidModel("missing") {
		t.Error("Expected missing to be invalid")
	}
}

func TestResolveFallsBackToDefault(t *testing.T) {
	path := writeModels(t, `{
		"defaultModel": "main",
		"models": {"main": {"apiKey": "k", "baseUrl": "u", "model": "m", "maxTokens": 1, "temperature": 0, "timeoutMs": 1000}}
	}`)

	models, err := NewModelsConfig(path)
	if err != nil {
		t.Fatalf("NewModelsConfig failed: %v", err)
	}

	for _, name := range []string{"", "unknown-model"} {
		if got := models.Resolve(name).Name; got != "main" {
			t.Errorf("Resolve(%q) should fall back to the default, got %q", name, got)
		}
	}
}

func TestNewModelsConfigExpandsEnv(t *testing.T) {
	t.Setenv("TEST_MODELS_KEY", "secret-from-env")

	path := writeModels(t, `{
		"defaultModel": "main",
		"models": {"main": {"apiKey": "${TEST_MODELS_KEY}", "baseUrl": "u", "model": "m", "maxTokens": 1, "temperature": 0, "timeoutMs": 1000}}
	}`)

	models, err := NewModelsConfig(path)
	if err != nil {
		t.Fatalf("NewModelsConfig failed: %v", err)
	}
	if got := models.Resolve("main").APIKey; got != "secret-from-env" {
		t.Errorf("Expected the api key from the environment, got %q", got)
	}
}

func TestNewModelsConfigRejectsBadRegistry(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty models", `{"defaultModel": "main", "models": {}}`},
		{"unknown default", `{"defaultModel": "missing", "models": {"main": {"apiKey": "k", "baseUrl": "u", "model": "m", "maxTokens": 1, "temperature": 0, "timeoutMs": 1000}}}`},
		{"invalid json", `{not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewModelsConfig(writeModels(t, tt.content)); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestNewModelsConfigMissingFile(t *testing.T) {
	if _, err := NewModelsConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("Expected an error for a missing registry file")
	}
}
