package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ModelConfig describes one upstream chat-completion model
type ModelConfig struct {
	Name        string  `json:"name"`
	APIKey      string  `json:"apiKey"`
	BaseURL     string  `json:"baseUrl"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
	TimeoutMS   int     `json:"timeoutMs"`
}

// Timeout returns the per-turn deadline for this model
func (m ModelConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutMS) * time.Millisecond
}

// ModelsConfig holds the registry of available models
type ModelsConfig struct {
	defaultModel string
	models       map[string]ModelConfig
}

type modelsFile struct {
	DefaultModel string                 `json:"defaultModel"`
	Models       map[string]ModelConfig `json:"models"`
}

// NewModelsConfig loads the model registry from a JSON file
func NewModelsConfig(configPath string) (*ModelsConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// api keys are referenced as ${VAR} so the registry file stays secret-free
	expanded := os.ExpandEnv(string(data))

	var file modelsFile
	if err := json.Unmarshal([]byte(expanded), &file); err != nil {
		return nil, err
	}

	for name, model := range file.Models {
		model.Name = name
		file.Models[name] = model
	}

	if len(file.Models) == 0 {
		return nil, fmt.Errorf("models config contains no models")
	}
	if _, ok := file.Models[file.DefaultModel]; !ok {
		return nil, fmt.Errorf("default model %q is not in the models config", file.DefaultModel)
	}

	return &ModelsConfig{
		defaultModel: file.DefaultModel,
		models:       file.Models,
	}, nil
}

// Resolve returns the configuration for the named model, falling back to
// the default model when the name is empty or unknown.
func (mc *ModelsConfig) Resolve(name string) ModelConfig {
	if model, ok := mc.models[name]; ok {
		return model
	}
	return mc.models[mc.defaultModel]
}

// DefaultModel returns the name of the configured default model
func (mc *ModelsConfig) DefaultModel() string {
	return mc.defaultModel
}

// IsValidModel checks if a model name is in the registry
func (mc *ModelsConfig) IsValidModel(name string) bool {
	_, ok := mc.models[name]
	return ok
}
