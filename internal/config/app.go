package config

import (
	"aichat-server/internal/logger"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all application configuration
type AppConfig struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Chat     ChatConfig
	Models   *ModelsConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// GetDSN builds the PostgreSQL connection string
func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret       []byte
	TokenExpiration time.Duration
}

// ChatConfig holds chat relay configuration
type ChatConfig struct {
	// HistoryLimit bounds how many recent messages are sent upstream as context
	HistoryLimit int
	// ModelsPath is the location of the model registry file
	ModelsPath string
}

// LoadConfig loads and validates application configuration from environment
func LoadConfig() (*AppConfig, error) {
	// A local .env is optional; real deployments set the environment directly
	_ = godotenv.Load(".env")

	config := &AppConfig{}

	config.Server = ServerConfig{
		Port: getEnvOrDefault("SERVER_PORT", "8080"),
	}

	config.Database = DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "postgres"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		Name:     getEnvOrDefault("DB_NAME", "aichat"),
		SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable must be set")
	}
	if len(secret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	config.Auth = AuthConfig{
		JWTSecret:       []byte(secret),
		TokenExpiration: 24 * time.Hour,
	}

	config.Chat = ChatConfig{
		HistoryLimit: getEnvIntOrDefault("CHAT_HISTORY_LIMIT", 20),
		ModelsPath:   getEnvOrDefault("MODELS_CONFIG_PATH", "models.json"),
	}

	models, err := NewModelsConfig(config.Chat.ModelsPath)
	if err != nil {
		return nil, fmt.Errorf("error loading models config: %w", err)
	}
	config.Models = models

	logger.Log.WithField("port", config.Server.Port).Info("Configuration loaded")

	return config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logger.Log.WithField("key", key).Warn("Invalid integer in environment, using default")
		return defaultValue
	}
	return parsed
}
