package main

import (
	"aichat-server/internal/api/handlers"
	"aichat-server/internal/auth"
	"aichat-server/internal/config"
	"aichat-server/internal/logger"
	"aichat-server/internal/repository/postgres"
	"aichat-server/internal/service/chat"
	"aichat-server/internal/service/conversation"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load configuration")
	}

	database, err := postgres.NewPostgresDB(cfg.Database)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close()

	authService := auth.NewService(database, cfg.Auth)
	chatService := chat.NewChatService(database, cfg)
	conversationService := conversation.NewConversationService(database, cfg.Models)

	aiHandlers := handlers.NewAIHandlers(chatService, conversationService)
	userHandlers := handlers.NewUserHandlers(database)

	// Go 1.22+ routing with method and path parameters
	mux := http.NewServeMux()

	// CORS preflight handler for OPTIONS requests
	corsHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.WriteHeader(http.StatusOK)
	}

	// Public routes
	mux.HandleFunc("POST /api/auth/register", enableCORS(authService.RegisterHandler))
	mux.HandleFunc("OPTIONS /api/auth/register", corsHandler)
	mux.HandleFunc("POST /api/auth/login", enableCORS(authService.LoginHandler))
	mux.HandleFunc("OPTIONS /api/auth/login", corsHandler)
	mux.HandleFunc("GET /api/health", enableCORS(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))
	mux.HandleFunc("OPTIONS /api/health", corsHandler)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Streaming chat
	mux.HandleFunc("POST /api/ai/chat", enableCORS(authService.Middleware(aiHandlers.ChatStreamHandler)))
	mux.HandleFunc("OPTIONS /api/ai/chat", corsHandler)

	// Conversation management
	mux.HandleFunc("POST /api/ai/conversations", enableCORS(authService.Middleware(aiHandlers.CreateConversationHandler)))
	mux.HandleFunc("GET /api/ai/conversations", enableCORS(authService.Middleware(aiHandlers.ListConversationsHandler)))
	mux.HandleFunc("OPTIONS /api/ai/conversations", corsHandler)
	mux.HandleFunc("GET /api/ai/conversations/{id}", enableCORS(authService.Middleware(aiHandlers.GetConversationHandler)))
	mux.HandleFunc("POST /api/ai/conversations/{id}", enableCORS(authService.Middleware(aiHandlers.RenameConversationHandler)))
	mux.HandleFunc("DELETE /api/ai/conversations/{id}", enableCORS(authService.Middleware(aiHandlers.DeleteConversationHandler)))
	mux.HandleFunc("OPTIONS /api/ai/conversations/{id}", corsHandler)

	// User management
	mux.HandleFunc("POST /api/users/page", enableCORS(authService.Middleware(userHandlers.ListUsersHandler)))
	mux.HandleFunc("OPTIONS /api/users/page", corsHandler)
	mux.HandleFunc("POST /api/users/update", enableCORS(authService.Middleware(userHandlers.UpdateUserHandler)))
	mux.HandleFunc("OPTIONS /api/users/update", corsHandler)
	mux.HandleFunc("GET /api/users/{id}", enableCORS(authService.Middleware(userHandlers.GetUserHandler)))
	mux.HandleFunc("DELETE /api/users/{id}", enableCORS(authService.Middleware(userHandlers.DeleteUserHandler)))
	mux.HandleFunc("OPTIONS /api/users/{id}", corsHandler)

	logger.Log.WithField("port", cfg.Server.Port).Info("Server starting")

	if err := http.ListenAndServe(":"+cfg.Server.Port, mux); err != nil {
		logger.Log.WithError(err).Fatal("Server failed to start")
	}
}
