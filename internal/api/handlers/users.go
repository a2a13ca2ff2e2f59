package handlers

import (
	"aichat-server/internal/auth"
	"aichat-server/internal/logger"
	"aichat-server/internal/repository/db"
	"encoding/json"
	"net/http"
)

// UpdateUserRequest is the body for updating the authenticated user's profile
type UpdateUserRequest struct {
	Nickname string `json:"nickname,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// UserPage is one page of listed users
type UserPage struct {
	Content       []db.User `json:"content"`
	PageNum       int       `json:"pageNum"`
	PageSize      int       `json:"pageSize"`
	TotalElements int       `json:"totalElements"`
	TotalPages    int       `json:"totalPages"`
}

// UserHandlers serves the user management endpoints
type UserHandlers struct {
	db db.Database
}

// NewUserHandlers creates a new UserHandlers
func NewUserHandlers(database db.Database) *UserHandlers {
	return &UserHandlers{db: database}
}

// GetUserHandler returns a user by id
func (h *UserHandlers) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	user, err := h.db.GetUserByID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeResult(w, user)
}

// ListUsersHandler returns one page of users
func (h *UserHandlers) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	users, total, err := h.db.ListUsers(req.Page, req.Limit)
	if err != nil {
		logger.Log.WithError(err).Error("Error listing users")
		writeError(w, http.StatusInternalServerError, "failed to retrieve users")
		return
	}
	if users == nil {
		users = []db.User{}
	}

	writeResult(w, UserPage{
		Content:       users,
		PageNum:       req.Page,
		PageSize:      req.Limit,
		TotalElements: total,
		TotalPages:    (total + req.Limit - 1) / req.Limit,
	})
}

// UpdateUserHandler updates the authenticated user's profile
func (h *UserHandlers) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.db.UpdateUserProfile(auth.UserID(r), req.Nickname, req.Avatar, req.Phone)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeResult(w, user)
}

// DeleteUserHandler removes a user account; users may only delete themselves
func (h *UserHandlers) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id != auth.UserID(r) {
		writeError(w, http.StatusForbidden, "cannot delete another user")
		return
	}

	if err := h.db.DeleteUser(id); err != nil {
		logger.Log.WithError(err).Error("Error deleting user")
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeResult(w, map[string]bool{"deleted": true})
}
