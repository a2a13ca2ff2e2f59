package postgres

import (
	"aichat-server/internal/logger"
	"aichat-server/internal/repository/db"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// CreateUser creates a new user with a hashed password
func (p *PostgresDB) CreateUser(username, email, password, phone string) (*db.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &db.User{
		ID:       uuid.New().String(),
		Username: username,
		Email:    email,
		Phone:    phone,
	}

	query := `
	INSERT INTO users (id, username, email, phone, password_hash)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at
	`

	err = p.conn.QueryRow(query, user.ID, username, email, phone, string(hashedPassword)).Scan(&user.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("username or email already exists")
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"username": username, "user_id": user.ID}).Info("Created new user")

	return user, nil
}

// GetUserByUsername retrieves a user by username
func (p *PostgresDB) GetUserByUsername(username string) (*db.User, error) {
	return p.getUser(`WHERE username = $1`, username)
}

// GetUserByEmail retrieves a user by email
func (p *PostgresDB) GetUserByEmail(email string) (*db.User, error) {
	return p.getUser(`WHERE email = $1`, email)
}

// GetUserByID retrieves a user by id
func (p *PostgresDB) GetUserByID(id string) (*db.User, error) {
	return p.getUser(`WHERE id = $1`, id)
}

func (p *PostgresDB) getUser(where string, arg any) (*db.User, error) {
	var user db.User
	query := `
	SELECT id, username, email, COALESCE(phone, ''), COALESCE(nickname, ''), COALESCE(avatar, ''), password_hash, created_at
	FROM users ` + where

	err := p.conn.QueryRow(query, arg).Scan(&user.ID, &user.Username, &user.Email, &user.Phone, &user.Nickname, &user.Avatar, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}

	return &user, nil
}

// ListUsers retrieves one page of users and the total user count
func (p *PostgresDB) ListUsers(page, limit int) ([]db.User, int, error) {
	var total int
	if err := p.conn.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting users: %w", err)
	}

	query := `
	SELECT id, username, email, COALESCE(phone, ''), COALESCE(nickname, ''), COALESCE(avatar, ''), created_at
	FROM users
	ORDER BY created_at DESC
	LIMIT $1 OFFSET $2
	`

	rows, err := p.conn.Query(query, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying users: %w", err)
	}
	defer rows.Close()

	var users []db.User
	for rows.Next() {
		var user db.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.Phone, &user.Nickname, &user.Avatar, &user.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, user)
	}

	return users, total, nil
}

// UpdateUserProfile updates the mutable profile fields of a user
func (p *PostgresDB) UpdateUserProfile(id, nickname, avatar, phone string) (*db.User, error) {
	query := `
	UPDATE users
	SET nickname = $2, avatar = $3, phone = $4
	WHERE id = $1
	`

	result, err := p.conn.Exec(query, id, nickname, avatar, phone)
	if err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, fmt.Errorf("user not found")
	}

	return p.GetUserByID(id)
}

// DeleteUser removes a user account
func (p *PostgresDB) DeleteUser(id string) error {
	result, err := p.conn.Exec(`DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("user not found")
	}

	logger.Log.WithField("user_id", id).Info("Deleted user")
	return nil
}
