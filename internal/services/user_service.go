package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AnshRaj112/emodiary-backend/internal/database"
	"github.com/AnshRaj112/emodiary-backend/internal/models"
	"github.com/AnshRaj112/emodiary-backend/pkg/utils"
	"github.com/google/uuid"
)

var (
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountInactive    = errors.New("account is inactive")
)

// CreateUser registers a new account. The username is stored normalized.
func CreateUser(ctx context.Context, username, password string) (*models.User, error) {
	normalized := utils.NormalizeUsername(username)

	var existing string
	err := database.PostgresDB.QueryRowContext(ctx,
		"SELECT username FROM users WHERE LOWER(username) = $1",
		normalized,
	).Scan(&existing)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lookup username: %w", err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{ID: uuid.New(), Username: normalized, IsActive: true}
	err = database.PostgresDB.QueryRowContext(ctx, `
		INSERT INTO users (id, username, password_hash, created_at, is_active)
		VALUES ($1, $2, $3, NOW(), TRUE)
		RETURNING created_at
	`, user.ID, user.Username, hash).Scan(&user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

// Authenticate checks a username/password pair
func Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at, is_active
		FROM users
		WHERE LOWER(username) = $1
	`, utils.NormalizeUsername(username)).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt, &user.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	valid, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil || !valid {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// GetUserByID loads an active account; (nil, nil) when not found
func GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT id, username, created_at, is_active
		FROM users WHERE id = $1 AND is_active = TRUE
	`, userID).Scan(&user.ID, &user.Username, &user.CreatedAt, &user.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
