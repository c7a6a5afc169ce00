package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/AnshRaj112/emodiary-backend/internal/models"
	"github.com/AnshRaj112/emodiary-backend/internal/services"
	"github.com/AnshRaj112/emodiary-backend/pkg/utils"
)

// SignupRequest creates an account
type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SigninRequest exchanges credentials for a session token
type SigninRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse returns the public part of the account
type AuthResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	User    map[string]interface{} `json:"user,omitempty"`
	Token   string                 `json:"token,omitempty"`
}

func publicUser(u *models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":         u.ID.String(),
		"username":   u.Username,
		"created_at": u.CreatedAt,
	}
}

// Signup handles account registration
func Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.ValidateUsername(req.Username); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := services.CreateUser(r.Context(), req.Username, req.Password)
	if errors.Is(err, services.ErrUsernameTaken) {
		writeError(w, http.StatusConflict, "Username is already taken")
		return
	}
	if err != nil {
		log.Printf("[Auth] signup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "Account created successfully",
		User:    publicUser(user),
	})
}

// Signin verifies credentials and starts a session
func Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := services.Authenticate(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	case errors.Is(err, services.ErrAccountInactive):
		writeError(w, http.StatusForbidden, "Account is inactive")
		return
	case err != nil:
		log.Printf("[Auth] signin failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	token, err := services.CreateSession(r.Context(), user.ID)
	if err != nil {
		log.Printf("[Auth] failed to create session for %s: %v", user.ID, err)
		writeError(w, http.StatusServiceUnavailable, "Failed to create session")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Login successful",
		User:    publicUser(user),
		Token:   token,
	})
}

// Signout drops the caller's session
func Signout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if err := services.InvalidateSession(r.Context(), token); err != nil {
		log.Printf("[Auth] signout failed: %v", err)
		writeError(w, http.StatusServiceUnavailable, "Failed to sign out")
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Signed out"})
}

// GetMe returns the account behind the session token
func GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionOwner(r, false)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := services.GetUserByID(r.Context(), userID)
	if err != nil {
		log.Printf("[Auth] failed to load user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Account not found")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Success: true, Message: "OK", User: publicUser(user)})
}
