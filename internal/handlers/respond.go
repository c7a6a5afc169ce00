package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/AnshRaj112/emodiary-backend/internal/diary"
	"github.com/AnshRaj112/emodiary-backend/internal/services"
	"github.com/google/uuid"
)

// APIResponse is the envelope of every JSON reply
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[Handler] failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIResponse{Success: false, Message: message})
}

// extractBearerToken returns the token of an "Authorization: Bearer <token>" header
func extractBearerToken(header string) string {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// sessionOwner resolves the request's session token to an account id.
// allowQuery also accepts ?token= for browser WebSocket clients.
func sessionOwner(r *http.Request, allowQuery bool) (uuid.UUID, bool) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" && allowQuery {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return uuid.Nil, false
	}

	userID, ok, err := services.ValidateSession(r.Context(), token)
	if err != nil {
		log.Printf("[Auth] session lookup failed: %v", err)
		return uuid.Nil, false
	}
	return userID, ok
}

// requireOwner writes 401 and returns false when the request has no valid session
func requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := sessionOwner(r, false)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return "", false
	}
	return userID.String(), true
}

// statusForError maps diary and service errors onto HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, diary.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, diary.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, diary.ErrToggleInFlight):
		return http.StatusConflict
	case errors.Is(err, diary.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrInvalidEntry):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrMediaUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func messageForError(err error) string {
	switch statusForError(err) {
	case http.StatusUnauthorized:
		return "Authentication required"
	case http.StatusNotFound:
		return "Diary entry not found"
	case http.StatusConflict:
		return "A like update for this entry is already in progress"
	case http.StatusBadRequest:
		return err.Error()
	case http.StatusServiceUnavailable:
		if errors.Is(err, services.ErrMediaUnavailable) {
			return "Media uploads are not available"
		}
		return "Diary storage is unavailable, please try again"
	default:
		return "Internal server error"
	}
}
