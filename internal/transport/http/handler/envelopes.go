package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-broadcast-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthEnvelope wraps login responses.
type AuthEnvelope struct {
	Bearer       string          `json:"Bearer,omitempty"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	Session      *domain.Session `json:"session,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// SendResultEnvelope wraps a broadcast send response.
type SendResultEnvelope struct {
	RecipientCount int `json:"recipient_count"`
}

// DeleteResultEnvelope wraps a broadcast delete response.
type DeleteResultEnvelope struct {
	DeletedCount int `json:"deleted_count"`
}

// PaginatedUsersEnvelope wraps cursor-paginated directory listings.
type PaginatedUsersEnvelope struct {
	Data       []domain.User `json:"data"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
