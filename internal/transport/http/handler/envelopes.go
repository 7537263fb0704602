package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tanveenambrose/EcoMoney/internal/domain"
	"github.com/tanveenambrose/EcoMoney/internal/pkg/validate"
)

const maxJSONBody = 1 << 20

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// AuthEnvelope wraps signup/login responses. The token itself only travels in the cookie.
type AuthEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	UserID  string `json:"userId,omitempty"`
}

// ProfileEnvelope wraps the current user's profile.
type ProfileEnvelope struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message,omitempty"`
	UserData *domain.Profile `json:"userData"`
}

type AccountEnvelope struct {
	Success bool            `json:"success"`
	User    *domain.Account `json:"user"`
}

// AccountsEnvelope wraps a page of the admin account listing.
type AccountsEnvelope struct {
	Success    bool             `json:"success"`
	Users      []domain.Account `json:"users"`
	NextCursor string           `json:"nextCursor,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Success: false, Message: msg})
}

// decodeValid decodes a JSON body into dst and runs its validate tags.
// On failure it writes a 400 and returns false.
func decodeValid(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
