package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/tanveenambrose/EcoMoney/internal/application/avatar"
	"github.com/tanveenambrose/EcoMoney/internal/domain"
)

var sentinels = []error{
	domain.ErrBadRequest,
	domain.ErrInvalidOTP,
	domain.ErrUnauthorized,
	domain.ErrForbidden,
	domain.ErrNotFound,
	domain.ErrConflict,
}

// httpError maps a service error to its status code and client message.
// Unclassified errors are logged and reported as a generic 500.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, avatar.ErrUploadFailed):
		logFailure(r, err)
		writeError(w, http.StatusInternalServerError, "Image upload failed")
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrInvalidOTP):
		writeError(w, http.StatusBadRequest, publicMessage(err))
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, publicMessage(err))
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, publicMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, publicMessage(err))
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, publicMessage(err))
	default:
		logFailure(r, err)
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}

func logFailure(r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", chimiddleware.GetReqID(r.Context()),
		"err", err)
}

// publicMessage drops the trailing sentinel text ("user not found: not found")
// and capitalises the rest.
func publicMessage(err error) string {
	msg := err.Error()
	for _, s := range sentinels {
		if trimmed, ok := strings.CutSuffix(msg, ": "+s.Error()); ok {
			msg = trimmed
			break
		}
	}
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
