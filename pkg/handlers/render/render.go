package render

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/de-tools/orchard-atlas/pkg/models/api"
	"github.com/de-tools/orchard-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

// SignInMessage is returned to callers without a user.
const SignInMessage = "Please sign in to view your AI history."

func JSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

func Error(w http.ResponseWriter, r *http.Request, status int, msg string) {
	JSON(w, r, status, api.Error{Error: msg})
}

// DomainError maps service errors onto HTTP statuses.
func DomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		Error(w, r, http.StatusUnauthorized, SignInMessage)
	case errors.Is(err, domain.ErrNotFound):
		Error(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDeleteInProgress):
		Error(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrConfirmationMismatch):
		Error(w, r, http.StatusBadRequest, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		Error(w, r, http.StatusInternalServerError, "internal error")
	}
}
