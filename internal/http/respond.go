package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/ybilyk/contactbook/internal/repository"
	"github.com/ybilyk/contactbook/internal/service/auth"
)

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends an error message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeServiceError maps service errors onto the HTTP status taxonomy:
// malformed input is 400, state conflicts 409, credential failures 401,
// missing entities 404 and anything unexpected 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var fieldErrs validation.Errors
	switch {
	case errors.As(err, &fieldErrs):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrEmailInUse):
		writeError(w, http.StatusConflict, "email in use")
	case errors.Is(err, auth.ErrEmailUnknown):
		writeError(w, http.StatusBadRequest, "invalid email")
	case errors.Is(err, auth.ErrAlreadyVerified):
		writeError(w, http.StatusBadRequest, "already verified")
	case errors.Is(err, auth.ErrCodeInvalid):
		writeError(w, http.StatusBadRequest, "invalid code")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "email or password invalid")
	case errors.Is(err, auth.ErrEmailNotVerified):
		writeError(w, http.StatusUnauthorized, "email not verified")
	case errors.Is(err, auth.ErrSessionRevoked):
		writeError(w, http.StatusUnauthorized, "authentication failed")
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, "conflict")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
