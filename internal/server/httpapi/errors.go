package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophaccount/internal/common"
	"github.com/dmitrijs2005/gophaccount/internal/logging"
)

const (
	msgUnauthorized   = "unauthorized"
	msgNotFound       = "user not found"
	msgEmailInUse     = "email already in use"
	msgPolicy         = "password does not meet the requirements"
	msgMismatch       = "new password and confirmation do not match"
	msgTooManyLogins  = "too many login attempts, try again later"
	msgInvalidPayload = "malformed request body"
)

type messageResponse struct {
	Message string `json:"message"`
}

type errorsResponse struct {
	Errors []string `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// writeServiceError maps a service error to a status code and body. Errors
// outside the taxonomy are logged and reported as a bare 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	var ve *common.ValidationError

	switch {
	case errors.Is(err, common.ErrorMissingInput):
		writeMessage(w, http.StatusBadRequest, common.ErrorMissingInput.Error())
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorsResponse{Errors: ve.Errors})
	case errors.Is(err, common.ErrorPasswordMismatch):
		writeMessage(w, http.StatusBadRequest, msgMismatch)
	case errors.Is(err, common.ErrorPolicy):
		// rejected like a failed credential check
		writeMessage(w, http.StatusUnauthorized, msgPolicy)
	case errors.Is(err, common.ErrorUnauthorized):
		writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
	case errors.Is(err, common.ErrorNotFound):
		writeMessage(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, common.ErrorAlreadyExists):
		writeMessage(w, http.StatusConflict, msgEmailInUse)
	default:
		writeInternalError(w, r, log, "request failed", "error", err)
	}
}

// writeInternalError logs an unexpected failure with the request id and
// answers with a generic common.ErrorInternal body.
func writeInternalError(w http.ResponseWriter, r *http.Request, log logging.Logger, msg string, args ...any) {
	args = append(args, "request_id", RequestIDFromContext(r.Context()), "path", r.URL.Path)
	log.Error(r.Context(), msg, args...)
	writeMessage(w, http.StatusInternalServerError, common.ErrorInternal.Error())
}
