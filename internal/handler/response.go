package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"club-auth-service/internal/model"
	"club-auth-service/pkg/apierror"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps an error to a status and a deliberately generic client
// message. Full error detail never leaves the process; unclassified
// errors land in the log as 500s.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "unexpected server error"

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		message = apiErr.Message
	case errors.Is(err, model.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		message = "invalid credentials"
	case errors.Is(err, model.ErrInvalidSession):
		status = http.StatusUnauthorized
		message = "invalid session"
	case errors.Is(err, model.ErrInvalidProviderToken):
		status = http.StatusUnauthorized
		message = "invalid provider token"
	case errors.Is(err, model.ErrProviderUnavailable):
		status = http.StatusBadGateway
		message = "identity provider unavailable"
	case errors.Is(err, model.ErrEmailTaken):
		status = http.StatusConflict
		message = "correo already registered"
	case errors.Is(err, model.ErrUserNotFound):
		status = http.StatusNotFound
		message = "user not found"
	case errors.Is(err, model.ErrForbidden):
		status = http.StatusForbidden
		message = "access denied"
	case errors.Is(err, model.ErrUnauthorized):
		status = http.StatusUnauthorized
		message = "authentication required"
	default:
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	writeJSON(w, status, model.ErrorResponse{Error: message})
}
