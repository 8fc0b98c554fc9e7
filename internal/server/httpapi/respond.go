// Package httpapi exposes the wallet server as a JSON REST API under /api:
// auth endpoints, bearer-token middleware and the wallet CRUD surface.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avasilkov/walletapp/internal/common"
)

// errorEnvelope is the body of every non-2xx response.
type errorEnvelope struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps the shared sentinel errors to HTTP statuses. Anything
// unrecognized is a 500 with a generic message so internals never leak.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, common.ErrorValidation):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		status = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, common.ErrorNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, common.ErrorAlreadyExists):
		status = http.StatusConflict
		message = err.Error()
	}

	writeJSON(w, status, errorEnvelope{Message: message})
}

// decodeJSON decodes the request body into dst, rejecting malformed input
// with a validation error.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return common.ErrorValidation
	}
	return nil
}
