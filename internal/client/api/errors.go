package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/avasilkov/walletapp/internal/common"
)

// ErrUnavailable indicates the backend could not be reached at all
// (connection refused, DNS failure, timeout).
var ErrUnavailable = errors.New("server unavailable")

// Error is a non-2xx response from the backend, carrying the best-effort
// human-readable message extracted from the response body.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is lets errors.Is match an *Error against the shared sentinels without the
// caller knowing about HTTP status codes.
func (e *Error) Is(target error) bool {
	switch target {
	case common.ErrorUnauthorized:
		return e.Status == http.StatusUnauthorized
	case common.ErrorNotFound:
		return e.Status == http.StatusNotFound
	case common.ErrorValidation:
		return e.Status == http.StatusBadRequest
	case common.ErrorAlreadyExists:
		return e.Status == http.StatusConflict
	}
	return false
}

// newStatusError builds an *Error from a response status and body. The
// message is taken from a JSON "message" or "error" field when present,
// falling back to the standard status text.
func newStatusError(status int, body []byte) *Error {
	msg := extractMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{Status: status, Message: msg}
}

func extractMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return envelope.Error
}

// transportError normalizes an error returned by http.Client.Do. Errors
// produced by our own authorization flow travel wrapped inside *url.Error;
// those are surfaced unchanged so the original caller sees the refresh
// failure. Anything else is a plain network problem.
func transportError(err error) error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if errors.Is(err, common.ErrAuthenticationFailed) {
		return common.ErrAuthenticationFailed
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
