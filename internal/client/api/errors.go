package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/occasio/occasio/internal/common"
)

// ErrUnavailable marks network-level failures: timeout, DNS, connection
// refused. Background callers retry on the next cycle; interactive callers
// surface it as-is.
var ErrUnavailable = errors.New("server unavailable")

// APIError is a non-2xx response. Message is sourced from the response body
// when the server supplied one, else a generic fallback.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Unwrap lets errors.Is treat unauthorized responses as common.ErrUnauthorized.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return common.ErrUnauthorized
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(body, &env); err == nil {
		msg = env.Message
		if msg == "" {
			msg = env.Error
		}
	}
	if msg == "" {
		msg = "request failed"
	}
	return &APIError{Status: status, Message: msg}
}
