package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/twhispr/internal/shared"
)

// APIError is a non-2xx response from the remote service.
//
// It unwraps to [shared.ErrTransport]; callers branch on StatusCode with [IsStatus].
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return shared.ErrTransport
}

// IsStatus reports whether err carries an [APIError] with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// errorMessage extracts a human readable message from an error response body.
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Errors  []struct {
			ErrorMessage string `json:"error_message"`
		} `json:"errors"`
	}

	if err := json.Unmarshal(body, &payload); err == nil {
		var msgs []string
		for _, e := range payload.Errors {
			if e.ErrorMessage != "" {
				msgs = append(msgs, e.ErrorMessage)
			}
		}
		switch {
		case len(msgs) > 0:
			return strings.Join(msgs, "; ")
		case payload.Message != "":
			return payload.Message
		case payload.Error != "":
			return payload.Error
		}
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return msg
}
