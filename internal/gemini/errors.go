package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies an upstream failure by what the caller should do
// about it, replacing diagnostic-text sniffing with status-code mapping.
type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindUnauthorized
	KindRateLimited
	KindInvalid
	KindNotFound
)

// APIError is a classified upstream failure. Message carries the vendor's
// diagnostic text for display-isolated detail fields only.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream status %d: %s", e.Status, e.Message)
	}
	return e.Message
}

// IsUnauthorized reports whether err is an authorization-class failure.
// Note: 404 is deliberately not treated as an authorization failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindUnauthorized
}

// errorBody mirrors the vendor's structured error envelope.
type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// classifyStatus maps an HTTP response to a typed error. The body, if it
// carries the vendor's error envelope, supplies the message.
func classifyStatus(status int, body []byte) *APIError {
	msg := http.StatusText(status)
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error.Message != "" {
		msg = eb.Error.Message
	}

	kind := KindTransport
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = KindUnauthorized
	case http.StatusTooManyRequests:
		kind = KindRateLimited
	case http.StatusBadRequest:
		kind = KindInvalid
	case http.StatusNotFound:
		kind = KindNotFound
	}

	return &APIError{Kind: kind, Status: status, Message: msg}
}
