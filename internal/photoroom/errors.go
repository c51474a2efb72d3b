package photoroom

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

const maxMessageBytes = 200

type ErrorKind string

const (
	KindRateLimited  ErrorKind = "rate_limited"
	KindUnauthorized ErrorKind = "unauthorized"
	KindServer       ErrorKind = "server_error"
	KindClient       ErrorKind = "client_error"
	KindTransport    ErrorKind = "transport_error"
)

// Error is a classified failure from the background-removal service.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	switch e.Kind {
	case KindRateLimited:
		b.WriteString("too many requests to background removal service")
	case KindUnauthorized:
		b.WriteString("invalid background removal api key")
	case KindServer:
		b.WriteString("background removal server error")
	case KindTransport:
		b.WriteString("background removal request failed")
	default:
		b.WriteString("background removal request rejected")
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt for the same image may succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindRateLimited, KindServer, KindTransport:
		return true
	}
	return false
}

// IsRetryable reports whether err carries a retryable classification.
func IsRetryable(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Retryable()
}

// IsUnauthorized reports whether err was caused by a rejected credential.
func IsUnauthorized(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindUnauthorized
}

// KindOf returns the classification of err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

func classify(status int, body []byte) *Error {
	e := &Error{StatusCode: status, Message: errorMessage(body)}
	switch {
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = KindUnauthorized
	case status >= 500:
		e.Kind = KindServer
	default:
		e.Kind = KindClient
	}
	return e
}

// errorMessage pulls a human readable message out of a JSON error body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		text := strings.TrimSpace(string(body))
		if len(text) > maxMessageBytes {
			n := maxMessageBytes
			for n > 0 && !utf8.RuneStart(text[n]) {
				n--
			}
			text = text[:n]
		}
		return text
	}
	switch {
	case payload.Message != "":
		return payload.Message
	case payload.Detail != "":
		return payload.Detail
	}
	switch v := payload.Error.(type) {
	case string:
		return v
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			return msg
		}
	}
	return ""
}
