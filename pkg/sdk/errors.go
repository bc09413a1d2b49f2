package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies failures surfaced by the session and dispatcher.
type ErrorKind string

const (
	KindInvalidToken           ErrorKind = "InvalidToken"
	KindAuthenticationRequired ErrorKind = "AuthenticationRequired"
	KindNetworkUnavailable     ErrorKind = "NetworkUnavailable"
	KindUpstreamRejected       ErrorKind = "UpstreamRejected"
)

// Sentinels for errors.Is matching against an *Error of the same kind.
var (
	ErrInvalidToken           = errors.New("invalid or expired token")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrNetworkUnavailable     = errors.New("network unavailable")
	ErrUpstreamRejected       = errors.New("request rejected by server")
)

// ErrResponseTooLarge is wrapped by an UpstreamRejected error when a
// response body exceeds the dispatcher's limit.
var ErrResponseTooLarge = errors.New("response body too large")

// Error is the typed failure returned by Dispatch and the auth flows.
type Error struct {
	Kind ErrorKind
	// Status is the HTTP status of the final attempt; zero for transport failures.
	Status int
	// Message is user-facing. Server-provided messages are kept verbatim.
	Message string
	// Endpoint is the base URL of the attempt that produced this error.
	Endpoint string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil && (e.Message == "" || e.Kind == KindNetworkUnavailable) {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidToken:
		return e.Kind == KindInvalidToken
	case ErrAuthenticationRequired:
		return e.Kind == KindAuthenticationRequired
	case ErrNetworkUnavailable:
		return e.Kind == KindNetworkUnavailable
	case ErrUpstreamRejected:
		return e.Kind == KindUpstreamRejected
	}
	return false
}

// KindOf returns the ErrorKind of err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

const (
	msgNetworkUnavailable = "unable to reach the server, please check your connection"
	msgAuthRequired       = "authentication required, please log in"
)

// serverMessage extracts {"error": ...} or {"message": ...} from a response
// body. A short plain-text body is returned as is.
func serverMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		return payload.Message
	}
	if !strings.HasPrefix(trimmed, "<") && len(trimmed) <= 200 {
		return trimmed
	}
	return ""
}
