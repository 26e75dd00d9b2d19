package services

import (
	"errors"
	"fmt"
)

// ErrNoSenderAvailable is returned when no sender is configured,
// registered, or creatable on the gateway account.
var ErrNoSenderAvailable = errors.New("no SMS sender available")

// ConfigurationError reports missing or invalid credentials or policy
// fields. It is raised at validation time, before any gateway call.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// GatewayError is a non-2xx response from the SMS API, carrying the
// HTTP status and the parsed error message when the body had one.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway error (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gateway error (HTTP %d)", e.StatusCode)
}

// TransportError is a network or timeout failure before any HTTP status
// was received. Handled like a failed send, never raised to a scheduler.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
