// Package uierr defines the structured error taxonomy shared by all
// automation operations. Every boundary operation (CLI command, MCP tool)
// reports failures as a code plus message; nothing panics across the
// boundary.
package uierr

import (
	"errors"
	"fmt"
)

// Code classifies an automation failure.
type Code string

const (
	// PermissionDenied means the OS has not granted accessibility or
	// input-monitoring permission to this process.
	PermissionDenied Code = "permission_denied"
	// ElementNotFound means a locator exhausted its timeout with zero matches.
	ElementNotFound Code = "element_not_found"
	// AmbiguousMatch means multiple elements matched under strict mode.
	AmbiguousMatch Code = "ambiguous_match"
	// Timeout means an idle-wait or selector-wait exceeded its deadline.
	Timeout Code = "timeout"
	// PlatformError wraps an underlying native API failure.
	PlatformError Code = "platform_error"
	// InvalidSelector means a selector string failed to parse.
	InvalidSelector Code = "invalid_selector"
	// Unknown is the fallback for unclassified errors.
	Unknown Code = "unknown"
)

// Error is a classified automation error. It serializes to the wire shape
// {code, message} used by the CLI and MCP envelopes.
type Error struct {
	Code    Code   `json:"code"              yaml:"code"`
	Message string `json:"message"           yaml:"message"`
	cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a classified error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf creates a classified error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error. The cause remains reachable via
// errors.Unwrap / errors.As.
func Wrap(code Code, msg string, cause error) *Error {
	if cause != nil && msg == "" {
		msg = cause.Error()
	}
	return &Error{Code: code, Message: msg, cause: cause}
}

// CodeOf extracts the classification of err, or Unknown for plain errors.
func CodeOf(err error) Code {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Code
	}
	return Unknown
}

// AsError converts any error to an *Error for envelope serialization,
// preserving an existing classification.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var ue *Error
	if errors.As(err, &ue) {
		return ue
	}
	return &Error{Code: Unknown, Message: err.Error(), cause: err}
}
