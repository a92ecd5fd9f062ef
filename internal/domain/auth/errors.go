package auth

import (
	"errors"
	"fmt"
)

// Kind classifies an authentication failure for the view layer.
type Kind string

const (
	// KindInvalidCredentials is a rejected email/password pair.
	KindInvalidCredentials Kind = "invalid_credentials"
	// KindValidationFailed is a client-side precondition failure
	// (e.g. password too short); no request was issued.
	KindValidationFailed Kind = "validation_failed"
	// KindNetworkFailure is a transport failure with no server response.
	KindNetworkFailure Kind = "network_failure"
	// KindServerError is a non-2xx response that does not map to a more
	// specific kind.
	KindServerError Kind = "server_error"
	// KindNotAuthenticated is a rejected or missing access token.
	KindNotAuthenticated Kind = "not_authenticated"
)

// Error is the tagged outcome of a failed auth operation. Message is safe
// to show to the user; Status carries the HTTP status when a response was
// received (0 otherwise) for callers that need to distinguish 401 from 403.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.err }

// Is lets errors.Is match any *Error of the same kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// NewError builds a tagged auth error.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError builds a tagged auth error preserving the underlying cause.
func WrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, err: err}
}

// StatusError builds a tagged auth error carrying the HTTP status.
func StatusError(kind Kind, message string, status int) *Error {
	return &Error{Kind: kind, Message: message, Status: status}
}

// KindOf extracts the kind from an error chain; unknown errors report
// KindServerError so they are never silently treated as benign.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindServerError
}

// IsKind reports whether the error chain contains an auth error of the
// given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
