// Package errors defines the failure taxonomy shared by the request and
// push channels: transport, authorization, application and validation
// failures, each carrying the best available human-readable message.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// KindTransport is a network-level failure (unreachable, timeout,
	// connection refused). Always recoverable.
	KindTransport Kind = iota + 1
	// KindAuthorization is a server rejection due to a missing or
	// expired session.
	KindAuthorization
	// KindApplication is a server response that declares success=false.
	KindApplication
	// KindValidation is a client-side rejection before any network call.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuthorization:
		return "authorization"
	case KindApplication:
		return "application"
	case KindValidation:
		return "validation"
	}
	return "unknown"
}

// Error is a classified failure with a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transport creates a transport failure wrapping err.
func Transport(message string, err error) *Error {
	return &Error{Kind: KindTransport, Message: message, Err: err}
}

// Authorization creates an authorization failure.
func Authorization(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

// Application creates an application failure.
func Application(message string) *Error {
	return &Error{Kind: KindApplication, Message: message}
}

// Validation creates a validation failure.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// KindOf returns the kind of err, or 0 if err is not a classified error.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err is a classified error of kind k.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

// Message returns the best human-readable message for err: the classified
// message when present, otherwise the error text, otherwise fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var e *Error
	if stderrors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if s := err.Error(); s != "" {
		return s
	}
	return fallback
}
