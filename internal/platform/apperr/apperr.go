// Package apperr defines the error taxonomy shared by every module. Each error
// carries a stable Kind that transports map onto status codes, and a message
// that is safe to show to callers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindUnauthorized      Kind = "unauthorized"
	KindInsufficientStock Kind = "insufficient_stock"
	KindInvalidTransition Kind = "invalid_transition"
	KindConflict          Kind = "conflict"
	KindStorageFailure    Kind = "storage_failure"
)

// genericMessage is what callers see for failures they cannot act on.
const genericMessage = "something went wrong"

// Error is the canonical application error.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// WithDetails returns a copy of e carrying the supplied details.
func (e *Error) WithDetails(details map[string]any) *Error {
	cp := *e
	cp.Details = make(map[string]any, len(details))
	for k, v := range details {
		cp.Details[k] = v
	}
	return &cp
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func InvalidInput(format string, args ...any) *Error { return newf(KindInvalidInput, format, args...) }

func NotFound(format string, args ...any) *Error { return newf(KindNotFound, format, args...) }

func Forbidden(format string, args ...any) *Error { return newf(KindForbidden, format, args...) }

func Unauthorized(format string, args ...any) *Error { return newf(KindUnauthorized, format, args...) }

func InvalidTransition(format string, args ...any) *Error {
	return newf(KindInvalidTransition, format, args...)
}

func Conflict(format string, args ...any) *Error { return newf(KindConflict, format, args...) }

// InsufficientStock names the product and the quantity that was available.
func InsufficientStock(productID, productName string, available, requested int) *Error {
	name := productName
	if name == "" {
		name = productID
	}
	return &Error{
		Kind:    KindInsufficientStock,
		Message: fmt.Sprintf("insufficient stock for product: %s", name),
		Details: map[string]any{
			"product_id":   productID,
			"product_name": productName,
			"available":    available,
			"requested":    requested,
		},
	}
}

// Storage wraps a store-layer failure. The cause is kept for logging and never
// rendered to the caller. Errors that are already classified pass through.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindStorageFailure, Message: genericMessage, Err: err}
}

// KindOf reports the kind of err, defaulting to KindStorageFailure for
// unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindStorageFailure
}

// Is reports whether err is an application error of the given kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// PublicMessage returns the caller-safe message for err.
func PublicMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != KindStorageFailure && ae.Message != "" {
		return ae.Message
	}
	return genericMessage
}

// PublicDetails returns the caller-safe details for err, if any.
func PublicDetails(err error) map[string]any {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != KindStorageFailure {
		return ae.Details
	}
	return nil
}
