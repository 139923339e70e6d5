package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for propagation decisions. Validation, not-found
// and conflict errors surface directly to the caller; gateway, consistency
// and internal errors inside the completion transaction additionally trigger
// a compensating cancellation.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindGateway     Kind = "gateway"
	KindConsistency Kind = "consistency"
	KindInternal    Kind = "internal"
)

// Error is the application error carried across service boundaries.
type Error struct {
	Kind    Kind   `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with an explicit kind and HTTP status code.
func New(kind Kind, code int, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// Validation marks a malformed or unprocessable request.
func Validation(message string) *Error {
	return New(KindValidation, http.StatusBadRequest, message, nil)
}

// NotFound marks a missing product, order or coupon.
func NotFound(message string) *Error {
	return New(KindNotFound, http.StatusNotFound, message, nil)
}

// Conflict marks a state conflict such as an exhausted coupon.
func Conflict(message string) *Error {
	return New(KindConflict, http.StatusConflict, message, nil)
}

// Gateway marks a network or provider failure on an outbound gateway call.
func Gateway(message string, err error) *Error {
	return New(KindGateway, http.StatusBadGateway, message, err)
}

// Consistency marks gateway truth disagreeing with local expectation. Always
// fatal to the attempt, never auto-corrected.
func Consistency(message string) *Error {
	return New(KindConsistency, http.StatusUnprocessableEntity, message, nil)
}

// Internal marks an unexpected failure.
func Internal(message string, err error) *Error {
	return New(KindInternal, http.StatusInternalServerError, message, err)
}

// From coerces any error into an *Error, wrapping unknown errors as internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("unexpected error", err)
}

// KindOf reports the kind of err, defaulting to internal for plain errors.
func KindOf(err error) Kind {
	return From(err).Kind
}
