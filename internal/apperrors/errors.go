package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the category of an application error.
type Kind string

const (
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "CONFLICT"
	KindValidation   Kind = "VALIDATION_ERROR"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindInternal     Kind = "INTERNAL"
)

// Error codes used across services.
const (
	CodeInvalidOperation = "INVALID_OPERATION"
	CodeDuplicateHandle  = "DUPLICATE_HANDLE"
	CodeHandleImmutable  = "HANDLE_IMMUTABLE"
	CodeEmptyText        = "EMPTY_TEXT"
	CodeRetryExhausted   = "RETRY_EXHAUSTED"
	CodeNotOwner         = "NOT_OWNER"
	CodeNotMutual        = "NOT_MUTUAL"
)

// Error is a typed application error carrying a kind, a stable code and an optional cause.
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error with the same kind and code. An empty code on
// the target matches any code of that kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == "" {
		return e.Kind == t.Kind
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// WithCause attaches the underlying cause.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// Sentinels for errors.Is checks by kind.
var (
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrValidation   = &Error{Kind: KindValidation}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
)

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// NotFound reports that a referenced entity is absent.
func NotFound(entity, id string) *Error {
	return New(KindNotFound, "NOT_FOUND", fmt.Sprintf("%s %q not found", entity, id))
}

// Conflict reports that a concurrent write could not be applied.
func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

// Validation reports invalid input.
func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

// InvalidOperation reports an operation that is never allowed, such as following yourself.
func InvalidOperation(message string) *Error {
	return New(KindValidation, CodeInvalidOperation, message)
}

// Unauthorized reports a mutation of an entity the caller does not own.
func Unauthorized(code, message string) *Error {
	return New(KindUnauthorized, code, message)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the status code the HTTP layer responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
