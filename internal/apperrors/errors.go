// Package apperrors defines the coded errors returned by the inventory and
// lifecycle packages. Handlers translate a Code into an HTTP status.
package apperrors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error category.
type Code string

const (
	CodeNotFound             Code = "NOT_FOUND"
	CodeAlreadyExists        Code = "ALREADY_EXISTS"
	CodeAlreadyInUse         Code = "ALREADY_IN_USE"
	CodeTypeMismatch         Code = "TYPE_MISMATCH"
	CodeInvalidDomainAccount Code = "INVALID_DOMAIN_ACCOUNT"
	CodeNotEligible          Code = "NOT_ELIGIBLE"
	CodeInvalidTransition    Code = "INVALID_TRANSITION"
	CodeValidation           Code = "VALIDATION"
	CodeConflict             Code = "CONFLICT"
	CodeUnauthorized         Code = "UNAUTHORIZED"
	CodeForbidden            Code = "FORBIDDEN"
)

// Error is a domain error with a code and an operator-facing message.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// New returns an error with code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf formats message with args.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches code and message to cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Sentinels for errors.Is comparisons by code.
var (
	ErrNotFound             = New(CodeNotFound, "not found")
	ErrAlreadyExists        = New(CodeAlreadyExists, "already exists")
	ErrAlreadyInUse         = New(CodeAlreadyInUse, "already in use")
	ErrTypeMismatch         = New(CodeTypeMismatch, "type mismatch")
	ErrInvalidDomainAccount = New(CodeInvalidDomainAccount, "invalid domain account")
	ErrNotEligible          = New(CodeNotEligible, "not eligible")
	ErrInvalidTransition    = New(CodeInvalidTransition, "invalid transition")
	ErrValidation           = New(CodeValidation, "validation failed")
	ErrConflict             = New(CodeConflict, "conflict")
	ErrUnauthorized         = New(CodeUnauthorized, "unauthorized")
	ErrForbidden            = New(CodeForbidden, "forbidden")
)

// CodeOf returns the code of the first *Error in err's chain, or "" when
// err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// MessageOf returns the operator-facing message of the first *Error in
// err's chain without its cause.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
