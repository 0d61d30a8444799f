// Package errs defines the coded application errors shared by the chat core
// and the HTTP layer.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Standard error codes for the application.
const (
	CodeUnknown      = "UNKNOWN"
	CodeValidation   = "VALIDATION"
	CodeConflict     = "CONFLICT"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeStore        = "STORE"
	CodeConfig       = "CONFIG"
)

// ApplicationError is the interface that all our custom errors implement.
type ApplicationError interface {
	error
	Code() string
	Message() string
	Unwrap() error
}

// Error represents a basic application error.
type Error struct {
	code    string
	message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}

	return e.message
}

func (e *Error) Code() string {
	return e.code
}

// Message returns the error text without its cause.
func (e *Error) Message() string {
	return e.message
}

func (e *Error) Unwrap() error {
	return e.err
}

// Code returns the code of the first ApplicationError in err's chain,
// or CodeUnknown if it doesn't carry one.
func Code(err error) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}

	return CodeUnknown
}

// Message returns the client facing text of the first ApplicationError in
// err's chain, leaving out wrapped causes.
func Message(err error) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Message()
	}

	return "internal error"
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && Code(err) == code
}

// ValidationError carries every violated rule of a rejected request.
type ValidationError struct {
	base    Error
	reasons []string
}

func (e *ValidationError) Error() string {
	if len(e.reasons) == 0 {
		return e.base.Error()
	}

	return e.base.message + ": " + strings.Join(e.reasons, "; ")
}

func (e *ValidationError) Code() string {
	return e.base.Code()
}

func (e *ValidationError) Message() string {
	return e.base.Message()
}

func (e *ValidationError) Unwrap() error {
	return e.base.Unwrap()
}

// Reasons returns a copy of the accumulated rule violations.
func (e *ValidationError) Reasons() []string {
	return append([]string(nil), e.reasons...)
}

func NewValidationError(message string, reasons ...string) error {
	return &ValidationError{
		base: Error{
			code:    CodeValidation,
			message: message,
		},
		reasons: reasons,
	}
}

// Reasons extracts the rule violations from a ValidationError in err's chain.
func Reasons(err error) []string {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Reasons()
	}

	return nil
}

type ConflictError struct {
	base Error
}

func (e *ConflictError) Error() string {
	return e.base.Error()
}

func (e *ConflictError) Code() string {
	return e.base.Code()
}

func (e *ConflictError) Message() string {
	return e.base.Message()
}

func (e *ConflictError) Unwrap() error {
	return e.base.Unwrap()
}

func NewConflictError(message string, cause error) error {
	return &ConflictError{
		base: Error{
			code:    CodeConflict,
			message: message,
			err:     cause,
		},
	}
}

type NotFoundError struct {
	base Error
}

func (e *NotFoundError) Error() string {
	return e.base.Error()
}

func (e *NotFoundError) Code() string {
	return e.base.Code()
}

func (e *NotFoundError) Message() string {
	return e.base.Message()
}

func (e *NotFoundError) Unwrap() error {
	return e.base.Unwrap()
}

func NewNotFoundError(message string, cause error) error {
	return &NotFoundError{
		base: Error{
			code:    CodeNotFound,
			message: message,
			err:     cause,
		},
	}
}

type UnauthorizedError struct {
	base Error
}

func (e *UnauthorizedError) Error() string {
	return e.base.Error()
}

func (e *UnauthorizedError) Code() string {
	return e.base.Code()
}

func (e *UnauthorizedError) Message() string {
	return e.base.Message()
}

func (e *UnauthorizedError) Unwrap() error {
	return e.base.Unwrap()
}

func NewUnauthorizedError(message string) error {
	return &UnauthorizedError{
		base: Error{
			code:    CodeUnauthorized,
			message: message,
		},
	}
}

// StoreError wraps a persistence failure. Its message is safe to show to
// clients; the cause is kept for logging.
type StoreError struct {
	base Error
}

func (e *StoreError) Error() string {
	return e.base.Error()
}

func (e *StoreError) Code() string {
	return e.base.Code()
}

func (e *StoreError) Message() string {
	return e.base.Message()
}

func (e *StoreError) Unwrap() error {
	return e.base.Unwrap()
}

func NewStoreError(message string, cause error) error {
	return &StoreError{
		base: Error{
			code:    CodeStore,
			message: message,
			err:     cause,
		},
	}
}

type ConfigError struct {
	base Error
}

func (e *ConfigError) Error() string {
	return e.base.Error()
}

func (e *ConfigError) Code() string {
	return e.base.Code()
}

func (e *ConfigError) Message() string {
	return e.base.Message()
}

func (e *ConfigError) Unwrap() error {
	return e.base.Unwrap()
}

func NewConfigError(message string, cause error) error {
	return &ConfigError{
		base: Error{
			code:    CodeConfig,
			message: message,
			err:     cause,
		},
	}
}
