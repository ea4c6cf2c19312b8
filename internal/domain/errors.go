package domain

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	ErrorKindValidation     ErrorKind = "VALIDATION_ERROR"
	ErrorKindAuthentication ErrorKind = "AUTHENTICATION_ERROR"
	ErrorKindAuthorization  ErrorKind = "AUTHORIZATION_ERROR"
	ErrorKindNotFound       ErrorKind = "NOT_FOUND"
	ErrorKindArxivAPI       ErrorKind = "ARXIV_API_ERROR"
	ErrorKindNotionAPI      ErrorKind = "NOTION_API_ERROR"
	ErrorKindDatabase       ErrorKind = "DATABASE_ERROR"
	ErrorKindInternal       ErrorKind = "INTERNAL_ERROR"
)

// AppError is the tagged error variant used across service boundaries.
// Handlers dispatch on Kind, never on concrete error types.
type AppError struct {
	Kind    ErrorKind
	Message string
	Status  int
}

func (e *AppError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...any) *AppError {
	return &AppError{Kind: ErrorKindValidation, Message: fmt.Sprintf(format, args...), Status: http.StatusBadRequest}
}

func NewAuthenticationError(format string, args ...any) *AppError {
	return &AppError{Kind: ErrorKindAuthentication, Message: fmt.Sprintf(format, args...), Status: http.StatusUnauthorized}
}

func NewAuthorizationError(format string, args ...any) *AppError {
	return &AppError{Kind: ErrorKindAuthorization, Message: fmt.Sprintf(format, args...), Status: http.StatusForbidden}
}

func NewNotFoundError(format string, args ...any) *AppError {
	return &AppError{Kind: ErrorKindNotFound, Message: fmt.Sprintf(format, args...), Status: http.StatusNotFound}
}

func NewArxivAPIError(format string, args ...any) *AppError {
	return &AppError{Kind: ErrorKindArxivAPI, Message: fmt.Sprintf(format, args...), Status: http.StatusBadGateway}
}

func NewNotionAPIError(format string, args ...any) *AppError {
	return &AppError{Kind: ErrorKindNotionAPI, Message: fmt.Sprintf(format, args...), Status: http.StatusBadGateway}
}

func NewDatabaseError(format string, args ...any) *AppError {
	return &AppError{Kind: ErrorKindDatabase, Message: fmt.Sprintf(format, args...), Status: http.StatusInternalServerError}
}

// AsAppError unwraps err down to an AppError if one is in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf reports the error kind for err, ErrorKindInternal when untagged.
func KindOf(err error) ErrorKind {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Kind
	}
	return ErrorKindInternal
}

// StatusOf reports the HTTP status for err, 500 when untagged.
func StatusOf(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
