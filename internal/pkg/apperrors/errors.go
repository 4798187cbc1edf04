package apperrors

import (
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrAuthFailed     ErrorType = "AUTH_FAILED"
	ErrInvalidRequest ErrorType = "INVALID_REQUEST"
	ErrInternal       ErrorType = "INTERNAL_ERROR"
	ErrNotFound       ErrorType = "NOT_FOUND"
	ErrUpstream       ErrorType = "UPSTREAM_ERROR"
	ErrOwnerOffline   ErrorType = "OWNER_OFFLINE"
	ErrReadOnly       ErrorType = "READ_ONLY"
	ErrRateLimited    ErrorType = "RATE_LIMITED"
)

// AppError is the error envelope every route renders:
// {"error": "...", "code": "...", "offline": true}.
type AppError struct {
	Type       ErrorType `json:"code"`
	Message    string    `json:"error"`
	Offline    bool      `json:"offline,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errType ErrorType, msg string, cause error) *AppError {
	return &AppError{
		Type:       errType,
		Message:    msg,
		Cause:      cause,
		Offline:    errType == ErrOwnerOffline,
		HTTPStatus: mapTypeToStatus(errType),
		Suggestion: mapTypeToSuggestion(errType),
	}
}

func NewInvalidRequest(msg string) *AppError {
	return New(ErrInvalidRequest, msg, nil)
}

func NewOffline(ownerID string, cause error) *AppError {
	return New(ErrOwnerOffline, fmt.Sprintf("owner %s is not configured", ownerID), cause)
}

func NewUpstream(msg string, cause error) *AppError {
	return New(ErrUpstream, msg, cause)
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return New(ErrInternal, err.Error(), err)
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrInvalidRequest:
		return http.StatusBadRequest
	case ErrAuthFailed:
		return http.StatusUnauthorized
	case ErrReadOnly:
		return http.StatusForbidden
	case ErrNotFound:
		return http.StatusNotFound
	case ErrRateLimited:
		return http.StatusTooManyRequests
	case ErrUpstream:
		return http.StatusBadGateway
	case ErrOwnerOffline:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func mapTypeToSuggestion(t ErrorType) string {
	switch t {
	case ErrOwnerOffline:
		return "Configure an API key for this owner."
	case ErrUpstream:
		return "Data will refresh on the next poll."
	case ErrRateLimited:
		return "Retry the request."
	default:
		return ""
	}
}
