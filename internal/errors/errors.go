package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on Code so wrapped copies still compare equal to the
// predefined values.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Err:     err,
	}
}

// WithMessage keeps the code of domainErr but replaces the client-facing message.
func WithMessage(domainErr *DomainError, message string) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: message,
		Err:     domainErr.Err,
	}
}

// Error codes
const (
	CodeInvalidInput         = "INVALID_INPUT"
	CodeAlternationViolation = "ALTERNATION_VIOLATION"
	CodePasswordMismatch     = "PASSWORD_MISMATCH"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeInvalidToken         = "INVALID_TOKEN"
	CodeIncorrectPassword    = "INCORRECT_PASSWORD"
	CodeNoRefreshToken       = "NO_REFRESH_TOKEN"
	CodeInvalidRefreshToken  = "INVALID_REFRESH_TOKEN"
	CodeTokenRevoked         = "TOKEN_REVOKED"
	CodeTokenReuse           = "TOKEN_REUSE_DETECTED"
	CodeForbidden            = "FORBIDDEN"
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeTeamNotFound         = "TEAM_NOT_FOUND"
	CodeRecordingNotFound    = "TIME_RECORDING_NOT_FOUND"
	CodeEmailExists          = "EMAIL_EXISTS"
	CodeInternal             = "INTERNAL_ERROR"
	CodeServiceUnavailable   = "SERVICE_UNAVAILABLE"
)

// Predefined domain errors
var (
	// User errors
	ErrUserNotFound       = NewDomainError(CodeUserNotFound, "user not found")
	ErrEmailExists        = NewDomainError(CodeEmailExists, "email already exists")
	ErrInvalidCredentials = NewDomainError(CodeInvalidCredentials, "Email ou mot de passe incorrect")

	// Authentication errors
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Unauthorized")
	ErrInvalidToken        = NewDomainError(CodeInvalidToken, "Invalid or expired token")
	ErrNoRefreshToken      = NewDomainError(CodeNoRefreshToken, "Aucun refresh token fourni")
	ErrInvalidRefreshToken = NewDomainError(CodeInvalidRefreshToken, "Refresh token invalide ou expiré")
	ErrTokenRevoked        = NewDomainError(CodeTokenRevoked, "Token révoqué")
	ErrTokenReuse          = NewDomainError(CodeTokenReuse, "Réutilisation de token détectée")

	// Authorization errors
	ErrForbidden = NewDomainError(CodeForbidden, "Access forbidden")

	// Time tracking errors
	ErrTeamNotFound         = NewDomainError(CodeTeamNotFound, "team not found")
	ErrRecordingNotFound    = NewDomainError(CodeRecordingNotFound, "time recording not found")
	ErrAlternationViolation = NewDomainError(CodeAlternationViolation, "recording breaks arrival/departure alternation")

	// Validation errors
	ErrInvalidInput      = NewDomainError(CodeInvalidInput, "invalid input")
	ErrMissingLogin      = NewDomainError(CodeInvalidInput, "Email et mot de passe requis")
	ErrPasswordMismatch  = NewDomainError(CodePasswordMismatch, "new password and confirmation do not match")
	ErrIncorrectPassword = NewDomainError(CodeIncorrectPassword, "current password is incorrect")

	// System errors
	ErrInternal           = NewDomainError(CodeInternal, "internal server error")
	ErrServiceUnavailable = NewDomainError(CodeServiceUnavailable, "service unavailable")
)

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// ToHTTPStatus maps domain errors to HTTP status codes
// This should only be used in the handler/presentation layer
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErrorToHTTPStatus(domainErr)
	}

	return http.StatusInternalServerError
}

func domainErrorToHTTPStatus(err *DomainError) int {
	switch err.Code {
	// 400 Bad Request
	case CodeInvalidInput, CodePasswordMismatch, CodeAlternationViolation:
		return http.StatusBadRequest

	// 401 Unauthorized
	case CodeUnauthorized, CodeInvalidCredentials, CodeInvalidToken,
		CodeNoRefreshToken, CodeIncorrectPassword:
		return http.StatusUnauthorized

	// 403 Forbidden
	case CodeForbidden, CodeInvalidRefreshToken, CodeTokenRevoked, CodeTokenReuse:
		return http.StatusForbidden

	// 404 Not Found
	case CodeUserNotFound, CodeTeamNotFound, CodeRecordingNotFound:
		return http.StatusNotFound

	// 409 Conflict
	case CodeEmailExists:
		return http.StatusConflict

	// 503 Service Unavailable
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetErrorMessage returns the client-facing message. Internal errors never
// leak their wrapped cause.
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return ErrInternal.Message
}
