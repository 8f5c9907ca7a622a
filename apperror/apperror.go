// Package apperror defines a centralized system for application-specific errors.
// Services return *AppError values carrying a category (ErrorType) and a public
// message; the HTTP boundary turns them into status codes and JSON bodies.
// Business outcomes such as "not found" or "duplicate e-mail" travel as ordinary
// return values, never as panics.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType is an enumeration (using `iota`) for different categories of application errors.
type ErrorType int

const (
	// UnknownError is for unspecified errors
	UnknownError ErrorType = iota
	// DatabaseError represents an error originating from the database
	DatabaseError
	// ConfigError represents an error related to application configuration
	ConfigError
	// AuthError represents an authentication error (missing/invalid token, bad credentials)
	AuthError
	// ForbiddenError represents an authorization error (authenticated, but lacking a capability)
	ForbiddenError
	// NotFoundError represents a resource not found error
	NotFoundError
	// ValidationError represents an input validation error
	ValidationError
	// BadRequestError represents a generic bad request
	BadRequestError
	// InternalError represents a generic internal server error
	InternalError
	// ConflictError represents a conflict, e.g., resource already exists
	ConflictError
)

// Messages shared by more than one package. They are part of the public API
// contract, so clients may match on them.
const (
	MsgDuplicateEmail     = "E-mail já registrado."
	MsgUserNotFound       = "Usuário não encontrado."
	MsgInvalidCredentials = "Usuário ou senha inválidos"
	MsgInvalidPayload     = "Dados inválidos"
	MsgInternalPrefix     = "Erro interno no servidor: "
)

// AppError is a custom error type for the application.
// Message is what clients see; Err is the underlying cause, kept for logs only.
type AppError struct {
	Type    ErrorType
	Message string
	Details []string
	Err     error
}

// Error returns the string representation of the error, satisfying the `error` interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error so errors.Is and errors.As can walk the chain.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code appropriate for the error type
func (e *AppError) StatusCode() int {
	switch e.Type {
	case DatabaseError, ConfigError, InternalError:
		return http.StatusInternalServerError
	case AuthError:
		// 401: no identity, or the identity could not be established.
		return http.StatusUnauthorized
	case ForbiddenError:
		// 403: identity is known but lacks the required authority.
		return http.StatusForbidden
	case NotFoundError:
		return http.StatusNotFound
	case ValidationError, BadRequestError:
		return http.StatusBadRequest
	case ConflictError:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// NewAppError creates a new AppError. This is a generic constructor.
func NewAppError(errType ErrorType, message string, underlyingError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     underlyingError,
	}
}

// NewDatabaseError creates a new DatabaseError
func NewDatabaseError(message string, underlyingError error) *AppError {
	return NewAppError(DatabaseError, message, underlyingError)
}

// NewConfigError creates a new ConfigError
func NewConfigError(message string, underlyingError error) *AppError {
	return NewAppError(ConfigError, message, underlyingError)
}

// NewAuthError creates a new AuthError (for authentication issues)
func NewAuthError(message string, underlyingError error) *AppError {
	return NewAppError(AuthError, message, underlyingError)
}

// NewForbiddenError creates a new ForbiddenError (for authorization issues)
func NewForbiddenError(message string, underlyingError error) *AppError {
	return NewAppError(ForbiddenError, message, underlyingError)
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(message string, underlyingError error) *AppError {
	return NewAppError(NotFoundError, message, underlyingError)
}

// NewValidationError creates a new ValidationError with per-field messages.
func NewValidationError(details []string, underlyingError error) *AppError {
	e := NewAppError(ValidationError, MsgInvalidPayload, underlyingError)
	e.Details = details
	return e
}

// NewBadRequestError creates a new BadRequestError
func NewBadRequestError(message string, underlyingError error) *AppError {
	return NewAppError(BadRequestError, message, underlyingError)
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, underlyingError error) *AppError {
	return NewAppError(InternalError, message, underlyingError)
}

// NewConflictError creates a new ConflictError
func NewConflictError(message string, underlyingError error) *AppError {
	return NewAppError(ConflictError, message, underlyingError)
}

// NewDuplicateEmailError is the conflict raised on create/update when the
// e-mail already belongs to another record.
func NewDuplicateEmailError(underlyingError error) *AppError {
	return NewConflictError(MsgDuplicateEmail, underlyingError)
}

// ErrorResponse represents a generic error response payload for API clients.
type ErrorResponse struct {
	Error   string   `json:"error" example:"A description of the error"`
	Details []string `json:"details,omitempty"`
}

// ToResponse converts an AppError to an ErrorResponse suitable for API responses.
// Only the public Message (and validation details) reach the client; the wrapped
// cause never does. 5xx responses get the generic internal-error prefix.
func (e *AppError) ToResponse() ErrorResponse {
	msg := e.Message
	if e.StatusCode() >= http.StatusInternalServerError {
		msg = MsgInternalPrefix + msg
	}
	return ErrorResponse{Error: msg, Details: e.Details}
}

// FromError attempts to convert a generic error to an *AppError, looking through
// wrapped errors. It returns the *AppError and true if successful.
func FromError(err error) (*AppError, bool) {
	if err == nil {
		return nil, false
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsNotFound checks if an error is a NotFound error
func IsNotFound(err error) bool {
	return isType(err, NotFoundError)
}

// IsAuthError checks if an error is an AuthError (authentication problem)
func IsAuthError(err error) bool {
	return isType(err, AuthError)
}

// IsForbiddenError checks if an error is a ForbiddenError (authorization problem)
func IsForbiddenError(err error) bool {
	return isType(err, ForbiddenError)
}

// IsValidationError checks if an error is a Validation error
func IsValidationError(err error) bool {
	return isType(err, ValidationError)
}

// IsConflictError checks if an error is a Conflict error
func IsConflictError(err error) bool {
	return isType(err, ConflictError)
}

func isType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}
