package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"

	// Authorization errors
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeQuotaExceeded = "QUOTA_EXCEEDED"

	// Validation errors
	ErrCodeInvalidInput = "INVALID_INPUT"

	// Resource errors
	ErrCodeNotFound = "NOT_FOUND"
	ErrCodeConflict = "CONFLICT"

	// Token errors
	ErrCodeTokenInvalid = "TOKEN_INVALID"
	ErrCodeTokenExpired = "TOKEN_EXPIRED"

	// Service errors
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Kind classifies an error raised by the core. Every kind maps to one HTTP
// status and one response code.
type Kind string

const (
	KindNotFound      Kind = ErrCodeNotFound
	KindConflict      Kind = ErrCodeConflict
	KindForbidden     Kind = ErrCodeForbidden
	KindInvalidInput  Kind = ErrCodeInvalidInput
	KindQuotaExceeded Kind = ErrCodeQuotaExceeded
	KindTokenInvalid  Kind = ErrCodeTokenInvalid
	KindTokenExpired  Kind = ErrCodeTokenExpired
	KindUnauthorized  Kind = ErrCodeUnauthorized
	KindUnavailable   Kind = ErrCodeServiceUnavailable
	KindInternal      Kind = ErrCodeInternalError
)

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the typed error returned by services. Sentinel values are compared
// with errors.Is; wrapped causes stay reachable through Unwrap.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause to a sentinel while keeping errors.Is(err, sentinel) true.
func Wrap(sentinel *Error, cause error) error {
	return &wrapped{sentinel: sentinel, cause: cause}
}

type wrapped struct {
	sentinel *Error
	cause    error
}

func (w *wrapped) Error() string   { return fmt.Sprintf("%s: %v", w.sentinel.Message, w.cause) }
func (w *wrapped) Unwrap() []error { return []error{w.sentinel, w.cause} }

// Invalid builds an InvalidInput error with field details.
func Invalid(message string, fields ...FieldError) *Error {
	return &Error{Kind: KindInvalidInput, Message: message, Fields: fields}
}

// FromStore classifies a storage failure. Deadline and cancellation errors are
// retryable; everything else is internal.
func FromStore(err error, message string) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return &Error{Kind: KindUnavailable, Message: message, Err: err}
	}
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// Internal wraps a failure outside the store, such as hashing or signing, as
// a non-retryable internal error.
func Internal(err error, message string) error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return KindUnavailable
	}
	return KindInternal
}

// Retryable reports whether the caller may retry the same request later.
// Policy failures are never retryable.
func Retryable(err error) bool {
	return KindOf(err) == KindUnavailable
}

// StatusOf maps an error kind to an HTTP status code.
func StatusOf(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindForbidden, KindQuotaExceeded:
		return http.StatusForbidden
	case KindInvalidInput, KindTokenInvalid, KindTokenExpired:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// APIError represents a standardized API error response
type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Retryable bool        `json:"retryable,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// NewAPIErrorWithDetails creates a new APIError with details
func NewAPIErrorWithDetails(code, message string, details interface{}) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.JSON(statusCode, err)
}

// Respond writes the structured response for any service error. Causes of
// internal errors are only exposed in gin debug mode.
func Respond(c *gin.Context, err error) {
	_ = c.Error(err)

	var e *Error
	if !stderrors.As(err, &e) {
		e = &Error{Kind: KindOf(err), Message: "Internal server error", Err: err}
	}

	apiErr := NewAPIError(string(e.Kind), e.Message)
	apiErr.Retryable = e.Kind == KindUnavailable
	switch {
	case len(e.Fields) > 0:
		apiErr.Details = e.Fields
	case (e.Kind == KindInternal || e.Kind == KindUnavailable) && gin.Mode() == gin.DebugMode:
		apiErr.Details = err.Error()
	}

	RespondWithError(c, StatusOf(e.Kind), apiErr)
}

// BindError responds to a failed ShouldBind call with field-level details.
func BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		BadRequest(c, "Invalid request body")
		return
	}

	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		}
	}
	BadRequestWithDetails(c, "Invalid request body", fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed on %s", fe.Tag())
	}
}

// Helper functions for common error responses

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, NewAPIError(ErrCodeUnauthorized, message))
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, NewAPIError(ErrCodeNotFound, message))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, http.StatusBadRequest, NewAPIError(ErrCodeInvalidInput, message))
}

// BadRequestWithDetails sends a 400 response with details
func BadRequestWithDetails(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, NewAPIErrorWithDetails(ErrCodeInvalidInput, message, details))
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, message))
}
