package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types.
var (
	ErrConfiguration   = errors.New("configuration error")
	ErrFileNotFound    = errors.New("file not found")
	ErrRemoteOperation = errors.New("remote operation failed")
	ErrWaitTimeout     = errors.New("timed out waiting for object")
	ErrBadRequest      = errors.New("bad request")
)

// Process exit codes used by the CLI.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitConfiguration = 2
	ExitFileNotFound  = 3
	ExitRemote        = 4
)

// AppError represents an application error with HTTP status and error code.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	StatusCode int            `json:"-"`
	Err        error          `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail attaches a detail to the error and returns it.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// ErrorResponse represents the JSON error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// NewAppError creates a new application error.
func NewAppError(code string, message string, statusCode int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// Configuration creates an error for a missing or invalid setting.
func Configuration(message string) *AppError {
	return &AppError{
		Code:       "CONFIGURATION_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        ErrConfiguration,
	}
}

// FileNotFound creates an error for a missing local source file.
func FileNotFound(path string) *AppError {
	return &AppError{
		Code:       "FILE_NOT_FOUND",
		Message:    fmt.Sprintf("file for upload not found: %s", path),
		StatusCode: http.StatusBadRequest,
		Err:        ErrFileNotFound,
	}
}

// RemoteOperation creates an error for a failed object store or token service call.
func RemoteOperation(operation string, err error) *AppError {
	return &AppError{
		Code:       "REMOTE_OPERATION_ERROR",
		Message:    operation,
		StatusCode: http.StatusBadGateway,
		Err:        fmt.Errorf("%w: %w", ErrRemoteOperation, err),
	}
}

// WaitTimeout creates an error for an object that never became visible.
func WaitTimeout(key string, attempts int) *AppError {
	return &AppError{
		Code:       "WAIT_TIMEOUT",
		Message:    fmt.Sprintf("object %s not visible after %d attempts", key, attempts),
		StatusCode: http.StatusGatewayTimeout,
		Err:        fmt.Errorf("%w: %w", ErrRemoteOperation, ErrWaitTimeout),
	}
}

// BadRequest creates a bad request error.
func BadRequest(message string) *AppError {
	return &AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        ErrBadRequest,
	}
}

// ToResponse converts an AppError to ErrorResponse.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Code:    e.Code,
			Message: e.Message,
			Details: e.Details,
		},
	}
}

// GetStatusCode returns the appropriate HTTP status code for an error.
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrFileNotFound), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrWaitTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrRemoteOperation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrConfiguration):
		return ExitConfiguration
	case errors.Is(err, ErrFileNotFound):
		return ExitFileNotFound
	case errors.Is(err, ErrRemoteOperation):
		return ExitRemote
	default:
		return ExitFailure
	}
}
