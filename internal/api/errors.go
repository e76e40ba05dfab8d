// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIError represents a structured API error response.
// The message is sent under "error", which is where the conversion widget looks for it.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 error for a rejected upload
func NewValidationError(message string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: message,
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewForbiddenError creates a 403 Forbidden error
func NewForbiddenError(message string) *APIError {
	return &APIError{
		Status:  http.StatusForbidden,
		Code:    "FORBIDDEN",
		Message: message,
	}
}

// NewConversionError creates a 500 error for a failed conversion
func NewConversionError(cause error) *APIError {
	return &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "CONVERSION_FAILED",
		Message: "Conversion failed: " + cause.Error(),
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
	}
}

// ErrorHandler turns any handler error into the JSON failure body.
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		apiErr  *APIError
		httpErr *echo.HTTPError
	)
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &httpErr):
		apiErr = &APIError{
			Status:  httpErr.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", httpErr.Message),
		}
		if httpErr.Code == http.StatusRequestEntityTooLarge {
			apiErr.Code = "TOO_LARGE"
		}
	default:
		apiErr = &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "UNKNOWN_ERROR",
			Message: "An unexpected error occurred",
			Details: err.Error(),
		}
	}

	if c.Request().Method == http.MethodHead {
		c.NoContent(apiErr.Status)
		return
	}
	c.JSON(apiErr.Status, apiErr)
}
