package common

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
)

// Extraction pipeline errors
var (
	ErrMalformedInput      = errors.New("malformed extraction result")
	ErrEmptyBatch          = errors.New("no files could be processed")
	ErrUnsupportedFormat   = errors.New("unsupported export format")
	ErrMalformedConfidence = errors.New("malformed confidence entry")
	ErrHeterogeneousRows   = errors.New("rows do not share the same columns")
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// Error codes carried by AppError.
const (
	CodeConfig              = "CONFIG_ERROR"
	CodeMalformedInput      = "MALFORMED_INPUT"
	CodeEmptyBatch          = "EMPTY_BATCH"
	CodeUnsupportedFormat   = "UNSUPPORTED_FORMAT"
	CodeMalformedConfidence = "MALFORMED_CONFIDENCE"
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeUnsupportedFileType = "UNSUPPORTED_FILE_TYPE"
	CodeDatabase            = "DATABASE_ERROR"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// UserMessage returns the human-readable part of err, without causes.
func UserMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// HTTPStatus maps the error taxonomy onto HTTP status codes.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyBatch),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrUnsupportedFormat),
		errors.Is(err, ErrUnsupportedFileType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

func InternalErrorf(format string, args ...interface{}) error {
	return InternalError(fmt.Sprintf(format, args...))
}
