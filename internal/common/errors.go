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
	ErrInvalidInput = errors.New("invalid input")
	ErrValidation   = errors.New("validation failed")
	ErrUnavailable  = errors.New("service unavailable")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// RemoteError is a failed call against the job service. Message is what the user sees:
// the backend's "error" field when present, else a generic description of the call.
type RemoteError struct {
	Op         string
	StatusCode int // 0 when the request never got a response
	Message    string
	Cause      error
}

func (e *RemoteError) Error() string {
	return e.Message
}

func (e *RemoteError) Unwrap() error {
	return e.Cause
}

// GRPCStatus lets status.Code classify remote failures alongside validation errors.
func (e *RemoteError) GRPCStatus() *status.Status {
	return status.New(CodeFromHTTP(e.StatusCode), e.Message)
}

// CodeFromHTTP maps an HTTP status (0 = transport failure) onto a gRPC code.
func CodeFromHTTP(statusCode int) codes.Code {
	switch {
	case statusCode == 0:
		return codes.Unavailable
	case statusCode == http.StatusNotFound:
		return codes.NotFound
	case statusCode == http.StatusBadRequest, statusCode == http.StatusRequestEntityTooLarge:
		return codes.InvalidArgument
	case statusCode == http.StatusUnauthorized:
		return codes.Unauthenticated
	case statusCode == http.StatusForbidden:
		return codes.PermissionDenied
	case statusCode >= 500:
		return codes.Unavailable
	case statusCode/100 == 2:
		// 2xx with an unusable body
		return codes.DataLoss
	default:
		return codes.Unknown
	}
}

// ErrorClass is one of the two user-facing error classes.
type ErrorClass int

const (
	ClassNone ErrorClass = iota
	// ClassValidation errors are raised before any network call.
	ClassValidation
	// ClassOperational covers every failed or erroring network call.
	ClassOperational
)

func (c ErrorClass) String() string {
	switch c {
	case ClassValidation:
		return "validation"
	case ClassOperational:
		return "operational"
	default:
		return "none"
	}
}

// ClassOf reports the user-facing class of err.
func ClassOf(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		return ClassOperational
	}
	if errors.Is(err, ErrValidation) || status.Code(err) == codes.InvalidArgument {
		return ClassValidation
	}
	return ClassOperational
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}
