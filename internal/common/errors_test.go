package common

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestCodeFromHTTP(t *testing.T) {
	cases := []struct {
		in   int
		want codes.Code
	}{
		{0, codes.Unavailable},
		{400, codes.InvalidArgument},
		{401, codes.Unauthenticated},
		{403, codes.PermissionDenied},
		{404, codes.NotFound},
		{413, codes.InvalidArgument},
		{418, codes.Unknown},
		{500, codes.Unavailable},
		{503, codes.Unavailable},
		{200, codes.DataLoss},
	}
	for _, tc := range cases {
		if got := CodeFromHTTP(tc.in); got != tc.want {
			t.Errorf("CodeFromHTTP(%d) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRemoteError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("poll: %w", &RemoteError{Op: "status", StatusCode: 404, Message: "Session not found", Cause: cause})

	if status.Code(err) != codes.NotFound {
		t.Errorf("code = %v", status.Code(err))
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	var re *RemoteError
	if !errors.As(err, &re) || re.Error() != "Session not found" {
		t.Errorf("Error() = %q", re.Error())
	}
}

func TestClassOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ClassNone},
		{"validation error", ValidationError{Field: "type", Message: "Please select a PDF file."}, ClassValidation},
		{"invalid argument", InvalidArgumentError("bad"), ClassValidation},
		{"remote 413 stays operational", &RemoteError{StatusCode: 413, Message: "File too large"}, ClassOperational},
		{"plain error", errors.New("boom"), ClassOperational},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassOf(tc.err); got != tc.want {
				t.Errorf("ClassOf = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAppError(t *testing.T) {
	err := NewAppError("CONFIG_ERROR", "bad url", ErrInvalidInput)
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("AppError should unwrap to its cause")
	}
	if err.Error() != "CONFIG_ERROR: bad url: invalid input" {
		t.Errorf("Error() = %q", err.Error())
	}
	if NewAppError("X", "y", nil).Error() != "X: y" {
		t.Error("AppError without cause")
	}
}
