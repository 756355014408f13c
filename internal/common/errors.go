package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies a failure so callers can branch without string matching.
type Kind string

const (
	KindMissingInput      Kind = "MISSING_INPUT"
	KindUnsupportedFormat Kind = "UNSUPPORTED_FORMAT"
	KindLoadFailure       Kind = "LOAD_FAILURE"
	KindInferenceFailure  Kind = "INFERENCE_FAILURE"
	KindConfig            Kind = "CONFIG_ERROR"
)

// AppError represents application-specific errors
type AppError struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error returns the human-readable message; the kind is kept out of it because
// the text is shown to end users as-is.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrLoadFailure) and friends work for any AppError of that kind.
func (e *AppError) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && target == s
}

// Sentinels, one per kind.
var (
	ErrMissingInput      = errors.New("missing input")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrLoadFailure       = errors.New("load failure")
	ErrInferenceFailure  = errors.New("inference failure")
)

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

var kindSentinels = map[Kind]error{
	KindMissingInput:      ErrMissingInput,
	KindUnsupportedFormat: ErrUnsupportedFormat,
	KindLoadFailure:       ErrLoadFailure,
	KindInferenceFailure:  ErrInferenceFailure,
	KindConfig:            ErrInvalidInput,
}

// Error constructors
func NewAppError(kind Kind, message string, cause error) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

func MissingInput(message string) *AppError {
	return NewAppError(KindMissingInput, message, nil)
}

func UnsupportedFormat(message string) *AppError {
	return NewAppError(KindUnsupportedFormat, message, nil)
}

func LoadFailure(cause error) *AppError {
	return NewAppError(KindLoadFailure, "Document load failed", cause)
}

func InferenceFailure(task string, cause error) *AppError {
	return NewAppError(KindInferenceFailure, task+" inference failed", cause)
}

// KindOf returns the kind of the first AppError in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func FailedPreconditionError(message string) error {
	return status.Error(codes.FailedPrecondition, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}
