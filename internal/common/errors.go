package common

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
)

// Domain errors returned by repositories and services. Transports map them to status codes.
var (
	ErrInvalidReply       = errors.New("cannot reply to a deleted message")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotAMember         = errors.New("not a participant of this conversation")
	ErrNotFound           = errors.New("not found")
	ErrEmptyMessage       = errors.New("message must have content or an attachment")
	ErrInvalidEmoji       = errors.New("invalid emoji")
	ErrHandleTaken        = errors.New("handle already exists")
	ErrInvalidCredentials = errors.New("invalid handle or password")
	ErrAttachmentsOff     = errors.New("attachments are not available")
)

// ValidationError wraps input problems that map to 400 / InvalidArgument.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

// HTTPStatus maps domain errors to HTTP status codes.
func HTTPStatus(err error) int {
	var (
		verr  *ValidationError
		vErrs *validationErrors
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &verr),
		errors.As(err, &vErrs),
		errors.Is(err, ErrInvalidReply),
		errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrInvalidEmoji),
		errors.Is(err, ErrHandleTaken),
		errors.Is(err, ErrAttachmentsOff):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrNotAMember):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// GRPCCode is the gRPC counterpart of HTTPStatus.
func GRPCCode(err error) codes.Code {
	switch HTTPStatus(err) {
	case http.StatusOK:
		return codes.OK
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.NotFound
	default:
		return codes.Internal
	}
}

// PublicMessage hides internal error details from clients.
func PublicMessage(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
