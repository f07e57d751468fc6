package core

import (
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorInvalidArgument      = "BANKCONNECT_INVALID_ARGUMENT"
	ErrorAuthenticationFailed = "BANKCONNECT_AUTHENTICATION_FAILED"
	ErrorEntityNotFound       = "BANKCONNECT_ENTITY_NOT_FOUND"
	ErrorService              = "BANKCONNECT_SERVICE_ERROR"
	ErrorServiceUnavailable   = "BANKCONNECT_SERVICE_UNAVAILABLE"
	ErrorInternal             = "BANKCONNECT_INTERNAL_ERROR"
)

const (
	metadataServiceCode    = "service_code"
	metadataServiceMessage = "service_message"
	metadataStatusCode     = "status_code"
	metadataTransient      = "transient"
)

// ErrorKind is the closed set of failures surfaced by the client.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindAuthentication
	KindEntityNotFound
	KindService
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindEntityNotFound:
		return "entity_not_found"
	case KindService:
		return "service"
	default:
		return "unknown"
	}
}

func NewValidationError(field string, message string, value any) *goerrors.Error {
	return goerrors.NewValidation(fmt.Sprintf("bankconnect: invalid %s", field), goerrors.FieldError{
		Field:   field,
		Message: message,
		Value:   value,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorInvalidArgument)
}

func NewAuthenticationError(message string, metadata map[string]any) *goerrors.Error {
	err := goerrors.New(message, goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(ErrorAuthenticationFailed)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func NewEntityNotFoundError(message string, metadata map[string]any) *goerrors.Error {
	err := goerrors.New(message, goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(ErrorEntityNotFound)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// NewServiceError builds a permanent remote failure. Retrying the same
// request is not expected to succeed.
func NewServiceError(message string, status int, metadata map[string]any) *goerrors.Error {
	if status <= 0 {
		status = http.StatusBadGateway
	}
	err := goerrors.New(message, goerrors.CategoryExternal).
		WithCode(status).
		WithTextCode(ErrorService).
		WithMetadata(map[string]any{metadataTransient: false})
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// NewTransientServiceError builds a retryable remote failure. The client never
// retries on its own; callers decide using IsTransient.
func NewTransientServiceError(source error, message string, status int, metadata map[string]any) *goerrors.RetryableError {
	if status <= 0 {
		status = http.StatusBadGateway
	}
	err := goerrors.NewRetryable(message, goerrors.CategoryExternal).
		WithCode(status).
		WithTextCode(ErrorServiceUnavailable).
		WithMetadata(map[string]any{metadataTransient: true})
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	err.Source = source
	return err
}

func newInternalError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ErrorInternal)
}

// KindOf classifies err without inspecting its message.
func KindOf(err error) ErrorKind {
	category, ok := errorCategory(err)
	if !ok {
		return KindUnknown
	}
	switch category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return KindValidation
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return KindAuthentication
	case goerrors.CategoryNotFound:
		return KindEntityNotFound
	case goerrors.CategoryExternal:
		return KindService
	default:
		return KindUnknown
	}
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }

func IsAuthentication(err error) bool { return KindOf(err) == KindAuthentication }

func IsEntityNotFound(err error) bool { return KindOf(err) == KindEntityNotFound }

func IsServiceError(err error) bool { return KindOf(err) == KindService }

// IsTransient reports whether err is a service failure the caller may retry.
func IsTransient(err error) bool {
	var retryable *goerrors.RetryableError
	if goerrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// ServiceDetails returns the code and message the service attached to a
// failure, when it provided any.
func ServiceDetails(err error) (code string, message string, ok bool) {
	metadata := errorMetadata(err)
	if len(metadata) == 0 {
		return "", "", false
	}
	code = metadataString(metadata, metadataServiceCode)
	message = metadataString(metadata, metadataServiceMessage)
	return code, message, code != "" || message != ""
}

func errorCategory(err error) (goerrors.Category, bool) {
	if err == nil {
		return "", false
	}
	var retryable *goerrors.RetryableError
	if goerrors.As(err, &retryable) && retryable.BaseError != nil {
		return retryable.Category, true
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.Category, true
	}
	return "", false
}

func errorMetadata(err error) map[string]any {
	if err == nil {
		return nil
	}
	var retryable *goerrors.RetryableError
	if goerrors.As(err, &retryable) && retryable.BaseError != nil {
		return retryable.Metadata
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.Metadata
	}
	return nil
}

func metadataString(metadata map[string]any, key string) string {
	if len(metadata) == 0 {
		return ""
	}
	value, ok := metadata[key]
	if !ok || value == nil {
		return ""
	}
	text := strings.TrimSpace(fmt.Sprint(value))
	if text == "<nil>" {
		return ""
	}
	return text
}
