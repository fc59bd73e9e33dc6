package daemon

import (
	"errors"
	"net/http"
)

type ServiceErrorKind string

const (
	ServiceErrorInvalid     ServiceErrorKind = "invalid"
	ServiceErrorNotFound    ServiceErrorKind = "not_found"
	ServiceErrorUnavailable ServiceErrorKind = "unavailable"
	ServiceErrorConflict    ServiceErrorKind = "conflict"
)

var kindStatus = map[ServiceErrorKind]int{
	ServiceErrorInvalid:     http.StatusBadRequest,
	ServiceErrorNotFound:    http.StatusNotFound,
	ServiceErrorUnavailable: http.StatusServiceUnavailable,
	ServiceErrorConflict:    http.StatusConflict,
}

// HTTPStatus maps the kind onto the API's status codes. Unclassified
// failures are 500s.
func (k ServiceErrorKind) HTTPStatus() int {
	if status, ok := kindStatus[k]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ServiceError is what message channels and tray actions return when a
// request is refused. Message is safe to show to the caller; Err is the
// underlying cause, if any.
type ServiceError struct {
	Kind    ServiceErrorKind
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ErrorKind finds the ServiceError in err's chain. Plain errors have no
// kind.
func ErrorKind(err error) ServiceErrorKind {
	if svcErr, ok := asServiceError(err); ok {
		return svcErr.Kind
	}
	return ""
}

func asServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) || svcErr == nil {
		return nil, false
	}
	return svcErr, true
}

func newServiceError(kind ServiceErrorKind) func(string, error) *ServiceError {
	return func(message string, err error) *ServiceError {
		return &ServiceError{Kind: kind, Message: message, Err: err}
	}
}

var (
	invalidError     = newServiceError(ServiceErrorInvalid)
	notFoundError    = newServiceError(ServiceErrorNotFound)
	unavailableError = newServiceError(ServiceErrorUnavailable)
	conflictError    = newServiceError(ServiceErrorConflict)
)
