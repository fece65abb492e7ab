// Package errors defines the coded errors returned by lineage's outer
// surfaces: query fetching, saved settings, sessions and configuration.
//
// The tree builder never fails. Everything around it reports failures as an
// [*Error] carrying a [Code], which the CLI prints and the HTTP server turns
// into a status via [Code.Status].
//
// # Codes
//
//   - INVALID_* for rejected input (400)
//   - *NOT_FOUND for missing files, users and sessions (404)
//   - NETWORK_ERROR, UPSTREAM_ERROR, UNAUTHORIZED for query service
//     failures (502), TIMEOUT (504) and RATE_LIMITED (429)
//   - INTERNAL_ERROR and UNSUPPORTED for everything else
//
// # Usage
//
//	if err := errors.ValidateQuery(q); err != nil {
//	    return err // INVALID_QUERY: query cannot be empty
//	}
//	if errors.Is(err, errors.ErrCodeSettingsNotFound) {
//	    // fall back to defaults
//	}
//	return errors.Wrap(errors.ErrCodeNetwork, err, "reach %s", host)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable error identifier. It is also the
// "code" field of API error responses.
type Code string

const (
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidQuery     Code = "INVALID_QUERY"
	ErrCodeInvalidHierarchy Code = "INVALID_HIERARCHY"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"
	ErrCodeInvalidUser      Code = "INVALID_USER"

	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeFileNotFound     Code = "FILE_NOT_FOUND"
	ErrCodeSessionNotFound  Code = "SESSION_NOT_FOUND"
	ErrCodeSettingsNotFound Code = "SETTINGS_NOT_FOUND"

	ErrCodeNetwork      Code = "NETWORK_ERROR"
	ErrCodeUpstream     Code = "UPSTREAM_ERROR"
	ErrCodeUnauthorized Code = "UNAUTHORIZED"
	ErrCodeTimeout      Code = "TIMEOUT"
	ErrCodeRateLimited  Code = "RATE_LIMITED"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

var statuses = map[Code]int{
	ErrCodeInvalidInput:     http.StatusBadRequest,
	ErrCodeInvalidQuery:     http.StatusBadRequest,
	ErrCodeInvalidHierarchy: http.StatusBadRequest,
	ErrCodeInvalidFormat:    http.StatusBadRequest,
	ErrCodeInvalidUser:      http.StatusBadRequest,

	ErrCodeNotFound:         http.StatusNotFound,
	ErrCodeFileNotFound:     http.StatusNotFound,
	ErrCodeSessionNotFound:  http.StatusNotFound,
	ErrCodeSettingsNotFound: http.StatusNotFound,

	ErrCodeNetwork:      http.StatusBadGateway,
	ErrCodeUpstream:     http.StatusBadGateway,
	ErrCodeUnauthorized: http.StatusBadGateway,
	ErrCodeTimeout:      http.StatusGatewayTimeout,
	ErrCodeRateLimited:  http.StatusTooManyRequests,

	ErrCodeInvalidConfig: http.StatusServiceUnavailable,
	ErrCodeUnsupported:   http.StatusServiceUnavailable,
}

// Status is the HTTP status the server answers with for c. Unknown codes
// map to 500.
func (c Code) Status() int {
	if s, ok := statuses[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error pairs a [Code] with a message and, optionally, the error that
// caused it.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error renders "CODE: message" followed by ": cause" when there is one.
func (e *Error) Error() string {
	s := string(e.Code) + ": " + e.Message
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an *Error with a formatted message and no cause.
func New(code Code, format string, args ...any) *Error {
	return Wrap(code, nil, format, args...)
}

// Wrap returns an *Error with a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// find returns the outermost *Error in err's chain.
func find(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Is reports whether the outermost *Error in err's chain has the given
// code. A nil or uncoded error never matches.
func Is(err error, code Code) bool {
	e, ok := find(err)
	return ok && e.Code == code
}

// GetCode returns the code of the outermost *Error in err's chain, or ""
// if there is none.
func GetCode(err error) Code {
	if e, ok := find(err); ok {
		return e.Code
	}
	return ""
}

// UserMessage is the message shown to API clients: the *Error message
// without code or cause, or err.Error() for uncoded errors.
func UserMessage(err error) string {
	if e, ok := find(err); ok {
		return e.Message
	}
	return err.Error()
}
