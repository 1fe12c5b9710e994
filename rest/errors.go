package rest

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidEncoding is the cause of a TransportError raised when a response
// body is not valid UTF-8.
var ErrInvalidEncoding = errors.New("response body is not valid UTF-8")

// TransportError reports a failure before a usable response was obtained:
// the request could not be built or sent (Op "request"), the body could not
// be read (Op "read"), or the body was not valid UTF-8 (Op "decode").
type TransportError struct {
	Op  string
	URL string
	Err error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("rest: %s %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was caused by an expired deadline.
func (e *TransportError) Timeout() bool {
	return isTimeout(e.Err)
}

// HTTPError is a completed exchange whose status code falls outside the
// 2xx range. It carries the full raw body and the response headers. Known
// status codes are wrapped in a more specific type (NotFoundError etc.);
// use errors.As with *HTTPError to handle all of them uniformly.
type HTTPError struct {
	StatusCode int
	Body       string
	Headers    http.Header
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	return fmt.Sprintf("rest: unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// BadRequestError is returned for status 400.
type BadRequestError struct{ *HTTPError }

// Unwrap returns the underlying HTTPError.
func (e *BadRequestError) Unwrap() error { return e.HTTPError }

// UnauthorizedError is returned for status 401.
type UnauthorizedError struct{ *HTTPError }

// Unwrap returns the underlying HTTPError.
func (e *UnauthorizedError) Unwrap() error { return e.HTTPError }

// ForbiddenError is returned for status 403.
type ForbiddenError struct{ *HTTPError }

// Unwrap returns the underlying HTTPError.
func (e *ForbiddenError) Unwrap() error { return e.HTTPError }

// NotFoundError is returned for status 404.
type NotFoundError struct{ *HTTPError }

// Unwrap returns the underlying HTTPError.
func (e *NotFoundError) Unwrap() error { return e.HTTPError }

// MethodNotAllowedError is returned for status 405.
type MethodNotAllowedError struct{ *HTTPError }

// Unwrap returns the underlying HTTPError.
func (e *MethodNotAllowedError) Unwrap() error { return e.HTTPError }

// NotAcceptableError is returned for status 406.
type NotAcceptableError struct{ *HTTPError }

// Unwrap returns the underlying HTTPError.
func (e *NotAcceptableError) Unwrap() error { return e.HTTPError }

// PayloadTooLargeError is returned for status 413.
type PayloadTooLargeError struct{ *HTTPError }

// Unwrap returns the underlying HTTPError.
func (e *PayloadTooLargeError) Unwrap() error { return e.HTTPError }

// UnsupportedMediaTypeError is returned for status 415.
type UnsupportedMediaTypeError struct{ *HTTPError }

// Unwrap returns the underlying HTTPError.
func (e *UnsupportedMediaTypeError) Unwrap() error { return e.HTTPError }

// TooManyRequestsError is returned for status 429.
type TooManyRequestsError struct{ *HTTPError }

// Unwrap returns the underlying HTTPError.
func (e *TooManyRequestsError) Unwrap() error { return e.HTTPError }

// ServerError is returned for any 5xx status.
type ServerError struct{ *HTTPError }

// Unwrap returns the underlying HTTPError.
func (e *ServerError) Unwrap() error { return e.HTTPError }

// classify maps a non-2xx exchange to its specific error kind. Status codes
// outside the table are returned as the bare *HTTPError.
func classify(httpErr *HTTPError) error {
	switch httpErr.StatusCode {
	case http.StatusBadRequest:
		return &BadRequestError{httpErr}
	case http.StatusUnauthorized:
		return &UnauthorizedError{httpErr}
	case http.StatusForbidden:
		return &ForbiddenError{httpErr}
	case http.StatusNotFound:
		return &NotFoundError{httpErr}
	case http.StatusMethodNotAllowed:
		return &MethodNotAllowedError{httpErr}
	case http.StatusNotAcceptable:
		return &NotAcceptableError{httpErr}
	case http.StatusRequestEntityTooLarge:
		return &PayloadTooLargeError{httpErr}
	case http.StatusUnsupportedMediaType:
		return &UnsupportedMediaTypeError{httpErr}
	case http.StatusTooManyRequests:
		return &TooManyRequestsError{httpErr}
	}
	if httpErr.StatusCode >= 500 && httpErr.StatusCode < 600 {
		return &ServerError{httpErr}
	}
	return httpErr
}

// ParseError reports a response body that could not be decoded as JSON.
type ParseError struct {
	Err error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("rest: parsing response body: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}
