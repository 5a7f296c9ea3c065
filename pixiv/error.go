package pixiv

import (
	"errors"
	"fmt"
)

// Error is implemented by every error the pixiv client packages return, apart
// from the caller's own context errors. The concrete type is one of
// *TransportError, *DecodeError, *IOError or *APIError.
type Error interface {
	error
	pixivError()
}

// Origin names the upstream surface that reported an APIError.
type Origin uint8

const (
	OriginOAuth Origin = iota + 1
	OriginAppAPI
)

func (o Origin) String() string {
	switch o {
	case OriginOAuth:
		return "OAuth"
	case OriginAppAPI:
		return "App-API"
	default:
		return "unknown"
	}
}

// APIError is a failure the upstream service reported explicitly.
type APIError struct {
	Origin  Origin
	Code    ErrorCode
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s error: %s (%s)", e.Origin, e.Message, e.Code)
}

func (*APIError) pixivError() {}

// TransportError is a failure to complete an HTTP exchange: network, TLS and
// DNS errors, timeouts of the transport itself, and responses whose status is
// not handled by API error classification. StatusCode is zero unless the
// failure is a status failure.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport error: unexpected status code %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (*TransportError) pixivError() {}

// DecodeError is returned when a response body does not have the expected
// shape.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (*DecodeError) pixivError() {}

// IOError is a local I/O failure, such as a download sink rejecting a write or
// the random source failing.
type IOError struct {
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error: %v", e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func (*IOError) pixivError() {}

// IsAPIError reports whether err carries an APIError with the given code.
func IsAPIError(err error, code ErrorCode) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
