package nmc

import (
	"errors"
	"fmt"
)

// TransportError reports a failed round trip: timeout, connection failure,
// non-success status or an open circuit breaker.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("nmc transport: %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("nmc transport: %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedPayloadError reports a body that cannot be turned into a snapshot or forecast.
type MalformedPayloadError struct {
	Field string
	Err   error
}

func (e *MalformedPayloadError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("nmc malformed payload: %v", e.Err)
	}
	return fmt.Sprintf("nmc malformed payload: %s: %v", e.Field, e.Err)
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }

var (
	errMissing    = errors.New("required field is missing")
	errWrongType  = errors.New("field has unexpected type")
	errMisaligned = errors.New("temperature chart too short for forecast offset")
)

func malformed(field string, err error) *MalformedPayloadError {
	return &MalformedPayloadError{Field: field, Err: err}
}

// IsTransport reports whether err carries a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsMalformed reports whether err carries a *MalformedPayloadError.
func IsMalformed(err error) bool {
	var me *MalformedPayloadError
	return errors.As(err, &me)
}
