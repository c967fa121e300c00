package predictor

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed prediction request for operators. Users only
// ever see one generic message regardless of kind.
type ErrorKind string

const (
	KindStatus    ErrorKind = "status"
	KindTransport ErrorKind = "transport"
	KindTimeout   ErrorKind = "timeout"
	KindDecode    ErrorKind = "decode"
)

// RequestError is returned for every failed prediction request.
type RequestError struct {
	Kind       ErrorKind
	StatusCode int
	// Body is a truncated copy of a non-2xx response body.
	Body string
	Err  error
}

func (e *RequestError) Error() string {
	switch {
	case e.Kind == KindStatus:
		return fmt.Sprintf("prediction request: unexpected status %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("prediction request (%s): %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("prediction request (%s)", e.Kind)
	}
}

func (e *RequestError) Unwrap() error { return e.Err }

// KindOf returns the ErrorKind carried by err, or KindTransport when err is
// not a RequestError.
func KindOf(err error) ErrorKind {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindTransport
}

const maxErrorBody = 512

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}
