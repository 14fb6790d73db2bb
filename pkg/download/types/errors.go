package types

import (
	"errors"
	"fmt"
)

// Kind classifies why a call to a daemon failed.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuthentication
	KindConnectivity
	KindTlsFailure
	KindTransientTimeout
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindConnectivity:
		return "connectivity"
	case KindTlsFailure:
		return "tls_failure"
	case KindTransientTimeout:
		return "transient_timeout"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching against a *ClientError.
var (
	ErrAuthentication   = errors.New("authentication failed")
	ErrConnectivity     = errors.New("daemon unreachable")
	ErrTlsFailure       = errors.New("tls handshake failed")
	ErrTransientTimeout = errors.New("request timed out")
	ErrUnknown          = errors.New("unknown daemon error")
)

func (k Kind) sentinel() error {
	switch k {
	case KindAuthentication:
		return ErrAuthentication
	case KindConnectivity:
		return ErrConnectivity
	case KindTlsFailure:
		return ErrTlsFailure
	case KindTransientTimeout:
		return ErrTransientTimeout
	default:
		return ErrUnknown
	}
}

// ClientError is a classified failure. The kind is decided once, where the
// failure is first observed, and is never re-derived by upper layers.
type ClientError struct {
	Kind    Kind
	Message string
	Code    int // daemon error code, 0 for transport failures
	Err     error
}

func (e *ClientError) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

func (e *ClientError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// Detail is the most specific human readable message available.
func (e *ClientError) Detail() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func NewError(kind Kind, message string, err error) *ClientError {
	return &ClientError{Kind: kind, Message: message, Err: err}
}

// KindOf returns the classification of err, KindUnknown when err is not a *ClientError.
func KindOf(err error) Kind {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}
