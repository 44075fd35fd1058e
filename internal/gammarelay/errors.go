package gammarelay

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with [errors.Is].
var (
	// ErrConnection is matched by [ConnectionError].
	ErrConnection = errors.New("session bus unavailable")

	// ErrCallFailure is matched by a [RemoteError] of kind [CallFailure].
	ErrCallFailure = errors.New("remote call failed")

	// ErrDecodeFailure is matched by a [RemoteError] of kind [DecodeFailure].
	ErrDecodeFailure = errors.New("unexpected reply type")
)

// ConnectionError is returned when no session bus is reachable.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("gammarelay: connect: %s: %v", ErrConnection, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

type RemoteErrorKind int

const (
	// The method call was rejected: service not running, unknown object,
	// interface or property.
	CallFailure RemoteErrorKind = iota

	// The reply did not carry a value of the expected type.
	DecodeFailure
)

func (k RemoteErrorKind) String() string {
	switch k {
	case CallFailure:
		return ErrCallFailure.Error()
	case DecodeFailure:
		return ErrDecodeFailure.Error()
	default:
		return fmt.Sprintf("RemoteErrorKind(%d)", int(k))
	}
}

// RemoteError describes a failed property access.
type RemoteError struct {
	Kind RemoteErrorKind

	// Method is either "Get" or "Set".
	Method string

	// Property is the accessed property, such as "Temperature".
	Property string

	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("gammarelay: %s %s: %s: %v", e.Method, e.Property, e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func (e *RemoteError) Is(target error) bool {
	switch e.Kind {
	case CallFailure:
		return target == ErrCallFailure
	case DecodeFailure:
		return target == ErrDecodeFailure
	}
	return false
}

// remoteError classifies err returned by a [Conn]. Errors that are already a
// *RemoteError keep their kind, everything else is a call failure.
func remoteError(method, property string, err error) error {
	var re *RemoteError
	if errors.As(err, &re) {
		return err
	}

	return &RemoteError{
		Kind:     CallFailure,
		Method:   method,
		Property: property,
		Err:      err,
	}
}
