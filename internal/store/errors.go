package store

import (
	"errors"
	"fmt"
)

// ErrNotFound reports a missing entry or category. Always a rejection.
var ErrNotFound = errors.New("not found")

// FailureKind classifies a failed remote write.
type FailureKind int

const (
	// KindConnectivity covers transport failures and remote outages. A
	// connectivity failure is the only thing that makes a write eligible
	// for the offline queue.
	KindConnectivity FailureKind = iota + 1

	// KindRejected covers permission and constraint failures. Queueing a
	// rejected write would waste space and mislead the user that it will
	// eventually sync, so it never happens.
	KindRejected
)

func (k FailureKind) String() string {
	switch k {
	case KindConnectivity:
		return "connectivity"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// WriteError wraps a remote-store failure with its classification.
type WriteError struct {
	Kind FailureKind
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("remote write %s: %v", e.Kind, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Connectivity wraps err as a connectivity failure.
func Connectivity(err error) error {
	return &WriteError{Kind: KindConnectivity, Err: err}
}

// Rejected wraps err as a rejection.
func Rejected(err error) error {
	return &WriteError{Kind: KindRejected, Err: err}
}

// IsConnectivity reports whether err is classified as a connectivity
// failure.
func IsConnectivity(err error) bool {
	var we *WriteError
	return errors.As(err, &we) && we.Kind == KindConnectivity
}

// IsRejected reports whether err is classified as a rejection.
func IsRejected(err error) bool {
	var we *WriteError
	return errors.As(err, &we) && we.Kind == KindRejected
}
