package lock

import (
	"errors"
	"fmt"
)

// ErrKind classifies a LockError the way the underlying firmware or
// transport reported it, independent of which protocol variant produced it.
type ErrKind string

const (
	ErrNotConnected         ErrKind = "not_connected"
	ErrConnectionFailed     ErrKind = "connection_failed"
	ErrAuthenticationFailed ErrKind = "authentication_failed"
	ErrInvalidCredentials   ErrKind = "invalid_credentials"
	ErrCommandFailed        ErrKind = "command_failed"
	ErrTimeout              ErrKind = "timeout"
	ErrDeviceNotFound       ErrKind = "device_not_found"
	ErrPermissionDenied     ErrKind = "permission_denied"
	ErrUnsupportedProtocol  ErrKind = "unsupported_protocol"
	ErrDecoding             ErrKind = "decoding"
)

// LockError is the single error type returned across the session's exported
// boundary. Op names the high-level operation ("lock", "unlock",
// "query_lock_status", ...); Code carries a protocol result/status byte when
// one is available (CommandFailed only); Err is the wrapped cause, if any.
type LockError struct {
	Kind ErrKind
	Op   string
	Code int // -1 when not applicable
	Err  error
}

func (e *LockError) Error() string {
	if e == nil {
		return "lock: <nil>"
	}
	if e.Code >= 0 {
		if e.Err != nil {
			return fmt.Sprintf("lock: %s: %s (code=0x%02X): %v", e.Op, e.Kind, e.Code, e.Err)
		}
		return fmt.Sprintf("lock: %s: %s (code=0x%02X)", e.Op, e.Kind, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("lock: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("lock: %s: %s", e.Op, e.Kind)
}

func (e *LockError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// newErr builds a LockError with no associated protocol code.
func newErr(op string, kind ErrKind, cause error) *LockError {
	return &LockError{Kind: kind, Op: op, Code: -1, Err: cause}
}

// newCodeErr builds a LockError carrying a protocol result/status byte.
func newCodeErr(op string, kind ErrKind, code int, cause error) *LockError {
	return &LockError{Kind: kind, Op: op, Code: code, Err: cause}
}

// IsTimeout reports whether err is a LockError of kind Timeout.
func IsTimeout(err error) bool {
	var le *LockError
	return errors.As(err, &le) && le.Kind == ErrTimeout
}

// IsAuthenticationFailed reports whether err is a LockError of kind
// AuthenticationFailed.
func IsAuthenticationFailed(err error) bool {
	var le *LockError
	return errors.As(err, &le) && le.Kind == ErrAuthenticationFailed
}

// IsNotConnected reports whether err is a LockError of kind NotConnected.
func IsNotConnected(err error) bool {
	var le *LockError
	return errors.As(err, &le) && le.Kind == ErrNotConnected
}

// IsCommandFailed reports whether err is a LockError of kind CommandFailed,
// and if so returns the protocol code that was attached to it (or -1).
func IsCommandFailed(err error) (code int, ok bool) {
	var le *LockError
	if errors.As(err, &le) && le.Kind == ErrCommandFailed {
		return le.Code, true
	}
	return -1, false
}

// IsInvalidCredentials reports whether err is a LockError of kind
// InvalidCredentials.
func IsInvalidCredentials(err error) bool {
	var le *LockError
	return errors.As(err, &le) && le.Kind == ErrInvalidCredentials
}

// IsDecoding reports whether err is a LockError of kind Decoding.
func IsDecoding(err error) bool {
	var le *LockError
	return errors.As(err, &le) && le.Kind == ErrDecoding
}
