// Package adberr defines the error taxonomy shared by the framing socket,
// the sync codec and the daemon supervisor.
//
// Errors are plain wrapped stdlib errors rather than a stack-trace-carrying
// framework: every kind is a sentinel or a small value type that satisfies
// errors.Is/errors.As, composed with fmt.Errorf("...: %w", ...) the way the
// rest of this client wraps I/O failures.
package adberr

import (
	"errors"
	"fmt"
)

// Sentinel error kinds, matched with errors.Is. Where an I/O timeout is
// wrapped in ErrTimeout, the original net/os error is kept only as text in
// the message, not as a wrapped error.
var (
	// ErrEOF marks a send or receive that ended mid-message.
	ErrEOF = errors.New("adb: channel EOF")
	// ErrTimeout marks an OS-level I/O timeout.
	ErrTimeout = errors.New("adb: i/o timeout")
	// ErrProtocol marks an unexpected tag, bad length, or malformed hex digit.
	ErrProtocol = errors.New("adb: protocol error")
	// ErrVersionUnknown is raised when `adb version` output has no parseable line.
	ErrVersionUnknown = errors.New("adb: version unknown")
	// ErrUnsupportedPlatform is raised when the supervisor is constructed on
	// an OS with no known adb executable naming convention.
	ErrUnsupportedPlatform = errors.New("adb: unsupported platform")
)

// AdbFail represents a daemon `FAIL <msg>` response. The socket remains open;
// callers may issue the next request.
type AdbFail struct {
	Message string
}

func (e *AdbFail) Error() string { return fmt.Sprintf("adb: daemon replied FAIL: %s", e.Message) }

// DeviceNotFound is a data-driven refinement of AdbFail raised when binding
// a transport to a serial the daemon doesn't know about.
type DeviceNotFound struct {
	Serial string
}

func (e *DeviceNotFound) Error() string {
	return fmt.Sprintf("adb: device not found: %s", e.Serial)
}

func (e *DeviceNotFound) Unwrap() error { return &AdbFail{Message: "device not found"} }

// VersionTooOld is raised when the supervisor's local adb binary reports a
// version strictly lower than the configured minimum.
type VersionTooOld struct {
	Found, Required [3]int
}

func (e *VersionTooOld) Error() string {
	return fmt.Sprintf("adb: version %d.%d.%d is older than required %d.%d.%d",
		e.Found[0], e.Found[1], e.Found[2], e.Required[0], e.Required[1], e.Required[2])
}

// ProcessFailed is raised when a supervisor-invoked command exits non-zero.
type ProcessFailed struct {
	Code    int
	Command string
}

func (e *ProcessFailed) Error() string {
	return fmt.Sprintf("adb: command %q exited with code %d", e.Command, e.Code)
}

// Protocol wraps a malformed-wire-data error with contextual detail.
func Protocol(format string, a ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrProtocol}, a...)...)
}

// IsRecoverable reports whether the caller may keep using the socket that
// produced err. AdbFail and DeviceNotFound leave the socket open; every
// other kind in this taxonomy requires the caller to close it.
func IsRecoverable(err error) bool {
	var fail *AdbFail
	if errors.As(err, &fail) {
		return true
	}
	var dnf *DeviceNotFound
	return errors.As(err, &dnf)
}
