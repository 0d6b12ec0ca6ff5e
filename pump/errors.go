// SPDX-License-Identifier: EPL-2.0

package pump

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the pump matches exactly one of these
// with errors.Is.
var (
	// ErrResource reports an allocation or engine-open failure during New.
	ErrResource = errors.New("resource error")

	// ErrRead reports a byte source failure other than end of stream.
	ErrRead = errors.New("read error")

	// ErrFill reports that the engine rejected the staged bytes. Fatal.
	ErrFill = errors.New("fill error")

	// ErrDecode reports a frame that failed to decode. Non-fatal unless the
	// pump stalls.
	ErrDecode = errors.New("decode error")

	// ErrSinkWrite reports that the sink rejected a frame.
	ErrSinkWrite = errors.New("sink write error")

	// ErrTeardown reports one or more failures while releasing resources.
	ErrTeardown = errors.New("teardown error")
)

// Engine status errors. Engines return these (possibly wrapped) from
// DecodeFrame and Open.
var (
	// ErrNotEnoughData means the engine holds no complete frame yet.
	ErrNotEnoughData = errors.New("not enough data for a complete frame")

	// ErrEndOfStream means a flush found no further frame to emit.
	ErrEndOfStream = errors.New("end of stream")

	// ErrOutputTooSmall means the output buffer cannot hold a decoded frame.
	ErrOutputTooSmall = errors.New("output buffer too small")

	// ErrUnsupportedTransport means the engine cannot handle the requested
	// transport or layer count.
	ErrUnsupportedTransport = errors.New("unsupported transport")
)

// Pump misuse and guard errors.
var (
	ErrNilSource  = errors.New("nil byte source")
	ErrNilSink    = errors.New("nil sink")
	ErrNilOpener  = errors.New("nil engine opener")
	ErrNilEngine  = errors.New("engine opener returned nil engine")
	ErrClosed     = errors.New("pump is closed")
	ErrStalled    = errors.New("engine made no progress")
	ErrBadFrame   = errors.New("engine reported an invalid frame size")
	ErrBadConfig  = errors.New("invalid pump configuration")
	ErrAllocation = errors.New("buffer allocation failed")
)

// Error is the concrete error type returned by the pump. Kind is one of the
// error kinds above; Err is the underlying cause.
type Error struct {
	Kind      error
	Iteration int // loop iteration the error occurred in, 0 for setup/teardown
	Err       error
}

func (e *Error) Error() string {
	if e.Iteration > 0 {
		return fmt.Sprintf("pump: %v at iteration %d: %v", e.Kind, e.Iteration, e.Err)
	}
	return fmt.Sprintf("pump: %v: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the error's kind.
func (e *Error) Is(target error) bool { return target == e.Kind }

func newError(kind error, iteration int, err error) *Error {
	return &Error{Kind: kind, Iteration: iteration, Err: err}
}

// IsFatal reports whether err ends a pump run. Decode errors are the only
// recoverable kind, except for a stall.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDecode) && !errors.Is(err, ErrStalled) {
		return false
	}
	return true
}
