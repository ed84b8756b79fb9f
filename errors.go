package vr

import (
	"errors"
	"fmt"

	"github.com/gogpu/vr/tracking"
)

// Sentinel errors.
var (
	// ErrProtocol is matched by every *ProtocolError.
	ErrProtocol = errors.New("vr: lifecycle call out of order")

	// ErrIndex is matched by every *IndexError.
	ErrIndex = errors.New("vr: index out of range")

	// ErrClosed is returned by calls on a closed Context, including a
	// second Close.
	ErrClosed = errors.New("vr: context closed")

	// ErrContextExists is returned by New while another Context is open.
	ErrContextExists = errors.New("vr: a context is already open")

	// ErrSurface is returned by New when an eye surface cannot be created.
	ErrSurface = errors.New("vr: eye surface creation failed")

	// ErrInit is matched by every *InitError.
	ErrInit = tracking.ErrInit
)

// InitError reports that the tracking subsystem failed to start.
type InitError = tracking.InitError

// ProtocolError reports a lifecycle call made in the wrong state. It is
// always a programming error.
type ProtocolError struct {
	// Op is the call that was rejected.
	Op string

	// State is the state the context was in.
	State State

	// Reason says what the call required.
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("vr: %s: %s (state %s)", e.Op, e.Reason, e.State)
}

// Is reports whether target is ErrProtocol.
func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

// IndexError reports a device slot or eye outside its fixed range.
type IndexError struct {
	// Kind is "slot" or "eye".
	Kind string

	Index int

	// Limit is the exclusive upper bound.
	Limit int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("vr: %s index %d out of range [0, %d)", e.Kind, e.Index, e.Limit)
}

// Is reports whether target is ErrIndex.
func (e *IndexError) Is(target error) bool {
	return target == ErrIndex
}
