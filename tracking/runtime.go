// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tracking

import (
	"errors"
	"fmt"
)

// Runtime is a live connection to a tracking and compositor subsystem.
//
// A Runtime is not safe for concurrent use. The vr package drives it from a
// single goroutine.
type Runtime interface {
	// RecommendedRenderTargetSize returns the per-eye surface size the
	// compositor expects.
	RecommendedRenderTargetSize() (width, height uint32)

	// WaitGetPoses blocks until the compositor is ready for the next frame
	// and fills poses (len MaxDevices) with the predicted device poses.
	// This is the frame pacing point.
	WaitGetPoses(poses []RawPose) error

	// PollNextEvent returns the next pending event without blocking.
	PollNextEvent() (Event, bool)

	// IsDeviceConnected reports whether a device occupies slot.
	IsDeviceConnected(slot int) bool

	// DeviceClass returns the class of the device in slot.
	DeviceClass(slot int) DeviceClass

	// ControllerRole returns the hand assignment of the controller in slot.
	ControllerRole(slot int) ControllerRole

	// ControllerState returns the analog and digital state of the
	// controller in slot. ok is false when slot holds no controller.
	ControllerState(slot int) (state ControllerState, ok bool)

	// ProjectionMatrix returns the projection for eye using the given clip
	// planes.
	ProjectionMatrix(eye Eye, near, far float32) Matrix44

	// EyeToHeadTransform returns the offset from the head to eye.
	EyeToHeadTransform(eye Eye) Matrix34

	// Submit hands a finished eye surface to the compositor.
	Submit(eye Eye, tex Texture) error

	// PostPresentHandoff tells the compositor that both eyes of the
	// current frame were submitted and GPU work is complete.
	PostPresentHandoff()

	// TriggerHapticPulse vibrates the device in slot on the given axis for
	// durationMicros microseconds.
	TriggerHapticPulse(slot int, axis int, durationMicros uint16)

	// Shutdown releases the runtime. It must be called at most once.
	Shutdown() error
}

// EventBacklog is implemented by runtimes that can report how many events
// are queued and not yet polled.
type EventBacklog interface {
	PendingEvents() int
}

// Errors.
var (
	// ErrInit is the error every InitError matches with errors.Is.
	ErrInit = errors.New("tracking: initialization failed")

	// ErrNoDriverAvailable is wrapped in the *InitError InitDefault returns
	// when no drivers are registered or available on the current system.
	ErrNoDriverAvailable = errors.New("tracking: no driver available")

	// ErrShutdown is returned by calls made after Shutdown.
	ErrShutdown = errors.New("tracking: runtime shut down")
)

// InitError reports that a tracking runtime failed to start.
type InitError struct {
	// Driver is the registered driver name.
	Driver string

	// Code is the runtime's own error code, 0 if it has none.
	Code int

	// Err is the underlying cause, if any.
	Err error
}

func (e *InitError) Error() string {
	msg := "tracking: init"
	if e.Driver != "" {
		msg += " " + e.Driver
	}
	if e.Code != 0 {
		msg += fmt.Sprintf(" (code %d)", e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is ErrInit.
func (e *InitError) Is(target error) bool {
	return target == ErrInit
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// DriverNotFoundError indicates a named driver is not registered.
type DriverNotFoundError struct {
	Name string
}

func (e *DriverNotFoundError) Error() string {
	return "tracking: driver not found: " + e.Name
}

// DriverUnavailableError indicates a driver exists but is not available.
type DriverUnavailableError struct {
	Name string
}

func (e *DriverUnavailableError) Error() string {
	return "tracking: driver unavailable: " + e.Name
}
