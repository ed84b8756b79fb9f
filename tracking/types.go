// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tracking

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// MaxDevices is the number of trackable device slots a runtime reports.
const MaxDevices = 64

// HMDSlot is the slot reserved for the head mounted display.
const HMDSlot = 0

// Eye selects one of the two stereo views.
type Eye int

const (
	// EyeLeft is the left eye view.
	EyeLeft Eye = iota

	// EyeRight is the right eye view.
	EyeRight
)

// EyeCount is the number of eyes a runtime renders.
const EyeCount = 2

// Valid reports whether e is EyeLeft or EyeRight.
func (e Eye) Valid() bool {
	return e == EyeLeft || e == EyeRight
}

// String returns "left", "right" or "eye(n)".
func (e Eye) String() string {
	switch e {
	case EyeLeft:
		return "left"
	case EyeRight:
		return "right"
	default:
		return fmt.Sprintf("eye(%d)", int(e))
	}
}

// Matrix34 is an affine transform in the runtime's row-major 3x4 layout.
// Element (row r, column c) is at index r*4+c. The implicit fourth row is
// [0 0 0 1].
type Matrix34 [12]float32

// Matrix44 is a projective transform in the runtime's row-major 4x4 layout.
// Element (row r, column c) is at index r*4+c.
type Matrix44 [16]float32

// Identity34 returns the identity affine transform.
func Identity34() Matrix34 {
	return Matrix34{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
	}
}

// Translation34 returns a transform that translates by (x, y, z).
func Translation34(x, y, z float32) Matrix34 {
	return Matrix34{
		1, 0, 0, x,
		0, 1, 0, y,
		0, 0, 1, z,
	}
}

// Vector3 is a raw 3-component vector as reported by the runtime.
type Vector3 [3]float32

// RawPose is one slot of the array filled by Runtime.WaitGetPoses.
type RawPose struct {
	// DeviceToAbsolute is the device transform in tracker space.
	DeviceToAbsolute Matrix34

	// Velocity is the linear velocity in m/s.
	Velocity Vector3

	// AngularVelocity is the angular velocity in rad/s.
	AngularVelocity Vector3

	// PoseValid is false when tracking was lost or the pose is outdated.
	PoseValid bool

	// DeviceConnected reports whether a device occupies the slot.
	DeviceConnected bool
}

// DeviceClass is the runtime's classification of a tracked device.
type DeviceClass int

// Device classes, numbered as the runtime reports them.
const (
	ClassInvalid DeviceClass = iota
	ClassHMD
	ClassController
	ClassGenericTracker
	ClassTrackingReference
	ClassDisplayRedirect
)

var deviceClassNames = [...]string{
	ClassInvalid:           "invalid",
	ClassHMD:               "hmd",
	ClassController:        "controller",
	ClassGenericTracker:    "generic-tracker",
	ClassTrackingReference: "tracking-reference",
	ClassDisplayRedirect:   "display-redirect",
}

func (c DeviceClass) String() string {
	if c >= 0 && int(c) < len(deviceClassNames) {
		return deviceClassNames[c]
	}
	return fmt.Sprintf("DeviceClass(%d)", int(c))
}

// ControllerRole is the runtime's hand assignment for a controller.
type ControllerRole int

// Controller roles, numbered as the runtime reports them.
const (
	RoleInvalid ControllerRole = iota
	RoleLeftHand
	RoleRightHand
)

func (r ControllerRole) String() string {
	switch r {
	case RoleLeftHand:
		return "left-hand"
	case RoleRightHand:
		return "right-hand"
	default:
		return "invalid"
	}
}

// EventType identifies a runtime event.
type EventType int

// Event types delivered through Runtime.PollNextEvent.
const (
	EventNone EventType = iota
	EventDeviceActivated
	EventDeviceDeactivated
	EventButtonPress
	EventButtonUnpress
	EventDeviceRoleChanged
)

func (t EventType) String() string {
	switch t {
	case EventDeviceActivated:
		return "device-activated"
	case EventDeviceDeactivated:
		return "device-deactivated"
	case EventButtonPress:
		return "button-press"
	case EventButtonUnpress:
		return "button-unpress"
	case EventDeviceRoleChanged:
		return "device-role-changed"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is a single hardware event.
type Event struct {
	Type EventType

	// Slot is the device the event refers to. Runtimes may report
	// out-of-range slots; consumers must check.
	Slot int

	// Button is the button id for press/unpress events.
	Button int

	// Class and Role snapshot the device on activation events, so a
	// device that is gone again by the time the event is polled can still
	// be reported. ClassInvalid means the runtime gave no snapshot and
	// consumers must query it.
	Class DeviceClass
	Role  ControllerRole
}

// Texture describes a rendered eye surface handed to the compositor.
type Texture struct {
	// Handle is the native GPU handle of the color texture, or 0 for
	// CPU-only surfaces.
	Handle uintptr

	// Width and Height are the surface dimensions in pixels.
	Width, Height int

	// Format is the color format of the surface.
	Format gputypes.TextureFormat

	// Pixels is the CPU mirror of the surface in RGBA order, if any.
	Pixels []byte
}

// AxisCount is the number of analog axes a controller reports.
const AxisCount = 5

// Axis is one analog input, each component in [-1, 1].
type Axis struct {
	X, Y float32
}

// ControllerState is the polled analog and digital state of a controller.
type ControllerState struct {
	PacketNum uint32
	Pressed   uint64
	Touched   uint64
	Axes      [AxisCount]Axis
}
