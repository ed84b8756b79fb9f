package vr

import (
	"fmt"
	"time"

	"github.com/gogpu/vr/tracking"
)

// DeviceType classifies a tracked device.
type DeviceType int

const (
	// DeviceUnknown is a slot class this layer does not model.
	DeviceUnknown DeviceType = iota
	DeviceHMD
	DeviceController
	DeviceBaseStation
	DeviceGeneric
)

func (t DeviceType) String() string {
	switch t {
	case DeviceHMD:
		return "hmd"
	case DeviceController:
		return "controller"
	case DeviceBaseStation:
		return "base-station"
	case DeviceGeneric:
		return "generic"
	default:
		return "unknown"
	}
}

func deviceTypeFromClass(c tracking.DeviceClass) DeviceType {
	switch c {
	case tracking.ClassHMD:
		return DeviceHMD
	case tracking.ClassController:
		return DeviceController
	case tracking.ClassTrackingReference:
		return DeviceBaseStation
	case tracking.ClassGenericTracker:
		return DeviceGeneric
	default:
		return DeviceUnknown
	}
}

// Role is the hand a controller is assigned to.
//
// Roles are advisory. A runtime may report RoleUnknown for a controller
// that connected alone and keep it after a second controller arrives, and
// some hardware assigns hands by connection order. Watch for
// EventRoleChanged rather than relying on a role seen at connect time.
type Role int

const (
	RoleUnknown Role = iota
	RoleLeftHand
	RoleRightHand
)

func (r Role) String() string {
	switch r {
	case RoleLeftHand:
		return "left-hand"
	case RoleRightHand:
		return "right-hand"
	default:
		return "unknown"
	}
}

func roleFromTracking(r tracking.ControllerRole) Role {
	switch r {
	case tracking.RoleLeftHand:
		return RoleLeftHand
	case tracking.RoleRightHand:
		return RoleRightHand
	default:
		return RoleUnknown
	}
}

// Well-known controller button ids. Ids 32 and up are click aliases of the
// analog axes.
const (
	ButtonSystem          = 0
	ButtonApplicationMenu = 1
	ButtonGrip            = 2
	ButtonDPadLeft        = 3
	ButtonDPadUp          = 4
	ButtonDPadRight       = 5
	ButtonDPadDown        = 6
	ButtonA               = 7
	ButtonProximitySensor = 31
	ButtonAxis0           = 32
	ButtonAxis1           = 33
	ButtonAxis2           = 34
	ButtonAxis3           = 35
	ButtonAxis4           = 36

	ButtonSteamVRTouchpad = ButtonAxis0
	ButtonSteamVRTrigger  = ButtonAxis1
	ButtonDashboardBack   = ButtonGrip
)

// MaxButtons is the number of button ids a device can report.
const MaxButtons = 64

// Controller axis ids for Device.Axis.
const (
	AxisTouchpad = 0
	AxisTrigger  = 1
	AxisCount    = tracking.AxisCount
)

// Space selects the coordinate system of device accessors.
type Space int

const (
	// SpaceTracker is the runtime's own tracking space.
	SpaceTracker Space = iota

	// SpaceWorld applies the context's tracker-to-world transform.
	SpaceWorld
)

// hapticInterval is the minimum spacing of haptic pulses; pulses sent
// sooner are dropped, matching what hardware does.
const hapticInterval = 5 * time.Millisecond

// maxHapticMicros is the longest pulse a single call can request.
const maxHapticMicros = 3999

// Device is a connected tracked device bound to a slot.
//
// A Device stays usable after it disconnects: listeners receive it with
// EventDisconnected and may still read its identity and last pose.
type Device struct {
	ctx       *Context
	slot      int
	typ       DeviceType
	role      Role
	buttons   uint64
	lastPulse time.Time
}

// Slot returns the device's slot index.
func (d *Device) Slot() int { return d.slot }

// Type returns the device classification.
func (d *Device) Type() DeviceType { return d.typ }

// Role returns the advisory hand assignment. Only controllers have one.
func (d *Device) Role() Role { return d.role }

// Pose returns the device's latest pose.
func (d *Device) Pose() DevicePose { return d.ctx.poses[d.slot] }

// IsConnected asks the runtime whether the slot is still occupied.
func (d *Device) IsConnected() bool {
	if d.ctx.closed {
		return false
	}
	return d.ctx.rt.IsDeviceConnected(d.slot)
}

// Buttons returns the pressed-button bitmask.
func (d *Device) Buttons() uint64 { return d.buttons }

// IsButtonPressed reports whether button is held. Ids outside [0, 64)
// report false.
func (d *Device) IsButtonPressed(button int) bool {
	if button < 0 || button >= MaxButtons {
		return false
	}
	return d.buttons&(1<<uint(button)) != 0
}

func (d *Device) setButton(button int, pressed bool) {
	if pressed {
		d.buttons |= 1 << uint(button)
	} else {
		d.buttons &^= 1 << uint(button)
	}
}

// Axis returns the position of an analog axis in [-1, 1]. Axes outside
// [0, AxisCount) and devices without controller state report 0, 0.
func (d *Device) Axis(axis int) (x, y float32) {
	if axis < 0 || axis >= AxisCount || d.ctx.closed {
		return 0, 0
	}
	st, ok := d.ctx.rt.ControllerState(d.slot)
	if !ok {
		return 0, 0
	}
	return st.Axes[axis].X, st.Axes[axis].Y
}

// TriggerHapticPulse vibrates the device for duration, rounded up to whole
// microseconds and clamped to just under 4ms. Pulses within 5ms of the
// previous one are dropped; the result reports whether the pulse was sent.
func (d *Device) TriggerHapticPulse(duration time.Duration) bool {
	if d.ctx.closed || duration <= 0 {
		return false
	}
	now := d.ctx.now()
	if !d.lastPulse.IsZero() && now.Sub(d.lastPulse) < hapticInterval {
		return false
	}
	d.lastPulse = now
	micros := int64(maxHapticMicros)
	if duration < maxHapticMicros*time.Microsecond {
		micros = int64((duration + time.Microsecond - 1) / time.Microsecond)
	}
	d.ctx.rt.TriggerHapticPulse(d.slot, 0, uint16(micros)) //nolint:gosec // G115: clamped above
	return true
}

// Transform returns the device pose in the given space.
func (d *Device) Transform(space Space) Matrix4 {
	m := d.ctx.poses[d.slot].Transform
	if space == SpaceWorld {
		m = d.ctx.trackerToWorld.Mul(m)
	}
	return m
}

// Position returns the device origin.
func (d *Device) Position(space Space) Vec3 {
	return d.Transform(space).Translation()
}

// Direction returns the unit forward vector (-Z of the device).
func (d *Device) Direction(space Space) Vec3 {
	return d.Transform(space).TransformDirection(Vec3{Z: -1}).Normalize()
}

// Up returns the unit up vector (+Y of the device).
func (d *Device) Up(space Space) Vec3 {
	return d.Transform(space).TransformDirection(Vec3{Y: 1}).Normalize()
}

// Right returns the unit right vector (+X of the device).
func (d *Device) Right(space Space) Vec3 {
	return d.Transform(space).TransformDirection(Vec3{X: 1}).Normalize()
}

func (d *Device) String() string {
	return fmt.Sprintf("Device[slot=%d, type=%s, role=%s]", d.slot, d.typ, d.role)
}
