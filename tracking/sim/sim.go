// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/vr/internal/logging"
	"github.com/gogpu/vr/tracking"
)

// DriverName is the name the simulator registers under.
const DriverName = "sim"

// DriverPriority ranks the simulator below any hardware driver.
const DriverPriority = 10

func init() {
	tracking.Register(DriverName, DriverPriority, func() (tracking.Runtime, error) {
		return New(DefaultConfig())
	}, nil)
}

// Frustum holds the tangents of the half angles of one eye's view volume.
// Left and Bottom are negative, Right and Top positive.
type Frustum struct {
	Left, Right, Bottom, Top float32
}

// DeviceSpec describes a device that is already connected when the
// simulator starts. Such devices produce no activation event.
type DeviceSpec struct {
	Slot  int
	Class tracking.DeviceClass
	Role  tracking.ControllerRole
	Pose  tracking.Matrix34
}

// Config configures a simulated runtime.
type Config struct {
	// Width and Height are the recommended per-eye render size.
	Width, Height uint32

	// RefreshRate paces WaitGetPoses in Hz. Zero disables pacing.
	RefreshRate float64

	// IPD is the interpupillary distance in meters.
	IPD float32

	// LeftFrustum is the left eye's view volume. The right eye mirrors it.
	LeftFrustum Frustum

	// Devices are connected before the first frame.
	Devices []DeviceSpec

	// Logger receives driver diagnostics. Nil uses the shared vr logger.
	Logger *slog.Logger
}

// DefaultConfig returns a headset at standing height with two base
// stations and two controllers, refreshing at 90 Hz.
func DefaultConfig() Config {
	return Config{
		Width:       1512,
		Height:      1680,
		RefreshRate: 90,
		IPD:         0.064,
		LeftFrustum: Frustum{Left: -1.39, Right: 1.24, Bottom: -1.47, Top: 1.46},
		Devices: []DeviceSpec{
			{Slot: tracking.HMDSlot, Class: tracking.ClassHMD, Pose: tracking.Translation34(0, 1.7, 0)},
			{Slot: 1, Class: tracking.ClassTrackingReference, Pose: tracking.Translation34(-2, 2.2, -2)},
			{Slot: 2, Class: tracking.ClassTrackingReference, Pose: tracking.Translation34(2, 2.2, 2)},
			{Slot: 3, Class: tracking.ClassController, Role: tracking.RoleRightHand, Pose: tracking.Translation34(0.25, 1.1, -0.3)},
			{Slot: 4, Class: tracking.ClassController, Role: tracking.RoleLeftHand, Pose: tracking.Translation34(-0.25, 1.1, -0.3)},
		},
	}
}

// Submission records one Submit call.
type Submission struct {
	Frame   uint64
	Eye     tracking.Eye
	Texture tracking.Texture
}

// Pulse records one TriggerHapticPulse call.
type Pulse struct {
	Slot           int
	Axis           int
	DurationMicros uint16
}

type device struct {
	connected bool
	class     tracking.DeviceClass
	role      tracking.ControllerRole
	state     tracking.ControllerState
}

// Runtime is a deterministic in-process tracking runtime. The scripting
// methods may be called from any goroutine; the tracking.Runtime methods
// follow the single-owner rule of the interface.
type Runtime struct {
	mu sync.Mutex

	cfg    Config
	log    *slog.Logger
	ticker *time.Ticker

	poses   [tracking.MaxDevices]tracking.RawPose
	devices [tracking.MaxDevices]device
	events  []tracking.Event

	frame       uint64
	submissions []Submission
	handoffs    int
	pulses      []Pulse

	waitErr   error
	submitErr map[tracking.Eye]error
	shutdown  bool
}

var (
	_ tracking.Runtime      = (*Runtime)(nil)
	_ tracking.EventBacklog = (*Runtime)(nil)
)

// New starts a simulated runtime.
func New(cfg Config) (*Runtime, error) {
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, &tracking.InitError{
			Driver: DriverName,
			Err:    fmt.Errorf("invalid render size %dx%d", cfg.Width, cfg.Height),
		}
	}
	if cfg.RefreshRate < 0 {
		return nil, &tracking.InitError{
			Driver: DriverName,
			Err:    fmt.Errorf("invalid refresh rate %v", cfg.RefreshRate),
		}
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Get()
	}

	r := &Runtime{
		cfg:       cfg,
		log:       log.With("driver", DriverName),
		submitErr: make(map[tracking.Eye]error),
	}
	for _, d := range cfg.Devices {
		if !validSlot(d.Slot) {
			return nil, &tracking.InitError{
				Driver: DriverName,
				Err:    fmt.Errorf("device slot %d out of range", d.Slot),
			}
		}
		r.attach(d.Slot, d.Class, d.Role, d.Pose)
	}
	if cfg.RefreshRate > 0 {
		r.ticker = time.NewTicker(time.Duration(float64(time.Second) / cfg.RefreshRate))
	}
	return r, nil
}

func validSlot(slot int) bool {
	return slot >= 0 && slot < tracking.MaxDevices
}

func (r *Runtime) attach(slot int, class tracking.DeviceClass, role tracking.ControllerRole, pose tracking.Matrix34) {
	r.devices[slot] = device{connected: true, class: class, role: role}
	r.poses[slot] = tracking.RawPose{
		DeviceToAbsolute: pose,
		PoseValid:        true,
		DeviceConnected:  true,
	}
}

// RecommendedRenderTargetSize implements tracking.Runtime.
func (r *Runtime) RecommendedRenderTargetSize() (width, height uint32) {
	return r.cfg.Width, r.cfg.Height
}

// WaitGetPoses implements tracking.Runtime. With a refresh rate configured
// it blocks until the next tick.
func (r *Runtime) WaitGetPoses(poses []tracking.RawPose) error {
	r.mu.Lock()
	if r.shutdown {
		r.mu.Unlock()
		return tracking.ErrShutdown
	}
	if err := r.waitErr; err != nil {
		r.waitErr = nil
		r.mu.Unlock()
		return err
	}
	ticker := r.ticker
	r.mu.Unlock()

	if ticker != nil {
		<-ticker.C
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.frame++
	copy(poses, r.poses[:])
	return nil
}

// PollNextEvent implements tracking.Runtime.
func (r *Runtime) PollNextEvent() (tracking.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.events) == 0 {
		return tracking.Event{}, false
	}
	ev := r.events[0]
	r.events = r.events[1:]
	return ev, true
}

// IsDeviceConnected implements tracking.Runtime.
func (r *Runtime) IsDeviceConnected(slot int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return validSlot(slot) && r.devices[slot].connected
}

// DeviceClass implements tracking.Runtime.
func (r *Runtime) DeviceClass(slot int) tracking.DeviceClass {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !validSlot(slot) || !r.devices[slot].connected {
		return tracking.ClassInvalid
	}
	return r.devices[slot].class
}

// ControllerRole implements tracking.Runtime.
func (r *Runtime) ControllerRole(slot int) tracking.ControllerRole {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !validSlot(slot) || r.devices[slot].class != tracking.ClassController {
		return tracking.RoleInvalid
	}
	return r.devices[slot].role
}

// ControllerState implements tracking.Runtime.
func (r *Runtime) ControllerState(slot int) (tracking.ControllerState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !validSlot(slot) || !r.devices[slot].connected || r.devices[slot].class != tracking.ClassController {
		return tracking.ControllerState{}, false
	}
	return r.devices[slot].state, true
}

// ProjectionMatrix implements tracking.Runtime. The result maps view space
// depth [near, far] to clip depth [0, 1].
func (r *Runtime) ProjectionMatrix(eye tracking.Eye, near, far float32) tracking.Matrix44 {
	f := r.cfg.LeftFrustum
	if eye == tracking.EyeRight {
		f.Left, f.Right = -f.Right, -f.Left
	}
	idx := 1 / (f.Right - f.Left)
	idy := 1 / (f.Top - f.Bottom)
	idz := 1 / (far - near)
	sx := f.Right + f.Left
	sy := f.Top + f.Bottom

	return tracking.Matrix44{
		2 * idx, 0, sx * idx, 0,
		0, 2 * idy, sy * idy, 0,
		0, 0, -far * idz, -far * near * idz,
		0, 0, -1, 0,
	}
}

// EyeToHeadTransform implements tracking.Runtime.
func (r *Runtime) EyeToHeadTransform(eye tracking.Eye) tracking.Matrix34 {
	half := r.cfg.IPD / 2
	if eye == tracking.EyeLeft {
		half = -half
	}
	return tracking.Translation34(half, 0, 0)
}

// Submit implements tracking.Runtime.
func (r *Runtime) Submit(eye tracking.Eye, tex tracking.Texture) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.shutdown {
		return tracking.ErrShutdown
	}
	if !eye.Valid() {
		return fmt.Errorf("sim: submit: invalid eye %d", int(eye))
	}
	if err, ok := r.submitErr[eye]; ok {
		delete(r.submitErr, eye)
		return err
	}
	if tex.Width <= 0 || tex.Height <= 0 {
		return fmt.Errorf("sim: submit %s: invalid texture %dx%d", eye, tex.Width, tex.Height)
	}
	r.submissions = append(r.submissions, Submission{Frame: r.frame, Eye: eye, Texture: tex})
	return nil
}

// PostPresentHandoff implements tracking.Runtime.
func (r *Runtime) PostPresentHandoff() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handoffs++
}

// TriggerHapticPulse implements tracking.Runtime.
func (r *Runtime) TriggerHapticPulse(slot int, axis int, durationMicros uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !validSlot(slot) || !r.devices[slot].connected {
		return
	}
	r.pulses = append(r.pulses, Pulse{Slot: slot, Axis: axis, DurationMicros: durationMicros})
}

// Shutdown implements tracking.Runtime. A second call returns
// tracking.ErrShutdown.
func (r *Runtime) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.shutdown {
		return tracking.ErrShutdown
	}
	r.shutdown = true
	if r.ticker != nil {
		r.ticker.Stop()
	}
	r.log.Debug("runtime shut down", "frames", r.frame)
	return nil
}

// Scripting API.

// ErrSlot is returned by scripting calls with an out-of-range slot.
var ErrSlot = errors.New("sim: slot out of range")

// Connect activates a device in slot and queues an activation event.
func (r *Runtime) Connect(slot int, class tracking.DeviceClass, role tracking.ControllerRole) error {
	if !validSlot(slot) {
		return fmt.Errorf("%w: %d", ErrSlot, slot)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.attach(slot, class, role, tracking.Identity34())
	r.events = append(r.events, tracking.Event{
		Type:  tracking.EventDeviceActivated,
		Slot:  slot,
		Class: class,
		Role:  role,
	})
	return nil
}

// Disconnect deactivates the device in slot and queues a deactivation event.
func (r *Runtime) Disconnect(slot int) error {
	if !validSlot(slot) {
		return fmt.Errorf("%w: %d", ErrSlot, slot)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.devices[slot] = device{}
	r.poses[slot].PoseValid = false
	r.poses[slot].DeviceConnected = false
	r.events = append(r.events, tracking.Event{Type: tracking.EventDeviceDeactivated, Slot: slot})
	return nil
}

// Press marks button as held on slot and queues a press event.
func (r *Runtime) Press(slot, button int) error {
	return r.button(slot, button, true)
}

// Release marks button as released on slot and queues an unpress event.
func (r *Runtime) Release(slot, button int) error {
	return r.button(slot, button, false)
}

func (r *Runtime) button(slot, button int, pressed bool) error {
	if !validSlot(slot) {
		return fmt.Errorf("%w: %d", ErrSlot, slot)
	}
	if button < 0 || button >= 64 {
		return fmt.Errorf("sim: button %d out of range", button)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	typ := tracking.EventButtonUnpress
	if pressed {
		r.devices[slot].state.Pressed |= 1 << uint(button)
		typ = tracking.EventButtonPress
	} else {
		r.devices[slot].state.Pressed &^= 1 << uint(button)
	}
	r.devices[slot].state.PacketNum++
	r.events = append(r.events, tracking.Event{Type: typ, Slot: slot, Button: button})
	return nil
}

// SetPose replaces the raw pose reported for slot from the next frame on.
func (r *Runtime) SetPose(slot int, pose tracking.RawPose) error {
	if !validSlot(slot) {
		return fmt.Errorf("%w: %d", ErrSlot, slot)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.poses[slot] = pose
	return nil
}

// SetPoseValid flips the validity flag of slot's pose, simulating a
// tracking glitch.
func (r *Runtime) SetPoseValid(slot int, valid bool) error {
	if !validSlot(slot) {
		return fmt.Errorf("%w: %d", ErrSlot, slot)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.poses[slot].PoseValid = valid
	return nil
}

// SetRole reassigns the role of the controller in slot and queues a role
// change event.
func (r *Runtime) SetRole(slot int, role tracking.ControllerRole) error {
	if !validSlot(slot) {
		return fmt.Errorf("%w: %d", ErrSlot, slot)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[slot].role = role
	r.events = append(r.events, tracking.Event{Type: tracking.EventDeviceRoleChanged, Slot: slot})
	return nil
}

// SetAxis sets analog axis values for the controller in slot.
func (r *Runtime) SetAxis(slot, axis int, x, y float32) error {
	if !validSlot(slot) {
		return fmt.Errorf("%w: %d", ErrSlot, slot)
	}
	if axis < 0 || axis >= tracking.AxisCount {
		return fmt.Errorf("sim: axis %d out of range", axis)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[slot].state.Axes[axis] = tracking.Axis{X: x, Y: y}
	r.devices[slot].state.PacketNum++
	return nil
}

// QueueEvent appends a raw event without touching device state.
func (r *Runtime) QueueEvent(ev tracking.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// PendingEvents implements tracking.EventBacklog.
func (r *Runtime) PendingEvents() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// FailNextWait makes the next WaitGetPoses return err.
func (r *Runtime) FailNextWait(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waitErr = err
}

// FailNextSubmit makes the next Submit for eye return err.
func (r *Runtime) FailNextSubmit(eye tracking.Eye, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submitErr[eye] = err
}

// Frame returns the number of completed WaitGetPoses calls.
func (r *Runtime) Frame() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame
}

// Submissions returns a copy of all recorded submissions.
func (r *Runtime) Submissions() []Submission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Submission(nil), r.submissions...)
}

// Handoffs returns the number of PostPresentHandoff calls.
func (r *Runtime) Handoffs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handoffs
}

// Pulses returns a copy of all recorded haptic pulses.
func (r *Runtime) Pulses() []Pulse {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Pulse(nil), r.pulses...)
}

// IsShutdown reports whether Shutdown was called.
func (r *Runtime) IsShutdown() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shutdown
}
