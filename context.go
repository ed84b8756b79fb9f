package vr

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/vr/internal/logging"
	"github.com/gogpu/vr/render"
	"github.com/gogpu/vr/tracking"
)

// Only one Context may be open per process because the runtime handle
// is process-wide.
var (
	liveMu sync.Mutex
	live   *Context
)

// Context synchronizes rendering with a tracking runtime.
//
// Each frame runs Begin, then BeginEye/EndEye for each eye, then End.
// Calls out of order fail with a *ProtocolError. A Context is owned by a
// single goroutine and does no internal locking.
type Context struct {
	id   uuid.UUID
	rt   tracking.Runtime
	opts contextOptions
	gpu  render.HAL
	now  func() time.Time

	state      State
	currentEye Eye
	inBegin    bool

	raw     []tracking.RawPose
	poses   *poseStore
	devices [MaxDevices]*Device

	listeners       listenerSet
	initialReported bool

	eyes [EyeCount]*EyeTarget
	mask *render.LensMask

	trackerToWorld Matrix4
	stats          Stats
	closed         bool
}

// New starts the tracking runtime and creates both eye surfaces.
//
// Runtime start failures are returned as *InitError before any surface
// is created. Surface creation failures match ErrSurface; the runtime is
// shut down again in that case.
func New(opts ...ContextOption) (*Context, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := validateOptions(&o); err != nil {
		return nil, err
	}

	liveMu.Lock()
	defer liveMu.Unlock()
	if live != nil {
		return nil, ErrContextExists
	}

	rt := o.runtime
	if rt == nil {
		var err error
		if o.driver != "" {
			rt, err = tracking.Init(o.driver)
		} else {
			rt, err = tracking.InitDefault()
		}
		if err != nil {
			return nil, err
		}
	}

	c := &Context{
		id:             uuid.New(),
		rt:             rt,
		opts:           o,
		now:            time.Now,
		raw:            make([]tracking.RawPose, MaxDevices),
		poses:          newPoseStore(),
		trackerToWorld: Identity4(),
	}
	c.gpu = resolveHAL(&o, c.logger())

	if err := c.createEyes(); err != nil {
		c.destroySurfaces()
		if sdErr := rt.Shutdown(); sdErr != nil {
			err = errors.Join(err, sdErr)
		}
		return nil, err
	}

	live = c
	w, h := c.RenderSize()
	c.logger().Info("context opened", "width", w, "height", h, "gpu", c.gpu.Valid(), "stencil", o.stencil)
	return c, nil
}

func validateOptions(o *contextOptions) error {
	switch {
	case !(o.renderScale > 0) || math.IsInf(float64(o.renderScale), 0):
		return fmt.Errorf("vr: invalid render scale %v", o.renderScale)
	case !(o.near > 0) || !(o.far > o.near):
		return fmt.Errorf("vr: invalid clip planes near=%v far=%v", o.near, o.far)
	case o.maxEvents <= 0:
		return fmt.Errorf("vr: invalid max events per frame %d", o.maxEvents)
	}
	return nil
}

func resolveHAL(o *contextOptions, log *slog.Logger) render.HAL {
	if o.gpu.Valid() || o.provider == nil {
		return o.gpu
	}
	h, err := render.HALFromProvider(o.provider)
	if err != nil {
		log.Warn("device provider unusable, eye surfaces are CPU-only", "err", err)
		return render.HAL{}
	}
	return h
}

func (c *Context) createEyes() error {
	rw, rh := c.rt.RecommendedRenderTargetSize()
	w := scaledSize(rw, c.opts.renderScale)
	h := scaledSize(rh, c.opts.renderScale)

	if c.opts.lensMask && c.opts.stencil && c.gpu.Valid() {
		mask, err := render.NewLensMask(c.gpu.Device)
		if err != nil {
			c.logger().Warn("lens mask disabled", "err", err)
		} else {
			c.mask = mask
		}
	}

	for _, eye := range []Eye{EyeLeft, EyeRight} {
		tgt, err := render.NewTarget(c.gpu, render.TargetOptions{
			Label:      "vr_" + eye.String(),
			Width:      w,
			Height:     h,
			Stencil:    c.opts.stencil,
			Clear:      c.opts.clear,
			ClearColor: c.opts.clearColor,
			Mask:       c.mask,
		})
		if err != nil {
			return fmt.Errorf("%w: %s eye: %w", ErrSurface, eye, err)
		}
		c.eyes[eye] = &EyeTarget{
			eye:    eye,
			target: tgt,
			camera: newCamera(eye, c.opts.near, c.opts.far),
		}
	}
	return nil
}

func scaledSize(n uint32, scale float32) int {
	return max(int(float32(n)*scale+0.5), 1)
}

func (c *Context) destroySurfaces() {
	for i, e := range c.eyes {
		if e != nil {
			e.target.Destroy()
			c.eyes[i] = nil
		}
	}
	if c.mask != nil {
		c.mask.Destroy()
		c.mask = nil
	}
}

// ID returns the session id attached to the context's log records.
func (c *Context) ID() uuid.UUID { return c.id }

// logger resolves the package logger on every call so SetLogger also
// reaches contexts that are already open.
func (c *Context) logger() *slog.Logger {
	return logging.Get().With("session", c.id.String())
}

// State returns the lifecycle state.
func (c *Context) State() State { return c.state }

// CurrentEye returns the bound eye. ok is false unless the state is
// StateEyeOpen.
func (c *Context) CurrentEye() (eye Eye, ok bool) {
	return c.currentEye, c.state == StateEyeOpen
}

// EyeTarget returns the surface and camera of eye.
func (c *Context) EyeTarget(eye Eye) (*EyeTarget, error) {
	if !eye.Valid() {
		return nil, &IndexError{Kind: "eye", Index: int(eye), Limit: EyeCount}
	}
	if c.closed {
		return nil, ErrClosed
	}
	return c.eyes[eye], nil
}

// RenderSize returns the per-eye surface size.
func (c *Context) RenderSize() (width, height int) {
	if c.eyes[EyeLeft] == nil {
		return 0, 0
	}
	return c.eyes[EyeLeft].Width(), c.eyes[EyeLeft].Height()
}

// CompanionSize returns the window size that shows one eye unscaled.
func (c *Context) CompanionSize() (width, height int) {
	return c.RenderSize()
}

// TrackerSpaceToWorldSpace returns the transform from the runtime's
// tracking space to world space.
func (c *Context) TrackerSpaceToWorldSpace() Matrix4 {
	return c.trackerToWorld
}

// SetTrackerSpaceToWorldSpace sets the tracking-to-world transform, for
// example to teleport the player. It applies from the next Begin.
func (c *Context) SetTrackerSpaceToWorldSpace(m Matrix4) {
	c.trackerToWorld = m
}

// Begin waits for fresh poses, dispatches pending device events and
// updates both cameras. It is the frame pacing point and must be called
// from StateIdle.
//
// If the runtime fails to deliver poses the context stays idle.
func (c *Context) Begin() error {
	if c.closed {
		return ErrClosed
	}
	if c.inBegin {
		return &ProtocolError{Op: "begin", State: c.state, Reason: "called from a listener"}
	}
	if c.state != StateIdle {
		return &ProtocolError{Op: "begin", State: c.state, Reason: "frame already open, call End first"}
	}

	if err := c.rt.WaitGetPoses(c.raw); err != nil {
		return fmt.Errorf("vr: begin: wait for poses: %w", err)
	}
	c.poses.update(c.raw)

	c.dispatchPending()
	c.updateCameras()
	c.state = StateFrameOpen
	return nil
}

// dispatchPending reports the devices present at the first Begin, then
// drains queued events. Listeners run with inBegin set; it is cleared even
// if one of them panics.
func (c *Context) dispatchPending() {
	c.inBegin = true
	defer func() { c.inBegin = false }()

	if !c.initialReported {
		c.initialReported = true
		for slot := 0; slot < MaxDevices; slot++ {
			if c.rt.IsDeviceConnected(slot) {
				c.connectDevice(slot, tracking.ClassInvalid, tracking.RoleInvalid)
			}
		}
	}
	c.drainEvents()
}

// drainEvents handles at most maxEvents events. A frame counts as a drain
// limit hit only when events are left over, which runtimes implementing
// tracking.EventBacklog can rule out.
func (c *Context) drainEvents() {
	for i := 0; i < c.opts.maxEvents; i++ {
		ev, ok := c.rt.PollNextEvent()
		if !ok {
			return
		}
		c.handleEvent(ev)
	}
	pending := -1
	if b, ok := c.rt.(tracking.EventBacklog); ok {
		pending = b.PendingEvents()
		if pending == 0 {
			return
		}
	}
	c.stats.DrainLimitHits++
	c.logger().Debug("event drain bound reached", "max", c.opts.maxEvents, "pending", pending)
}

func (c *Context) handleEvent(ev tracking.Event) {
	slot := ev.Slot
	if slot < 0 || slot >= MaxDevices {
		c.logger().Debug("ignoring event for invalid slot", "type", ev.Type, "slot", slot)
		return
	}

	switch ev.Type {
	case tracking.EventDeviceActivated:
		c.connectDevice(slot, ev.Class, ev.Role)
	case tracking.EventDeviceDeactivated:
		c.disconnectDevice(slot)
	case tracking.EventButtonPress, tracking.EventButtonUnpress:
		d := c.devices[slot]
		if d == nil {
			return
		}
		if ev.Button < 0 || ev.Button >= MaxButtons {
			c.logger().Debug("ignoring out-of-range button", "slot", slot, "button", ev.Button)
			return
		}
		pressed := ev.Type == tracking.EventButtonPress
		d.setButton(ev.Button, pressed)
		kind := EventButtonReleased
		if pressed {
			kind = EventButtonPressed
		}
		c.dispatch(DeviceEvent{Kind: kind, Device: d, Button: ev.Button})
	case tracking.EventDeviceRoleChanged:
		d := c.devices[slot]
		if d == nil || d.typ != DeviceController {
			return
		}
		d.role = roleFromTracking(c.rt.ControllerRole(slot))
		c.logger().Info("controller role changed", "slot", slot, "role", d.role)
		c.dispatch(DeviceEvent{Kind: EventRoleChanged, Device: d})
	}
}

// updateCameras refreshes both cameras unless the HMD pose is invalid.
func (c *Context) updateCameras() {
	hmd := c.poses[HMDSlot]
	if !hmd.Valid {
		c.stats.InvalidHMDFrames++
		c.logger().Debug("hmd pose invalid, cameras not updated")
		return
	}
	head := c.trackerToWorld.Mul(hmd.Transform)
	for _, e := range c.eyes {
		if !e.camera.update(c.rt, head) {
			c.logger().Debug("singular camera matrix, camera not updated", "eye", e.eye)
		}
	}
}

// BeginEye binds eye's surface for drawing. It must be called from
// StateFrameOpen.
func (c *Context) BeginEye(eye Eye) error {
	if c.closed {
		return ErrClosed
	}
	if !eye.Valid() {
		return &IndexError{Kind: "eye", Index: int(eye), Limit: EyeCount}
	}
	switch c.state {
	case StateIdle:
		return &ProtocolError{Op: "begin eye", State: c.state, Reason: "no frame open, call Begin first"}
	case StateEyeOpen:
		return &ProtocolError{Op: "begin eye", State: c.state,
			Reason: fmt.Sprintf("%s eye still open, call EndEye first", c.currentEye)}
	}

	if err := c.eyes[eye].target.Bind(); err != nil {
		return fmt.Errorf("vr: begin %s eye: %w", eye, err)
	}
	c.currentEye = eye
	c.state = StateEyeOpen
	return nil
}

// EndEye unbinds the current eye's surface. With a GPU device this uploads
// the CPU mirror into the eye texture; an upload failure is returned, but
// the eye is closed regardless.
func (c *Context) EndEye() error {
	if c.closed {
		return ErrClosed
	}
	if c.state != StateEyeOpen {
		return &ProtocolError{Op: "end eye", State: c.state, Reason: "no eye open, call BeginEye first"}
	}
	eye := c.currentEye
	c.state = StateFrameOpen
	if err := c.eyes[eye].target.Unbind(); err != nil {
		return fmt.Errorf("vr: end %s eye: %w", eye, err)
	}
	return nil
}

// End submits the left then the right surface, waits for the GPU to
// finish and hands the frame to the compositor. It must be called from
// StateFrameOpen.
//
// Submission failures do not stop the frame: the context returns to
// StateIdle and the joined errors are returned.
func (c *Context) End() error {
	if c.closed {
		return ErrClosed
	}
	switch c.state {
	case StateIdle:
		return &ProtocolError{Op: "end", State: c.state, Reason: "no frame open, call Begin first"}
	case StateEyeOpen:
		return &ProtocolError{Op: "end", State: c.state,
			Reason: fmt.Sprintf("%s eye still open, call EndEye first", c.currentEye)}
	}

	var errs []error
	for _, eye := range []Eye{EyeLeft, EyeRight} {
		if err := c.rt.Submit(eye, c.eyes[eye].texture()); err != nil {
			c.stats.SubmitFailures++
			c.logger().Warn("compositor rejected eye", "eye", eye, "err", err)
			errs = append(errs, fmt.Errorf("vr: submit %s eye: %w", eye, err))
		}
	}

	ok, err := render.WaitIdle(c.gpu.Device, c.gpu.Queue, c.opts.waitTimeout)
	switch {
	case err != nil:
		c.logger().Warn("gpu wait failed", "err", err)
		errs = append(errs, err)
	case !ok:
		c.logger().Warn("gpu wait timed out", "timeout", c.opts.waitTimeout)
	}

	c.rt.PostPresentHandoff()
	c.state = StateIdle
	c.stats.Frames++
	return errors.Join(errs...)
}

// Close releases the eye surfaces, then shuts the runtime down. A second
// Close returns ErrClosed.
func (c *Context) Close() error {
	liveMu.Lock()
	defer liveMu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.inBegin {
		return &ProtocolError{Op: "close", State: c.state, Reason: "called from a listener"}
	}
	if c.state != StateIdle {
		c.logger().Warn("closing context with a frame open", "state", c.state)
	}
	c.closed = true
	c.state = StateIdle
	if live == c {
		live = nil
	}

	c.destroySurfaces()
	err := c.rt.Shutdown()
	if err != nil {
		err = fmt.Errorf("vr: shutdown runtime: %w", err)
	}
	c.logger().Info("context closed", "frames", c.stats.Frames)
	return err
}
