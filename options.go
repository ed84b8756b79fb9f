package vr

import (
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/vr/render"
	"github.com/gogpu/vr/tracking"
)

// ContextOption configures a Context during creation.
//
// Example:
//
//	// Simulated runtime, CPU-only surfaces
//	ctx, err := vr.New(vr.WithDriver("sim"))
//
//	// Shared GPU device from the host, stencil with lens mask
//	ctx, err := vr.New(vr.WithDeviceProvider(provider), vr.WithStencil(true), vr.WithLensMask(true))
type ContextOption func(*contextOptions)

// DefaultMaxEventsPerFrame bounds the events Begin drains per frame.
const DefaultMaxEventsPerFrame = 64

type contextOptions struct {
	runtime     tracking.Runtime
	driver      string
	stencil     bool
	renderScale float32
	near, far   float32
	gpu         render.HAL
	provider    render.DeviceHandle
	clear       bool
	clearColor  gputypes.Color
	lensMask    bool
	maxEvents   int
	waitTimeout time.Duration
}

func defaultOptions() contextOptions {
	return contextOptions{
		renderScale: 1,
		near:        DefaultNear,
		far:         DefaultFar,
		clear:       true,
		clearColor:  gputypes.Color{R: 0, G: 0, B: 0, A: 1},
		maxEvents:   DefaultMaxEventsPerFrame,
		waitTimeout: render.DefaultWaitTimeout,
	}
}

// WithRuntime uses an already started runtime instead of initializing a
// driver. The context takes ownership and shuts it down on Close.
func WithRuntime(rt tracking.Runtime) ContextOption {
	return func(o *contextOptions) {
		o.runtime = rt
	}
}

// WithDriver starts the named tracking driver instead of the best
// available one.
func WithDriver(name string) ContextOption {
	return func(o *contextOptions) {
		o.driver = name
	}
}

// WithStencil attaches a depth/stencil surface to each eye.
func WithStencil(enabled bool) ContextOption {
	return func(o *contextOptions) {
		o.stencil = enabled
	}
}

// WithRenderScale multiplies the runtime's recommended surface size.
// Values above 1 supersample.
func WithRenderScale(scale float32) ContextOption {
	return func(o *contextOptions) {
		o.renderScale = scale
	}
}

// WithClipPlanes sets the initial near and far planes of both cameras.
func WithClipPlanes(near, far float32) ContextOption {
	return func(o *contextOptions) {
		o.near, o.far = near, far
	}
}

// WithHAL places eye surfaces on the given device and queue.
func WithHAL(device render.HAL) ContextOption {
	return func(o *contextOptions) {
		o.gpu = device
	}
}

// WithDeviceProvider places eye surfaces on the host's shared device.
// The provider must expose HalDevice and HalQueue; otherwise surfaces
// fall back to CPU-only.
func WithDeviceProvider(p render.DeviceHandle) ContextOption {
	return func(o *contextOptions) {
		o.provider = p
	}
}

// WithClearColor sets the color BeginEye clears to.
func WithClearColor(c gputypes.Color) ContextOption {
	return func(o *contextOptions) {
		o.clear = true
		o.clearColor = c
	}
}

// WithoutClear makes BeginEye keep the previous frame's contents.
func WithoutClear() ContextOption {
	return func(o *contextOptions) {
		o.clear = false
	}
}

// WithLensMask draws the hidden-area mask into the stencil on BeginEye.
// It requires WithStencil and a GPU device.
func WithLensMask(enabled bool) ContextOption {
	return func(o *contextOptions) {
		o.lensMask = enabled
	}
}

// WithMaxEventsPerFrame bounds how many runtime events Begin drains.
// Remaining events are handled by later frames.
func WithMaxEventsPerFrame(n int) ContextOption {
	return func(o *contextOptions) {
		o.maxEvents = n
	}
}

// WithWaitTimeout bounds the GPU wait in End.
func WithWaitTimeout(d time.Duration) ContextOption {
	return func(o *contextOptions) {
		o.waitTimeout = d
	}
}
