// Package vr synchronizes a stereo renderer with a head mounted display.
//
// # Overview
//
// A Context owns the connection to a tracking runtime, two eye surfaces
// and the device model. Each frame follows a strict order:
//
//	ctx, err := vr.New(vr.WithDriver("sim"))
//	if err != nil {
//	    return err
//	}
//	defer ctx.Close()
//
//	for running {
//	    if err := ctx.Begin(); err != nil { // waits for poses, dispatches events
//	        return err
//	    }
//	    for _, eye := range []vr.Eye{vr.EyeLeft, vr.EyeRight} {
//	        ctx.BeginEye(eye)
//	        et, _ := ctx.EyeTarget(eye)
//	        draw(et.Image(), et.Camera().Combined)
//	        ctx.EndEye()
//	    }
//	    ctx.End() // submits left then right, waits for the GPU, hands off
//	}
//
// Calls out of order return a *ProtocolError. Begin is the frame pacing
// point; callers must not add their own sleeps.
//
// # Devices
//
// Devices appear through listeners registered with AddListener. On the
// first Begin every already connected device is reported as
// EventConnected, so listeners never miss devices present at startup.
// Disconnects are reported before the slot is cleared.
//
// Controller roles are advisory. See Role.
//
// # Matrices
//
// The runtime reports row-major matrices. Matrix4 is column-major; use
// FromMatrix34 and FromMatrix44 to convert.
//
// # Lifetime
//
// Only one Context may be open per process. Close releases the eye
// surfaces before shutting the runtime down; a second Close returns
// ErrClosed.
package vr
