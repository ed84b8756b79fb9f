package vr

import (
	"image"

	"github.com/gogpu/vr/render"
	"github.com/gogpu/vr/tracking"
)

// Eye selects one of the two stereo views.
type Eye = tracking.Eye

// Eyes.
const (
	EyeLeft  = tracking.EyeLeft
	EyeRight = tracking.EyeRight
	EyeCount = tracking.EyeCount
)

// EyeTarget is one eye's render surface and camera. Both exist for the
// lifetime of the context.
type EyeTarget struct {
	eye    Eye
	target *render.Target
	camera Camera
}

// Eye returns which eye this target renders.
func (e *EyeTarget) Eye() Eye { return e.eye }

// Target returns the render surface.
func (e *EyeTarget) Target() *render.Target { return e.target }

// Camera returns the eye's camera. Near, Far and Offset may be changed
// between frames.
func (e *EyeTarget) Camera() *Camera { return &e.camera }

// Image returns the CPU mirror of the surface.
func (e *EyeTarget) Image() *image.RGBA { return e.target.Image() }

// Width returns the surface width in pixels.
func (e *EyeTarget) Width() int { return e.target.Width() }

// Height returns the surface height in pixels.
func (e *EyeTarget) Height() int { return e.target.Height() }

// texture describes the surface for submission.
func (e *EyeTarget) texture() tracking.Texture {
	return tracking.Texture{
		Handle: e.target.Handle(),
		Width:  e.target.Width(),
		Height: e.target.Height(),
		Format: e.target.Format(),
		Pixels: e.target.Pixels(),
	}
}
