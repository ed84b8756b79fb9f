// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package companion

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gpucontext"
	"golang.org/x/image/draw"

	"github.com/gogpu/vr"
)

// Common errors returned by Mirror operations.
var (
	// ErrMirrorClosed is returned when operations are attempted on a closed mirror.
	ErrMirrorClosed = errors.New("companion: mirror is closed")

	// ErrInvalidDimensions is returned when width or height is invalid.
	ErrInvalidDimensions = errors.New("companion: invalid dimensions")

	// ErrNoCreator is returned when the draw context has no texture creator.
	ErrNoCreator = errors.New("companion: draw context has no texture creator")
)

type textureDestroyer interface {
	Destroy()
}

// Mirror shows one eye of a vr.Context in a desktop window. Each Update
// scales the eye surface into the window-sized frame; RenderTo uploads it
// and draws it.
//
// Mirror is NOT safe for concurrent use.
type Mirror struct {
	eye    vr.Eye
	scaler draw.Scaler
	frame  *image.RGBA

	texture     gpucontext.Texture
	oldTexture  gpucontext.Texture
	dirty       bool
	sizeChanged bool
	closed      bool
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithEye selects the mirrored eye. The default is the left eye.
func WithEye(eye vr.Eye) Option {
	return func(m *Mirror) {
		m.eye = eye
	}
}

// WithScaler replaces the interpolator used to fit the eye surface into
// the window. The default is draw.ApproxBiLinear.
func WithScaler(s draw.Scaler) Option {
	return func(m *Mirror) {
		if s != nil {
			m.scaler = s
		}
	}
}

// New creates a mirror with a width x height frame. Use
// vr.Context.CompanionSize for an unscaled view.
func New(width, height int, opts ...Option) (*Mirror, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	m := &Mirror{
		eye:    vr.EyeLeft,
		scaler: draw.ApproxBiLinear,
		frame:  image.NewRGBA(image.Rect(0, 0, width, height)),
		dirty:  true,
	}
	for _, opt := range opts {
		opt(m)
	}
	if !m.eye.Valid() {
		return nil, fmt.Errorf("companion: invalid eye %d", int(m.eye))
	}
	return m, nil
}

// Eye returns the mirrored eye.
func (m *Mirror) Eye() vr.Eye { return m.eye }

// Size returns the frame dimensions.
func (m *Mirror) Size() (width, height int) {
	b := m.frame.Bounds()
	return b.Dx(), b.Dy()
}

// Image returns the frame. It is valid until the next Resize.
func (m *Mirror) Image() *image.RGBA { return m.frame }

// IsDirty reports whether the frame changed since the last upload.
func (m *Mirror) IsDirty() bool { return m.dirty }

// Update copies the mirrored eye's surface of ctx into the frame. Call it
// after vr.Context.End, when both surfaces hold the finished frame.
func (m *Mirror) Update(ctx *vr.Context) error {
	if m.closed {
		return ErrMirrorClosed
	}
	et, err := ctx.EyeTarget(m.eye)
	if err != nil {
		return fmt.Errorf("companion: update: %w", err)
	}
	return m.UpdateFrom(et.Image())
}

// UpdateFrom scales src into the frame.
func (m *Mirror) UpdateFrom(src image.Image) error {
	if m.closed {
		return ErrMirrorClosed
	}
	if src == nil {
		return errors.New("companion: update: nil source image")
	}
	dst := m.frame
	if src.Bounds().Size() == dst.Bounds().Size() {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	} else {
		m.scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	}
	m.dirty = true
	return nil
}

// Resize changes the frame size. The GPU texture is recreated on the
// next RenderTo.
func (m *Mirror) Resize(width, height int) error {
	if m.closed {
		return ErrMirrorClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	if w, h := m.Size(); w == width && h == height {
		return nil
	}
	m.frame = image.NewRGBA(image.Rect(0, 0, width, height))
	m.sizeChanged = true
	m.dirty = true
	return nil
}

// Texture returns the current GPU texture, or nil before the first
// RenderTo.
func (m *Mirror) Texture() gpucontext.Texture { return m.texture }

// flush uploads the frame if it changed. The first upload, and the first
// after a resize, creates a new texture through creator.
func (m *Mirror) flush(creator gpucontext.TextureCreator) (gpucontext.Texture, error) {
	if m.sizeChanged {
		if m.texture != nil {
			destroy(m.oldTexture)
			m.oldTexture = m.texture
			m.texture = nil
		}
		m.sizeChanged = false
	}

	if !m.dirty && m.texture != nil {
		return m.texture, nil
	}

	w, h := m.Size()
	if m.texture == nil {
		if creator == nil {
			return nil, ErrNoCreator
		}
		tex, err := creator.NewTextureFromRGBA(w, h, m.frame.Pix)
		if err != nil {
			return nil, fmt.Errorf("companion: create texture: %w", err)
		}
		m.texture = tex

		// The upload waits for the GPU, so the replaced texture is idle.
		destroy(m.oldTexture)
		m.oldTexture = nil
	} else if up, ok := m.texture.(gpucontext.TextureUpdater); ok {
		if err := up.UpdateData(m.frame.Pix); err != nil {
			return nil, fmt.Errorf("companion: update texture: %w", err)
		}
	}
	m.dirty = false
	return m.texture, nil
}

// RenderTo uploads the frame if needed and draws it at the window origin.
func (m *Mirror) RenderTo(dc gpucontext.TextureDrawer) error {
	if m.closed {
		return ErrMirrorClosed
	}
	tex, err := m.flush(dc.TextureCreator())
	if err != nil {
		return err
	}
	return dc.DrawTexture(tex, 0, 0)
}

// Close releases the GPU textures. Close is idempotent.
func (m *Mirror) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	destroy(m.oldTexture)
	destroy(m.texture)
	m.oldTexture = nil
	m.texture = nil
	return nil
}

func destroy(tex gpucontext.Texture) {
	if d, ok := tex.(textureDestroyer); ok {
		d.Destroy()
	}
}
