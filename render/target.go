// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/image/draw"
)

// ColorFormat is the pixel format of every eye surface.
const ColorFormat = gputypes.TextureFormatRGBA8Unorm

// DepthStencilFormat is the format of the optional depth/stencil surface.
const DepthStencilFormat = gputypes.TextureFormatDepth24PlusStencil8

// ErrTargetDestroyed is returned when binding a destroyed target.
var ErrTargetDestroyed = errors.New("render: target destroyed")

// TargetOptions configures NewTarget.
type TargetOptions struct {
	// Label prefixes GPU debug labels.
	Label string

	// Width and Height are the surface size in pixels.
	Width, Height int

	// Stencil attaches a depth/stencil surface.
	Stencil bool

	// Clear makes Bind clear the surface to ClearColor.
	Clear bool

	// ClearColor is the color Bind clears to.
	ClearColor gputypes.Color

	// Mask draws the hidden-area lens mask into the stencil on Bind.
	// Ignored without a stencil.
	Mask *LensMask
}

// Target is one eye's render surface.
//
// A Target always carries a CPU mirror (*image.RGBA) that software
// renderers and the companion blit use. With a HAL device it also owns a
// color texture and, optionally, a depth/stencil texture on the GPU.
type Target struct {
	label  string
	width  int
	height int
	gpu    HAL

	colorTex  hal.Texture
	colorView hal.TextureView
	dsTex     hal.Texture
	dsView    hal.TextureView
	stencil   bool

	img   *image.RGBA
	clear bool
	color gputypes.Color
	mask  *LensMask

	submission uint64
	pending    hal.CommandBuffer

	bound     bool
	destroyed bool
}

// NewTarget creates a surface. With a zero HAL the target is CPU-only.
// On failure every texture created so far is destroyed.
func NewTarget(gpu HAL, opts TargetOptions) (*Target, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("render: invalid target size %dx%d", opts.Width, opts.Height)
	}
	t := &Target{
		label:   opts.Label,
		width:   opts.Width,
		height:  opts.Height,
		gpu:     gpu,
		stencil: opts.Stencil,
		img:     image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height)),
		clear:   opts.Clear,
		color:   opts.ClearColor,
	}
	if opts.Stencil {
		t.mask = opts.Mask
	}
	if !gpu.Valid() {
		return t, nil
	}
	if err := t.createTextures(); err != nil {
		t.destroyTextures()
		return nil, err
	}
	return t, nil
}

func (t *Target) createTextures() error {
	device := t.gpu.Device
	size := hal.Extent3D{
		Width:              uint32(t.width),  //nolint:gosec // G115: validated positive
		Height:             uint32(t.height), //nolint:gosec // G115: validated positive
		DepthOrArrayLayers: 1,
	}

	colorTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         t.label + "_color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        ColorFormat,
		Usage: gputypes.TextureUsageRenderAttachment |
			gputypes.TextureUsageTextureBinding |
			gputypes.TextureUsageCopySrc |
			gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("render: create color texture: %w", err)
	}
	t.colorTex = colorTex

	colorView, err := device.CreateTextureView(colorTex, &hal.TextureViewDescriptor{
		Label: t.label + "_color_view",
	})
	if err != nil {
		return fmt.Errorf("render: create color view: %w", err)
	}
	t.colorView = colorView

	if t.stencil {
		dsTex, err := device.CreateTexture(&hal.TextureDescriptor{
			Label:         t.label + "_depth_stencil",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        DepthStencilFormat,
			Usage:         gputypes.TextureUsageRenderAttachment,
		})
		if err != nil {
			return fmt.Errorf("render: create depth/stencil texture: %w", err)
		}
		t.dsTex = dsTex

		dsView, err := device.CreateTextureView(dsTex, &hal.TextureViewDescriptor{
			Label: t.label + "_depth_stencil_view",
		})
		if err != nil {
			return fmt.Errorf("render: create depth/stencil view: %w", err)
		}
		t.dsView = dsView
	}

	return nil
}

func (t *Target) destroyTextures() {
	device := t.gpu.Device
	if device == nil {
		return
	}
	if t.dsView != nil {
		device.DestroyTextureView(t.dsView)
		t.dsView = nil
	}
	if t.dsTex != nil {
		device.DestroyTexture(t.dsTex)
		t.dsTex = nil
	}
	if t.colorView != nil {
		device.DestroyTextureView(t.colorView)
		t.colorView = nil
	}
	if t.colorTex != nil {
		device.DestroyTexture(t.colorTex)
		t.colorTex = nil
	}
}

// Width returns the surface width in pixels.
func (t *Target) Width() int { return t.width }

// Height returns the surface height in pixels.
func (t *Target) Height() int { return t.height }

// Format returns the color format.
func (t *Target) Format() gputypes.TextureFormat { return ColorFormat }

// HasStencil reports whether the target has a depth/stencil surface.
func (t *Target) HasStencil() bool { return t.stencil }

// IsGPU reports whether the target owns GPU textures.
func (t *Target) IsGPU() bool { return t.colorTex != nil }

// Image returns the CPU mirror. It shares memory with the target.
func (t *Target) Image() *image.RGBA { return t.img }

// Pixels returns the CPU mirror's pixel data in RGBA order.
func (t *Target) Pixels() []byte { return t.img.Pix }

// Stride returns the number of bytes per row of the CPU mirror.
func (t *Target) Stride() int { return t.img.Stride }

// Handle returns the native handle of the color texture, 0 when CPU-only.
func (t *Target) Handle() uintptr {
	if t.colorTex == nil {
		return 0
	}
	return t.colorTex.NativeHandle()
}

// ColorView returns the GPU color view, nil when CPU-only.
func (t *Target) ColorView() hal.TextureView { return t.colorView }

// DepthStencilView returns the GPU depth/stencil view, nil without one.
func (t *Target) DepthStencilView() hal.TextureView { return t.dsView }

// Bound reports whether the target is between Bind and Unbind.
func (t *Target) Bound() bool { return t.bound }

// Bind makes the target the active draw destination. It clears the
// surface when configured and draws the lens mask into the stencil.
func (t *Target) Bind() error {
	if t.destroyed {
		return ErrTargetDestroyed
	}
	if t.clear {
		draw.Draw(t.img, t.img.Bounds(), image.NewUniform(toRGBA(t.color)), image.Point{}, draw.Src)
	}
	if t.IsGPU() && (t.clear || t.mask != nil) {
		if err := t.encodeBindPass(); err != nil {
			return err
		}
	}
	t.bound = true
	return nil
}

// Unbind ends drawing into the target. On the GPU it uploads the CPU
// mirror into the color texture, so the texture handed to the compositor
// shows what was drawn into Image. The target is unbound even when the
// upload fails.
func (t *Target) Unbind() error {
	t.bound = false
	if !t.IsGPU() {
		return nil
	}
	return t.upload()
}

// upload writes the CPU mirror into the color texture.
func (t *Target) upload() error {
	err := t.gpu.Queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.colorTex,
			MipLevel: 0,
			Origin:   hal.Origin3D{},
			Aspect:   gputypes.TextureAspectAll,
		},
		t.img.Pix,
		&hal.ImageDataLayout{
			BytesPerRow:  uint32(t.img.Stride), //nolint:gosec // G115: positive image stride
			RowsPerImage: uint32(t.height),     //nolint:gosec // G115: validated positive
		},
		&hal.Extent3D{
			Width:              uint32(t.width),  //nolint:gosec // G115: validated positive
			Height:             uint32(t.height), //nolint:gosec // G115: validated positive
			DepthOrArrayLayers: 1,
		},
	)
	if err != nil {
		return fmt.Errorf("render: upload %s mirror: %w", t.label, err)
	}
	return nil
}

func (t *Target) encodeBindPass() error {
	device := t.gpu.Device
	if err := t.reclaim(DefaultWaitTimeout); err != nil {
		return err
	}

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: t.label + "_bind_encoder",
	})
	if err != nil {
		return fmt.Errorf("render: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(t.label + "_bind"); err != nil {
		return fmt.Errorf("render: begin encoding: %w", err)
	}

	colorLoad := gputypes.LoadOpLoad
	if t.clear {
		colorLoad = gputypes.LoadOpClear
	}
	desc := &hal.RenderPassDescriptor{
		Label: t.label + "_bind_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       t.colorView,
			LoadOp:     colorLoad,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: t.color,
		}},
	}
	if t.dsView != nil {
		desc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
			View:              t.dsView,
			DepthLoadOp:       gputypes.LoadOpClear,
			DepthStoreOp:      gputypes.StoreOpStore,
			DepthClearValue:   1.0,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpStore,
			StencilClearValue: 0,
		}
	}

	rp := encoder.BeginRenderPass(desc)
	if t.mask != nil && t.dsView != nil {
		t.mask.Record(rp)
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("render: end encoding: %w", err)
	}
	idx, err := t.gpu.Queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		device.FreeCommandBuffer(cmdBuf)
		return fmt.Errorf("render: submit bind pass: %w", err)
	}
	t.submission = idx
	t.pending = cmdBuf
	return nil
}

// reclaim frees the previous bind pass once the GPU is done with it.
func (t *Target) reclaim(timeout time.Duration) error {
	if t.pending == nil {
		return nil
	}
	if !waitSubmission(t.gpu.Queue, t.submission, timeout) {
		return fmt.Errorf("render: wait for bind pass: timed out after %v", timeout)
	}
	t.gpu.Device.FreeCommandBuffer(t.pending)
	t.pending = nil
	return nil
}

// Destroy releases the GPU textures. It is safe to call more than once.
func (t *Target) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	t.bound = false
	if t.pending != nil {
		if err := t.reclaim(DefaultWaitTimeout); err != nil {
			// The command buffer is leaked rather than freed while in flight.
			t.pending = nil
		}
	}
	t.destroyTextures()
}

func toRGBA(c gputypes.Color) color.RGBA {
	return color.RGBA{
		R: unitToByte(float64(c.R)),
		G: unitToByte(float64(c.G)),
		B: unitToByte(float64(c.B)),
		A: unitToByte(float64(c.A)),
	}
}

func unitToByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
