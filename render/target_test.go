// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"bytes"
	"errors"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopHAL opens a noop device and queue for testing.
func createNoopHAL(t *testing.T) HAL {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		t.Fatal("noop backend reported no adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return HAL{Device: openDev.Device, Queue: openDev.Queue}
}

func TestNewTargetCPU(t *testing.T) {
	tgt, err := NewTarget(HAL{}, TargetOptions{Label: "left", Width: 8, Height: 4, Stencil: true})
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	defer tgt.Destroy()

	if tgt.Width() != 8 || tgt.Height() != 4 {
		t.Errorf("size = %dx%d, want 8x4", tgt.Width(), tgt.Height())
	}
	if tgt.IsGPU() {
		t.Error("IsGPU() = true for CPU-only target")
	}
	if tgt.Handle() != 0 {
		t.Errorf("Handle() = %d, want 0", tgt.Handle())
	}
	if tgt.Format() != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("Format() = %v", tgt.Format())
	}
	if !tgt.HasStencil() {
		t.Error("HasStencil() = false")
	}
	if len(tgt.Pixels()) != 8*4*4 || tgt.Stride() != 32 {
		t.Errorf("mirror len=%d stride=%d", len(tgt.Pixels()), tgt.Stride())
	}
}

func TestNewTargetInvalidSize(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"zero width", 0, 4},
		{"zero height", 4, 0},
		{"negative", -1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTarget(HAL{}, TargetOptions{Width: tt.w, Height: tt.h}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBindClearsMirror(t *testing.T) {
	tgt, err := NewTarget(HAL{}, TargetOptions{
		Width: 4, Height: 4,
		Clear:      true,
		ClearColor: gputypes.Color{R: 1, G: 0, B: 0.5, A: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	tgt.Image().SetRGBA(1, 1, color.RGBA{G: 255, A: 255})

	if err := tgt.Bind(); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if !tgt.Bound() {
		t.Error("Bound() = false after Bind")
	}
	want := color.RGBA{R: 255, G: 0, B: 128, A: 255}
	for _, p := range [][2]int{{0, 0}, {1, 1}, {3, 3}} {
		if got := tgt.Image().RGBAAt(p[0], p[1]); got != want {
			t.Errorf("pixel %v = %v, want %v", p, got, want)
		}
	}
	if err := tgt.Unbind(); err != nil {
		t.Fatalf("Unbind: %v", err)
	}
	if tgt.Bound() {
		t.Error("Bound() = true after Unbind")
	}
}

func TestBindWithoutClearKeepsMirror(t *testing.T) {
	tgt, _ := NewTarget(HAL{}, TargetOptions{Width: 2, Height: 2})
	px := color.RGBA{R: 9, G: 8, B: 7, A: 255}
	tgt.Image().SetRGBA(0, 0, px)
	if err := tgt.Bind(); err != nil {
		t.Fatal(err)
	}
	if got := tgt.Image().RGBAAt(0, 0); got != px {
		t.Errorf("pixel = %v, want %v", got, px)
	}
}

func TestBindAfterDestroy(t *testing.T) {
	tgt, _ := NewTarget(HAL{}, TargetOptions{Width: 2, Height: 2})
	tgt.Destroy()
	tgt.Destroy()
	if err := tgt.Bind(); !errors.Is(err, ErrTargetDestroyed) {
		t.Errorf("Bind after Destroy = %v, want ErrTargetDestroyed", err)
	}
}

func TestNewTargetGPU(t *testing.T) {
	gpu := createNoopHAL(t)

	tgt, err := NewTarget(gpu, TargetOptions{
		Label: "eye", Width: 64, Height: 32, Stencil: true,
		Clear: true, ClearColor: gputypes.Color{A: 1},
	})
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	defer tgt.Destroy()

	if !tgt.IsGPU() {
		t.Fatal("IsGPU() = false with a HAL device")
	}
	if tgt.ColorView() == nil {
		t.Error("ColorView() = nil")
	}
	if tgt.DepthStencilView() == nil {
		t.Error("DepthStencilView() = nil with stencil")
	}

	for i := range 3 {
		if err := tgt.Bind(); err != nil {
			t.Fatalf("Bind %d: %v", i, err)
		}
		if err := tgt.Unbind(); err != nil {
			t.Fatalf("Unbind %d: %v", i, err)
		}
	}
}

// recordingQueue keeps a copy of every texture write.
type recordingQueue struct {
	hal.Queue
	writes []textureWrite
	fail   error
}

type textureWrite struct {
	texture hal.Texture
	data    []byte
	layout  hal.ImageDataLayout
	size    hal.Extent3D
}

func (q *recordingQueue) WriteTexture(dst *hal.ImageCopyTexture, data []byte, layout *hal.ImageDataLayout, size *hal.Extent3D) error {
	if q.fail != nil {
		return q.fail
	}
	q.writes = append(q.writes, textureWrite{
		texture: dst.Texture,
		data:    bytes.Clone(data),
		layout:  *layout,
		size:    *size,
	})
	return q.Queue.WriteTexture(dst, data, layout, size)
}

func TestUnbindUploadsMirror(t *testing.T) {
	gpu := createNoopHAL(t)
	queue := &recordingQueue{Queue: gpu.Queue}
	gpu.Queue = queue

	tgt, err := NewTarget(gpu, TargetOptions{
		Width: 4, Height: 2,
		Clear: true, ClearColor: gputypes.Color{B: 1, A: 1},
	})
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	defer tgt.Destroy()

	if err := tgt.Bind(); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if len(queue.writes) != 0 {
		t.Fatalf("writes before Unbind = %d, want 0", len(queue.writes))
	}
	tgt.Image().SetRGBA(3, 1, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	if err := tgt.Unbind(); err != nil {
		t.Fatalf("Unbind: %v", err)
	}

	if len(queue.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(queue.writes))
	}
	w := queue.writes[0]
	if w.texture != tgt.colorTex {
		t.Error("upload went to a texture other than the color texture")
	}
	if !bytes.Equal(w.data, tgt.Pixels()) {
		t.Error("uploaded bytes differ from the CPU mirror")
	}
	if w.layout.BytesPerRow != uint32(tgt.Stride()) || w.size.Width != 4 || w.size.Height != 2 {
		t.Errorf("layout = %+v, size = %+v", w.layout, w.size)
	}
}

func TestUnbindUploadFailure(t *testing.T) {
	gpu := createNoopHAL(t)
	cause := errors.New("device lost")
	gpu.Queue = &recordingQueue{Queue: gpu.Queue, fail: cause}

	tgt, err := NewTarget(gpu, TargetOptions{Width: 2, Height: 2})
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	defer tgt.Destroy()

	_ = tgt.Bind()
	if err := tgt.Unbind(); !errors.Is(err, cause) {
		t.Errorf("Unbind = %v, want it to wrap %v", err, cause)
	}
	if tgt.Bound() {
		t.Error("Bound() = true after a failed Unbind")
	}
}

func TestUnbindCPUOnlyDoesNotUpload(t *testing.T) {
	tgt, _ := NewTarget(HAL{}, TargetOptions{Width: 2, Height: 2})
	_ = tgt.Bind()
	if err := tgt.Unbind(); err != nil {
		t.Errorf("Unbind on CPU target = %v", err)
	}
}

func TestNewTargetGPUNoStencil(t *testing.T) {
	gpu := createNoopHAL(t)

	tgt, err := NewTarget(gpu, TargetOptions{Width: 16, Height: 16})
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	defer tgt.Destroy()
	if tgt.DepthStencilView() != nil {
		t.Error("DepthStencilView() != nil without stencil")
	}
}

func TestWaitIdle(t *testing.T) {
	ok, err := WaitIdle(nil, nil, 0)
	if !ok || err != nil {
		t.Errorf("WaitIdle(nil) = %v, %v, want true, nil", ok, err)
	}

	gpu := createNoopHAL(t)
	ok, err = WaitIdle(gpu.Device, gpu.Queue, 0)
	if err != nil {
		t.Fatalf("WaitIdle: %v", err)
	}
	if !ok {
		t.Error("WaitIdle timed out on noop device")
	}
}

// stalledQueue never reports a submission as completed.
type stalledQueue struct {
	hal.Queue
}

func (stalledQueue) PollCompleted() uint64 { return 0 }

func TestWaitIdleTimeout(t *testing.T) {
	gpu := createNoopHAL(t)
	ok, err := WaitIdle(gpu.Device, stalledQueue{gpu.Queue}, time.Millisecond)
	if err != nil {
		t.Fatalf("WaitIdle: %v", err)
	}
	if ok {
		t.Error("WaitIdle = true for a queue that never completes")
	}
}

func TestLensMaskOnTarget(t *testing.T) {
	gpu := createNoopHAL(t)

	mask, err := NewLensMask(gpu.Device)
	if err != nil {
		t.Fatalf("NewLensMask: %v", err)
	}
	defer mask.Destroy()

	tgt, err := NewTarget(gpu, TargetOptions{Width: 32, Height: 32, Stencil: true, Mask: mask})
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	defer tgt.Destroy()

	if err := tgt.Bind(); err != nil {
		t.Fatalf("Bind with mask: %v", err)
	}
	mask.Destroy()
	mask.Destroy()
}

func TestLensMaskNilDevice(t *testing.T) {
	if _, err := NewLensMask(nil); !errors.Is(err, ErrNoHAL) {
		t.Errorf("NewLensMask(nil) = %v, want ErrNoHAL", err)
	}
	var m *LensMask
	m.Record(nil)
	m.Destroy()
}

func TestCompileLensMask(t *testing.T) {
	words, err := compileSPIRV(lensMaskWGSL)
	if err != nil {
		if strings.Contains(err.Error(), "not yet implemented") ||
			strings.Contains(err.Error(), "not supported") {
			t.Skipf("naga limitation: %v", err)
		}
		t.Fatalf("compileSPIRV: %v", err)
	}
	if len(words) == 0 {
		t.Fatal("empty SPIR-V")
	}
	const spirvMagic = 0x07230203
	if words[0] != spirvMagic {
		t.Errorf("magic = %#x, want %#x", words[0], spirvMagic)
	}
}

func TestUnitToByte(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-1, 0},
		{0, 0},
		{0.5, 128},
		{1, 255},
		{2, 255},
	}
	for _, tt := range tests {
		if got := unitToByte(tt.in); got != tt.want {
			t.Errorf("unitToByte(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
