// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package companion

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/gogpu/vr"
	"github.com/gogpu/vr/tracking"
	"github.com/gogpu/vr/tracking/sim"
)

// mockTexture implements gpucontext.Texture and gpucontext.TextureUpdater.
type mockTexture struct {
	width     int
	height    int
	data      []byte
	destroyed bool
	updated   int
}

func (m *mockTexture) Width() int  { return m.width }
func (m *mockTexture) Height() int { return m.height }

func (m *mockTexture) UpdateData(data []byte) error {
	m.data = append(m.data[:0], data...)
	m.updated++
	return nil
}

func (m *mockTexture) Destroy() {
	m.destroyed = true
}

// mockCreator implements gpucontext.TextureCreator.
type mockCreator struct {
	textures []*mockTexture
	failNext bool
}

func (m *mockCreator) NewTextureFromRGBA(width, height int, data []byte) (gpucontext.Texture, error) {
	if m.failNext {
		m.failNext = false
		return nil, errors.New("mock texture creation failed")
	}
	tex := &mockTexture{
		width:  width,
		height: height,
		data:   append([]byte(nil), data...),
	}
	m.textures = append(m.textures, tex)
	return tex, nil
}

// mockDrawContext implements gpucontext.TextureDrawer.
type mockDrawContext struct {
	creator      *mockCreator
	drawnTexture gpucontext.Texture
	drawCount    int
}

func (m *mockDrawContext) DrawTexture(tex gpucontext.Texture, x, y float32) error {
	m.drawnTexture = tex
	m.drawCount++
	return nil
}

func (m *mockDrawContext) TextureCreator() gpucontext.TextureCreator {
	if m.creator == nil {
		return nil
	}
	return m.creator
}

var (
	_ gpucontext.TextureDrawer  = (*mockDrawContext)(nil)
	_ gpucontext.TextureCreator = (*mockCreator)(nil)
	_ gpucontext.TextureUpdater = (*mockTexture)(nil)
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		height  int
		opts    []Option
		wantErr bool
	}{
		{"valid", 64, 48, nil, false},
		{"right eye", 64, 48, []Option{WithEye(vr.EyeRight)}, false},
		{"nearest neighbor", 64, 48, []Option{WithScaler(draw.NearestNeighbor)}, false},
		{"zero width", 0, 48, nil, true},
		{"negative height", 64, -1, nil, true},
		{"invalid eye", 64, 48, []Option{WithEye(vr.Eye(5))}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.width, tt.height, tt.opts...)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if w, h := m.Size(); w != tt.width || h != tt.height {
				t.Errorf("Size() = %dx%d, want %dx%d", w, h, tt.width, tt.height)
			}
			if !m.IsDirty() {
				t.Error("IsDirty() = false, want true (newly created)")
			}
		})
	}

	if _, err := New(0, 0); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("New(0, 0) = %v, want ErrInvalidDimensions", err)
	}
}

func TestUpdateFromScales(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	tests := []struct {
		name string
		src  *image.RGBA
	}{
		{"same size", solid(4, 4, red)},
		{"downscale", solid(16, 12, red)},
		{"upscale", solid(2, 2, red)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := New(4, 4)
			if err := m.UpdateFrom(tt.src); err != nil {
				t.Fatal(err)
			}
			for _, p := range []image.Point{{0, 0}, {3, 3}, {1, 2}} {
				if got := m.Image().RGBAAt(p.X, p.Y); got != red {
					t.Errorf("pixel %v = %v, want %v", p, got, red)
				}
			}
		})
	}
}

func TestUpdateFromNil(t *testing.T) {
	m, _ := New(4, 4)
	if err := m.UpdateFrom(nil); err == nil {
		t.Error("expected error for nil source")
	}
}

func TestRenderToCreatesThenUpdates(t *testing.T) {
	m, _ := New(4, 4)
	dc := &mockDrawContext{creator: &mockCreator{}}

	if err := m.RenderTo(dc); err != nil {
		t.Fatalf("first RenderTo: %v", err)
	}
	if len(dc.creator.textures) != 1 {
		t.Fatalf("textures created = %d, want 1", len(dc.creator.textures))
	}
	tex := dc.creator.textures[0]
	if tex.width != 4 || tex.height != 4 || len(tex.data) != 4*4*4 {
		t.Errorf("texture = %dx%d with %d bytes", tex.width, tex.height, len(tex.data))
	}
	if dc.drawnTexture != gpucontext.Texture(tex) || m.IsDirty() {
		t.Error("texture not drawn or mirror still dirty")
	}
	if got := m.Texture(); got.Width() != 4 || got.Height() != 4 {
		t.Errorf("Texture() = %dx%d, want 4x4", got.Width(), got.Height())
	}

	// Clean frames are drawn without another upload.
	if err := m.RenderTo(dc); err != nil {
		t.Fatal(err)
	}
	if tex.updated != 0 || dc.drawCount != 2 {
		t.Errorf("updated = %d, draws = %d, want 0, 2", tex.updated, dc.drawCount)
	}

	_ = m.UpdateFrom(solid(4, 4, color.RGBA{G: 255, A: 255}))
	if err := m.RenderTo(dc); err != nil {
		t.Fatal(err)
	}
	if tex.updated != 1 || len(dc.creator.textures) != 1 {
		t.Errorf("updated = %d, created = %d, want 1, 1", tex.updated, len(dc.creator.textures))
	}
	if tex.data[1] != 255 {
		t.Errorf("uploaded green = %d, want 255", tex.data[1])
	}
}

func TestRenderToErrors(t *testing.T) {
	m, _ := New(4, 4)
	if err := m.RenderTo(&mockDrawContext{}); !errors.Is(err, ErrNoCreator) {
		t.Errorf("RenderTo without creator = %v, want ErrNoCreator", err)
	}

	dc := &mockDrawContext{creator: &mockCreator{failNext: true}}
	if err := m.RenderTo(dc); err == nil {
		t.Error("expected creation failure")
	}
	if dc.drawCount != 0 {
		t.Error("nothing should be drawn after a failed upload")
	}
	if err := m.RenderTo(dc); err != nil {
		t.Errorf("retry after failure: %v", err)
	}
}

func TestResizeRecreatesTexture(t *testing.T) {
	m, _ := New(4, 4)
	dc := &mockDrawContext{creator: &mockCreator{}}
	_ = m.RenderTo(dc)
	first := dc.creator.textures[0]

	if err := m.Resize(4, 4); err != nil {
		t.Fatal(err)
	}
	if err := m.Resize(8, 2); err != nil {
		t.Fatal(err)
	}
	if err := m.RenderTo(dc); err != nil {
		t.Fatal(err)
	}
	if len(dc.creator.textures) != 2 {
		t.Fatalf("textures created = %d, want 2", len(dc.creator.textures))
	}
	if !first.destroyed {
		t.Error("old texture not destroyed after the new upload")
	}
	if second := dc.creator.textures[1]; second.width != 8 || second.height != 2 {
		t.Errorf("new texture = %dx%d, want 8x2", second.width, second.height)
	}
	if err := m.Resize(0, 2); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("Resize(0, 2) = %v, want ErrInvalidDimensions", err)
	}
}

func TestClose(t *testing.T) {
	m, _ := New(4, 4)
	dc := &mockDrawContext{creator: &mockCreator{}}
	_ = m.RenderTo(dc)

	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if !dc.creator.textures[0].destroyed {
		t.Error("texture not destroyed")
	}
	if m.Texture() != nil {
		t.Error("Texture() should be nil after Close")
	}
	for name, err := range map[string]error{
		"RenderTo":   m.RenderTo(dc),
		"UpdateFrom": m.UpdateFrom(solid(1, 1, color.RGBA{})),
		"Resize":     m.Resize(2, 2),
	} {
		if !errors.Is(err, ErrMirrorClosed) {
			t.Errorf("%s after Close = %v, want ErrMirrorClosed", name, err)
		}
	}
}

func TestUpdateFromContext(t *testing.T) {
	rt, err := sim.New(sim.Config{
		Width:       8,
		Height:      8,
		IPD:         0.064,
		LeftFrustum: sim.Frustum{Left: -1, Right: 1, Bottom: -1, Top: 1},
		Devices:     []sim.DeviceSpec{{Slot: 0, Class: tracking.ClassHMD, Pose: tracking.Identity34()}},
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx, err := vr.New(vr.WithRuntime(rt), vr.WithClearColor(gputypes.Color{G: 1, A: 1}))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = ctx.Close() }()

	if err := ctx.Begin(); err != nil {
		t.Fatal(err)
	}
	for _, eye := range []vr.Eye{vr.EyeLeft, vr.EyeRight} {
		_ = ctx.BeginEye(eye)
		_ = ctx.EndEye()
	}
	if err := ctx.End(); err != nil {
		t.Fatal(err)
	}

	m, _ := New(4, 4, WithEye(vr.EyeRight))
	if err := m.Update(ctx); err != nil {
		t.Fatalf("Update: %v", err)
	}
	want := color.RGBA{G: 255, A: 255}
	if got := m.Image().RGBAAt(2, 2); got != want {
		t.Errorf("mirrored pixel = %v, want %v", got, want)
	}

	_ = ctx.Close()
	if err := m.Update(ctx); !errors.Is(err, vr.ErrClosed) {
		t.Errorf("Update after Close = %v, want vr.ErrClosed", err)
	}
}
