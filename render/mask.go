// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vr/internal/logging"
)

// lensMaskWGSL draws a full-screen triangle. Fragments inside the lens
// ellipse are discarded; the rest mark the stencil so later passes can
// skip pixels the optics never show.
const lensMaskWGSL = `
const LENS_RADIUS: vec2<f32> = vec2<f32>(1.0, 1.0);

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) ndc: vec2<f32>,
}

@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> VertexOutput {
    let x = f32((idx << 1u) & 2u) * 2.0 - 1.0;
    let y = f32(idx & 2u) * 2.0 - 1.0;
    var out: VertexOutput;
    out.position = vec4<f32>(x, y, 0.0, 1.0);
    out.ndc = vec2<f32>(x, y);
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let p = in.ndc / LENS_RADIUS;
    if dot(p, p) < 1.0 {
        discard;
    }
    return vec4<f32>(0.0, 0.0, 0.0, 0.0);
}
`

// LensMask is the pipeline that writes the hidden-area mask into a
// target's stencil. One mask serves every target on a device.
type LensMask struct {
	device   hal.Device
	shader   hal.ShaderModule
	layout   hal.PipelineLayout
	pipeline hal.RenderPipeline
}

// NewLensMask builds the mask pipeline on device. The shader is compiled
// to SPIR-V with naga; if that fails the WGSL source is handed to the
// device instead.
func NewLensMask(device hal.Device) (*LensMask, error) {
	if device == nil {
		return nil, ErrNoHAL
	}
	m := &LensMask{device: device}
	if err := m.createPipeline(); err != nil {
		m.Destroy()
		return nil, err
	}
	return m, nil
}

func (m *LensMask) createPipeline() error {
	source := hal.ShaderSource{WGSL: lensMaskWGSL}
	if spirv, err := compileSPIRV(lensMaskWGSL); err != nil {
		logging.Get().Warn("lens mask: naga compile failed, using WGSL", "err", err)
	} else {
		source = hal.ShaderSource{SPIRV: spirv}
	}

	shader, err := m.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "lens_mask_shader",
		Source: source,
	})
	if err != nil {
		return fmt.Errorf("render: create lens mask shader: %w", err)
	}
	m.shader = shader

	layout, err := m.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "lens_mask_layout",
		BindGroupLayouts: []hal.BindGroupLayout{},
	})
	if err != nil {
		return fmt.Errorf("render: create lens mask layout: %w", err)
	}
	m.layout = layout

	markStencil := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationIncrementWrap,
	}
	pipeline, err := m.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "lens_mask_pipeline",
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    ColorFormat,
					WriteMask: gputypes.ColorWriteMaskNone,
				},
			},
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            DepthStencilFormat,
			DepthWriteEnabled: false,
			DepthCompare:      gputypes.CompareFunctionAlways,
			StencilFront:      markStencil,
			StencilBack:       markStencil,
			StencilReadMask:   0xFF,
			StencilWriteMask:  0xFF,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("render: create lens mask pipeline: %w", err)
	}
	m.pipeline = pipeline
	return nil
}

// Record draws the mask into the current pass. The pass must have a
// depth/stencil attachment in DepthStencilFormat.
func (m *LensMask) Record(rp hal.RenderPassEncoder) {
	if m == nil || m.pipeline == nil {
		return
	}
	rp.SetPipeline(m.pipeline)
	rp.Draw(3, 1, 0, 0)
}

// Destroy releases the pipeline. It is safe to call more than once.
func (m *LensMask) Destroy() {
	if m == nil || m.device == nil {
		return
	}
	if m.pipeline != nil {
		m.device.DestroyRenderPipeline(m.pipeline)
		m.pipeline = nil
	}
	if m.layout != nil {
		m.device.DestroyPipelineLayout(m.layout)
		m.layout = nil
	}
	if m.shader != nil {
		m.device.DestroyShaderModule(m.shader)
		m.shader = nil
	}
}

// compileSPIRV compiles WGSL to little-endian SPIR-V words.
func compileSPIRV(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("render: compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("render: compile shader: SPIR-V size %d not a multiple of 4", len(spirvBytes))
	}
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
