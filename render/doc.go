// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render owns the GPU side of the vr frame loop.
//
// # Key Principle
//
// The vr layer RECEIVES a GPU device from the host application, it does NOT
// create its own. A host passes its hal.Device and hal.Queue directly, or a
// gpucontext.DeviceProvider exposing HalDevice/HalQueue.
//
// # Surfaces
//
// Target is one eye's render surface: an RGBA8Unorm color texture, an
// optional Depth24PlusStencil8 texture and a CPU mirror. Without a device
// a Target is CPU-only, which is how tests and headless tools run.
//
// Bind encodes a clear pass and, when a LensMask is attached, marks the
// hidden area in the stencil.
//
// # Synchronization
//
// WaitIdle submits a fence and blocks until the queue drains. The frame
// loop calls it after handing both eyes to the compositor and before the
// post-present handoff.
package render
