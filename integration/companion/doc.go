// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package companion mirrors one eye of a vr.Context into a desktop window.
//
// The data flow is:
//
//	eye surface (CPU mirror) -> scaled frame -> GPU texture -> window
//
// # Usage
//
//	w, h := ctx.CompanionSize()
//	mirror, err := companion.New(w, h, companion.WithEye(vr.EyeLeft))
//	if err != nil {
//	    return err
//	}
//	defer mirror.Close()
//
//	// after ctx.End():
//	if err := mirror.Update(ctx); err != nil {
//	    return err
//	}
//	return mirror.RenderTo(dc)
//
// dc is any gpucontext.TextureDrawer, such as the draw context a gogpu
// window hands to its draw callback.
//
// Frames whose size differs from the eye surface are scaled with
// golang.org/x/image/draw.
package companion
