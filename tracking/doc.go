// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package tracking defines the contract between vr and a head mounted
// display runtime.
//
// A Runtime bundles the two halves of such a subsystem: the tracking system
// (device classes, roles, poses, events, eye geometry) and the compositor
// (frame pacing, eye submission). Raw data keeps the runtime's own layout,
// row-major matrices included; conversion to the engine's column-major
// convention happens in package vr.
//
// Drivers register with a priority and are started by name or by
// preference:
//
//	rt, err := tracking.InitDefault()
//	if err != nil {
//	    // err matches tracking.ErrInit
//	}
//	defer rt.Shutdown()
//
// The simulator in tracking/sim registers itself as "sim".
package tracking
