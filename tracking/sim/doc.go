// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package sim provides a deterministic in-process tracking runtime.
//
// Importing the package registers the "sim" driver with the tracking
// registry at low priority, so it is chosen only when no hardware driver
// is available:
//
//	import _ "github.com/gogpu/vr/tracking/sim"
//
// Tests construct a Runtime directly and script device activity between
// frames:
//
//	rt, _ := sim.New(sim.Config{Width: 64, Height: 64})
//	rt.Connect(3, tracking.ClassController, tracking.RoleRightHand)
//	rt.Press(3, 7)
//
// Every Submit, PostPresentHandoff and TriggerHapticPulse is recorded for
// later inspection.
package sim
