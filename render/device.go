// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
)

// DeviceHandle provides GPU device access from the host application.
//
// The vr layer RECEIVES the device from the host, it does NOT create one.
// Eye surfaces, the clear pass and the lens mask all live on the shared
// device so the compositor can consume them directly.
type DeviceHandle = gpucontext.DeviceProvider

// DefaultWaitTimeout bounds WaitIdle when the caller passes zero.
const DefaultWaitTimeout = 5 * time.Second

// ErrNoHAL is returned when a provider does not expose HAL types.
var ErrNoHAL = errors.New("render: provider does not expose HAL types")

// HAL is the low-level device and queue the render package encodes with.
// The zero value means CPU-only operation.
type HAL struct {
	Device hal.Device
	Queue  hal.Queue
}

// Valid reports whether both device and queue are present.
func (h HAL) Valid() bool {
	return h.Device != nil && h.Queue != nil
}

// HALFromProvider extracts the HAL device and queue from a host provider.
// The provider must implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue.
func HALFromProvider(provider DeviceHandle) (HAL, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return HAL{}, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return HAL{}, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return HAL{}, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}
	return HAL{Device: device, Queue: queue}, nil
}

// pollInterval is how often waitSubmission checks the queue.
const pollInterval = 100 * time.Microsecond

// WaitIdle blocks until all work previously submitted to queue has
// completed, or timeout elapses. It returns false on timeout.
// A zero HAL has nothing in flight and returns true immediately.
func WaitIdle(device hal.Device, queue hal.Queue, timeout time.Duration) (bool, error) {
	if device == nil || queue == nil {
		return true, nil
	}
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}

	// An empty submission completes after everything queued before it.
	idx, err := queue.Submit(nil)
	if err != nil {
		return false, fmt.Errorf("render: submit marker: %w", err)
	}
	return waitSubmission(queue, idx, timeout), nil
}

// waitSubmission polls queue until submission idx has completed. It
// returns false if timeout elapses first.
func waitSubmission(queue hal.Queue, idx uint64, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for queue.PollCompleted() < idx {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(pollInterval)
	}
	return true
}
