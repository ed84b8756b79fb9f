package vr

import "github.com/gogpu/vr/tracking"

// MaxDevices is the number of device slots.
const MaxDevices = tracking.MaxDevices

// HMDSlot is the slot reserved for the head mounted display.
const HMDSlot = tracking.HMDSlot

// DevicePose is the latest tracking state of one device slot.
type DevicePose struct {
	// Transform is the device-to-tracker transform. It is meaningful only
	// when Valid is true.
	Transform Matrix4

	// Velocity is the linear velocity in m/s.
	Velocity Vec3

	// AngularVelocity is the angular velocity in rad/s.
	AngularVelocity Vec3

	// Valid is false when tracking was lost or the pose is outdated.
	Valid bool

	// Connected reports whether a device occupies the slot.
	Connected bool
}

// poseStore is the fixed arena of device poses, rewritten once per frame.
type poseStore [MaxDevices]DevicePose

func newPoseStore() *poseStore {
	var s poseStore
	for i := range s {
		s[i].Transform = Identity4()
	}
	return &s
}

// update copies raw poses into the store. An invalid pose keeps the
// previous transform and velocities; only the flags change.
func (s *poseStore) update(raw []tracking.RawPose) {
	n := min(len(raw), MaxDevices)
	for i := 0; i < n; i++ {
		rp := &raw[i]
		p := &s[i]
		p.Valid = rp.PoseValid
		p.Connected = rp.DeviceConnected
		if !rp.PoseValid {
			continue
		}
		p.Transform = FromMatrix34(rp.DeviceToAbsolute)
		p.Velocity = FromVector3(rp.Velocity)
		p.AngularVelocity = FromVector3(rp.AngularVelocity)
	}
}
