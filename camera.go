package vr

import "github.com/gogpu/vr/tracking"

// Default clip planes.
const (
	DefaultNear = 0.1
	DefaultFar  = 1000
)

// Camera is the per-eye camera derived from tracking data each frame.
//
// Begin overwrites every field except Near, Far and Offset. Only Combined,
// InvCombined and Frustum are authoritative; Position, Direction and Up
// are derived from View on request.
type Camera struct {
	Eye Eye

	// Near and Far are the clip plane distances passed to the runtime.
	Near, Far float32

	// Offset positions the camera in world space on top of the
	// context's tracker-to-world transform.
	Offset Vec3

	Projection   Matrix4
	EyeToHead    Matrix4
	InvEyeToHead Matrix4

	// View is the inverse of the world-space head pose.
	View Matrix4

	// Combined is Projection × InvEyeToHead × View.
	Combined    Matrix4
	InvCombined Matrix4

	Frustum Frustum
}

func newCamera(eye Eye, near, far float32) Camera {
	return Camera{
		Eye:          eye,
		Near:         near,
		Far:          far,
		Projection:   Identity4(),
		EyeToHead:    Identity4(),
		InvEyeToHead: Identity4(),
		View:         Identity4(),
		Combined:     Identity4(),
		InvCombined:  Identity4(),
	}
}

// update derives the camera from the runtime and the world-space head
// pose. It reports false, leaving the camera unchanged, when a matrix
// is singular.
func (c *Camera) update(rt tracking.Runtime, head Matrix4) bool {
	proj := FromMatrix44(rt.ProjectionMatrix(c.Eye, c.Near, c.Far))
	eyeToHead := FromMatrix34(rt.EyeToHeadTransform(c.Eye))
	invEye, ok := eyeToHead.Inverse()
	if !ok {
		return false
	}
	view, ok := Translate4(c.Offset.X, c.Offset.Y, c.Offset.Z).Mul(head).Inverse()
	if !ok {
		return false
	}
	combined := proj.Mul(invEye).Mul(view)
	invCombined, ok := combined.Inverse()
	if !ok {
		return false
	}

	c.Projection = proj
	c.EyeToHead = eyeToHead
	c.InvEyeToHead = invEye
	c.View = view
	c.Combined = combined
	c.InvCombined = invCombined
	c.Frustum.Update(invCombined)
	return true
}

// eyeToWorld returns the eye's world transform, the inverse of
// InvEyeToHead × View.
func (c *Camera) eyeToWorld() Matrix4 {
	m, _ := c.InvEyeToHead.Mul(c.View).Inverse()
	return m
}

// Position returns the eye position in world space.
func (c *Camera) Position() Vec3 {
	return c.eyeToWorld().Translation()
}

// Direction returns the unit view direction in world space.
func (c *Camera) Direction() Vec3 {
	return c.eyeToWorld().TransformDirection(Vec3{Z: -1}).Normalize()
}

// Up returns the unit up vector in world space.
func (c *Camera) Up() Vec3 {
	return c.eyeToWorld().TransformDirection(Vec3{Y: 1}).Normalize()
}
