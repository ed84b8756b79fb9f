package vr

import "github.com/gogpu/vr/tracking"

// FromMatrix34 converts a runtime row-major 3x4 affine transform to a
// column-major Matrix4, synthesizing the bottom row [0 0 0 1].
func FromMatrix34(raw tracking.Matrix34) Matrix4 {
	var m Matrix4
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			m[c*4+r] = raw[r*4+c]
		}
	}
	m[15] = 1
	return m
}

// FromMatrix44 converts a runtime row-major 4x4 matrix to column-major.
func FromMatrix44(raw tracking.Matrix44) Matrix4 {
	var m Matrix4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[c*4+r] = raw[r*4+c]
		}
	}
	return m
}

// ToMatrix34 converts the top three rows of m back to the runtime layout.
// The bottom row of m is discarded.
func ToMatrix34(m Matrix4) tracking.Matrix34 {
	var raw tracking.Matrix34
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			raw[r*4+c] = m[c*4+r]
		}
	}
	return raw
}

// FromVector3 converts a runtime vector.
func FromVector3(v tracking.Vector3) Vec3 {
	return Vec3{X: v[0], Y: v[1], Z: v[2]}
}
