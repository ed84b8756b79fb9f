package vr

import "testing"

const eps = 1e-4

func TestMatrixMulOrder(t *testing.T) {
	// Translate after scale: the scale applies first.
	scale := Identity4()
	scale[0], scale[5], scale[10] = 2, 2, 2
	m := Translate4(1, 0, 0).Mul(scale)

	if got := m.TransformPoint(V3(1, 1, 1)); !got.Approx(V3(3, 2, 2), eps) {
		t.Errorf("TransformPoint = %v, want (3, 2, 2)", got)
	}
	if got := m.TransformDirection(V3(1, 0, 0)); !got.Approx(V3(2, 0, 0), eps) {
		t.Errorf("TransformDirection = %v, want (2, 0, 0)", got)
	}
}

func TestMatrixInverse(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix4
	}{
		{"identity", Identity4()},
		{"translation", Translate4(1, 2, 3)},
		{"rotation", Matrix4{
			0, 1, 0, 0,
			-1, 0, 0, 0,
			0, 0, 1, 0,
			5, 0, -2, 1,
		}},
		{"projection", Matrix4{
			1, 0, 0, 0,
			0, 1, 0, 0,
			0, 0, -1.001, -1,
			0, 0, -0.1001, 0,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, ok := tt.m.Inverse()
			if !ok {
				t.Fatal("Inverse() reported singular")
			}
			if got := tt.m.Mul(inv); !got.Approx(Identity4(), eps) {
				t.Errorf("m × inv = %v, want identity", got)
			}
		})
	}
}

func TestMatrixInverseSingular(t *testing.T) {
	var zero Matrix4
	inv, ok := zero.Inverse()
	if ok {
		t.Error("Inverse() of zero matrix reported ok")
	}
	if !inv.IsIdentity() {
		t.Errorf("singular Inverse() = %v, want identity", inv)
	}
}

func TestMatrixProject(t *testing.T) {
	m := Identity4()
	m[15] = 2
	if got := m.Project(V3(2, 4, 6)); !got.Approx(V3(1, 2, 3), eps) {
		t.Errorf("Project = %v, want (1, 2, 3)", got)
	}
}

func TestVec3(t *testing.T) {
	a, b := V3(1, 0, 0), V3(0, 1, 0)
	if got := a.Cross(b); got != V3(0, 0, 1) {
		t.Errorf("Cross = %v", got)
	}
	if got := a.Add(b).Sub(a); got != b {
		t.Errorf("Add/Sub = %v", got)
	}
	if got := V3(3, 4, 0).Length(); got != 5 {
		t.Errorf("Length = %v", got)
	}
	if got := V3(0, 0, -5).Normalize(); got != V3(0, 0, -1) {
		t.Errorf("Normalize = %v", got)
	}
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("Normalize(zero) = %v", got)
	}
}
