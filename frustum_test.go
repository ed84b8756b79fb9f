package vr

import "testing"

// testFrustum returns the frustum of a 90° symmetric projection with
// near 1 and far 10, looking down -Z from the origin.
func testFrustum(t *testing.T) Frustum {
	t.Helper()
	const near, far float32 = 1, 10
	var proj Matrix4
	proj[0] = 1
	proj[5] = 1
	proj[10] = -far / (far - near)
	proj[11] = -1
	proj[14] = -far * near / (far - near)

	inv, ok := proj.Inverse()
	if !ok {
		t.Fatal("projection is singular")
	}
	var f Frustum
	f.Update(inv)
	return f
}

func TestFrustumCorners(t *testing.T) {
	f := testFrustum(t)
	tests := []struct {
		index int
		want  Vec3
	}{
		{0, V3(-1, -1, -1)},
		{2, V3(1, 1, -1)},
		{4, V3(-10, -10, -10)},
		{6, V3(10, 10, -10)},
	}
	for _, tt := range tests {
		if got := f.Corners[tt.index]; !got.Approx(tt.want, eps) {
			t.Errorf("Corners[%d] = %v, want %v", tt.index, got, tt.want)
		}
	}
}

func TestFrustumPlanesFaceInward(t *testing.T) {
	f := testFrustum(t)
	if got := f.Planes[PlaneNear].Normal; !got.Approx(V3(0, 0, -1), eps) {
		t.Errorf("near normal = %v, want (0, 0, -1)", got)
	}
	if got := f.Planes[PlaneFar].Normal; !got.Approx(V3(0, 0, 1), eps) {
		t.Errorf("far normal = %v, want (0, 0, 1)", got)
	}
	inside := V3(0, 0, -5)
	for i, pl := range f.Planes {
		if d := pl.Distance(inside); d <= 0 {
			t.Errorf("plane %d: distance to center = %v, want > 0", i, d)
		}
	}
}

func TestFrustumPointInside(t *testing.T) {
	f := testFrustum(t)
	tests := []struct {
		name string
		p    Vec3
		want bool
	}{
		{"center", V3(0, 0, -5), true},
		{"near right edge", V3(4, 0, -5), true},
		{"before near", V3(0, 0, -0.5), false},
		{"beyond far", V3(0, 0, -11), false},
		{"behind", V3(0, 0, 5), false},
		{"right", V3(6, 0, -5), false},
		{"left", V3(-6, 0, -5), false},
		{"above", V3(0, 6, -5), false},
		{"below", V3(0, -6, -5), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.PointInside(tt.p); got != tt.want {
				t.Errorf("PointInside(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestFrustumSphereInside(t *testing.T) {
	f := testFrustum(t)
	tests := []struct {
		name   string
		center Vec3
		radius float32
		want   bool
	}{
		{"inside", V3(0, 0, -5), 1, true},
		{"straddles right plane", V3(6, 0, -5), 2, true},
		{"clear of right plane", V3(9, 0, -5), 1, false},
		{"straddles far plane", V3(0, 0, -10.5), 1, true},
		{"behind near plane", V3(0, 0, 2), 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.SphereInside(tt.center, tt.radius); got != tt.want {
				t.Errorf("SphereInside(%v, %v) = %v, want %v", tt.center, tt.radius, got, tt.want)
			}
		})
	}
}
