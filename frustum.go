package vr

// Plane is the set of points p with Normal·p + D = 0. Frustum planes
// point their normals into the view volume.
type Plane struct {
	Normal Vec3
	D      float32
}

// Distance returns the signed distance of p from the plane.
func (pl Plane) Distance(p Vec3) float32 {
	return pl.Normal.Dot(p) + pl.D
}

func planeFromPoints(a, b, c Vec3) Plane {
	n := b.Sub(a).Cross(c.Sub(a)).Normalize()
	return Plane{Normal: n, D: -n.Dot(a)}
}

// Frustum plane indices.
const (
	PlaneNear = iota
	PlaneFar
	PlaneLeft
	PlaneRight
	PlaneTop
	PlaneBottom
)

// NDC depth range of the projections the runtime hands out. WebGPU clip
// space maps the near plane to 0 and the far plane to 1.
const (
	ndcNear = 0
	ndcFar  = 1
)

var ndcCorners = [8]Vec3{
	{-1, -1, ndcNear}, {1, -1, ndcNear}, {1, 1, ndcNear}, {-1, 1, ndcNear},
	{-1, -1, ndcFar}, {1, -1, ndcFar}, {1, 1, ndcFar}, {-1, 1, ndcFar},
}

// Frustum is the view volume of a camera in world space.
type Frustum struct {
	// Corners holds the near plane corners (0-3) followed by the far
	// plane corners (4-7), counter-clockwise from bottom left.
	Corners [8]Vec3

	// Planes is indexed by PlaneNear through PlaneBottom.
	Planes [6]Plane
}

// Update recomputes the frustum from the inverse of a combined
// projection-view matrix.
func (f *Frustum) Update(invCombined Matrix4) {
	for i, ndc := range ndcCorners {
		f.Corners[i] = invCombined.Project(ndc)
	}
	c := &f.Corners
	f.Planes[PlaneNear] = planeFromPoints(c[0], c[1], c[2])
	f.Planes[PlaneFar] = planeFromPoints(c[4], c[6], c[5])
	f.Planes[PlaneLeft] = planeFromPoints(c[0], c[3], c[7])
	f.Planes[PlaneRight] = planeFromPoints(c[1], c[5], c[6])
	f.Planes[PlaneTop] = planeFromPoints(c[3], c[2], c[6])
	f.Planes[PlaneBottom] = planeFromPoints(c[0], c[4], c[5])

	var center Vec3
	for _, p := range c {
		center = center.Add(p)
	}
	center = center.Mul(1.0 / 8)
	for i := range f.Planes {
		if f.Planes[i].Distance(center) < 0 {
			f.Planes[i].Normal = f.Planes[i].Normal.Neg()
			f.Planes[i].D = -f.Planes[i].D
		}
	}
}

// PointInside reports whether p lies inside or on the frustum.
func (f *Frustum) PointInside(p Vec3) bool {
	for _, pl := range f.Planes {
		if pl.Distance(p) < 0 {
			return false
		}
	}
	return true
}

// SphereInside reports whether a sphere intersects the frustum.
func (f *Frustum) SphereInside(center Vec3, radius float32) bool {
	for _, pl := range f.Planes {
		if pl.Distance(center) < -radius {
			return false
		}
	}
	return true
}
