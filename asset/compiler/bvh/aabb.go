package bvh

import (
	"github.com/chewxy/math32"
	"github.com/rubengrim/swbvh/types"
)

// An axis-aligned bounding box. Once non-empty, Min <= Max componentwise.
type AABB struct {
	Min types.Vec3
	Max types.Vec3
}

// Create an empty AABB. Its Min is +Inf and its Max is -Inf so that the
// first Grow call establishes correct bounds.
func EmptyAABB() AABB {
	return AABB{
		Min: types.Splat3(math32.Inf(1)),
		Max: types.Splat3(math32.Inf(-1)),
	}
}

// Grow the box so it contains point p.
func (b *AABB) Grow(p types.Vec3) {
	b.Min = types.MinVec3(b.Min, p)
	b.Max = types.MaxVec3(b.Max, p)
}

// Grow the box so it contains box o. Growing by an empty box is a no-op.
func (b *AABB) GrowAABB(o AABB) {
	if o.IsEmpty() {
		return
	}
	b.Grow(o.Min)
	b.Grow(o.Max)
}

// Returns true if no point has been added to the box.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Get the box extent along each axis.
func (b AABB) Extent() types.Vec3 {
	return b.Max.Sub(b.Min)
}

// Get the box center.
func (b AABB) Center() types.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Half the surface area of the box. Only the relative ordering between
// boxes matters for split scoring. Empty boxes have zero area.
func (b AABB) Area() float32 {
	if b.IsEmpty() {
		return 0
	}
	e := b.Extent()
	return e[0]*e[1] + e[1]*e[2] + e[2]*e[0]
}

// Returns true if o lies entirely inside b. Every box contains the empty box.
func (b AABB) Contains(o AABB) bool {
	if o.IsEmpty() {
		return true
	}
	for axis := 0; axis < 3; axis++ {
		if o.Min[axis] < b.Min[axis] || o.Max[axis] > b.Max[axis] {
			return false
		}
	}
	return true
}

// Returns true if point p lies inside the box (boundary inclusive).
func (b AABB) ContainsPoint(p types.Vec3) bool {
	for axis := 0; axis < 3; axis++ {
		if p[axis] < b.Min[axis] || p[axis] > b.Max[axis] {
			return false
		}
	}
	return true
}

// Get the 8 box corners.
func (b AABB) Corners() [8]types.Vec3 {
	var corners [8]types.Vec3
	for i := range corners {
		for axis := 0; axis < 3; axis++ {
			if i&(1<<uint(axis)) == 0 {
				corners[i][axis] = b.Min[axis]
			} else {
				corners[i][axis] = b.Max[axis]
			}
		}
	}
	return corners
}

// Transform all 8 corners of the box through m and return their bounds.
// Transforming only two opposite corners is not enough once m contains a
// rotation.
func (b AABB) Transform(m types.Mat4) AABB {
	if b.IsEmpty() {
		return b
	}
	out := EmptyAABB()
	for _, c := range b.Corners() {
		out.Grow(m.TransformPoint(c))
	}
	return out
}

// Get the bounds of a triangle.
func triangleBounds(v0, v1, v2 types.Vec3) AABB {
	return AABB{
		Min: types.MinVec3(v0, types.MinVec3(v1, v2)),
		Max: types.MaxVec3(v0, types.MaxVec3(v1, v2)),
	}
}
