package bvh

import (
	"github.com/chewxy/math32"
	"github.com/rubengrim/swbvh/types"
)

const triangleEpsilon = 1e-7

// A ray with a precomputed reciprocal direction.
type Ray struct {
	Origin types.Vec3
	Dir    types.Vec3
	invDir types.Vec3
}

// Create a new ray.
func NewRay(origin, dir types.Vec3) Ray {
	return Ray{
		Origin: origin,
		Dir:    dir,
		invDir: types.Vec3{1 / dir[0], 1 / dir[1], 1 / dir[2]},
	}
}

// Transform the ray through m. The direction is not normalized so hit
// distances stay comparable across spaces.
func (r Ray) Transform(m types.Mat4) Ray {
	return NewRay(m.TransformPoint(r.Origin), m.TransformDir(r.Dir))
}

// Get the point at distance t along the ray.
func (r Ray) At(t float32) types.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// Intersect the ray with the box using the slab test. Returns the entry
// distance if the ray hits the box within [0, tMax].
func (b AABB) IntersectRay(r Ray, tMax float32) (float32, bool) {
	tNear, tFar := float32(0), tMax
	for axis := 0; axis < 3; axis++ {
		t1 := (b.Min[axis] - r.Origin[axis]) * r.invDir[axis]
		t2 := (b.Max[axis] - r.Origin[axis]) * r.invDir[axis]
		tNear = math32.Max(tNear, math32.Min(t1, t2))
		tFar = math32.Min(tFar, math32.Max(t1, t2))
	}
	return tNear, tNear <= tFar
}

// Intersect the ray with a triangle (Moller-Trumbore).
func IntersectTriangle(r Ray, v0, v1, v2 types.Vec3) (float32, bool) {
	e1 := v1.Sub(v0)
	e2 := v2.Sub(v0)
	p := r.Dir.Cross(e2)
	det := e1.Dot(p)
	if math32.Abs(det) < triangleEpsilon {
		return 0, false
	}

	invDet := 1 / det
	s := r.Origin.Sub(v0)
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(e1)
	v := r.Dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := e2.Dot(q) * invDet
	return t, t > triangleEpsilon
}

// Walk the tree in nodes with an explicit stack, calling visit for every
// leaf whose bounds the ray enters before tMax. visit returns the updated
// tMax so closer hits prune the remaining traversal.
func Traverse(nodes []Node, r Ray, tMax float32, visit func(first, count uint32, tMax float32) float32) float32 {
	if len(nodes) == 0 || nodes[0].Kind(0) == NodeEmpty {
		return tMax
	}
	if _, hit := nodes[0].Bounds().IntersectRay(r, tMax); !hit {
		return tMax
	}

	type entry struct {
		index uint32
		tNear float32
	}
	stack := make([]entry, 1, 64)
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if e.tNear > tMax {
			continue
		}

		node := &nodes[e.index]
		if node.IsLeaf() {
			first, count := node.Leaf()
			tMax = visit(first, count, tMax)
			continue
		}

		a, b := node.Children()
		tA, hitA := nodes[a].Bounds().IntersectRay(r, tMax)
		tB, hitB := nodes[b].Bounds().IntersectRay(r, tMax)

		// Push the farther child first so the nearer one is visited next.
		if hitA && hitB && tA < tB {
			stack = append(stack, entry{b, tB}, entry{a, tA})
			continue
		}
		if hitA {
			stack = append(stack, entry{a, tA})
		}
		if hitB {
			stack = append(stack, entry{b, tB})
		}
	}
	return tMax
}

// A ray-triangle hit.
type Hit struct {
	T float32

	// Position of the primitive in the (reordered) primitive list.
	Primitive uint32

	// The original triangle index.
	TriangleID uint32
}

// Find the closest triangle hit along the ray within tMax.
func (b *BLAS) Intersect(r Ray, tMax float32) (Hit, bool) {
	var hit Hit
	found := false
	Traverse(b.Nodes, r, tMax, func(first, count uint32, tMax float32) float32 {
		for i := first; i < first+count; i++ {
			prim := &b.Primitives[i]
			t, ok := IntersectTriangle(r, prim.Vertices[0], prim.Vertices[1], prim.Vertices[2])
			if ok && t < tMax {
				tMax = t
				hit = Hit{T: t, Primitive: i, TriangleID: prim.TriangleID}
				found = true
			}
		}
		return tMax
	})
	return hit, found
}
