package bvh

import "github.com/rubengrim/swbvh/types"

// Locates a previously built BLAS inside the packed frame buffers.
type BlasRef struct {
	// Offset of the BLAS root in the packed node array.
	NodeOffset uint32

	// Offset of the first BLAS primitive in the packed primitive arrays.
	PrimitiveOffset uint32

	// Number of BLAS primitives.
	PrimitiveCount uint32
}

// An instance of a mesh placed in the world.
type Instance struct {
	ObjectToWorld types.Mat4
	WorldToObject types.Mat4

	Blas BlasRef

	// An opaque handle to external resources (e.g. the mesh index)
	// owned by the caller.
	Handle uint32

	// World-space bounds and their center.
	Bounds   AABB
	Centroid types.Vec3
}

// Create an instance of a BLAS whose root node bounds are blasRoot. The
// world-space bounds are calculated by transforming all 8 corners of
// blasRoot through objectToWorld.
func NewInstance(objectToWorld types.Mat4, blas BlasRef, blasRoot AABB, handle uint32) Instance {
	bounds := blasRoot.Transform(objectToWorld)
	return Instance{
		ObjectToWorld: objectToWorld,
		WorldToObject: objectToWorld.Inv(),
		Blas:          blas,
		Handle:        handle,
		Bounds:        bounds,
		Centroid:      bounds.Center(),
	}
}

// A top-level acceleration structure over mesh instances.
type TLAS struct {
	// BVH nodes; node 0 is the root. Leaf ranges index into Indices.
	Nodes []Node

	// A permutation of instance indices. The instance list itself is
	// never reordered.
	Indices []uint32

	// Build statistics.
	Stats Stats
}

// Returns true if the TLAS was built from zero instances.
func (t *TLAS) IsEmpty() bool {
	return t.Nodes[0].Kind(0) == NodeEmpty
}

// Build a TLAS over a list of instances. Zero instances produce a single
// sentinel root with Count == 0 and AOrFirst == 0.
func BuildTLAS(instances []Instance, opts Options) *TLAS {
	src := &instanceSource{
		instances: instances,
		perm:      make([]uint32, len(instances)),
	}
	for i := range src.perm {
		src.perm[i] = uint32(i)
	}

	nodes, stats := Build(src, opts)
	return &TLAS{
		Nodes:   nodes,
		Indices: src.perm,
		Stats:   stats,
	}
}

// Adapts an instance list to the Source interface. Swaps only touch the
// permutation array.
type instanceSource struct {
	instances []Instance
	perm      []uint32
}

func (s *instanceSource) Len() int                  { return len(s.perm) }
func (s *instanceSource) Bounds(i int) AABB         { return s.instances[s.perm[i]].Bounds }
func (s *instanceSource) Centroid(i int) types.Vec3 { return s.instances[s.perm[i]].Centroid }
func (s *instanceSource) Swap(i, j int)             { s.perm[i], s.perm[j] = s.perm[j], s.perm[i] }
