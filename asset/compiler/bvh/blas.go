package bvh

import (
	"errors"
	"fmt"

	"github.com/rubengrim/swbvh/asset/mesh"
	"github.com/rubengrim/swbvh/types"
	"golang.org/x/exp/constraints"
)

var (
	// Returned when building a BLAS for a non-indexed mesh. Such meshes
	// do not participate in ray queries.
	ErrMissingIndexBuffer = errors.New("bvh: mesh has no index buffer")

	// Returned when the index buffer references a missing vertex.
	ErrIndexOutOfRange = errors.New("bvh: vertex index out of range")
)

// A triangle primitive.
type Primitive struct {
	Vertices [3]types.Vec3

	// The triangle bounds and their center. The bounds center rather than
	// the vertex average is used as the split key.
	Bounds   AABB
	Centroid types.Vec3

	// The index of the triangle in the source mesh. It travels with the
	// primitive when the builder reorders the primitive list.
	TriangleID uint32
}

// Create a primitive for a triangle.
func NewPrimitive(v0, v1, v2 types.Vec3, triangleID uint32) Primitive {
	bounds := triangleBounds(v0, v1, v2)
	return Primitive{
		Vertices:   [3]types.Vec3{v0, v1, v2},
		Bounds:     bounds,
		Centroid:   bounds.Center(),
		TriangleID: triangleID,
	}
}

// Convert the mesh triangle list into a primitive list. Fails with
// ErrMissingIndexBuffer if the mesh is not indexed.
func ExtractPrimitives(m *mesh.Mesh) ([]Primitive, error) {
	switch {
	case m.Indices16() != nil:
		return extractPrimitives(m.Positions(), m.Indices16())
	case m.Indices32() != nil:
		return extractPrimitives(m.Positions(), m.Indices32())
	default:
		return nil, ErrMissingIndexBuffer
	}
}

func extractPrimitives[I constraints.Unsigned](positions []float32, indices []I) ([]Primitive, error) {
	vertexCount := uint64(len(positions) / 3)
	vertex := func(index I) types.Vec3 {
		o := 3 * int(index)
		return types.Vec3{positions[o], positions[o+1], positions[o+2]}
	}

	prims := make([]Primitive, len(indices)/3)
	for tri := range prims {
		i0, i1, i2 := indices[3*tri], indices[3*tri+1], indices[3*tri+2]
		if uint64(i0) >= vertexCount || uint64(i1) >= vertexCount || uint64(i2) >= vertexCount {
			return nil, fmt.Errorf("triangle %d: %w", tri, ErrIndexOutOfRange)
		}
		prims[tri] = NewPrimitive(vertex(i0), vertex(i1), vertex(i2), uint32(tri))
	}
	return prims, nil
}

// A bottom-level acceleration structure over the triangles of one mesh.
type BLAS struct {
	// BVH nodes; node 0 is the root. Leaf ranges index into Primitives.
	Nodes []Node

	// Primitives reordered by the builder.
	Primitives []Primitive

	// Build statistics.
	Stats Stats
}

// Get the number of primitives.
func (b *BLAS) PrimitiveCount() int {
	return len(b.Primitives)
}

// Get the root node bounds.
func (b *BLAS) Bounds() AABB {
	return b.Nodes[0].Bounds()
}

// Get the original triangle index for each reordered primitive. This is the
// index array that the GPU traversal path uses to resolve leaf ranges.
func (b *BLAS) TriangleIDs() []uint32 {
	ids := make([]uint32, len(b.Primitives))
	for i := range b.Primitives {
		ids[i] = b.Primitives[i].TriangleID
	}
	return ids
}

// Build a BLAS for a mesh. A mesh without an index buffer yields
// ErrMissingIndexBuffer. A mesh with an empty index buffer yields a tree
// with a single empty root.
func BuildBLAS(m *mesh.Mesh, opts Options) (*BLAS, error) {
	prims, err := ExtractPrimitives(m)
	if err != nil {
		return nil, err
	}
	return BuildBLASFromPrimitives(prims, opts), nil
}

// Build a BLAS over an existing primitive list. The list is reordered in
// place and owned by the returned BLAS.
func BuildBLASFromPrimitives(prims []Primitive, opts Options) *BLAS {
	nodes, stats := Build(primitiveSource(prims), opts)
	return &BLAS{
		Nodes:      nodes,
		Primitives: prims,
		Stats:      stats,
	}
}

// Adapts a primitive list to the Source interface; primitives are
// swapped in place.
type primitiveSource []Primitive

func (s primitiveSource) Len() int                  { return len(s) }
func (s primitiveSource) Bounds(i int) AABB         { return s[i].Bounds }
func (s primitiveSource) Centroid(i int) types.Vec3 { return s[i].Centroid }
func (s primitiveSource) Swap(i, j int)             { s[i], s[j] = s[j], s[i] }
