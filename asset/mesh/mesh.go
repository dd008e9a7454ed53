// Package mesh defines the indexed triangle mesh consumed by the BVH builder.
package mesh

import (
	"math"
	"sync/atomic"

	"github.com/rubengrim/swbvh/types"
)

// ID uniquely identifies a mesh asset for the lifetime of the process.
type ID uint64

var lastID uint64

// A triangle-list mesh. Positions are stored as a flat [x0,y0,z0, x1,...]
// array. At most one of Indices16 and Indices32 is populated; a mesh with
// neither is non-indexed.
type Mesh struct {
	id   ID
	Name string

	positions []float32
	indices16 []uint16
	indices32 []uint32

	// Bumped whenever geometry changes so cached acceleration
	// structures can detect that they are stale.
	generation uint64
}

// Create a new empty mesh with a fresh ID.
func New(name string) *Mesh {
	return &Mesh{
		id:   ID(atomic.AddUint64(&lastID, 1)),
		Name: name,
	}
}

// Get the mesh ID.
func (m *Mesh) ID() ID {
	return m.id
}

// Get the current geometry generation.
func (m *Mesh) Generation() uint64 {
	return m.generation
}

// Get the flat position array.
func (m *Mesh) Positions() []float32 {
	return m.positions
}

// Get the 16-bit index buffer (nil if not used).
func (m *Mesh) Indices16() []uint16 {
	return m.indices16
}

// Get the 32-bit index buffer (nil if not used).
func (m *Mesh) Indices32() []uint32 {
	return m.indices32
}

// Replace the vertex positions.
func (m *Mesh) SetPositions(positions []float32) {
	m.positions = positions
	m.generation++
}

// Replace the index buffer with 16-bit indices.
func (m *Mesh) SetIndices16(indices []uint16) {
	m.indices16 = indices
	m.indices32 = nil
	m.generation++
}

// Replace the index buffer with 32-bit indices.
func (m *Mesh) SetIndices32(indices []uint32) {
	m.indices32 = indices
	m.indices16 = nil
	m.generation++
}

// Drop the index buffer.
func (m *Mesh) ClearIndices() {
	m.indices16 = nil
	m.indices32 = nil
	m.generation++
}

// Returns true if the mesh has an index buffer.
func (m *Mesh) HasIndices() bool {
	return m.indices16 != nil || m.indices32 != nil
}

// Get the number of index buffer entries.
func (m *Mesh) IndexCount() int {
	if m.indices16 != nil {
		return len(m.indices16)
	}
	return len(m.indices32)
}

// Get the number of complete triangles referenced by the index buffer.
func (m *Mesh) TriangleCount() int {
	return m.IndexCount() / 3
}

// Get the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.positions) / 3
}

// Get the position of vertex i.
func (m *Mesh) Vertex(i int) types.Vec3 {
	return types.Vec3{m.positions[3*i], m.positions[3*i+1], m.positions[3*i+2]}
}

// Calculate the bounding box of all vertex positions.
func (m *Mesh) Bounds() [2]types.Vec3 {
	bbox := [2]types.Vec3{
		types.Splat3(math.MaxFloat32),
		types.Splat3(-math.MaxFloat32),
	}
	for i := 0; i < m.VertexCount(); i++ {
		v := m.Vertex(i)
		bbox[0] = types.MinVec3(bbox[0], v)
		bbox[1] = types.MaxVec3(bbox[1], v)
	}
	return bbox
}
