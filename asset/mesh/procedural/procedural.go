// Package procedural generates indexed meshes without reading asset files.
package procedural

import (
	"fmt"
	"sort"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/rubengrim/swbvh/asset/mesh"
)

// Default marching cubes resolution for SDF shapes.
const DefaultCells = 32

// An SDF shape constructor.
type shapeFn func() (sdf.SDF3, error)

var shapes = map[string]shapeFn{
	"sphere": func() (sdf.SDF3, error) {
		return sdf.Sphere3D(0.5)
	},
	"box": func() (sdf.SDF3, error) {
		return sdf.Box3D(v3.Vec{X: 1, Y: 1, Z: 1}, 0.1)
	},
	"cylinder": func() (sdf.SDF3, error) {
		return sdf.Cylinder3D(1, 0.5, 0)
	},
}

// Get the names of the supported SDF shapes.
func Shapes() []string {
	names := make([]string, 0, len(shapes))
	for name := range shapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create a 12-triangle axis-aligned unit cube spanning [0, 1] on every
// axis. The mesh uses 16-bit indices.
func Cube() *mesh.Mesh {
	m := mesh.New("cube")
	m.SetPositions([]float32{
		0, 0, 0,
		1, 0, 0,
		1, 1, 0,
		0, 1, 0,
		0, 0, 1,
		1, 0, 1,
		1, 1, 1,
		0, 1, 1,
	})
	m.SetIndices16([]uint16{
		// -z
		0, 2, 1, 0, 3, 2,
		// +z
		4, 5, 6, 4, 6, 7,
		// -y
		0, 1, 5, 0, 5, 4,
		// +y
		3, 6, 2, 3, 7, 6,
		// -x
		0, 4, 7, 0, 7, 3,
		// +x
		1, 2, 6, 1, 6, 5,
	})
	return m
}

// Tessellate a named SDF shape with marching cubes. Each generated
// triangle gets its own three vertices.
func FromSDF(name string, cells int) (*mesh.Mesh, error) {
	fn, exists := shapes[name]
	if !exists {
		return nil, fmt.Errorf("procedural: unknown shape %q; supported shapes: %v", name, Shapes())
	}
	if cells <= 0 {
		cells = DefaultCells
	}

	s, err := fn()
	if err != nil {
		return nil, fmt.Errorf("procedural: %s: %w", name, err)
	}

	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))
	positions := make([]float32, 0, len(triangles)*9)
	indices := make([]uint32, 0, len(triangles)*3)
	for i, tri := range triangles {
		for j := 0; j < 3; j++ {
			v := tri[j]
			positions = append(positions, float32(v.X), float32(v.Y), float32(v.Z))
			indices = append(indices, uint32(i*3+j))
		}
	}

	m := mesh.New(name)
	m.SetPositions(positions)
	m.SetIndices32(indices)
	return m, nil
}
