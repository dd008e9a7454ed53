package procedural

import (
	"testing"

	"github.com/rubengrim/swbvh/types"
)

func TestCube(t *testing.T) {
	m := Cube()
	if m.TriangleCount() != 12 {
		t.Fatalf("expected 12 triangles; got %d", m.TriangleCount())
	}
	if m.Indices16() == nil {
		t.Fatal("expected cube to use 16-bit indices")
	}

	bbox := m.Bounds()
	if bbox[0] != (types.Vec3{0, 0, 0}) || bbox[1] != (types.Vec3{1, 1, 1}) {
		t.Fatalf("expected unit cube bounds; got %v", bbox)
	}
}

func TestFromSDF(t *testing.T) {
	for _, name := range Shapes() {
		m, err := FromSDF(name, 8)
		if err != nil {
			t.Fatalf("[%s] %v", name, err)
		}
		if m.TriangleCount() == 0 {
			t.Fatalf("[%s] expected a non-empty mesh", name)
		}
		if m.VertexCount() != 3*m.TriangleCount() {
			t.Fatalf("[%s] expected 3 vertices per triangle; got %d vertices for %d triangles", name, m.VertexCount(), m.TriangleCount())
		}
	}
}

func TestFromSDFUnknownShape(t *testing.T) {
	if _, err := FromSDF("teapot", 8); err == nil {
		t.Fatal("expected an error for an unknown shape")
	}
}
