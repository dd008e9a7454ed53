package reader

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rubengrim/swbvh/asset"
	"github.com/rubengrim/swbvh/types"
)

func mockResource(payload string) *asset.Resource {
	return asset.NewResourceFromStream("embedded", strings.NewReader(payload))
}

func TestVec3Parser(t *testing.T) {
	expError := `unsupported syntax for "v"; expected 3 arguments; got 0`
	_, err := parseVec3([]string{"v"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseVec3([]string{"v", "not-a-float", "2", "3"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseVec3([]string{"v", "3.14", "0", "0.4"})
	if err != nil {
		t.Fatal(err)
	}

	expVal := types.Vec3{3.14, 0, 0.4}
	if !reflect.DeepEqual(v, expVal) {
		t.Fatalf("expected parsed value to be %v; got %v", expVal, v)
	}
}

func TestSelectFaceCoordinate(t *testing.T) {
	expError := "index out of bounds"
	type spec struct {
		in        string
		listLen   int
		relOffset int
		out       int
		expError  string
	}
	specs := []spec{
		{"2", 1, 0, -1, expError},
		{"-2", 1, 0, -1, expError},
		{"1", 10, 0, 0, ""}, // indices are 1-based
		{"-1", 10, 0, 9, ""},
		{"1", 10, 4, 4, ""},
		{"7", 10, 4, -1, expError},
	}

	for idx, s := range specs {
		v, err := selectFaceCoordIndex(s.in, s.listLen, s.relOffset)
		if s.expError != "" {
			if err == nil || err.Error() != s.expError {
				t.Fatalf("[spec %d] expected error %s; got %v", idx, s.expError, err)
			}
		} else if v != s.out {
			t.Fatalf("[spec %d] expected index to be %d; got %d", idx, s.out, v)
		}
	}
}

func TestParseSingleFacedObject(t *testing.T) {
	payload := `
o testObj
v 0 0 0
v 1 0 0
v 0 1 0
vn 1 0 0
vt 0 0
mtllib ignored.mtl
usemtl ignored
# Comment
f 1/1/1 2/2/2 -1/-1/-1
`

	sc, err := newWavefrontReader().Read(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	if len(sc.Meshes) != 1 {
		t.Fatalf("expected 1 mesh to be parsed; got %d", len(sc.Meshes))
	}

	mesh0 := sc.Meshes[0]
	if mesh0.Name != "testObj" {
		t.Fatalf("expected mesh[0] name to be 'testObj'; got %s", mesh0.Name)
	}

	expPositions := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	if !reflect.DeepEqual(mesh0.Positions(), expPositions) {
		t.Fatalf("expected positions %v; got %v", expPositions, mesh0.Positions())
	}
	expIndices := []uint16{0, 1, 2}
	if !reflect.DeepEqual(mesh0.Indices16(), expIndices) {
		t.Fatalf("expected 16-bit indices %v; got %v", expIndices, mesh0.Indices16())
	}

	if len(sc.Instances) != 1 {
		t.Fatalf("expected 1 default mesh instance to be generated; got %d", len(sc.Instances))
	}
	inst0 := sc.Instances[0]
	if inst0.Mesh != mesh0.ID() {
		t.Fatalf("expected mesh instance to point to mesh %d; got %d", mesh0.ID(), inst0.Mesh)
	}
	if !reflect.DeepEqual(inst0.ObjectToWorld, types.Ident4()) {
		t.Fatalf("expected mesh instance transform matrix to be equal to a 4x4 identity matrix; got %v", inst0.ObjectToWorld)
	}
}

func TestParseQuadsAndSharedVertices(t *testing.T) {
	payload := `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 0 0 1
o quad
f 1 2 3 4
o tri
f -1 1 2
`

	sc, err := newWavefrontReader().Read(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}
	if len(sc.Meshes) != 2 {
		t.Fatalf("expected 2 meshes; got %d", len(sc.Meshes))
	}

	quad := sc.Meshes[0]
	if quad.TriangleCount() != 2 || quad.VertexCount() != 4 {
		t.Fatalf("expected quad to be split into 2 triangles sharing 4 vertices; got %d triangles and %d vertices", quad.TriangleCount(), quad.VertexCount())
	}
	expIndices := []uint16{0, 1, 2, 0, 2, 3}
	if !reflect.DeepEqual(quad.Indices16(), expIndices) {
		t.Fatalf("expected quad indices %v; got %v", expIndices, quad.Indices16())
	}

	// Each mesh only receives the vertices it references.
	tri := sc.Meshes[1]
	expPositions := []float32{0, 0, 1, 0, 0, 0, 1, 0, 0}
	if !reflect.DeepEqual(tri.Positions(), expPositions) {
		t.Fatalf("expected triangle positions %v; got %v", expPositions, tri.Positions())
	}
}

func TestDropEmptyMeshes(t *testing.T) {
	payload := `
o empty
v 0 0 0
v 1 0 0
v 0 1 0
o full
f 1 2 3
o trailing
`

	sc, err := newWavefrontReader().Read(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}
	if len(sc.Meshes) != 1 || sc.Meshes[0].Name != "full" {
		t.Fatalf("expected only mesh 'full' to survive; got %d meshes", len(sc.Meshes))
	}
}

func TestMeshInstancing(t *testing.T) {
	payload := `
o testObj
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
# Mesh instances
instance testObj 	1 0 1	0 0 0 	1 1 1
instance testObj 	0 0 0	0 90 0 	1 1 1
instance testObj 	0 1 0	90 0 0	10 10 10
`

	sc, err := newWavefrontReader().Read(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	expMeshInstances := 3
	if len(sc.Instances) != expMeshInstances {
		t.Fatalf("expected %d mesh instances to be generated; got %d", expMeshInstances, len(sc.Instances))
	}

	type spec struct {
		instance   uint32
		in, expOut types.Vec3
	}
	specs := []spec{
		{0, types.Vec3{0, 0, 0}, types.Vec3{1, 0, 1}},
		{0, types.Vec3{-1, 0, -1}, types.Vec3{0, 0, 0}},
		{1, types.Vec3{1, 0, 0}, types.Vec3{0, 0, -1}},
		{1, types.Vec3{0, 0, -1}, types.Vec3{-1, 0, 0}},
		{2, types.Vec3{0, 1, 0}, types.Vec3{0, 1, 10}},
	}
	for idx, s := range specs {
		inst := sc.Instances[s.instance]
		out := inst.ObjectToWorld.TransformPoint(s.in)
		if !out.ApproxEqual(s.expOut, 1e-3) {
			t.Fatalf("[spec %d] expected transformed point with instance %d matrix to be %v; got %v", idx, s.instance, s.expOut, out)
		}
	}
}

func TestInstanceErrors(t *testing.T) {
	specs := []struct {
		payload  string
		expError string
	}{
		{
			"o a\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\ninstance b 0 0 0 0 0 0 1 1 1",
			`[embedded: 6] error: unknown mesh with name "b"`,
		},
		{
			"instance a 0 0 0",
			`[embedded: 1] error: unsupported syntax for "instance"; expected 10 arguments: mesh_name tX tY tZ yaw pitch roll sX sY sZ; got 4`,
		},
		{
			"v 0 0 0\nf 1 2 3",
			`[embedded: 2] error: could not parse vertex coord for face argument 1: index out of bounds`,
		},
		{
			"v 0 0 0\nf 1 1 1 1 1",
			`[embedded: 2] error: unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got 5. Select the triangulation option in your exporter`,
		},
	}

	for index, spec := range specs {
		_, err := newWavefrontReader().Read(mockResource(spec.payload))
		if err == nil || err.Error() != spec.expError {
			t.Fatalf("[spec %d] expected to get error: %s; got %v", index, spec.expError, err)
		}
	}
}

func TestCallIncludesRelativeFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "wavefront")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	included := "v 5 5 5\nv 6 5 5\nv 5 6 5\no included\nf 1 2 3\n"
	if err = ioutil.WriteFile(filepath.Join(dir, "part.obj"), []byte(included), 0644); err != nil {
		t.Fatal(err)
	}
	main := "v 0 0 0\nv 1 0 0\nv 0 1 0\no main\nf 1 2 3\ncall part.obj\ncall missing.obj\n"
	mainFile := filepath.Join(dir, "main.obj")
	if err = ioutil.WriteFile(mainFile, []byte(main), 0644); err != nil {
		t.Fatal(err)
	}

	_, err = ReadScene(mainFile)
	if err == nil || !strings.Contains(err.Error(), "missing.obj") {
		t.Fatalf("expected an error referencing missing.obj; got %v", err)
	}

	// Drop the missing include and try again.
	main = strings.Replace(main, "call missing.obj\n", "", 1)
	if err = ioutil.WriteFile(mainFile, []byte(main), 0644); err != nil {
		t.Fatal(err)
	}
	sc, err := ReadScene(mainFile)
	if err != nil {
		t.Fatal(err)
	}
	if len(sc.Meshes) != 2 {
		t.Fatalf("expected 2 meshes; got %d", len(sc.Meshes))
	}

	// Positive indices in the included file are relative to its own vertices.
	expPositions := []float32{5, 5, 5, 6, 5, 5, 5, 6, 5}
	if got := sc.Mesh("included").Positions(); !reflect.DeepEqual(got, expPositions) {
		t.Fatalf("expected included mesh positions %v; got %v", expPositions, got)
	}
}

func TestUnsupportedSceneFormat(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "scene.fbx")
	if err := ioutil.WriteFile(filename, []byte("v 0 0 0"), 0644); err != nil {
		t.Fatal(err)
	}

	expError := "readScene: unsupported file format"
	if _, err := ReadScene(filename); err == nil || err.Error() != expError {
		t.Fatalf("expected to get error: %s; got %v", expError, err)
	}
}
