package compiler

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/chewxy/math32"
	"github.com/rubengrim/swbvh/asset/compiler/bvh"
	"github.com/rubengrim/swbvh/asset/mesh"
	"github.com/rubengrim/swbvh/asset/mesh/procedural"
	"github.com/rubengrim/swbvh/asset/scene"
	"github.com/rubengrim/swbvh/gpu"
	"github.com/rubengrim/swbvh/types"
)

func randomMesh(seed int64, triCount int) *mesh.Mesh {
	rng := rand.New(rand.NewSource(seed))
	positions := make([]float32, triCount*9)
	for i := range positions {
		positions[i] = rng.Float32() * 50
	}
	indices := make([]uint32, triCount*3)
	for i := range indices {
		indices[i] = uint32(i)
	}

	m := mesh.New("random")
	m.SetPositions(positions)
	m.SetIndices32(indices)
	return m
}

func TestBlasCache(t *testing.T) {
	cache := NewBlasCache()
	blas := &bvh.BLAS{}

	if _, found := cache.Lookup(1, 1); found {
		t.Fatal("expected lookup on empty cache to miss")
	}

	cache.Store(1, 3, blas)
	if got, found := cache.Lookup(1, 3); !found || got != blas {
		t.Fatalf("expected lookup to return the stored BLAS; got %v, %t", got, found)
	}
	if _, found := cache.Lookup(1, 4); found {
		t.Fatal("expected lookup with a different generation to miss")
	}

	cache.Invalidate(1)
	if _, found := cache.Lookup(1, 3); found || cache.Len() != 0 {
		t.Fatal("expected invalidated entry to be removed")
	}
}

func TestBuildMeshesCachesPerGeneration(t *testing.T) {
	c := New(DefaultOptions())
	cube := procedural.Cube()

	report := c.BuildMeshes([]*mesh.Mesh{cube})
	if report.Built != 1 || report.Cached != 0 || len(report.Failed) != 0 {
		t.Fatalf("expected a single BLAS build; got %+v", report)
	}
	first, found := c.Blas(cube.ID())
	if !found {
		t.Fatal("expected BLAS to be cached after build")
	}

	report = c.BuildMeshes([]*mesh.Mesh{cube, cube})
	if report.Built != 0 || report.Cached != 2 {
		t.Fatalf("expected cached BLAS to be reused; got %+v", report)
	}

	// Changing the geometry bumps the generation and invalidates the entry.
	cube.SetPositions(cube.Positions())
	if _, found := c.Blas(cube.ID()); found {
		t.Fatal("expected stale BLAS lookup to miss")
	}
	report = c.BuildMeshes([]*mesh.Mesh{cube})
	if report.Built != 1 {
		t.Fatalf("expected the BLAS to be rebuilt; got %+v", report)
	}
	second, _ := c.Blas(cube.ID())
	if second == first {
		t.Fatal("expected a new BLAS after the mesh changed")
	}

	c.Cache().Invalidate(cube.ID())
	if _, found := c.Blas(cube.ID()); found {
		t.Fatal("expected explicit invalidation to drop the BLAS")
	}
}

func TestBuildMeshesReportsFailures(t *testing.T) {
	noIndices := mesh.New("no-indices")
	noIndices.SetPositions([]float32{0, 0, 0, 1, 0, 0, 0, 1, 0})

	badIndex := mesh.New("bad-index")
	badIndex.SetPositions([]float32{0, 0, 0, 1, 0, 0, 0, 1, 0})
	badIndex.SetIndices16([]uint16{0, 1, 5})

	cube := procedural.Cube()

	c := New(Options{Blas: bvh.DefaultBlasOptions(), Tlas: bvh.DefaultTlasOptions(), Workers: 2, Validate: true})
	report := c.BuildMeshes([]*mesh.Mesh{noIndices, cube, badIndex})

	if report.Built != 1 {
		t.Fatalf("expected 1 successful build; got %d", report.Built)
	}
	if len(report.Failed) != 2 {
		t.Fatalf("expected 2 failed meshes; got %d", len(report.Failed))
	}
	if report.Failed[0].ID != noIndices.ID() || !errors.Is(report.Failed[0], bvh.ErrMissingIndexBuffer) {
		t.Fatalf("expected first failure to be a missing index buffer; got %v", report.Failed[0])
	}
	if report.Failed[1].ID != badIndex.ID() || !errors.Is(report.Failed[1], bvh.ErrIndexOutOfRange) {
		t.Fatalf("expected second failure to be an out of range index; got %v", report.Failed[1])
	}
	if _, found := c.Blas(noIndices.ID()); found {
		t.Fatal("expected no BLAS for a mesh without an index buffer")
	}
}

func TestConcurrentBuildsMatchSequential(t *testing.T) {
	meshes := make([]*mesh.Mesh, 12)
	for i := range meshes {
		meshes[i] = randomMesh(int64(i), 50+i*37)
	}

	sequential := New(Options{Blas: bvh.DefaultBlasOptions(), Tlas: bvh.DefaultTlasOptions(), Workers: 1})
	concurrent := New(Options{Blas: bvh.DefaultBlasOptions(), Tlas: bvh.DefaultTlasOptions(), Workers: 8})
	sequential.BuildMeshes(meshes)
	concurrent.BuildMeshes(meshes)

	for i, m := range meshes {
		exp, _ := sequential.Blas(m.ID())
		got, found := concurrent.Blas(m.ID())
		if !found {
			t.Fatalf("[mesh %d] expected concurrent build to produce a BLAS", i)
		}
		if !reflect.DeepEqual(exp.Nodes, got.Nodes) || !reflect.DeepEqual(exp.Primitives, got.Primitives) {
			t.Fatalf("[mesh %d] expected concurrent and sequential builds to match", i)
		}
	}
}

func TestCompileFrame(t *testing.T) {
	cube := procedural.Cube()
	unbuilt := mesh.New("unbuilt")

	c := New(Options{Blas: bvh.DefaultBlasOptions(), Tlas: bvh.DefaultTlasOptions(), Validate: true})
	c.BuildMeshes([]*mesh.Mesh{cube})

	visible := []scene.InstanceDesc{
		{Mesh: cube.ID(), ObjectToWorld: types.Translate4(types.XYZ(0, 0, 0))},
		{Mesh: cube.ID(), ObjectToWorld: types.Translate4(types.XYZ(5, 0, 0))},
		{Mesh: unbuilt.ID(), ObjectToWorld: types.Ident4()},
		{Mesh: cube.ID(), ObjectToWorld: types.Translate4(types.XYZ(10, 0, 0))},
	}
	frame, batch := c.CompileFrame(visible)

	if len(frame.Instances) != 3 {
		t.Fatalf("expected 3 compiled instances; got %d", len(frame.Instances))
	}
	expHandles := []uint32{0, 1, 3}
	for i, inst := range frame.Instances {
		if inst.Handle != expHandles[i] {
			t.Fatalf("expected instance %d handle to be %d; got %d", i, expHandles[i], inst.Handle)
		}
		if inst.Blas.NodeOffset != 0 || inst.Blas.PrimitiveOffset != 0 || inst.Blas.PrimitiveCount != 12 {
			t.Fatalf("expected all instances to share the packed cube BLAS; got %+v", inst.Blas)
		}
	}

	blas, _ := c.Blas(cube.ID())
	if len(frame.BlasNodes) != len(blas.Nodes) || len(frame.TriangleIDs) != 12 || len(frame.VertexList) != 36 {
		t.Fatalf("expected the cube BLAS to be packed once; got %d nodes, %d ids, %d vertices", len(frame.BlasNodes), len(frame.TriangleIDs), len(frame.VertexList))
	}

	tlas := &bvh.TLAS{Nodes: frame.TlasNodes, Indices: frame.TlasIndices}
	if err := tlas.Validate(frame.Instances); err != nil {
		t.Fatal(err)
	}

	if buf, _ := batch.Buffer(gpu.Instances); len(buf.Data) != 3*gpu.SizeofInstance {
		t.Fatalf("expected instance buffer to hold 3 records; got %d bytes", len(buf.Data))
	}
	if buf, _ := batch.Buffer(gpu.TlasNodes); len(buf.Data) != len(frame.TlasNodes)*gpu.SizeofNode {
		t.Fatalf("expected TLAS node buffer to match the frame; got %d bytes", len(buf.Data))
	}

	hit, found := frame.Intersect(bvh.NewRay(types.XYZ(5.3, 0.6, -5), types.XYZ(0, 0, 1)), math32.MaxFloat32)
	if !found {
		t.Fatal("expected ray to hit the second instance")
	}
	if hit.Handle != 1 || hit.TriangleID > 1 || math32.Abs(hit.T-5) > 1e-5 {
		t.Fatalf("expected a -z face hit on instance handle 1 at t = 5; got %+v", hit)
	}
}

func TestCompileFramePacksMeshesOnce(t *testing.T) {
	cube := procedural.Cube()
	other := randomMesh(99, 40)

	c := New(DefaultOptions())
	c.BuildMeshes([]*mesh.Mesh{cube, other})

	frame, _ := c.CompileFrame([]scene.InstanceDesc{
		{Mesh: other.ID(), ObjectToWorld: types.Ident4()},
		{Mesh: cube.ID(), ObjectToWorld: types.Translate4(types.XYZ(100, 0, 0))},
		{Mesh: other.ID(), ObjectToWorld: types.Translate4(types.XYZ(-100, 0, 0))},
	})

	otherBlas, _ := c.Blas(other.ID())
	cubeRef := frame.Instances[1].Blas
	if cubeRef.NodeOffset != uint32(len(otherBlas.Nodes)) || cubeRef.PrimitiveOffset != 40 {
		t.Fatalf("expected cube BLAS to follow the first packed mesh; got %+v", cubeRef)
	}
	if frame.Instances[0].Blas != frame.Instances[2].Blas {
		t.Fatal("expected instances of the same mesh to share a BLAS reference")
	}
	if len(frame.TriangleIDs) != 52 {
		t.Fatalf("expected 52 packed triangles; got %d", len(frame.TriangleIDs))
	}
}

func TestCompileEmptyFrame(t *testing.T) {
	c := New(DefaultOptions())
	frame, batch := c.CompileFrame(nil)

	if len(frame.TlasNodes) != 1 || frame.TlasNodes[0].Count != 0 || frame.TlasNodes[0].AOrFirst != 0 {
		t.Fatalf("expected a sentinel TLAS root; got %+v", frame.TlasNodes)
	}
	if _, found := frame.Intersect(bvh.NewRay(types.XYZ(0, 0, 0), types.XYZ(0, 0, 1)), math32.MaxFloat32); found {
		t.Fatal("expected no hits in an empty frame")
	}
	if buf, _ := batch.Buffer(gpu.TlasNodes); len(buf.Data) != gpu.SizeofNode {
		t.Fatalf("expected the sentinel node to be encoded; got %d bytes", len(buf.Data))
	}
}
