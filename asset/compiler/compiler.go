package compiler

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rubengrim/swbvh/asset/compiler/bvh"
	"github.com/rubengrim/swbvh/asset/mesh"
	"github.com/rubengrim/swbvh/asset/scene"
	"github.com/rubengrim/swbvh/gpu"
	"github.com/rubengrim/swbvh/log"
	"github.com/rubengrim/swbvh/types"
)

// Compiler options.
type Options struct {
	// BLAS and TLAS builder tuning.
	Blas bvh.Options
	Tlas bvh.Options

	// Number of concurrent BLAS builds. Values <= 0 select the number of
	// available CPUs.
	Workers int

	// Check the structural invariants of each built hierarchy.
	Validate bool
}

// Get the default compiler options.
func DefaultOptions() Options {
	return Options{
		Blas: bvh.DefaultBlasOptions(),
		Tlas: bvh.DefaultTlasOptions(),
	}
}

// A mesh that could not be turned into a BLAS.
type MeshError struct {
	Mesh string
	ID   mesh.ID
	Err  error
}

func (e MeshError) Error() string {
	return fmt.Sprintf("mesh %q (id %d): %v", e.Mesh, e.ID, e.Err)
}

func (e MeshError) Unwrap() error {
	return e.Err
}

// The outcome of a BuildMeshes call.
type BuildReport struct {
	// Number of BLAS built by this call.
	Built int

	// Number of meshes whose BLAS was already cached.
	Cached int

	// Meshes that were skipped, in input order.
	Failed []MeshError

	BuildTime time.Duration
}

// The Compiler builds a BLAS once per mesh generation and compiles per-frame
// instance lists into a TLAS.
type Compiler struct {
	opts   Options
	cache  *BlasCache
	logger log.Logger

	// Registered meshes by ID.
	mutex  sync.RWMutex
	meshes map[mesh.ID]*mesh.Mesh
}

// Create a new compiler.
func New(opts Options) *Compiler {
	return &Compiler{
		opts:   opts,
		cache:  NewBlasCache(),
		logger: log.New("compiler"),
		meshes: make(map[mesh.ID]*mesh.Mesh),
	}
}

// Get the BLAS cache.
func (c *Compiler) Cache() *BlasCache {
	return c.cache
}

// Lookup the cached BLAS for the current generation of a registered mesh.
func (c *Compiler) Blas(id mesh.ID) (*bvh.BLAS, bool) {
	c.mutex.RLock()
	m, exists := c.meshes[id]
	c.mutex.RUnlock()
	if !exists {
		return nil, false
	}
	return c.cache.Lookup(id, m.Generation())
}

// Register meshes and build a BLAS for every mesh whose cached BLAS is
// missing or stale. Builds run concurrently on a worker pool. Meshes that
// fail primitive extraction are logged and reported but do not abort the
// remaining builds.
func (c *Compiler) BuildMeshes(meshes []*mesh.Mesh) BuildReport {
	start := time.Now()
	report := BuildReport{}

	tasks := make([]buildTask, 0, len(meshes))
	queued := make(map[mesh.ID]bool)
	c.mutex.Lock()
	for index, m := range meshes {
		c.meshes[m.ID()] = m
		if queued[m.ID()] {
			continue
		}
		if _, cached := c.cache.Lookup(m.ID(), m.Generation()); cached {
			report.Cached++
			continue
		}
		tasks = append(tasks, buildTask{index: index, mesh: m, generation: m.Generation()})
		queued[m.ID()] = true
	}
	c.mutex.Unlock()

	if len(tasks) > 0 {
		pool := newWorkerPool(c.opts.Workers, len(tasks), c.opts.Blas, c.opts.Validate)
		c.logger.Infof("building %d BLAS using %d workers (%d cached)", len(tasks), pool.numWorkers, report.Cached)

		pool.start()
		for _, task := range tasks {
			pool.submit(task)
		}
		pool.stop()

		failed := make([]buildResult, 0)
		for res := range pool.resultQueue {
			if res.err != nil {
				failed = append(failed, res)
				continue
			}
			c.cache.Store(res.task.mesh.ID(), res.task.generation, res.blas)
			report.Built++
			c.logger.Debugf(
				`built BLAS for "%s": %d primitives, %d nodes, depth %d`,
				res.task.mesh.Name, res.blas.PrimitiveCount(), len(res.blas.Nodes), res.blas.Stats.MaxDepth,
			)
		}

		sort.Slice(failed, func(i, j int) bool { return failed[i].task.index < failed[j].task.index })
		for _, res := range failed {
			meshErr := MeshError{Mesh: res.task.mesh.Name, ID: res.task.mesh.ID(), Err: res.err}
			c.cache.Invalidate(meshErr.ID)
			c.logger.Warningf("skipping %s", meshErr.Error())
			report.Failed = append(report.Failed, meshErr)
		}
	}

	report.BuildTime = time.Since(start)
	c.logger.Noticef("built %d BLAS in %d ms (%d cached, %d failed)", report.Built, report.BuildTime.Nanoseconds()/1e6, report.Cached, len(report.Failed))
	return report
}

// Compile the visible instances of a frame. Instances whose mesh has no
// up-to-date BLAS are skipped with a warning. The handle of each compiled
// instance is its index in visible.
//
// Every referenced BLAS is packed once into the frame's node, triangle id
// and vertex arrays; the TLAS is then built over the instance records and
// the frame buffers are encoded into a GPU batch owned by the caller.
func (c *Compiler) CompileFrame(visible []scene.InstanceDesc) (*scene.Frame, *gpu.Batch) {
	start := time.Now()
	frame := &scene.Frame{
		BlasNodes:   make([]bvh.Node, 0),
		TriangleIDs: make([]uint32, 0),
		VertexList:  make([]types.Vec4, 0),
		Instances:   make([]bvh.Instance, 0, len(visible)),
	}

	packed := make(map[mesh.ID]bvh.BlasRef)
	skipped := 0
	for index, desc := range visible {
		blas, found := c.Blas(desc.Mesh)
		if !found {
			c.logger.Warningf("skipping instance %d: no BLAS available for mesh %d", index, desc.Mesh)
			skipped++
			continue
		}
		if blas.PrimitiveCount() == 0 {
			c.logger.Warningf("skipping instance %d: mesh %d has no triangles", index, desc.Mesh)
			skipped++
			continue
		}

		ref, exists := packed[desc.Mesh]
		if !exists {
			ref = packBlas(frame, blas)
			packed[desc.Mesh] = ref
		}

		frame.Instances = append(frame.Instances, bvh.NewInstance(desc.ObjectToWorld, ref, blas.Bounds(), uint32(index)))
	}

	tlas := bvh.BuildTLAS(frame.Instances, c.opts.Tlas)
	if c.opts.Validate {
		if err := tlas.Validate(frame.Instances); err != nil {
			c.logger.Errorf("TLAS validation failed: %v", err)
		}
	}
	frame.TlasNodes = tlas.Nodes
	frame.TlasIndices = tlas.Indices

	batch := gpu.NewBatch(frame)
	c.logger.Infof(
		"compiled frame in %d ms: %d instances (%d skipped), %d BLAS, %d TLAS nodes, %d bytes",
		time.Since(start).Nanoseconds()/1e6, len(frame.Instances), skipped, len(packed), len(frame.TlasNodes), batch.Size(),
	)
	return frame, batch
}

// Append a BLAS to the frame arrays and return its location.
func packBlas(frame *scene.Frame, blas *bvh.BLAS) bvh.BlasRef {
	ref := bvh.BlasRef{
		NodeOffset:      uint32(len(frame.BlasNodes)),
		PrimitiveOffset: uint32(len(frame.TriangleIDs)),
		PrimitiveCount:  uint32(blas.PrimitiveCount()),
	}

	frame.BlasNodes = append(frame.BlasNodes, blas.Nodes...)
	frame.TriangleIDs = append(frame.TriangleIDs, blas.TriangleIDs()...)
	for _, prim := range blas.Primitives {
		frame.VertexList = append(frame.VertexList,
			prim.Vertices[0].Vec4(1),
			prim.Vertices[1].Vec4(1),
			prim.Vertices[2].Vec4(1),
		)
	}
	return ref
}
