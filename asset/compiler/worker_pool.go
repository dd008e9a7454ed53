package compiler

import (
	"runtime"
	"sync"

	"github.com/rubengrim/swbvh/asset/compiler/bvh"
	"github.com/rubengrim/swbvh/asset/mesh"
)

// A BLAS build request.
type buildTask struct {
	// Position of the mesh in the BuildMeshes input.
	index int

	mesh *mesh.Mesh

	// The mesh generation when the task was queued.
	generation uint64
}

// The outcome of a BLAS build request.
type buildResult struct {
	task buildTask
	blas *bvh.BLAS
	err  error
}

// workerPool runs independent BLAS builds in parallel. Each build is
// single-threaded; only result collection synchronizes.
type workerPool struct {
	taskQueue   chan buildTask
	resultQueue chan buildResult
	numWorkers  int
	wg          sync.WaitGroup

	opts     bvh.Options
	validate bool
}

// Create a worker pool able to queue maxTasks without blocking.
func newWorkerPool(numWorkers, maxTasks int, opts bvh.Options, validate bool) *workerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > maxTasks {
		numWorkers = maxTasks
	}

	return &workerPool{
		taskQueue:   make(chan buildTask, maxTasks),
		resultQueue: make(chan buildResult, maxTasks),
		numWorkers:  numWorkers,
		opts:        opts,
		validate:    validate,
	}
}

// Start all workers.
func (wp *workerPool) start() {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.run()
	}
}

// Queue a build task.
func (wp *workerPool) submit(task buildTask) {
	wp.taskQueue <- task
}

// Wait for all queued tasks to complete and close the result queue.
func (wp *workerPool) stop() {
	close(wp.taskQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
}

// The main worker loop.
func (wp *workerPool) run() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		blas, err := bvh.BuildBLAS(task.mesh, wp.opts)
		if err == nil && wp.validate {
			err = blas.Validate()
		}
		wp.resultQueue <- buildResult{task: task, blas: blas, err: err}
	}
}
