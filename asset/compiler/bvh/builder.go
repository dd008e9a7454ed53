package bvh

import (
	"time"

	"github.com/chewxy/math32"
	"github.com/rubengrim/swbvh/log"
	"github.com/rubengrim/swbvh/types"
)

const (
	// Default tuning for triangle (bottom-level) hierarchies.
	DefaultBlasLeafSize = 8
	DefaultBlasBinCount = 20

	// Default tuning for instance (top-level) hierarchies. Instance counts
	// are small and each leaf is expensive to visit, so leaves hold a single
	// instance and binning is coarse.
	DefaultTlasLeafSize = 1
	DefaultTlasBinCount = 2
)

var logger = log.New("bvh builder")

// The Source interface is implemented by item collections that can be
// partitioned by the builder. The builder reorders items exclusively
// through Swap; this lets callers decide whether the items themselves or
// an index permutation is reordered.
type Source interface {
	// Number of items.
	Len() int

	// Bounds of item i.
	Bounds(i int) AABB

	// The split key for item i. Items are partitioned by comparing one
	// component of this point against the split plane.
	Centroid(i int) types.Vec3

	// Swap items i and j.
	Swap(i, j int)
}

// Builder tuning parameters.
type Options struct {
	// Nodes with this many items or fewer become leaves.
	LeafSize int

	// The number of equal-width centroid bins evaluated per axis. Fewer
	// bins are cheaper to evaluate but produce lower quality splits.
	BinCount int
}

// Default options for bottom-level (triangle) hierarchies.
func DefaultBlasOptions() Options {
	return Options{LeafSize: DefaultBlasLeafSize, BinCount: DefaultBlasBinCount}
}

// Default options for top-level (instance) hierarchies.
func DefaultTlasOptions() Options {
	return Options{LeafSize: DefaultTlasLeafSize, BinCount: DefaultTlasBinCount}
}

func (o Options) sanitize() Options {
	if o.LeafSize < 1 {
		o.LeafSize = 1
	}
	if o.BinCount < 2 {
		o.BinCount = 2
	}
	return o
}

// Build statistics.
type Stats struct {
	Items     int
	Nodes     int
	Leaves    int
	MaxDepth  int
	BuildTime time.Duration
}

type bin struct {
	bounds AABB
	count  int
}

type splitCandidate struct {
	axis     int
	position float32
	cost     float32
}

type builder struct {
	src  Source
	opts Options

	// Nodes stored as a contiguous list; node 0 is the root.
	nodes []Node

	// Scratch space reused across split evaluations.
	bins       []bin
	leftCount  []int
	rightCount []int
	leftArea   []float32
	rightArea  []float32

	stats Stats
}

// Construct a BVH over the items in src using a top-down binned surface
// area heuristic. Items are reordered via src.Swap so that every leaf
// covers a contiguous item range.
//
// For each axis with a non-degenerate centroid range the items are bucketed
// into opts.BinCount bins and the opts.BinCount-1 planes between them are
// scored with:
//
// cost = left count * left bbox area + right count * right bbox area
//
// The cheapest plane over all axes wins; ties resolve to the lowest axis
// and then the lowest plane. A node stays a leaf when it holds at most
// opts.LeafSize items, when every axis is degenerate or when the winning
// plane fails to separate the items.
func Build(src Source, opts Options) ([]Node, Stats) {
	opts = opts.sanitize()
	itemCount := src.Len()
	b := &builder{
		src:        src,
		opts:       opts,
		bins:       make([]bin, opts.BinCount),
		leftCount:  make([]int, opts.BinCount-1),
		rightCount: make([]int, opts.BinCount-1),
		leftArea:   make([]float32, opts.BinCount-1),
		rightArea:  make([]float32, opts.BinCount-1),
		stats:      Stats{Items: itemCount},
	}

	start := time.Now()
	if itemCount == 0 {
		b.nodes = []Node{{Min: EmptyAABB().Min, Max: EmptyAABB().Max}}
	} else {
		b.nodes = make([]Node, 1, 2*itemCount-1)
		b.nodes[0].SetLeaf(0, uint32(itemCount))
		b.updateBounds(0)
		b.subdivide(0, 0)
	}

	b.stats.Nodes = len(b.nodes)
	b.stats.BuildTime = time.Since(start)
	logger.Debugf(
		"BVH tree build time: %d ms, items: %d, maxDepth: %d, nodes: %d, leafs: %d",
		b.stats.BuildTime.Nanoseconds()/1e6,
		itemCount, b.stats.MaxDepth, b.stats.Nodes, b.stats.Leaves,
	)
	return b.nodes, b.stats
}

// Recalculate node bounds from the items it covers.
func (b *builder) updateBounds(nodeIndex uint32) {
	node := &b.nodes[nodeIndex]
	first, count := node.Leaf()
	bounds := EmptyAABB()
	for i := first; i < first+count; i++ {
		bounds.GrowAABB(b.src.Bounds(int(i)))
	}
	node.SetBounds(bounds)
}

func (b *builder) subdivide(nodeIndex uint32, depth int) {
	if depth > b.stats.MaxDepth {
		b.stats.MaxDepth = depth
	}

	first, count := b.nodes[nodeIndex].Leaf()
	if int(count) <= b.opts.LeafSize {
		b.stats.Leaves++
		return
	}

	split, ok := b.findBestSplit(int(first), int(count))
	if !ok {
		b.stats.Leaves++
		return
	}

	// Two-pointer in-place partition of the node range.
	i := int(first)
	j := i + int(count) - 1
	for i <= j {
		if b.src.Centroid(i)[split.axis] < split.position {
			i++
		} else {
			b.src.Swap(i, j)
			j--
		}
	}

	// Keep oversized leaves instead of recursing forever on clusters
	// that the split plane cannot separate.
	leftCount := uint32(i) - first
	if leftCount == 0 || leftCount == count {
		b.stats.Leaves++
		return
	}

	a := uint32(len(b.nodes))
	b.nodes = append(b.nodes, Node{}, Node{})
	b.nodes[a].SetLeaf(first, leftCount)
	b.nodes[a+1].SetLeaf(uint32(i), count-leftCount)
	b.updateBounds(a)
	b.updateBounds(a + 1)
	b.nodes[nodeIndex].SetInterior(a)

	b.subdivide(a, depth+1)
	b.subdivide(a+1, depth+1)
}

// Evaluate all bin planes along each axis and return the cheapest split.
// Returns false if every axis is degenerate.
func (b *builder) findBestSplit(first, count int) (splitCandidate, bool) {
	binCount := b.opts.BinCount
	planes := binCount - 1

	best := splitCandidate{cost: math32.Inf(1)}
	found := false
	for axis := 0; axis < 3; axis++ {
		cmin, cmax := math32.Inf(1), math32.Inf(-1)
		for i := first; i < first+count; i++ {
			c := b.src.Centroid(i)[axis]
			cmin = math32.Min(cmin, c)
			cmax = math32.Max(cmax, c)
		}
		if cmin == cmax {
			continue
		}

		for k := range b.bins {
			b.bins[k] = bin{bounds: EmptyAABB()}
		}
		scale := float32(binCount) / (cmax - cmin)
		for i := first; i < first+count; i++ {
			k := binIndex(b.src.Centroid(i)[axis], cmin, scale, binCount)
			b.bins[k].count++
			b.bins[k].bounds.GrowAABB(b.src.Bounds(i))
		}

		// Sweep from both ends to collect the counts and areas on
		// each side of every plane.
		leftBox, rightBox := EmptyAABB(), EmptyAABB()
		leftSum, rightSum := 0, 0
		for k := 0; k < planes; k++ {
			leftSum += b.bins[k].count
			leftBox.GrowAABB(b.bins[k].bounds)
			b.leftCount[k] = leftSum
			b.leftArea[k] = leftBox.Area()

			rightSum += b.bins[binCount-1-k].count
			rightBox.GrowAABB(b.bins[binCount-1-k].bounds)
			b.rightCount[planes-1-k] = rightSum
			b.rightArea[planes-1-k] = rightBox.Area()
		}

		step := (cmax - cmin) / float32(binCount)
		for k := 0; k < planes; k++ {
			if b.leftCount[k] == 0 || b.rightCount[k] == 0 {
				continue
			}
			cost := float32(b.leftCount[k])*b.leftArea[k] + float32(b.rightCount[k])*b.rightArea[k]
			if !found || cost < best.cost {
				best = splitCandidate{
					axis:     axis,
					position: cmin + step*float32(k+1),
					cost:     cost,
				}
				found = true
			}
		}
	}

	return best, found
}

// Map a centroid component to its bin.
func binIndex(c, cmin, scale float32, binCount int) int {
	k := int((c - cmin) * scale)
	if k < 0 {
		return 0
	}
	if k >= binCount {
		return binCount - 1
	}
	return k
}
