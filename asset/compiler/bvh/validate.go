package bvh

import "fmt"

// Verify the invariants of a tree built over itemCount items:
//   - interior nodes reference two in-range children that are reached once
//   - every node contains the bounds of its children or leaf items
//   - leaf ranges cover [0, itemCount) exactly once
//   - a tree over zero items consists of the empty root sentinel
//
// itemBounds returns the bounds of the item stored at position i of the
// index (or primitive) array.
func Validate(nodes []Node, itemCount int, itemBounds func(i int) AABB) error {
	if len(nodes) == 0 {
		return fmt.Errorf("bvh: tree has no root node")
	}

	if itemCount == 0 {
		if len(nodes) != 1 || nodes[0].Kind(0) != NodeEmpty {
			return fmt.Errorf("bvh: expected a single empty root for an empty tree; got %d nodes", len(nodes))
		}
		return nil
	}

	visited := make([]bool, len(nodes))
	covered := make([]bool, itemCount)
	coveredCount := 0

	stack := []uint32{0}
	visited[0] = true
	for len(stack) > 0 {
		index := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &nodes[index]
		bounds := node.Bounds()

		if node.IsLeaf() {
			first, count := node.Leaf()
			if int(first)+int(count) > itemCount {
				return fmt.Errorf("bvh: node %d: leaf range [%d, %d) exceeds item count %d", index, first, first+count, itemCount)
			}
			for i := first; i < first+count; i++ {
				if covered[i] {
					return fmt.Errorf("bvh: node %d: item %d is referenced by more than one leaf", index, i)
				}
				covered[i] = true
				coveredCount++

				if !bounds.Contains(itemBounds(int(i))) {
					return fmt.Errorf("bvh: node %d: leaf bounds do not contain item %d", index, i)
				}
			}
			continue
		}

		a, b := node.Children()
		if a == 0 || int(b) >= len(nodes) {
			return fmt.Errorf("bvh: node %d: child indices (%d, %d) out of range", index, a, b)
		}
		for _, child := range []uint32{a, b} {
			if visited[child] {
				return fmt.Errorf("bvh: node %d: child %d is reachable from more than one parent", index, child)
			}
			visited[child] = true
			if !bounds.Contains(nodes[child].Bounds()) {
				return fmt.Errorf("bvh: node %d: bounds do not contain child %d", index, child)
			}
			stack = append(stack, child)
		}
	}

	for index, seen := range visited {
		if !seen {
			return fmt.Errorf("bvh: node %d is unreachable", index)
		}
	}
	if coveredCount != itemCount {
		return fmt.Errorf("bvh: leaves cover %d of %d items", coveredCount, itemCount)
	}
	return nil
}

// Validate the BLAS structure against its primitive list.
func (b *BLAS) Validate() error {
	return Validate(b.Nodes, len(b.Primitives), func(i int) AABB {
		return b.Primitives[i].Bounds
	})
}

// Validate the TLAS structure against the instance list it was built from.
func (t *TLAS) Validate(instances []Instance) error {
	if len(t.Indices) != len(instances) {
		return fmt.Errorf("bvh: TLAS indexes %d instances; got %d", len(t.Indices), len(instances))
	}
	seen := make([]bool, len(instances))
	for _, index := range t.Indices {
		if int(index) >= len(instances) || seen[index] {
			return fmt.Errorf("bvh: TLAS index array is not a permutation of the instance list")
		}
		seen[index] = true
	}
	return Validate(t.Nodes, len(instances), func(i int) AABB {
		return instances[t.Indices[i]].Bounds
	})
}
