package bvh

import "github.com/rubengrim/swbvh/types"

// The kind of a BVH node as derived from its Count field.
type NodeKind uint8

const (
	// An interior node; its children live at AOrFirst and AOrFirst+1.
	NodeInterior NodeKind = iota

	// A leaf node covering Count entries starting at AOrFirst.
	NodeLeaf

	// The root of a tree built from zero items.
	NodeEmpty
)

// A BVH node in the layout consumed by the GPU traversal path (32 bytes).
//
// The node kind is encoded by Count:
//   - Count == 0: interior node. Child A is at index AOrFirst and child B
//     is always at AOrFirst+1; there is no explicit pointer for child B.
//   - Count > 0: leaf node covering index-array entries
//     [AOrFirst, AOrFirst+Count).
//
// A tree built from zero items has a single root with Count == 0 and
// AOrFirst == 0. No real interior node can look like this since node 0 is
// always the root and can never be anybody's child.
type Node struct {
	Min      types.Vec3
	AOrFirst uint32

	Max   types.Vec3
	Count uint32
}

// Get the node bounds.
func (n *Node) Bounds() AABB {
	return AABB{Min: n.Min, Max: n.Max}
}

// Set the node bounds.
func (n *Node) SetBounds(b AABB) {
	n.Min = b.Min
	n.Max = b.Max
}

// Get node kind. The index of the node is required to tell apart the empty
// tree sentinel from an interior node.
func (n *Node) Kind(index int) NodeKind {
	switch {
	case n.Count > 0:
		return NodeLeaf
	case index == 0 && n.AOrFirst == 0:
		return NodeEmpty
	default:
		return NodeInterior
	}
}

// Returns true if this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.Count > 0
}

// Setup node as a leaf covering count entries starting at first.
func (n *Node) SetLeaf(first, count uint32) {
	n.AOrFirst = first
	n.Count = count
}

// Setup node as an interior node whose children are stored at a and a+1.
func (n *Node) SetInterior(a uint32) {
	n.AOrFirst = a
	n.Count = 0
}

// Get the leaf index range.
func (n *Node) Leaf() (first, count uint32) {
	return n.AOrFirst, n.Count
}

// Get the indices of the two child nodes.
func (n *Node) Children() (a, b uint32) {
	return n.AOrFirst, n.AOrFirst + 1
}
