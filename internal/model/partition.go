package model

import "github.com/uamyangel/potter/internal/geom"

// Axis identifies the cut direction of a partition-tree cutline.
type Axis byte

const (
	AxisX Axis = 'x'
	AxisY Axis = 'y'
)

// PartitionTreeNode is one node of the RPTT (§4.6): a ternary recursive
// bipartitioning over connection bounding boxes. Trees are arena-allocated
// — children are indices into the owning []PartitionTreeNode slice, never
// pointers, so the whole tree is freed by dropping the slice (§9).
type PartitionTreeNode struct {
	Box     geom.Box
	ConnIDs []int32

	Left, Right, Middle int32 // arena indices, InvalidID if absent
	Axis                Axis
	Position            int32
	Level               int32
}

// IsLeaf reports whether this node has no children.
func (t *PartitionTreeNode) IsLeaf() bool {
	return t.Left == InvalidID && t.Right == InvalidID && t.Middle == InvalidID
}
