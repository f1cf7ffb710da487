// Package rptt implements the Recursive Partitioning Tree on connection
// bounding boxes (§4.6): a ternary recursive bipartitioning used both as a
// scheduling fallback once overlap-parallel routing stalls, and as the
// conflict-free execution vehicle for labeled (high-fanout) nets.
package rptt

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/uamyangel/potter/internal/astar"
	"github.com/uamyangel/potter/internal/geom"
	"github.com/uamyangel/potter/internal/model"
)

// Tree is an arena of model.PartitionTreeNode rooted at Nodes[0].
type Tree struct {
	Nodes []model.PartitionTreeNode
}

// Build partitions connIDs (indices into conns) recursively, following
// §4.6: at each node, find the axis/position cutline minimizing
// |before-after|/max(before,after) among cutlines leaving both sides
// non-empty, where before/after count connections whose bbox extends into
// the corresponding half; connections fully on one side become that
// side's child, connections straddling the cutline become the middle
// child (whose box is the union of their bboxes).
func Build(connIDs []int32, conns []*model.Connection) *Tree {
	t := &Tree{}
	t.build(connIDs, conns)
	return t
}

func (t *Tree) build(connIDs []int32, conns []*model.Connection) int32 {
	idx := int32(len(t.Nodes))
	t.Nodes = append(t.Nodes, model.PartitionTreeNode{Left: model.InvalidID, Right: model.InvalidID, Middle: model.InvalidID})
	t.Nodes[idx].Box = unionBoxes(connIDs, conns)
	t.Nodes[idx].ConnIDs = connIDs

	if len(connIDs) <= 1 {
		return idx
	}

	axis, pos, ok := bestCut(connIDs, conns)
	if !ok {
		return idx
	}

	var left, right, middle []int32
	for _, cid := range connIDs {
		b := conns[cid].Box
		lo, hi := extent(b, axis)
		switch {
		case hi < pos:
			left = append(left, cid)
		case lo >= pos:
			right = append(right, cid)
		default:
			middle = append(middle, cid)
		}
	}

	if len(left) == 0 || len(right) == 0 {
		return idx
	}

	t.Nodes[idx].ConnIDs = nil
	if axis == 'x' {
		t.Nodes[idx].Axis = model.AxisX
	} else {
		t.Nodes[idx].Axis = model.AxisY
	}
	t.Nodes[idx].Position = pos

	leftIdx := t.build(left, conns)
	rightIdx := t.build(right, conns)
	t.Nodes[idx].Left = leftIdx
	t.Nodes[idx].Right = rightIdx
	if len(middle) > 0 {
		midIdx := t.build(middle, conns)
		t.Nodes[idx].Middle = midIdx
	}
	return idx
}

func unionBoxes(connIDs []int32, conns []*model.Connection) geom.Box {
	if len(connIDs) == 0 {
		return geom.Box{}
	}
	b := conns[connIDs[0]].Box
	for _, cid := range connIDs[1:] {
		b = geom.Union(b, conns[cid].Box)
	}
	return b
}

func extent(b geom.Box, axis byte) (int32, int32) {
	if axis == 'x' {
		return b.XMin, b.XMax
	}
	return b.YMin, b.YMax
}

// bestCut finds the axis/position minimizing the §4.6 balance ratio among
// candidate cutlines (the distinct extents of member connection boxes)
// that leave both sides non-empty.
func bestCut(connIDs []int32, conns []*model.Connection) (byte, int32, bool) {
	bestAxis := byte(0)
	bestPos := int32(0)
	bestRatio := -1.0
	found := false

	for _, axis := range []byte{'x', 'y'} {
		positions := make(map[int32]bool)
		for _, cid := range connIDs {
			lo, hi := extent(conns[cid].Box, axis)
			positions[lo] = true
			positions[hi+1] = true
		}
		for pos := range positions {
			before, after := 0, 0
			anyLeft, anyRight := false, false
			for _, cid := range connIDs {
				lo, hi := extent(conns[cid].Box, axis)
				if lo < pos {
					before++
					anyLeft = true
				}
				if hi >= pos {
					after++
					anyRight = true
				}
			}
			if !anyLeft || !anyRight {
				continue
			}
			mx := before
			if after > mx {
				mx = after
			}
			if mx == 0 {
				continue
			}
			ratio := absInt(before-after) / float64(mx)
			if !found || ratio < bestRatio {
				bestAxis, bestPos, bestRatio, found = axis, pos, ratio, true
			}
		}
	}
	return bestAxis, bestPos, found
}

func absInt(v int) float64 {
	if v < 0 {
		return float64(-v)
	}
	return float64(v)
}

// Leaf is one scheduled RPTT leaf ready for conflict-free parallel
// execution.
type Leaf struct {
	Box     geom.Box
	ConnIDs []int32
	Level   int
}

// Leaves collects every leaf node of the tree.
func (t *Tree) Leaves() []Leaf {
	var leaves []Leaf
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() && len(t.Nodes[i].ConnIDs) > 0 {
			leaves = append(leaves, Leaf{Box: t.Nodes[i].Box, ConnIDs: t.Nodes[i].ConnIDs})
		}
	}
	return leaves
}

// ScheduleLevels assigns every leaf to the first level on which its
// bounding box does not intersect any leaf already placed there,
// processing leaves in descending connection-count order so the largest
// leaves claim a level first (§4.6).
func ScheduleLevels(leaves []Leaf) [][]Leaf {
	sort.Slice(leaves, func(i, j int) bool { return len(leaves[i].ConnIDs) > len(leaves[j].ConnIDs) })

	var levels [][]Leaf
	for i := range leaves {
		leaf := leaves[i]
		placed := false
		for lvl := range levels {
			conflict := false
			for _, other := range levels[lvl] {
				if geom.Intersects(leaf.Box, other.Box) {
					conflict = true
					break
				}
			}
			if !conflict {
				leaf.Level = lvl
				levels[lvl] = append(levels[lvl], leaf)
				placed = true
				break
			}
		}
		if !placed {
			leaf.Level = len(levels)
			levels = append(levels, []Leaf{leaf})
		}
	}
	return levels
}

// Route executes every level in sequence, barrier-separated; within a
// level, leaves run in parallel (their bounding boxes are pairwise
// disjoint, so the RRG nodes each can touch are disjoint by construction),
// and within a leaf, connections are routed serially with unsynchronized
// A* commits. numThread bounds concurrency and the router's per-thread
// scratch slices; a level may have more leaves than threads, so leaves
// borrow threads from a small pool instead of owning one each.
func Route(ctx context.Context, rt *astar.Router, levels [][]Leaf, iter int32, numThread int) error {
	tids := make(chan int, numThread)
	for i := 0; i < numThread; i++ {
		tids <- i
	}

	for _, level := range levels {
		g, lctx := errgroup.WithContext(ctx)
		for _, leaf := range level {
			leaf := leaf
			g.Go(func() error {
				tid := <-tids
				defer func() { tids <- tid }()
				for _, connID := range leaf.ConnIDs {
					if err := lctx.Err(); err != nil {
						return err
					}
					conn := rt.Conns[connID]
					if !conn.ShouldRoute() {
						continue
					}
					if conn.Routed {
						rt.Ripup(connID, false, tid, 0)
					}
					stamp := rt.Stamp(iter, connID)
					if err := rt.RouteOneConnection(connID, tid, false, stamp, 0); err != nil {
						return err
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}
