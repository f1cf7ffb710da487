// Package rrg builds and queries the routing resource graph: the
// read-mostly topology (§4.1) that the connection router searches and
// whose per-node occupancy/cost fields the iteration driver mutates.
package rrg

import (
	"github.com/uamyangel/potter/internal/geom"
	"github.com/uamyangel/potter/internal/model"
)

// RawNode is the per-node information the device consumer interface
// (§6) must supply to build a Graph: topology plus the handful of
// classification flags §4.1 construction depends on.
type RawNode struct {
	BeginTileX, BeginTileY int16
	EndTileX, EndTileY     int16
	Length                 int16
	BaseCost               float64
	Type                   model.NodeType
	IsNodePinBounce        bool
	IsAccessibleWire       bool
	// InAllowedTile marks nodes whose tile type is INT or LAG_LAG; only
	// these may become children in the pruned graph.
	InAllowedTile bool
	Preserved     bool
	// IsSinkPin protects a node from dead-end pruning even once its
	// children are all pruned away: it is still needed as a connection
	// endpoint.
	IsSinkPin bool
}

// RawEdge is a directed edge of the unpruned device graph.
type RawEdge struct {
	From, To int32
}

// Graph is the pruned, read-mostly routing resource graph.
type Graph struct {
	Nodes  []*model.RouteNode
	Layout geom.Box
}

// Build constructs the pruned RRG from raw device data, following §4.1:
//  1. nodes outside an allowed tile, or preserved, never become children;
//  2. the remaining adjacency is iteratively pruned of dead ends — nodes
//     with zero children that are not a connection's sink pin are removed,
//     which may in turn create new dead ends upstream, so pruning repeats
//     until a fixed point.
func Build(raw []RawNode, edges []RawEdge, layout geom.Box) (*Graph, error) {
	n := len(raw)
	nodes := make([]*model.RouteNode, n)
	for i, rn := range raw {
		nodes[i] = model.NewRouteNode(int32(i), rn.BeginTileX, rn.BeginTileY, rn.EndTileX, rn.EndTileY,
			rn.BaseCost, rn.Length, rn.Type, rn.IsNodePinBounce)
		nodes[i].IsAccessibleWire = rn.IsAccessibleWire
	}

	adj := make([][]int32, n)
	for _, e := range edges {
		if int(e.To) >= n || int(e.From) >= n {
			continue
		}
		to := raw[e.To]
		if !to.InAllowedTile || to.Preserved {
			continue
		}
		adj[e.From] = append(adj[e.From], e.To)
	}

	pruneDeadEnds(adj, raw)

	for i := range nodes {
		nodes[i].Children = adj[i]
	}

	return &Graph{Nodes: nodes, Layout: layout}, nil
}

// pruneDeadEnds iteratively removes children that have out-degree 0 and
// are not a sink pin, until no further removal happens. Pin nodes
// themselves are never removed, only dropped from others' children lists.
func pruneDeadEnds(adj [][]int32, raw []RawNode) {
	n := len(adj)
	removed := make([]bool, n)
	for {
		changed := false
		for i := 0; i < n; i++ {
			if removed[i] || raw[i].IsSinkPin {
				continue
			}
			if len(adj[i]) == 0 {
				removed[i] = true
				changed = true
			}
		}
		if !changed {
			break
		}
		for i := 0; i < n; i++ {
			if len(adj[i]) == 0 {
				continue
			}
			kept := adj[i][:0]
			for _, c := range adj[i] {
				if !removed[c] {
					kept = append(kept, c)
				}
			}
			adj[i] = kept
		}
	}
}

// Node returns the RouteNode at idx.
func (g *Graph) Node(idx int32) *model.RouteNode { return g.Nodes[idx] }

// Len returns the node count.
func (g *Graph) Len() int { return len(g.Nodes) }
