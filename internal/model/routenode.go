package model

import "sync/atomic"

// InvalidID marks an absent node/net/connection index throughout the
// engine; indices are never raw pointers (§9 "Cyclic back-references").
const InvalidID int32 = -1

// NodeCapacity is the uniform per-node routing capacity.
const NodeCapacity = 1

// RouteNode is one vertex of the routing resource graph. The identity and
// topology fields are fixed after construction; Occupancy is the only
// atomic field, and PresentCost/HistoricalCost/NeedUpdateBatchStamp are
// plain fields mutated only under the phase discipline of §5 — never
// concurrently by two threads owning the same node.
type RouteNode struct {
	ID int32

	BeginTileX, BeginTileY int16
	EndTileX, EndTileY     int16
	Length                 int16

	BaseCost float64
	Type     NodeType

	// IsAccessibleWire flags wires subject to the §4.1 wire-class test
	// (accessible only near the connection's sink).
	IsAccessibleWire bool
	IsNodePinBounce  bool

	// Children holds outgoing neighbor indices into the owning graph's
	// node slice. Fixed after RRG construction.
	Children []int32

	Occupancy atomic.Int32

	PresentCost          float64
	HistoricalCost       float64
	NeedUpdateBatchStamp int32
}

// NewRouteNode constructs a RouteNode with the cost fields at their
// required initial values (present = historical = 1).
func NewRouteNode(id int32, beginX, beginY, endX, endY int16, baseCost float64, length int16, typ NodeType, isNodePinBounce bool) *RouteNode {
	n := &RouteNode{
		ID:                   id,
		BeginTileX:           beginX,
		BeginTileY:           beginY,
		EndTileX:             endX,
		EndTileY:             endY,
		Length:               length,
		BaseCost:             baseCost,
		Type:                 typ,
		IsNodePinBounce:      isNodePinBounce,
		PresentCost:          1,
		HistoricalCost:       1,
		NeedUpdateBatchStamp: -1,
	}
	return n
}

// GetOccupancy reads the current occupancy.
func (n *RouteNode) GetOccupancy() int32 { return n.Occupancy.Load() }

// IsOverUsed reports whether occupancy exceeds capacity.
func (n *RouteNode) IsOverUsed() bool { return n.GetOccupancy() > NodeCapacity }

// IncrementOccupancy atomically bumps occupancy by one.
func (n *RouteNode) IncrementOccupancy() { n.Occupancy.Add(1) }

// DecrementOccupancy atomically drops occupancy by one.
func (n *RouteNode) DecrementOccupancy() { n.Occupancy.Add(-1) }

// UpdatePresentCongestionCost recomputes PresentCost from the current
// occupancy: 1+present_factor at or under capacity, else
// 1+(occ-capacity+1)*present_factor.
func (n *RouteNode) UpdatePresentCongestionCost(presentFactor float64) {
	occ := n.GetOccupancy()
	if occ <= NodeCapacity {
		n.PresentCost = 1 + presentFactor
	} else {
		n.PresentCost = 1 + float64(occ-NodeCapacity+1)*presentFactor
	}
}
