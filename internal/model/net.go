package model

import "github.com/uamyangel/potter/internal/geom"

// Net groups the connections driven by a single source signal. The
// RouteNode fields below are indices into the owning graph's node slice,
// never pointers (§9).
type Net struct {
	ID    int32
	OriID int32

	// Indirect (INT-tile) source/sink projections.
	IndirectSource     int32
	IndirectSinks      []int32
	IndirectSourcePin  int32
	IndirectSinkPins   []int32

	// Direct (non-INT) source/sink, only populated for direct connections.
	DirectSource    int32
	DirectSinks     []int32
	DirectSourcePin int32
	DirectSinkPins  []int32

	IndirectConns []int32
	DirectConns   []int32

	Box        geom.Box
	DoubleHpwl int32

	Labeled   bool
	HasSubNet bool
	IsSubNet  bool
	SubNetIDs []int32

	// UsersConnectionCounts maps a RouteNode index to the number of this
	// net's connections currently routed through it; absence means 0.
	UsersConnectionCounts map[int32]int32

	// Pending deltas staged during a stable-first Route phase and
	// replayed against UsersConnectionCounts during Apply.
	userConnectionToDecrement map[int32]int32
	userConnectionToIncrement map[int32]int32
}

// NewNet returns a Net with its maps initialized and no source yet.
func NewNet(id int32) *Net {
	return &Net{
		ID:                    id,
		IndirectSource:        InvalidID,
		DirectSource:          InvalidID,
		UsersConnectionCounts: make(map[int32]int32),
	}
}

// Area returns the net bounding box's tile-count area.
func (n *Net) Area() int64 { return n.Box.Area() }

// CountConnectionsOfUser returns how many of this net's connections
// currently use RouteNode nodeID.
func (n *Net) CountConnectionsOfUser(nodeID int32) int32 {
	return n.UsersConnectionCounts[nodeID]
}

// IncrementUser records one more connection of this net using nodeID.
// Returns true the first time nodeID becomes used (0->1 transition), the
// signal the caller uses to bump the node's global occupancy.
func (n *Net) IncrementUser(nodeID int32) bool {
	if n.UsersConnectionCounts[nodeID] == 0 {
		n.UsersConnectionCounts[nodeID] = 1
		return true
	}
	n.UsersConnectionCounts[nodeID]++
	return false
}

// DecrementUser records one fewer connection of this net using nodeID.
// Returns true on the 1->0 transition (node released by this net).
func (n *Net) DecrementUser(nodeID int32) bool {
	n.UsersConnectionCounts[nodeID]--
	if n.UsersConnectionCounts[nodeID] <= 0 {
		delete(n.UsersConnectionCounts, nodeID)
		return true
	}
	return false
}

// PreDecrementUser stages a pending decrement for nodeID, observed during
// a stable-first Route phase and not yet visible to UsersConnectionCounts.
func (n *Net) PreDecrementUser(nodeID int32) {
	if n.userConnectionToDecrement == nil {
		n.userConnectionToDecrement = make(map[int32]int32)
	}
	n.userConnectionToDecrement[nodeID]++
}

// GetPreDecrementUser returns the pending decrement count for nodeID.
func (n *Net) GetPreDecrementUser(nodeID int32) int32 {
	return n.userConnectionToDecrement[nodeID]
}

// PreIncrementUser stages a pending increment for nodeID.
func (n *Net) PreIncrementUser(nodeID int32) {
	if n.userConnectionToIncrement == nil {
		n.userConnectionToIncrement = make(map[int32]int32)
	}
	n.userConnectionToIncrement[nodeID]++
}

// GetPreIncrementUser returns the pending increment count for nodeID.
func (n *Net) GetPreIncrementUser(nodeID int32) int32 {
	return n.userConnectionToIncrement[nodeID]
}

// UpdatePreDecrement replays every staged decrement against
// UsersConnectionCounts, calling release for every node whose occupancy
// the caller must now drop (0-transition), and stamping it with
// batchStamp so the Refresh phase knows to recompute its present-cost.
func (n *Net) UpdatePreDecrement(batchStamp int32, release func(nodeID int32, batchStamp int32)) {
	for nodeID, cnt := range n.userConnectionToDecrement {
		erased := false
		for i := int32(0); i < cnt; i++ {
			erased = n.DecrementUser(nodeID) || erased
		}
		if erased {
			release(nodeID, batchStamp)
		}
	}
}

// UpdatePreIncrement replays every staged increment against
// UsersConnectionCounts, calling claim for every node newly used by this
// net (0-transition).
func (n *Net) UpdatePreIncrement(batchStamp int32, claim func(nodeID int32, batchStamp int32)) {
	for nodeID, cnt := range n.userConnectionToIncrement {
		newlyAdded := false
		for i := int32(0); i < cnt; i++ {
			newlyAdded = n.IncrementUser(nodeID) || newlyAdded
		}
		if newlyAdded {
			claim(nodeID, batchStamp)
		}
	}
}

// ClearPreDecrement drops all staged decrements after Apply has replayed them.
func (n *Net) ClearPreDecrement() { n.userConnectionToDecrement = nil }

// ClearPreIncrement drops all staged increments after Apply has replayed them.
func (n *Net) ClearPreIncrement() { n.userConnectionToIncrement = nil }
