package model

// NodeInfo is the per-(thread, node) A* scratch record. Every engine
// allocates one []NodeInfo slice per worker thread, sized to the node
// count, once, and never zeroes it between connections: stamp
// discrimination (IsVisited/IsTarget against the connection's unique
// stamp, occChangeBatchStamp against the current batch stamp) makes stale
// entries self-invalidating. The struct is laid out and padded to exactly
// 64 bytes — one cacheline — with the hot fields (Prev, Cost, PartialCost,
// IsVisited, IsTarget) first.
type NodeInfo struct {
	Prev        int32 // 4B - predecessor RouteNode index, InvalidID if none
	_pad0       int32 // 4B - alignment padding for the float64 fields below
	Cost        float64
	PartialCost float64
	IsVisited   int32 // settled (popped and expanded) for this stamp
	IsTarget    int32

	// DiscoveredStamp marks the attempt for which Prev/Cost/PartialCost
	// currently hold a meaningful value, so a stale entry left by an
	// earlier connection's search (a different stamp) is never mistaken
	// for a real relaxation when deciding whether to improve a node's
	// cost.
	DiscoveredStamp int32

	occChange           int32
	occChangeBatchStamp int32

	_pad1 [20]byte // pad 44 -> 64 bytes
}

// Erase resets the hot A* fields to their "unvisited" state. Not used in
// the steady-state stamp-discriminated path; kept for explicit
// reinitialization (e.g. before reusing a scratch slice across full runs).
func (n *NodeInfo) Erase() {
	n.Prev = InvalidID
	n.Cost = 0
	n.PartialCost = 0
	n.IsVisited = -1
	n.IsTarget = -1
	n.DiscoveredStamp = -1
}

// Write stamps the hot A* fields in one call, as done every time a node is
// relaxed with a new best cost. stamp is recorded as the discovery stamp
// and isTarget is stored in IsTarget: callers pass the connection's stamp
// when writing its sink node and -1 otherwise. IsVisited is not touched.
func (n *NodeInfo) Write(prev int32, cost, partialCost float64, stamp, isTarget int32) {
	n.Prev = prev
	n.Cost = cost
	n.PartialCost = partialCost
	n.DiscoveredStamp = stamp
	n.IsTarget = isTarget
}

// IsDiscovered reports whether Cost/PartialCost/Prev hold a value computed
// during the attempt identified by stamp.
func (n *NodeInfo) IsDiscovered(stamp int32) bool {
	return n.DiscoveredStamp == stamp
}

// GetOccChange returns the uncommitted occupancy delta recorded for
// batchStamp, or 0 if the scratch slot belongs to a stale (or not yet
// written) batch.
func (n *NodeInfo) GetOccChange(batchStamp int32) int32 {
	if batchStamp != n.occChangeBatchStamp {
		return 0
	}
	return n.occChange
}

// IncOccChange records a pending +1 occupancy delta for batchStamp,
// discarding any stale delta from a previous batch.
func (n *NodeInfo) IncOccChange(batchStamp int32) {
	if batchStamp != n.occChangeBatchStamp {
		n.occChangeBatchStamp = batchStamp
		n.occChange = 1
	} else {
		n.occChange++
	}
}

// DecOccChange records a pending -1 occupancy delta for batchStamp,
// discarding any stale delta from a previous batch.
func (n *NodeInfo) DecOccChange(batchStamp int32) {
	if batchStamp != n.occChangeBatchStamp {
		n.occChangeBatchStamp = batchStamp
		n.occChange = -1
	} else {
		n.occChange--
	}
}
