// Package astar implements the Connection Router (§4.2): single-connection
// bounded A* search over the routing resource graph with the negotiated
// congestion cost model, plus path commit (SaveRouting) and rip-up.
package astar

import (
	"container/heap"

	"github.com/uamyangel/potter/internal/logger"
	"github.com/uamyangel/potter/internal/model"
	"github.com/uamyangel/potter/internal/routeerr"
	"github.com/uamyangel/potter/internal/rrg"
)

// Router owns the RRG, the net/connection tables, and one NodeInfo scratch
// slice per worker thread. It is shared read-mostly across threads; the
// only field threads race on is PresentCongestionFactor, and that is only
// ever written by the iteration driver between phases, never during a
// routing phase.
type Router struct {
	Graph *rrg.Graph
	Nets  []*model.Net
	Conns []*model.Connection

	// NodeInfos[tid] is thread tid's private scratch, sized to Graph.Len().
	// Allocated once and never zeroed; stamp discrimination makes stale
	// entries self-invalidating (§9).
	NodeInfos [][]model.NodeInfo

	Weights                 Weights
	PresentCongestionFactor float64

	Log logger.Logger
}

// NewRouter allocates the per-thread scratch slices and returns a ready
// Router. numThreads*Graph.Len()*64 bytes can reach the gigabyte range for
// full-size devices, hence the single allocation up front (§9).
func NewRouter(g *rrg.Graph, nets []*model.Net, conns []*model.Connection, numThreads int, w Weights, log logger.Logger) *Router {
	infos := make([][]model.NodeInfo, numThreads)
	for t := range infos {
		infos[t] = make([]model.NodeInfo, g.Len())
		for i := range infos[t] {
			infos[t][i].Erase()
		}
	}
	return &Router{
		Graph:                   g,
		Nets:                    nets,
		Conns:                   conns,
		NodeInfos:               infos,
		Weights:                 w,
		PresentCongestionFactor: 0.5,
		Log:                     log,
	}
}

// Stamp returns the unique per-attempt stamp used to discriminate
// IsVisited/IsTarget for a given connection within a given iteration.
func (rt *Router) Stamp(iter int32, connID int32) int32 {
	return iter*int32(len(rt.Conns)+1) + connID
}

// isSinkOfAnotherConnectionOfNet reports whether nodeID is the sink of some
// other indirect connection belonging to net, used by the PINFEED_I
// accessibility rule.
func (rt *Router) isSinkOfAnotherConnectionOfNet(net *model.Net, nodeID int32, excludeConn int32) bool {
	for _, cid := range net.IndirectConns {
		if cid == excludeConn {
			continue
		}
		if rt.Conns[cid].Sink == nodeID {
			return true
		}
	}
	return false
}

// countSourceUses returns the adjusted user count of nodeID for net,
// accounting for staged sync deltas (when sync) and this thread's
// uncommitted occChange for the current batch, plus the unadjusted origin
// count as of the last synchronization barrier.
func (rt *Router) countSourceUses(net *model.Net, nodeID int32, sync bool, tid int, batchStamp int32) (adjusted, origin int32) {
	origin = net.CountConnectionsOfUser(nodeID)
	adjusted = origin
	if sync {
		adjusted += net.GetPreIncrementUser(nodeID) - net.GetPreDecrementUser(nodeID)
	}
	adjusted += rt.NodeInfos[tid][nodeID].GetOccChange(batchStamp)
	return adjusted, origin
}

func absInt32(v int32) float64 {
	if v < 0 {
		return float64(-v)
	}
	return float64(v)
}

// RouteOneConnection runs bounded A* for connID on behalf of thread tid.
// stamp discriminates this attempt's IsVisited/IsTarget marks; batchStamp
// discriminates the occChange bookkeeping used by stable-first sync mode
// (pass batchStamp=stamp and sync=false for unsynchronized routing).
// On success the routed path is committed via SaveRouting before return.
func (rt *Router) RouteOneConnection(connID int32, tid int, sync bool, stamp, batchStamp int32) error {
	conn := rt.Conns[connID]
	net := rt.Nets[conn.NetID]
	infos := rt.NodeInfos[tid]
	g := rt.Graph

	sink := g.Node(conn.Sink)
	source := g.Node(conn.Source)

	infos[source.ID].Write(model.InvalidID, 0, 0, stamp, -1)
	infos[source.ID].IsVisited = -1
	infos[sink.ID].IsTarget = stamp

	pq := &nodeHeap{}
	heap.Init(pq)
	heap.Push(pq, pqItem{node: source.ID, cost: 0})

	conn.NumNodesExplored = 0

	sinkNetMember := func(nodeID int32) bool {
		return rt.isSinkOfAnotherConnectionOfNet(net, nodeID, connID)
	}

	for pq.Len() > 0 {
		top := heap.Pop(pq).(pqItem)
		rnodeID := top.node

		// A cheaper relaxation may have superseded this heap entry since
		// it was pushed; the lazy-deleted stale copy is simply dropped.
		if infos[rnodeID].IsVisited == stamp || top.cost > infos[rnodeID].Cost {
			continue
		}
		infos[rnodeID].IsVisited = stamp
		conn.NumNodesExplored++

		rnode := g.Node(rnodeID)

		for _, cid := range rnode.Children {
			if infos[cid].IsVisited == stamp {
				continue
			}

			c := g.Node(cid)

			if cid == sink.ID {
				partial := infos[rnodeID].PartialCost
				infos[cid].Write(rnodeID, partial, partial, stamp, stamp)
				infos[cid].IsVisited = stamp
				rt.SaveRouting(connID, sync, tid, batchStamp)
				return nil
			}

			ok, err := rrg.IsAccessible(g, c, conn, sink, sinkNetMember)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}

			occChange := infos[cid].GetOccChange(batchStamp)
			adjusted, origin := rt.countSourceUses(net, cid, sync, tid, batchStamp)
			sharing := 1 + rt.Weights.SharingWeight*float64(adjusted)

			nc := nodeCost(c, conn, net, rt.PresentCongestionFactor, occChange, adjusted, origin, sharing, false)

			partial := infos[rnodeID].PartialCost + rt.Weights.RNodeCostWeight*nc + rt.Weights.RNodeWLWeight*float64(c.Length)/sharing
			h := rt.Weights.EstWLWeight * (absInt32(int32(c.EndTileX)-int32(sink.BeginTileX)) + absInt32(int32(c.EndTileY)-int32(sink.BeginTileY))) / sharing
			total := partial + h

			if !infos[cid].IsDiscovered(stamp) || total < infos[cid].Cost {
				infos[cid].Write(rnodeID, total, partial, stamp, -1)
				heap.Push(pq, pqItem{node: cid, cost: total})
			}
		}
	}

	return &routeerr.ConnectionUnreachable{ConnID: connID, NetID: conn.NetID}
}

// SaveRouting walks the NodeInfo back-links from sink to source, recording
// the sink-first path on conn and committing its occupancy: in
// unsynchronized mode it increments net user counts and atomically bumps
// occupancy, refreshing present cost on a 0->1 transition; in
// synchronized (stable-first) mode it stages the increment as a pending
// delta for the Apply phase to replay instead.
func (rt *Router) SaveRouting(connID int32, sync bool, tid int, batchStamp int32) {
	conn := rt.Conns[connID]
	net := rt.Nets[conn.NetID]
	infos := rt.NodeInfos[tid]
	g := rt.Graph

	conn.ResetPath()
	cur := conn.Sink
	for cur != model.InvalidID {
		conn.Path = append(conn.Path, cur)
		if cur == conn.Source {
			break
		}
		cur = infos[cur].Prev
	}

	conn.Routed = true
	conn.RoutedThisIteration = true

	for _, nodeID := range conn.Path {
		if sync {
			net.PreIncrementUser(nodeID)
			infos[nodeID].IncOccChange(batchStamp)
			continue
		}
		if net.IncrementUser(nodeID) {
			n := g.Node(nodeID)
			n.IncrementOccupancy()
			if n.GetOccupancy() == 1 {
				n.UpdatePresentCongestionCost(rt.PresentCongestionFactor)
			}
		}
	}
}

// Ripup undoes a previously committed route for connID, releasing its
// path's occupancy claims: symmetric to SaveRouting, either immediately
// (unsynchronized) or via a staged pending decrement (synchronized).
func (rt *Router) Ripup(connID int32, sync bool, tid int, batchStamp int32) {
	conn := rt.Conns[connID]
	net := rt.Nets[conn.NetID]
	infos := rt.NodeInfos[tid]
	g := rt.Graph

	for _, nodeID := range conn.Path {
		if sync {
			net.PreDecrementUser(nodeID)
			infos[nodeID].DecOccChange(batchStamp)
			continue
		}
		if net.DecrementUser(nodeID) {
			n := g.Node(nodeID)
			n.DecrementOccupancy()
			n.UpdatePresentCongestionCost(rt.PresentCongestionFactor)
		}
	}

	conn.Routed = false
	conn.ResetPath()
}
