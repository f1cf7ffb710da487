package driver

import (
	"container/heap"
	"fmt"

	"github.com/uamyangel/potter/internal/model"
	"github.com/uamyangel/potter/internal/routeerr"
)

// repairMultiDriverNets implements the §4.3 post-convergence repair pass:
// for each net, aggregate every connection's committed path into a
// per-node branch graph, then run Dijkstra from the net's source pin over
// that graph and keep only the edges lying on a shortest path to one of
// the net's sink pins. A node fed by more than one branch (a multi-driver
// violation — two connections' paths both claiming to drive it) collapses
// onto the single predecessor Dijkstra selects, which is by construction
// the cheapest, and every connection's Path is rewritten to match.
func (e *Engine) repairMultiDriverNets() error {
	for _, net := range e.Nets {
		if net.IndirectSource == model.InvalidID || len(net.IndirectConns) == 0 {
			continue
		}
		adj := e.buildBranchGraph(net)
		dist, prev := e.dijkstra(net.IndirectSource, adj)

		for _, connID := range net.IndirectConns {
			conn := e.Conns[connID]
			if !conn.Routed {
				continue
			}
			if _, ok := dist[conn.Sink]; !ok {
				return &routeerr.TopologyInvariant{Detail: fmt.Sprintf(
					"net %d: sink %d disconnected from source %d in committed branch graph",
					net.ID, conn.Sink, net.IndirectSource)}
			}
			conn.Path = pathFromPrev(prev, conn.Sink, net.IndirectSource)
		}
	}
	return nil
}

// buildBranchGraph unions the edges implied by every connection's
// committed path (adjacent entries of Path) into one undirected adjacency
// map local to net, the aggregate branch graph §4.3 describes.
func (e *Engine) buildBranchGraph(net *model.Net) map[int32][]int32 {
	adj := make(map[int32][]int32)
	seen := make(map[[2]int32]bool)
	addEdge := func(a, b int32) {
		key := [2]int32{a, b}
		if a > b {
			key = [2]int32{b, a}
		}
		if seen[key] {
			return
		}
		seen[key] = true
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}

	for _, connID := range net.IndirectConns {
		conn := e.Conns[connID]
		if !conn.Routed {
			continue
		}
		for i := 0; i+1 < len(conn.Path); i++ {
			addEdge(conn.Path[i], conn.Path[i+1])
		}
	}
	return adj
}

type diState struct {
	node int32
	dist float64
}
type diHeap []diState

func (h diHeap) Len() int            { return len(h) }
func (h diHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h diHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *diHeap) Push(x interface{}) { *h = append(*h, x.(diState)) }
func (h *diHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// dijkstra runs single-source shortest paths over adj (undirected, edge
// weight = the target node's routing base cost) from source, returning
// the distance and predecessor maps.
func (e *Engine) dijkstra(source int32, adj map[int32][]int32) (map[int32]float64, map[int32]int32) {
	dist := map[int32]float64{source: 0}
	prev := map[int32]int32{source: model.InvalidID}

	pq := &diHeap{{node: source, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		top := heap.Pop(pq).(diState)
		if top.dist > dist[top.node] {
			continue
		}
		for _, neighbor := range adj[top.node] {
			w := e.Graph.Node(neighbor).BaseCost
			if w <= 0 {
				w = 1
			}
			nd := top.dist + w
			if d, ok := dist[neighbor]; !ok || nd < d {
				dist[neighbor] = nd
				prev[neighbor] = top.node
				heap.Push(pq, diState{node: neighbor, dist: nd})
			}
		}
	}
	return dist, prev
}

// checkExclusiveOwnership implements the §8 testable property that a
// converged design never shares a routing resource node between two
// different nets: every node on a routed connection's committed path must
// belong to exactly one net. Intended to run only once Run has reported
// Converged, since negotiated congestion permits transient cross-net
// overuse mid-run by design.
func (e *Engine) checkExclusiveOwnership() error {
	owner := make(map[int32]int32)
	for _, c := range e.Conns {
		if !c.IsIndirect || !c.Routed {
			continue
		}
		for _, node := range c.Path {
			if prevNet, ok := owner[node]; ok && prevNet != c.NetID {
				return &routeerr.MultiDriverViolation{NodeID: node, NetA: prevNet, NetB: c.NetID}
			}
			owner[node] = c.NetID
		}
	}
	return nil
}

// pathFromPrev walks the Dijkstra predecessor chain from sink back to
// source, returning it sink-first to match Connection.Path's convention.
func pathFromPrev(prev map[int32]int32, sink, source int32) []int32 {
	var path []int32
	for n := sink; ; {
		path = append(path, n)
		if n == source {
			break
		}
		p, ok := prev[n]
		if !ok || p == model.InvalidID {
			break
		}
		n = p
	}
	return path
}
