package schedule

import (
	"context"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/uamyangel/potter/internal/astar"
	"github.com/uamyangel/potter/internal/model"
)

// netsPerBatch is the divisor in numBatches = (nets-labeled)/(netsPerBatch*numThread) (§4.4).
const netsPerBatch = 256

// StableFirstPlan is the deterministic, thread/batch assignment computed
// once per stable-first invocation: which nets each thread owns, and how
// each thread's nets are split into angularly-ordered batches.
type StableFirstPlan struct {
	// ThreadNets[t] lists the net indices (into the nets slice) owned by
	// thread t, split into Batches[t] consecutive slices.
	ThreadNets [][]int32
	Batches    [][][]int32
	NumBatches int
}

// PlanStableFirst partitions the unlabeled nets via k-means (§4.7) into
// numThread thread-local lists, then deterministically splits each list
// into angular-order batches around its thread's centroid (§4.4).
func PlanStableFirst(nets []*model.Net, numThread, kMeansMaxRounds int) StableFirstPlan {
	unlabeled := make([]*model.Net, 0, len(nets))
	unlabeledIdx := make([]int32, 0, len(nets))
	labeledConns := 0
	totalConns := 0
	for i, n := range nets {
		totalConns += len(n.IndirectConns)
		if n.Labeled {
			labeledConns += len(n.IndirectConns)
			continue
		}
		unlabeled = append(unlabeled, n)
		unlabeledIdx = append(unlabeledIdx, int32(i))
	}

	result := KMeansPartition(unlabeled, numThread, kMeansMaxRounds)

	numBatches := (len(unlabeled)) / (netsPerBatch * numThread)
	if numBatches < 1 {
		numBatches = 1
	}

	threadNets := make([][]int32, numThread)
	batches := make([][][]int32, numThread)

	for t := 0; t < numThread && t < len(result.Clusters); t++ {
		members := result.Clusters[t]
		netIDs := make([]int32, len(members))
		for i, m := range members {
			netIDs[i] = unlabeledIdx[m]
		}
		centroid := result.Centroids[t]
		sort.Slice(netIDs, func(i, j int) bool {
			return angle(nets[netIDs[i]], centroid) < angle(nets[netIDs[j]], centroid)
		})
		threadNets[t] = netIDs
		batches[t] = splitIntoBatches(netIDs, numBatches)
	}

	return StableFirstPlan{ThreadNets: threadNets, Batches: batches, NumBatches: numBatches}
}

func angle(n *model.Net, centroid interface{ CenterX() float64; CenterY() float64 }) float64 {
	dx := n.Box.CenterX() - centroid.CenterX()
	dy := n.Box.CenterY() - centroid.CenterY()
	return math.Atan2(dy, dx)
}

func splitIntoBatches(netIDs []int32, numBatches int) [][]int32 {
	batches := make([][]int32, numBatches)
	if len(netIDs) == 0 {
		return batches
	}
	per := (len(netIDs) + numBatches - 1) / numBatches
	for b := 0; b < numBatches; b++ {
		lo := b * per
		if lo >= len(netIDs) {
			break
		}
		hi := lo + per
		if hi > len(netIDs) {
			hi = len(netIDs)
		}
		batches[b] = netIDs[lo:hi]
	}
	return batches
}

// RunStableFirst executes the plan for iteration iter: for each batch in
// sequence, runs the Route/Apply/Refresh barrier phases across threads
// (§4.4), then routes any labeled nets' RPTT unsynchronized via
// routeLabeledRPTT. router is shared; nets/conns are the full tables.
func RunStableFirst(ctx context.Context, rt *astar.Router, plan StableFirstPlan, iter int32,
	routeLabeledRPTT func(ctx context.Context) error) error {

	for b := 0; b < plan.NumBatches; b++ {
		currentBatchStamp := iter*int32(plan.NumBatches) + int32(b)

		if err := runPhase(ctx, plan, b, func(tid int, netID int32) error {
			return routePhase(rt, tid, netID, iter, currentBatchStamp)
		}); err != nil {
			return err
		}

		changedNodes, err := applyPhase(ctx, rt, plan, b, currentBatchStamp)
		if err != nil {
			return err
		}

		if err := refreshPhase(ctx, rt, changedNodes); err != nil {
			return err
		}
	}

	if routeLabeledRPTT != nil {
		return routeLabeledRPTT(ctx)
	}
	return nil
}

func runPhase(ctx context.Context, plan StableFirstPlan, b int, work func(tid int, netID int32) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for t := range plan.Batches {
		t := t
		if b >= len(plan.Batches[t]) {
			continue
		}
		netIDs := plan.Batches[t][b]
		g.Go(func() error {
			for _, netID := range netIDs {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := work(t, netID); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// routePhase handles every connection of netID needing (re-)routing:
// ripup(sync=true) then routeOneConnection(sync=true).
func routePhase(rt *astar.Router, tid int, netID int32, iter, batchStamp int32) error {
	net := rt.Nets[netID]
	for _, connID := range net.IndirectConns {
		conn := rt.Conns[connID]
		if !conn.ShouldRoute() {
			continue
		}
		if conn.Routed {
			rt.Ripup(connID, true, tid, batchStamp)
		}
		stamp := rt.Stamp(iter, connID)
		if err := rt.RouteOneConnection(connID, tid, true, stamp, batchStamp); err != nil {
			return err
		}
	}
	return nil
}

// applyPhase replays every net's staged pending deltas against the shared
// user-count maps, returning the set of node indices whose occupancy
// changed (candidates for the Refresh phase).
func applyPhase(ctx context.Context, rt *astar.Router, plan StableFirstPlan, b int, batchStamp int32) ([]int32, error) {
	var mu sync.Mutex
	var all []int32

	g, _ := errgroup.WithContext(ctx)
	for t := range plan.Batches {
		t := t
		if b >= len(plan.Batches[t]) {
			continue
		}
		netIDs := plan.Batches[t][b]
		g.Go(func() error {
			var local []int32
			for _, netID := range netIDs {
				net := rt.Nets[netID]
				net.UpdatePreDecrement(batchStamp, func(nodeID int32, stamp int32) {
					n := rt.Graph.Node(nodeID)
					n.DecrementOccupancy()
					n.NeedUpdateBatchStamp = stamp
					local = append(local, nodeID)
				})
				net.UpdatePreIncrement(batchStamp, func(nodeID int32, stamp int32) {
					n := rt.Graph.Node(nodeID)
					n.IncrementOccupancy()
					n.NeedUpdateBatchStamp = stamp
					local = append(local, nodeID)
				})
				net.ClearPreDecrement()
				net.ClearPreIncrement()
			}
			mu.Lock()
			all = append(all, local...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return all, nil
}

// refreshPhase recomputes present-cost for every node whose
// NeedUpdateBatchStamp matches a stamp touched this batch. changedNodes
// may contain duplicates; recomputation is idempotent so that is harmless.
func refreshPhase(ctx context.Context, rt *astar.Router, changedNodes []int32) error {
	g, _ := errgroup.WithContext(ctx)
	const stripe = 4096
	for lo := 0; lo < len(changedNodes); lo += stripe {
		hi := lo + stripe
		if hi > len(changedNodes) {
			hi = len(changedNodes)
		}
		slice := changedNodes[lo:hi]
		g.Go(func() error {
			for _, nodeID := range slice {
				n := rt.Graph.Node(nodeID)
				n.UpdatePresentCongestionCost(rt.PresentCongestionFactor)
			}
			return nil
		})
	}
	return g.Wait()
}
