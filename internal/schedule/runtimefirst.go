package schedule

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/uamyangel/potter/internal/astar"
	"github.com/uamyangel/potter/internal/geom"
	"github.com/uamyangel/potter/internal/model"
)

// netsPerSubBatch is the divisor in numBatches = (nets-labeled)/(netsPerSubBatch*numThread) (§4.5).
const netsPerSubBatch = 64

// fanoutCapFactor bounds a region-tree leaf's assigned fanout to
// fanoutCapFactor * totalFanout / numThread (§4.5 step 2).
const fanoutCapFactor = 1.05

// regionNode is one node of the binary region tree built over the device.
type regionNode struct {
	box      geom.Box
	netIDs   []int32
	fanout   int
	left     *regionNode
	right    *regionNode
}

// RuntimeFirstPlan is the per-thread net list and sub-batch split computed
// for one runtime-first invocation.
type RuntimeFirstPlan struct {
	ThreadNets [][]int32
	SubBatches [][][]int32
}

// PlanRuntimeFirst builds the §4.5 binary region tree over unlabeled nets,
// re-partitions any under-populated level onto exactly numThread regions,
// and splits each thread's list into HPWL-balanced sub-batches.
func PlanRuntimeFirst(nets []*model.Net, layout geom.Box, numThread int) RuntimeFirstPlan {
	unlabeled := make([]int32, 0, len(nets))
	for i, n := range nets {
		if !n.Labeled {
			unlabeled = append(unlabeled, int32(i))
		}
	}

	levels := ceilLog2(numThread)
	root := &regionNode{box: layout, netIDs: unlabeled}
	computeFanout(root, nets)
	leaves := buildRegionTree(root, nets, levels)

	if len(leaves) < numThread {
		leaves = rebalanceToThreads(leaves, nets, numThread)
	}

	threadNets := make([][]int32, numThread)
	for i, leaf := range leaves {
		t := i % numThread
		threadNets[t] = append(threadNets[t], leaf.netIDs...)
	}

	subBatches := make([][][]int32, numThread)
	for t, ids := range threadNets {
		numSubBatches := len(unlabeled) / (netsPerSubBatch * numThread)
		if numSubBatches < 1 {
			numSubBatches = 1
		}
		subBatches[t] = splitByHpwl(ids, nets, numSubBatches)
	}

	return RuntimeFirstPlan{ThreadNets: threadNets, SubBatches: subBatches}
}

func ceilLog2(n int) int {
	l := 0
	for (1 << l) < n {
		l++
	}
	return l
}

func computeFanout(r *regionNode, nets []*model.Net) {
	total := 0
	for _, id := range r.netIDs {
		total += len(nets[id].IndirectConns)
	}
	r.fanout = total
}

// buildRegionTree recursively splits a region at the axis/position
// minimizing the fanout imbalance between the two halves, until reaching
// levels depth or the region can no longer be split without emptying a
// side.
func buildRegionTree(r *regionNode, nets []*model.Net, levels int) []*regionNode {
	if levels <= 0 || len(r.netIDs) <= 1 {
		return []*regionNode{r}
	}

	left, right, ok := splitRegion(r, nets)
	if !ok {
		return []*regionNode{r}
	}

	var leaves []*regionNode
	leaves = append(leaves, buildRegionTree(left, nets, levels-1)...)
	leaves = append(leaves, buildRegionTree(right, nets, levels-1)...)
	return leaves
}

// splitRegion finds the axis/position cutline minimizing
// |fanout_left - fanout_right|, trying both axes over the candidate
// positions given by member net box edges, and returns the resulting two
// child regions.
func splitRegion(r *regionNode, nets []*model.Net) (*regionNode, *regionNode, bool) {
	type cut struct {
		axis  byte
		pos   int32
		imbal int
	}
	best := cut{imbal: -1}

	tryAxis := func(axis byte) {
		positions := make(map[int32]bool)
		for _, id := range r.netIDs {
			b := nets[id].Box
			if axis == 'x' {
				positions[b.XMin] = true
				positions[b.XMax+1] = true
			} else {
				positions[b.YMin] = true
				positions[b.YMax+1] = true
			}
		}
		for pos := range positions {
			leftFanout, rightFanout, leftEmpty, rightEmpty := 0, 0, true, true
			for _, id := range r.netIDs {
				b := nets[id].Box
				var center int32
				if axis == 'x' {
					center = (b.XMin + b.XMax) / 2
				} else {
					center = (b.YMin + b.YMax) / 2
				}
				fanout := len(nets[id].IndirectConns)
				if center < pos {
					leftFanout += fanout
					leftEmpty = false
				} else {
					rightFanout += fanout
					rightEmpty = false
				}
			}
			if leftEmpty || rightEmpty {
				continue
			}
			imbal := abs(leftFanout - rightFanout)
			if best.imbal < 0 || imbal < best.imbal {
				best = cut{axis: axis, pos: pos, imbal: imbal}
			}
		}
	}
	tryAxis('x')
	tryAxis('y')

	if best.imbal < 0 {
		return nil, nil, false
	}

	left := &regionNode{box: r.box}
	right := &regionNode{box: r.box}
	if best.axis == 'x' {
		left.box.XMax = best.pos - 1
		right.box.XMin = best.pos
	} else {
		left.box.YMax = best.pos - 1
		right.box.YMin = best.pos
	}

	for _, id := range r.netIDs {
		b := nets[id].Box
		var center int32
		if best.axis == 'x' {
			center = (b.XMin + b.XMax) / 2
		} else {
			center = (b.YMin + b.YMax) / 2
		}
		if center < best.pos {
			left.netIDs = append(left.netIDs, id)
		} else {
			right.netIDs = append(right.netIDs, id)
		}
	}
	computeFanout(left, nets)
	computeFanout(right, nets)

	return left, right, true
}

// rebalanceToThreads re-partitions an under-populated level's regions
// onto exactly numThread sub-boxes: each net is assigned to the candidate
// region with maximum bbox overlap, breaking ties by smaller
// center-to-center distance, subject to a per-thread fanout cap.
func rebalanceToThreads(leaves []*regionNode, nets []*model.Net, numThread int) []*regionNode {
	var layout geom.Box
	totalFanout := 0
	for i, l := range leaves {
		if i == 0 {
			layout = l.box
		} else {
			layout = geom.Union(layout, l.box)
		}
		totalFanout += l.fanout
	}
	fanoutCap := int(math.Ceil(fanoutCapFactor * float64(totalFanout) / float64(numThread)))

	regions := make([]*regionNode, numThread)
	for i := range regions {
		regions[i] = &regionNode{box: subBox(layout, i, numThread)}
	}

	var allNets []int32
	for _, l := range leaves {
		allNets = append(allNets, l.netIDs...)
	}
	sort.Slice(allNets, func(i, j int) bool {
		return nets[allNets[i]].Box.Area() > nets[allNets[j]].Box.Area()
	})

	for _, id := range allNets {
		b := nets[id].Box
		best, bestOverlap, bestDist := -1, int64(-1), math.Inf(1)
		for i, reg := range regions {
			if reg.fanout+len(nets[id].IndirectConns) > fanoutCap && fanoutCap > 0 {
				continue
			}
			overlap := overlapArea(reg.box, b)
			dist := geom.Distance(reg.box, b)
			if overlap > bestOverlap || (overlap == bestOverlap && dist < bestDist) {
				best, bestOverlap, bestDist = i, overlap, dist
			}
		}
		if best < 0 {
			best = 0
			for i, reg := range regions {
				if reg.fanout < regions[best].fanout {
					best = i
				}
			}
		}
		regions[best].netIDs = append(regions[best].netIDs, id)
		regions[best].fanout += len(nets[id].IndirectConns)
	}

	return regions
}

func subBox(layout geom.Box, i, n int) geom.Box {
	width := layout.Width()
	lo := layout.XMin + int32(i)*width/int32(n)
	hi := layout.XMin + int32(i+1)*width/int32(n) - 1
	if i == n-1 {
		hi = layout.XMax
	}
	return geom.Box{XMin: lo, XMax: hi, YMin: layout.YMin, YMax: layout.YMax}
}

func overlapArea(a, b geom.Box) int64 {
	xmin, xmax := max32(a.XMin, b.XMin), min32(a.XMax, b.XMax)
	ymin, ymax := max32(a.YMin, b.YMin), min32(a.YMax, b.YMax)
	if xmax < xmin || ymax < ymin {
		return 0
	}
	return int64(xmax-xmin+1) * int64(ymax-ymin+1)
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// splitByHpwl splits ids into n groups of roughly equal summed estimated
// HPWL, by sorting nets by HPWL descending and assigning each to the
// currently-smallest-sum bucket (longest-processing-time greedy
// balancing).
func splitByHpwl(ids []int32, nets []*model.Net, n int) [][]int32 {
	sorted := append([]int32(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool {
		return nets[sorted[i]].DoubleHpwl > nets[sorted[j]].DoubleHpwl
	})

	batches := make([][]int32, n)
	sums := make([]int64, n)
	for _, id := range sorted {
		best := 0
		for i := 1; i < n; i++ {
			if sums[i] < sums[best] {
				best = i
			}
		}
		batches[best] = append(batches[best], id)
		sums[best] += int64(nets[id].DoubleHpwl)
	}
	return batches
}

// RunRuntimeFirst executes the runtime-first plan for one iteration:
// each thread routes its own nets independently across every sub-batch in
// a single unsynchronized sweep, using atomic occupancy updates only.
func RunRuntimeFirst(ctx context.Context, rt *astar.Router, plan RuntimeFirstPlan, iter int32) error {
	g, ctx := errgroup.WithContext(ctx)
	for t, subBatches := range plan.SubBatches {
		t := t
		subBatches := subBatches
		g.Go(func() error {
			for _, netIDs := range subBatches {
				for _, netID := range netIDs {
					if err := ctx.Err(); err != nil {
						return err
					}
					net := rt.Nets[netID]
					for _, connID := range net.IndirectConns {
						conn := rt.Conns[connID]
						if !conn.ShouldRoute() {
							continue
						}
						if conn.Routed {
							rt.Ripup(connID, false, t, 0)
						}
						stamp := rt.Stamp(iter, connID)
						if err := rt.RouteOneConnection(connID, t, false, stamp, 0); err != nil {
							return err
						}
					}
				}
			}
			return nil
		})
	}
	return g.Wait()
}
