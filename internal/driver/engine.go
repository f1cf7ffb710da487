// Package driver implements the Iteration Driver (§4.3): the top-level
// negotiated-congestion loop that chooses a routing strategy each
// iteration, executes it, updates cost factors, and checks for
// convergence, plus the post-convergence direct-connection and
// multi-driver repair passes.
package driver

import (
	"context"
	"math"

	"github.com/uamyangel/potter/internal/astar"
	"github.com/uamyangel/potter/internal/config"
	"github.com/uamyangel/potter/internal/logger"
	"github.com/uamyangel/potter/internal/model"
	"github.com/uamyangel/potter/internal/routeerr"
	"github.com/uamyangel/potter/internal/rptt"
	"github.com/uamyangel/potter/internal/rrg"
	"github.com/uamyangel/potter/internal/schedule"
)

// decreaseRatioThreshold and shareIncreaseRatioThreshold are the §4.3
// step-1 thresholds governing how long overlap-parallel routing continues
// before the driver falls back to RPTT for the remainder of the run.
const (
	decreaseRatioThreshold      = 0.2
	shareIncreaseRatioThreshold = 0.15
)

// Engine owns the RRG, net/connection tables and Router for one routing
// invocation, and runs the iteration loop to convergence or exhaustion.
type Engine struct {
	Graph *rrg.Graph
	Nets  []*model.Net
	Conns []*model.Connection
	rt    *astar.Router

	cfg config.EngineConfig
	lgr logger.Logger

	presentCongestionFactor float64

	// usingRPTT latches true once the overlap-parallel phase hands off to
	// RPTT post-processing; §4.3 says the driver never switches back.
	usingRPTT bool

	prevOverused int
	prevFailed   int
}

// Result summarizes one completed routing invocation.
type Result struct {
	Iterations     int
	Converged      bool
	OverusedNodes  int
	FailedConns    int
	DirectFailures int
}

// New builds an Engine ready to route conns over graph/nets, applying any
// options.
func New(g *rrg.Graph, nets []*model.Net, conns []*model.Connection, opts ...Option) *Engine {
	e := &Engine{
		Graph: g,
		Nets:  nets,
		Conns: conns,
		cfg:   config.Default().Engine,
		lgr:   &logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.presentCongestionFactor = e.cfg.Cost.InitialPresentCongestionFactor
	e.rt = astar.NewRouter(g, nets, conns, e.cfg.Threads, astar.DefaultWeights(), e.lgr)
	e.rt.PresentCongestionFactor = e.presentCongestionFactor
	return e
}

// Run pre-processes the connection bounding boxes and sink reservations,
// then drives the iteration loop to convergence or until maxIterations is
// exhausted (§4.3). On return, every connection not reported failed in
// Result carries a committed Path.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	e.preprocess()

	var res Result
	maxIter := e.cfg.Iteration.MaxIterations

	for iter := 1; iter <= maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		strategy := e.chooseStrategy(iter)
		if err := e.executeStrategy(ctx, strategy, int32(iter)); err != nil {
			return res, err
		}

		overused, failed := e.classify()
		e.updateCostFactors(iter, e.isCongested(overused))

		e.lgr.Info("iteration complete",
			logger.F("iter", iter),
			logger.F("strategy", strategy.String()),
			logger.F("overused", overused),
			logger.F("failed", failed),
			logger.F("presentFactor", e.presentCongestionFactor))

		res.Iterations = iter
		res.OverusedNodes = overused
		res.FailedConns = failed

		if overused == 0 && failed == 0 {
			res.Converged = true
			break
		}
		e.prevOverused, e.prevFailed = overused, failed
	}

	directFailures, directErr := e.routeDirectConnections(ctx)
	if directErr != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		e.lgr.Warn("direct-connection pass finished with failures", logger.F("error", directErr.Error()))
	}
	res.DirectFailures = directFailures

	if err := e.repairMultiDriverNets(); err != nil {
		return res, err
	}

	if !res.Converged {
		return res, &routeerr.ConvergenceFailure{Iterations: res.Iterations, OverusedNode: res.OverusedNodes, Failed: res.FailedConns}
	}

	if err := e.checkExclusiveOwnership(); err != nil {
		return res, err
	}
	return res, nil
}

// strategy is the routing strategy selected for one iteration.
type strategy int

const (
	strategyStableFirst strategy = iota
	strategyRuntimeFirst
	strategyRPTT
)

func (s strategy) String() string {
	switch s {
	case strategyStableFirst:
		return "stable-first"
	case strategyRuntimeFirst:
		return "runtime-first"
	default:
		return "rptt"
	}
}

// chooseStrategy implements §4.3 step 1: the first StableFirstIterations
// iterations always attempt overlap-parallel routing; afterward it
// continues only while both improvement ratios clear their thresholds,
// else the driver falls back to RPTT and never returns to overlap mode.
func (e *Engine) chooseStrategy(iter int) strategy {
	if e.usingRPTT {
		return strategyRPTT
	}
	if iter <= e.cfg.Iteration.StableFirstIterations {
		return e.overlapStrategy()
	}

	decreaseRatio, shareIncreaseRatio := e.improvementRatios()
	if decreaseRatio > decreaseRatioThreshold && shareIncreaseRatio > shareIncreaseRatioThreshold {
		return e.overlapStrategy()
	}
	e.usingRPTT = true
	return strategyRPTT
}

func (e *Engine) overlapStrategy() strategy {
	if e.cfg.RuntimeFirst {
		return strategyRuntimeFirst
	}
	return strategyStableFirst
}

// improvementRatios measures how much overuse/failure shrank and how much
// the routed-connection share grew since the previous iteration, the
// signals §4.3 step 1 uses to decide whether overlap routing is still
// paying off.
func (e *Engine) improvementRatios() (decreaseRatio, shareIncreaseRatio float64) {
	prevBad := e.prevOverused + e.prevFailed
	curBad := 0
	for _, n := range e.Graph.Nodes {
		if n.IsOverUsed() {
			curBad++
		}
	}
	failed := 0
	routed := 0
	for _, c := range e.Conns {
		if !c.IsIndirect {
			continue
		}
		if c.Routed {
			routed++
		} else {
			failed++
		}
	}
	curBad += failed

	if prevBad > 0 {
		decreaseRatio = float64(prevBad-curBad) / float64(prevBad)
	}
	total := routed + failed
	if total > 0 {
		shareIncreaseRatio = float64(routed) / float64(total)
	}
	return decreaseRatio, shareIncreaseRatio
}

func (e *Engine) executeStrategy(ctx context.Context, s strategy, iter int32) error {
	switch s {
	case strategyStableFirst:
		plan := schedule.PlanStableFirst(e.Nets, e.cfg.Threads, e.cfg.KMeans.MaxRounds)
		return schedule.RunStableFirst(ctx, e.rt, plan, iter, func(ctx context.Context) error {
			return e.routeLabeledRPTT(ctx, iter)
		})
	case strategyRuntimeFirst:
		plan := schedule.PlanRuntimeFirst(e.Nets, e.Graph.Layout, e.cfg.Threads)
		if err := schedule.RunRuntimeFirst(ctx, e.rt, plan, iter); err != nil {
			return err
		}
		return e.routeLabeledRPTT(ctx, iter)
	default:
		return e.routeAllRPTT(ctx, iter)
	}
}

// routeLabeledRPTT routes every labeled (high-fanout) net's connections
// via a dedicated RPTT pass after the main overlap-parallel phase (§4.4,
// §4.8).
func (e *Engine) routeLabeledRPTT(ctx context.Context, iter int32) error {
	var connIDs []int32
	for _, n := range e.Nets {
		if n.Labeled {
			connIDs = append(connIDs, n.IndirectConns...)
		}
	}
	return e.routeRPTTOver(ctx, connIDs, iter)
}

// routeAllRPTT routes every indirect connection via RPTT, used once the
// driver has switched away from overlap-parallel routing for the rest of
// the run.
func (e *Engine) routeAllRPTT(ctx context.Context, iter int32) error {
	var connIDs []int32
	for i, c := range e.Conns {
		if c.IsIndirect {
			connIDs = append(connIDs, int32(i))
		}
	}
	return e.routeRPTTOver(ctx, connIDs, iter)
}

func (e *Engine) routeRPTTOver(ctx context.Context, connIDs []int32, iter int32) error {
	needsRouting := make([]int32, 0, len(connIDs))
	for _, cid := range connIDs {
		if e.Conns[cid].ShouldRoute() {
			needsRouting = append(needsRouting, cid)
		}
	}
	if len(needsRouting) == 0 {
		return nil
	}
	tree := rptt.Build(needsRouting, e.Conns)
	levels := rptt.ScheduleLevels(tree.Leaves())
	return rptt.Route(ctx, e.rt, levels, iter, e.cfg.Threads)
}

func (e *Engine) indirectConnCount() int {
	n := 0
	for _, c := range e.Conns {
		if c.IsIndirect {
			n++
		}
	}
	return n
}

// classify counts over-used nodes and connections that failed to route
// this iteration.
func (e *Engine) classify() (overused, failed int) {
	for _, n := range e.Graph.Nodes {
		if n.IsOverUsed() {
			overused++
		}
	}
	for _, c := range e.Conns {
		if c.IsIndirect && !c.Routed {
			failed++
		}
	}
	return overused, failed
}

func (e *Engine) isCongested(overused int) bool {
	total := e.indirectConnCount()
	if total == 0 {
		return false
	}
	return float64(overused)/float64(total) > e.cfg.Cost.CongestedDesignThreshold
}

// updateCostFactors implements §4.3 step 4: when congested, recomputes
// historical_factor and present_multiplier from the iteration number,
// bumps present_factor (capped at 1e6), and sweeps every node to refresh
// present-cost/historical-cost from its current overuse.
func (e *Engine) updateCostFactors(iter int, congested bool) {
	if !congested {
		return
	}
	historicalFactor := 2.0 / (1.0 + math.Exp(0.5*(1.0-float64(iter))))
	presentMultiplier := 1.1 * (1.0 + 3.0/(1.0+math.Exp(float64(iter)-1.0)))

	e.presentCongestionFactor = math.Min(e.presentCongestionFactor*presentMultiplier, 1e6)
	e.rt.PresentCongestionFactor = e.presentCongestionFactor

	for _, n := range e.Graph.Nodes {
		overuse := n.GetOccupancy() - model.NodeCapacity
		if overuse <= 0 {
			n.PresentCost = 1 + e.presentCongestionFactor
			continue
		}
		n.PresentCost = 1 + float64(overuse+1)*e.presentCongestionFactor
		n.HistoricalCost += float64(overuse) * historicalFactor
	}
}

// preprocess implements the §4.3 pre-processing steps: widen every
// indirect connection's bounding box by the configured axis margins,
// clipped to device extent, and reserve each sink once as a net user of
// its sink pin so its occupancy is never mistaken for free capacity.
func (e *Engine) preprocess() {
	layout := e.Graph.Layout
	xMargin, yMargin := int32(e.cfg.BBox.XMargin), int32(e.cfg.BBox.YMargin)

	for _, c := range e.Conns {
		if !c.IsIndirect {
			continue
		}
		c.Box = c.Box.Expand(xMargin, yMargin, layout.XMax, layout.YMax)
	}

	for _, n := range e.Nets {
		if n.IndirectSource == model.InvalidID {
			continue
		}
		for _, sink := range n.IndirectSinks {
			if n.IncrementUser(sink) {
				node := e.Graph.Node(sink)
				node.IncrementOccupancy()
			}
		}
	}
}
