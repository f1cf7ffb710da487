package driver

import (
	"context"

	"github.com/uamyangel/potter/internal/logger"
	"github.com/uamyangel/potter/internal/model"
	"github.com/uamyangel/potter/internal/routeerr"
)

// routeDirectConnections implements the §4.3 post-convergence pass: every
// direct connection is routed by a plain breadth-first search (no
// congestion cost, no accessibility rules — direct connections travel
// dedicated device resources), bounded by a pop watchdog, and its path is
// appended to the connection the same way an indirect A* success would.
func (e *Engine) routeDirectConnections(ctx context.Context) (int, error) {
	watchdog := e.cfg.Iteration.DirectConnWatchdog
	failures := 0
	var lastErr *routeerr.DirectConnectionUnreachable

	for i, c := range e.Conns {
		if c.IsIndirect {
			continue
		}
		if err := ctx.Err(); err != nil {
			return failures, err
		}

		path, watched, ok := e.bfsDirect(c.Source, c.Sink, watchdog)
		if !ok {
			e.lgr.Warn("direct connection unreachable", logger.FConn("conn", c.NetID, int32(i)))
			failures++
			lastErr = &routeerr.DirectConnectionUnreachable{ConnID: int32(i), NetID: c.NetID, Watched: watched}
			continue
		}
		c.Path = path
		c.Routed = true
		c.RoutedThisIteration = true
	}

	if lastErr != nil {
		return failures, lastErr
	}
	return failures, nil
}

// bfsDirect performs an unconstrained BFS over the RRG from source to
// sink, returning the sink-first path. watchdog bounds the number of node
// pops before giving up.
func (e *Engine) bfsDirect(source, sink int32, watchdog int) ([]int32, int, bool) {
	prev := make(map[int32]int32, watchdog)
	visited := make(map[int32]bool, watchdog)
	queue := []int32{source}
	visited[source] = true
	prev[source] = model.InvalidID

	pops := 0
	for len(queue) > 0 {
		if pops >= watchdog {
			return nil, pops, false
		}
		cur := queue[0]
		queue = queue[1:]
		pops++

		if cur == sink {
			var path []int32
			for n := sink; n != model.InvalidID; n = prev[n] {
				path = append(path, n)
				if n == source {
					break
				}
			}
			return path, pops, true
		}

		node := e.Graph.Node(cur)
		for _, child := range node.Children {
			if visited[child] {
				continue
			}
			visited[child] = true
			prev[child] = cur
			queue = append(queue, child)
		}
	}
	return nil, pops, false
}
