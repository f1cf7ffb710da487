package driver

import (
	"context"
	"testing"

	"github.com/uamyangel/potter/internal/config"
	"github.com/uamyangel/potter/internal/geom"
	"github.com/uamyangel/potter/internal/model"
)

func TestRunConvergesOnAnUncongestedSingleConnection(t *testing.T) {
	g := chainGraphForDriver()

	net := model.NewNet(0)
	net.IndirectSource = 0
	net.IndirectSinks = []int32{2}
	net.Box = g.Layout
	conn := model.NewConnection(0, 0, 0, 2, true)
	conn.Box = net.Box
	net.IndirectConns = []int32{0}

	cfg := config.Default().Engine
	cfg.Threads = 1
	cfg.Iteration.MaxIterations = 5

	eng := New(g, []*model.Net{net}, []*model.Connection{conn}, WithConfig(cfg))

	res, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.Converged {
		t.Errorf("Run() result = %+v, want Converged", res)
	}
	if !conn.Routed {
		t.Errorf("connection not routed after Run()")
	}
}

func TestChooseStrategyUsesStableFirstDuringWarmup(t *testing.T) {
	g := chainGraphForDriver()
	net := model.NewNet(0)
	cfg := config.Default().Engine
	cfg.Iteration.StableFirstIterations = 3
	cfg.RuntimeFirst = false
	eng := New(g, []*model.Net{net}, nil, WithConfig(cfg))

	if got := eng.chooseStrategy(1); got != strategyStableFirst {
		t.Errorf("chooseStrategy(1) = %v, want stable-first during warmup", got)
	}
}

func TestChooseStrategyLatchesRPTTAfterFallback(t *testing.T) {
	g := chainGraphForDriver()
	net := model.NewNet(0)
	cfg := config.Default().Engine
	cfg.Iteration.StableFirstIterations = 0
	eng := New(g, []*model.Net{net}, nil, WithConfig(cfg))

	first := eng.chooseStrategy(1)
	if first != strategyRPTT {
		t.Fatalf("chooseStrategy(1) = %v, want rptt fallback with no warmup and no improvement history", first)
	}
	if got := eng.chooseStrategy(2); got != strategyRPTT {
		t.Errorf("chooseStrategy(2) = %v, want rptt to stay latched once usingRPTT is set", got)
	}
}

func TestPreprocessWidensBoxAndReservesSinks(t *testing.T) {
	g := chainGraphForDriver()
	net := model.NewNet(0)
	net.IndirectSource = 0
	net.IndirectSinks = []int32{2}
	conn := model.NewConnection(0, 0, 0, 2, true)
	conn.Box = geom.Box{XMin: 1, XMax: 1, YMin: 0, YMax: 0}
	net.IndirectConns = []int32{0}

	cfg := config.Default().Engine
	cfg.BBox.XMargin = 2
	cfg.BBox.YMargin = 1

	eng := New(g, []*model.Net{net}, []*model.Connection{conn}, WithConfig(cfg))
	eng.preprocess()

	if conn.Box.XMin != 0 {
		t.Errorf("Box.XMin = %d after preprocess, want clipped to 0", conn.Box.XMin)
	}
	if g.Node(2).GetOccupancy() != 1 {
		t.Errorf("sink node occupancy = %d after preprocess, want 1 (reserved)", g.Node(2).GetOccupancy())
	}
}
