package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/uamyangel/potter/internal/config"
	"github.com/uamyangel/potter/internal/geom"
	"github.com/uamyangel/potter/internal/logger"
	"github.com/uamyangel/potter/internal/model"
	"github.com/uamyangel/potter/internal/routeerr"
	"github.com/uamyangel/potter/internal/rrg"
)

func chainGraphForDriver() *rrg.Graph {
	n0 := model.NewRouteNode(0, 0, 0, 0, 0, 1.0, 1, model.Wire, false)
	n1 := model.NewRouteNode(1, 1, 0, 1, 0, 1.0, 1, model.Wire, false)
	n2 := model.NewRouteNode(2, 2, 0, 2, 0, 1.0, 1, model.Wire, false)
	n0.Children = []int32{1}
	n1.Children = []int32{2}
	return &rrg.Graph{Nodes: []*model.RouteNode{n0, n1, n2}, Layout: geom.Box{XMin: 0, XMax: 2, YMin: 0, YMax: 0}}
}

func TestRouteDirectConnectionsSucceeds(t *testing.T) {
	g := chainGraphForDriver()
	net := model.NewNet(0)
	net.DirectSource = 0
	net.DirectSinks = []int32{2}
	conn := model.NewConnection(0, 0, 0, 2, false)
	net.DirectConns = []int32{0}

	e := New(g, []*model.Net{net}, []*model.Connection{conn}, WithConfig(config.Default().Engine), WithLogger(&logger.NopLogger{}))

	failures, err := e.routeDirectConnections(context.Background())
	if err != nil {
		t.Fatalf("routeDirectConnections() error = %v", err)
	}
	if failures != 0 {
		t.Errorf("failures = %d, want 0", failures)
	}
	if !conn.Routed {
		t.Errorf("direct connection not marked Routed")
	}
	want := []int32{2, 1, 0}
	if len(conn.Path) != len(want) {
		t.Fatalf("Path = %v, want %v", conn.Path, want)
	}
	for i := range want {
		if conn.Path[i] != want[i] {
			t.Errorf("Path[%d] = %d, want %d", i, conn.Path[i], want[i])
		}
	}
}

func TestRouteDirectConnectionsWatchdogFailure(t *testing.T) {
	g := chainGraphForDriver()
	net := model.NewNet(0)
	net.DirectSource = 0
	net.DirectSinks = []int32{2}
	conn := model.NewConnection(0, 0, 0, 2, false)
	net.DirectConns = []int32{0}

	cfg := config.Default().Engine
	cfg.Iteration.DirectConnWatchdog = 1 // too small to reach the sink two hops away

	e := New(g, []*model.Net{net}, []*model.Connection{conn}, WithConfig(cfg), WithLogger(&logger.NopLogger{}))

	failures, err := e.routeDirectConnections(context.Background())
	if failures != 1 {
		t.Errorf("failures = %d, want 1", failures)
	}
	var unreachable *routeerr.DirectConnectionUnreachable
	if !errors.As(err, &unreachable) {
		t.Fatalf("error = %v, want *routeerr.DirectConnectionUnreachable", err)
	}
}

func TestRouteDirectConnectionsSkipsIndirect(t *testing.T) {
	g := chainGraphForDriver()
	conn := model.NewConnection(0, 0, 0, 2, true) // indirect: must be skipped here

	e := New(g, nil, []*model.Connection{conn}, WithConfig(config.Default().Engine), WithLogger(&logger.NopLogger{}))
	failures, err := e.routeDirectConnections(context.Background())
	if err != nil || failures != 0 {
		t.Fatalf("routeDirectConnections() = (%d, %v), want (0, nil)", failures, err)
	}
	if conn.Routed {
		t.Errorf("indirect connection unexpectedly routed by the direct pass")
	}
}
