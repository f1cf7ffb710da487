package driver

import (
	"errors"
	"testing"

	"github.com/uamyangel/potter/internal/config"
	"github.com/uamyangel/potter/internal/logger"
	"github.com/uamyangel/potter/internal/model"
	"github.com/uamyangel/potter/internal/routeerr"
	"github.com/uamyangel/potter/internal/rrg"
)

// fourNodeGraph extends chainGraphForDriver with a fourth node (3) so a
// branching net (trunk 0->1 feeding sinks 2 and 3) has every node its
// dijkstra repair pass needs to look up a BaseCost for.
func fourNodeGraph() *rrg.Graph {
	g := chainGraphForDriver()
	n3 := model.NewRouteNode(3, 1, 1, 1, 1, 1.0, 1, model.Wire, false)
	g.Nodes = append(g.Nodes, n3)
	return g
}

// branchGraph models one net with a shared trunk (0->1) feeding two sinks
// (1->2, 1->3), as committed by two already-routed connections.
func branchGraph() (*model.Net, []*model.Connection) {
	net := model.NewNet(0)
	net.IndirectSource = 0
	net.IndirectSinks = []int32{2, 3}

	c0 := model.NewConnection(0, 0, 0, 2, true)
	c0.Routed = true
	c0.Path = []int32{2, 1, 0}

	c1 := model.NewConnection(1, 0, 0, 3, true)
	c1.Routed = true
	c1.Path = []int32{3, 1, 0}

	net.IndirectConns = []int32{0, 1}
	return net, []*model.Connection{c0, c1}
}

func TestRepairMultiDriverNetsRewritesPaths(t *testing.T) {
	net, conns := branchGraph()
	g := fourNodeGraph()
	e := New(g, []*model.Net{net}, conns, WithConfig(config.Default().Engine), WithLogger(&logger.NopLogger{}))

	if err := e.repairMultiDriverNets(); err != nil {
		t.Fatalf("repairMultiDriverNets() error = %v", err)
	}
	if len(conns[0].Path) == 0 || conns[0].Path[0] != 2 {
		t.Errorf("conn0 Path = %v, want to start at sink 2", conns[0].Path)
	}
	if len(conns[1].Path) == 0 || conns[1].Path[0] != 3 {
		t.Errorf("conn1 Path = %v, want to start at sink 3", conns[1].Path)
	}
}

func TestRepairMultiDriverNetsDetectsDisconnectedSink(t *testing.T) {
	net := model.NewNet(0)
	net.IndirectSource = 0
	net.IndirectSinks = []int32{2}

	// conn's committed path never touches the declared source (0): the
	// branch graph built from it cannot reach node 2 from node 0.
	conn := model.NewConnection(0, 0, 0, 2, true)
	conn.Routed = true
	conn.Path = []int32{2, 9}
	net.IndirectConns = []int32{0}

	g := chainGraphForDriver()
	e := New(g, []*model.Net{net}, []*model.Connection{conn}, WithConfig(config.Default().Engine), WithLogger(&logger.NopLogger{}))

	err := e.repairMultiDriverNets()
	var topErr *routeerr.TopologyInvariant
	if !errors.As(err, &topErr) {
		t.Fatalf("error = %v, want *routeerr.TopologyInvariant", err)
	}
}

func TestCheckExclusiveOwnershipDetectsCollision(t *testing.T) {
	c0 := model.NewConnection(0, 0, 0, 2, true)
	c0.Routed = true
	c0.Path = []int32{2, 1, 0}
	c1 := model.NewConnection(1, 1, 10, 3, true)
	c1.Routed = true
	c1.Path = []int32{3, 1, 10} // shares node 1 with net 0's connection

	g := chainGraphForDriver()
	e := New(g, nil, []*model.Connection{c0, c1}, WithConfig(config.Default().Engine), WithLogger(&logger.NopLogger{}))

	err := e.checkExclusiveOwnership()
	var violation *routeerr.MultiDriverViolation
	if !errors.As(err, &violation) {
		t.Fatalf("error = %v, want *routeerr.MultiDriverViolation", err)
	}
	if violation.NodeID != 1 {
		t.Errorf("violation.NodeID = %d, want 1", violation.NodeID)
	}
}

func TestCheckExclusiveOwnershipAcceptsDisjointPaths(t *testing.T) {
	c0 := model.NewConnection(0, 0, 0, 2, true)
	c0.Routed = true
	c0.Path = []int32{2, 1, 0}
	c1 := model.NewConnection(1, 1, 10, 12, true)
	c1.Routed = true
	c1.Path = []int32{12, 11, 10}

	g := chainGraphForDriver()
	e := New(g, nil, []*model.Connection{c0, c1}, WithConfig(config.Default().Engine), WithLogger(&logger.NopLogger{}))

	if err := e.checkExclusiveOwnership(); err != nil {
		t.Errorf("checkExclusiveOwnership() error = %v, want nil", err)
	}
}
