package rrg

import (
	"fmt"

	"github.com/uamyangel/potter/internal/model"
	"github.com/uamyangel/potter/internal/routeerr"
)

// IsAccessible implements the §4.1 accessibility tests for candidate child
// node c with respect to connection conn routed over graph g: the
// bounding-box test, the wire-class test, and the per-node-type rule.
// sinkNetMember reports whether candidate c is also the INT-projected
// sink pin of another connection of the same net (used by the PINFEED_I
// rule).
func IsAccessible(g *Graph, c *model.RouteNode, conn *model.Connection, sink *model.RouteNode, sinkNetMember func(nodeID int32) bool) (bool, error) {
	if !boundingBoxTest(c, conn) {
		return false, nil
	}
	if !wireClassTest(c, sink) {
		return false, nil
	}

	switch c.Type {
	case model.Wire:
		return true, nil
	case model.PinBounce:
		return pinBounceRule(c, conn), nil
	case model.PinfeedI:
		return pinfeedIRule(c, conn, sinkNetMember), nil
	case model.LagunaI:
		return false, nil
	case model.SuperLongLine:
		return false, &routeerr.TopologyInvariant{Detail: fmt.Sprintf("SUPER_LONG_LINE node %d encountered during accessibility check", c.ID)}
	case model.PinfeedO:
		// reachable only as a source, never as a child.
		return false, nil
	default:
		return false, nil
	}
}

// boundingBoxTest is the §4.1 strict-containment test against the
// connection's dynamic bounding box.
func boundingBoxTest(c *model.RouteNode, conn *model.Connection) bool {
	return conn.Box.ContainsStrict(int32(c.EndTileX), int32(c.EndTileY))
}

// wireClassTest applies to wires flagged accessible-only-near-target: such
// a wire must share the sink's X coordinate and lie within +-1 in Y.
func wireClassTest(c *model.RouteNode, sink *model.RouteNode) bool {
	if !c.IsAccessibleWire {
		return true
	}
	if int32(c.EndTileX) != int32(sink.EndTileX) {
		return false
	}
	dy := int32(c.EndTileY) - int32(sink.EndTileY)
	return dy >= -1 && dy <= 1
}

// pinBounceRule rejects a PINBOUNCE child when it is itself the target,
// per the §4.1 table ("wire-class test and child must not be the
// target"). It always passes the wire-class test at the call site above;
// this only adds the not-target condition.
func pinBounceRule(c *model.RouteNode, conn *model.Connection) bool {
	return c.ID != conn.Sink
}

// pinfeedIRule accepts a PINFEED_I child iff it is the connection's
// target, or it is also a sink pin of another connection of this net and
// carries the pin-bounce flag, behaving as a PINBOUNCE for routing
// purposes.
func pinfeedIRule(c *model.RouteNode, conn *model.Connection, sinkNetMember func(nodeID int32) bool) bool {
	if c.ID == conn.Sink {
		return true
	}
	return sinkNetMember(c.ID) && c.IsNodePinBounce
}
