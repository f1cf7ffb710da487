package model

import "github.com/uamyangel/potter/internal/geom"

// Connection is a single source-to-sink routing request belonging to a
// net. Source and Sink are RouteNode indices (INT-projected for indirect
// connections); Path is stored sink-to-source, as produced by walking
// NodeInfo.Prev backlinks during saveRouting.
type Connection struct {
	ID    int32
	NetID int32

	Source int32
	Sink   int32

	Box geom.Box

	Hpwl       int32
	DoubleHpwl int32

	IsIndirect bool

	Routed              bool
	RoutedThisIteration bool
	IsCongested         bool

	// Path holds the committed route, sink-first: Path[0] == Sink,
	// Path[len-1] == Source.
	Path []int32

	NumNodesExplored int32
	LastRoutedIter   int32
}

// NewConnection returns an unrouted Connection with a nil Path; the path's
// length depends on the RRG distance between source and sink and is
// unknown up front, so nothing is pre-allocated.
func NewConnection(id, netID, source, sink int32, isIndirect bool) *Connection {
	return &Connection{
		ID:         id,
		NetID:      netID,
		Source:     source,
		Sink:       sink,
		IsIndirect: isIndirect,
	}
}

// ShouldRoute reports whether this connection needs (re-)routing this
// iteration: either never routed, or routed but currently congested.
func (c *Connection) ShouldRoute() bool {
	return !c.Routed || c.IsCongested
}

// ResetPath clears the committed path before a fresh A* attempt.
func (c *Connection) ResetPath() {
	c.Path = c.Path[:0]
}
