// Package deviceio defines the device consumer boundary (§6): the
// read-only interface the RRG builder needs from a device description.
// The real UltraScale+ device archive is a zlib-compressed Cap'n Proto
// message; parsing it is out of scope here (spec §1 Non-goals) and is
// left to a concrete implementation behind this interface.
package deviceio

import (
	"github.com/uamyangel/potter/internal/geom"
	"github.com/uamyangel/potter/internal/rrg"
)

// Device is the minimal read-only view the RRG builder needs: the raw
// node/edge tables and the device's tile extent.
type Device interface {
	Nodes() []rrg.RawNode
	Edges() []rrg.RawEdge
	Layout() geom.Box
}

// MemoryDevice is a concrete in-memory Device, useful for tests and for
// any front end that has already materialized the node/edge tables
// (e.g. a cached, pre-decoded device snapshot).
type MemoryDevice struct {
	NodeList []rrg.RawNode
	EdgeList []rrg.RawEdge
	Extent   geom.Box
}

func (d *MemoryDevice) Nodes() []rrg.RawNode  { return d.NodeList }
func (d *MemoryDevice) Edges() []rrg.RawEdge  { return d.EdgeList }
func (d *MemoryDevice) Layout() geom.Box      { return d.Extent }
