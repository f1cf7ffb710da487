// Package netlistio defines the physical-netlist consumer/producer
// boundary (§6). Reading the input design and writing back the routed
// result both ultimately speak the same zlib-compressed Cap'n Proto
// format as the device archive; that codec is out of scope here (spec §1
// Non-goals) and is left to a concrete implementation behind these
// interfaces.
package netlistio

import (
	"github.com/uamyangel/potter/internal/geom"
	"github.com/uamyangel/potter/internal/model"
	"github.com/uamyangel/potter/internal/rrg"
)

// NetSpec is the minimal per-net information a netlist reader must supply
// to build the engine's Net/Connection tables.
type NetSpec struct {
	OriID int32

	IndirectSource    int32
	IndirectSinks     []int32
	IndirectSourcePin int32
	IndirectSinkPins  []int32

	DirectSource    int32
	DirectSinks     []int32
	DirectSourcePin int32
	DirectSinkPins  []int32
}

// Reader is the netlist consumer interface: everything the engine needs
// to construct its Net/Connection tables from an input design.
type Reader interface {
	Nets() ([]NetSpec, error)
}

// Producer is the netlist output interface: writing the routed result
// back into the physical-netlist container, keyed by net OriID.
type Producer interface {
	WriteRouting(nets []*model.Net, conns []*model.Connection) error
}

// MemoryNetlist is a concrete in-memory Reader/Producer, useful for tests
// and for any front end that has already materialized the net table
// (e.g. a cached, pre-decoded netlist snapshot).
type MemoryNetlist struct {
	NetSpecs []NetSpec
	Written  []*model.Net
}

func (m *MemoryNetlist) Nets() ([]NetSpec, error) { return m.NetSpecs, nil }

func (m *MemoryNetlist) WriteRouting(nets []*model.Net, conns []*model.Connection) error {
	m.Written = nets
	return nil
}

// Build materializes the engine's Net/Connection tables from specs,
// deriving each connection's bounding box (and each net's, as the union
// of its connections' boxes) from graph's node coordinates the way the
// original front end does before handing the design to the router.
func Build(graph *rrg.Graph, specs []NetSpec) ([]*model.Net, []*model.Connection) {
	nets := make([]*model.Net, len(specs))
	var conns []*model.Connection

	for i, spec := range specs {
		net := model.NewNet(int32(i))
		net.OriID = spec.OriID
		net.IndirectSource = spec.IndirectSource
		net.IndirectSinks = spec.IndirectSinks
		net.IndirectSourcePin = spec.IndirectSourcePin
		net.IndirectSinkPins = spec.IndirectSinkPins
		net.DirectSource = spec.DirectSource
		net.DirectSinks = spec.DirectSinks
		net.DirectSourcePin = spec.DirectSourcePin
		net.DirectSinkPins = spec.DirectSinkPins

		haveBox := false
		addConn := func(source, sink int32, indirect bool) {
			id := int32(len(conns))
			c := model.NewConnection(id, net.ID, source, sink, indirect)
			c.Box = nodeBox(graph, source, sink)
			c.Hpwl = c.Box.Width() + c.Box.Height() - 2
			c.DoubleHpwl = 2 * c.Hpwl
			conns = append(conns, c)
			if indirect {
				net.IndirectConns = append(net.IndirectConns, id)
			} else {
				net.DirectConns = append(net.DirectConns, id)
			}
			if !haveBox {
				net.Box = c.Box
				haveBox = true
			} else {
				net.Box = geom.Union(net.Box, c.Box)
			}
		}

		if spec.IndirectSource != model.InvalidID {
			for _, sink := range spec.IndirectSinks {
				addConn(spec.IndirectSource, sink, true)
			}
		}
		if spec.DirectSource != model.InvalidID {
			for _, sink := range spec.DirectSinks {
				addConn(spec.DirectSource, sink, false)
			}
		}

		net.DoubleHpwl = 2 * int32(net.Box.Width()+net.Box.Height()-2)
		nets[i] = net
	}

	return nets, conns
}

// nodeBox returns the bounding box spanned by source and sink's tile
// coordinates, the seed box that the driver's pre-processing widens once
// by the bbox margins.
func nodeBox(graph *rrg.Graph, source, sink int32) geom.Box {
	s, k := graph.Node(source), graph.Node(sink)
	b := geom.Box{XMin: int32(s.EndTileX), XMax: int32(s.EndTileX), YMin: int32(s.EndTileY), YMax: int32(s.EndTileY)}
	return geom.Union(b, geom.Box{XMin: int32(k.EndTileX), XMax: int32(k.EndTileX), YMin: int32(k.EndTileY), YMax: int32(k.EndTileY)})
}
