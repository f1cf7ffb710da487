package netlistio

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/uamyangel/potter/internal/model"
)

// LoadText reads the line-oriented netlist stand-in format:
//
//	NET <oriID>
//	IS <node> <pin>        (indirect source, omitted if net has none)
//	IK <node> <pin>        (indirect sink, repeatable)
//	DS <node> <pin>        (direct source, omitted if net has none)
//	DK <node> <pin>        (direct sink, repeatable)
//	END
//
// ROUTE records, as written by WriteText, are accepted and skipped; the
// returned specs carry pins only, not routed paths.
//
// This is not the real Cap'n Proto physical-netlist format; it exists so
// the engine is exercisable end-to-end without that parser.
func LoadText(path string) ([]NetSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening netlist file %s: %w", path, err)
	}
	defer f.Close()

	var specs []NetSpec
	var cur *NetSpec

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "NET":
			if len(fields) != 2 {
				return nil, fmt.Errorf("netlist file %s:%d: NET wants 1 field", path, lineNo)
			}
			oriID, _ := strconv.Atoi(fields[1])
			spec := NetSpec{OriID: int32(oriID), IndirectSource: model.InvalidID, DirectSource: model.InvalidID}
			cur = &spec
		case "IS":
			node, pin, err := parsePin(fields, path, lineNo)
			if err != nil {
				return nil, err
			}
			cur.IndirectSource = node
			cur.IndirectSourcePin = pin
		case "IK":
			node, pin, err := parsePin(fields, path, lineNo)
			if err != nil {
				return nil, err
			}
			cur.IndirectSinks = append(cur.IndirectSinks, node)
			cur.IndirectSinkPins = append(cur.IndirectSinkPins, pin)
		case "DS":
			node, pin, err := parsePin(fields, path, lineNo)
			if err != nil {
				return nil, err
			}
			cur.DirectSource = node
			cur.DirectSourcePin = pin
		case "DK":
			node, pin, err := parsePin(fields, path, lineNo)
			if err != nil {
				return nil, err
			}
			cur.DirectSinks = append(cur.DirectSinks, node)
			cur.DirectSinkPins = append(cur.DirectSinkPins, pin)
		case "END":
			if cur == nil {
				return nil, fmt.Errorf("netlist file %s:%d: END without NET", path, lineNo)
			}
			specs = append(specs, *cur)
			cur = nil
		case "ROUTE":
			if cur == nil {
				return nil, fmt.Errorf("netlist file %s:%d: ROUTE without NET", path, lineNo)
			}
		default:
			return nil, fmt.Errorf("netlist file %s:%d: unknown record %q", path, lineNo, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading netlist file %s: %w", path, err)
	}
	return specs, nil
}

func parsePin(fields []string, path string, lineNo int) (int32, int32, error) {
	if len(fields) != 3 {
		return 0, 0, fmt.Errorf("netlist file %s:%d: %s wants 2 fields", path, lineNo, fields[0])
	}
	node, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("netlist file %s:%d: bad node index: %w", path, lineNo, err)
	}
	pin, err := strconv.Atoi(fields[2])
	if err != nil {
		return 0, 0, fmt.Errorf("netlist file %s:%d: bad pin index: %w", path, lineNo, err)
	}
	return int32(node), int32(pin), nil
}

// WriteText writes the routed result in the same stand-in format, adding
// a ROUTE record per routed connection listing its committed path
// sink-first.
//
//	NET <oriID>
//	...source/sink records, unchanged...
//	ROUTE <connID> <node> <node> ...   (repeatable, one per routed connection)
//	END
func WriteText(path string, nets []*model.Net, conns []*model.Connection) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating netlist file %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, net := range nets {
		fmt.Fprintf(w, "NET %d\n", net.OriID)
		if net.IndirectSource != model.InvalidID {
			fmt.Fprintf(w, "IS %d %d\n", net.IndirectSource, net.IndirectSourcePin)
		}
		for i, sink := range net.IndirectSinks {
			fmt.Fprintf(w, "IK %d %d\n", sink, net.IndirectSinkPins[i])
		}
		if net.DirectSource != model.InvalidID {
			fmt.Fprintf(w, "DS %d %d\n", net.DirectSource, net.DirectSourcePin)
		}
		for i, sink := range net.DirectSinks {
			fmt.Fprintf(w, "DK %d %d\n", sink, net.DirectSinkPins[i])
		}
		for _, connID := range append(append([]int32{}, net.IndirectConns...), net.DirectConns...) {
			c := conns[connID]
			if !c.Routed {
				continue
			}
			w.WriteString("ROUTE ")
			fmt.Fprintf(w, "%d", connID)
			for _, node := range c.Path {
				fmt.Fprintf(w, " %d", node)
			}
			w.WriteString("\n")
		}
		w.WriteString("END\n")
	}
	return w.Flush()
}
