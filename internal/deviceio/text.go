package deviceio

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/uamyangel/potter/internal/geom"
	"github.com/uamyangel/potter/internal/model"
	"github.com/uamyangel/potter/internal/rrg"
)

// LoadText reads the line-oriented device stand-in format:
//
//	LAYOUT xmin xmax ymin ymax
//	N beginX beginY endX endY length baseCost type pinBounce accessibleWire allowedTile preserved sinkPin
//	E from to
//
// This is not the real UltraScale+ Cap'n Proto/zlib device archive; it
// exists so the engine is exercisable end-to-end without that parser.
func LoadText(path string) (*MemoryDevice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening device file %s: %w", path, err)
	}
	defer f.Close()

	d := &MemoryDevice{}
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
		case "LAYOUT":
			if len(fields) != 5 {
				return nil, fmt.Errorf("device file %s:%d: LAYOUT wants 4 fields", path, lineNo)
			}
			xmin, _ := strconv.Atoi(fields[1])
			xmax, _ := strconv.Atoi(fields[2])
			ymin, _ := strconv.Atoi(fields[3])
			ymax, _ := strconv.Atoi(fields[4])
			d.Extent = geom.Box{XMin: int32(xmin), XMax: int32(xmax), YMin: int32(ymin), YMax: int32(ymax)}
		case "N":
			n, err := parseRawNode(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("device file %s:%d: %w", path, lineNo, err)
			}
			d.NodeList = append(d.NodeList, n)
		case "E":
			if len(fields) != 3 {
				return nil, fmt.Errorf("device file %s:%d: E wants 2 fields", path, lineNo)
			}
			from, _ := strconv.Atoi(fields[1])
			to, _ := strconv.Atoi(fields[2])
			d.EdgeList = append(d.EdgeList, rrg.RawEdge{From: int32(from), To: int32(to)})
		default:
			return nil, fmt.Errorf("device file %s:%d: unknown record %q", path, lineNo, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading device file %s: %w", path, err)
	}
	return d, nil
}

func parseRawNode(f []string) (rrg.RawNode, error) {
	if len(f) != 12 {
		return rrg.RawNode{}, fmt.Errorf("N wants 12 fields, got %d", len(f))
	}
	atoi16 := func(s string) int16 { v, _ := strconv.Atoi(s); return int16(v) }
	atob := func(s string) bool { return s == "1" || s == "true" }
	baseCost, _ := strconv.ParseFloat(f[5], 64)
	typ, err := parseNodeType(f[6])
	if err != nil {
		return rrg.RawNode{}, err
	}
	return rrg.RawNode{
		BeginTileX:       atoi16(f[0]),
		BeginTileY:       atoi16(f[1]),
		EndTileX:         atoi16(f[2]),
		EndTileY:         atoi16(f[3]),
		Length:           atoi16(f[4]),
		BaseCost:         baseCost,
		Type:             typ,
		IsNodePinBounce:  atob(f[7]),
		IsAccessibleWire: atob(f[8]),
		InAllowedTile:    atob(f[9]),
		Preserved:        atob(f[10]),
		IsSinkPin:        atob(f[11]),
	}, nil
}

func parseNodeType(s string) (model.NodeType, error) {
	switch s {
	case "PINFEED_O":
		return model.PinfeedO, nil
	case "PINFEED_I":
		return model.PinfeedI, nil
	case "PINBOUNCE":
		return model.PinBounce, nil
	case "SUPER_LONG_LINE":
		return model.SuperLongLine, nil
	case "LAGUNA_I":
		return model.LagunaI, nil
	case "WIRE":
		return model.Wire, nil
	default:
		return 0, fmt.Errorf("unknown node type %q", s)
	}
}
