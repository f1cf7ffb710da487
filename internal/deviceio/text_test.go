package deviceio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/uamyangel/potter/internal/model"
)

func TestLoadTextParsesLayoutNodesAndEdges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "device.txt")
	content := "LAYOUT 0 99 0 99\n" +
		"N 0 0 0 0 1 1.0 WIRE 0 0 1 0 0\n" +
		"N 1 0 1 0 1 1.0 PINBOUNCE 1 0 1 0 0\n" +
		"E 0 1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	d, err := LoadText(path)
	if err != nil {
		t.Fatalf("LoadText() error = %v", err)
	}
	if d.Layout().XMax != 99 || d.Layout().YMax != 99 {
		t.Errorf("Layout() = %+v, want XMax=YMax=99", d.Layout())
	}
	if len(d.Nodes()) != 2 {
		t.Fatalf("got %d nodes, want 2", len(d.Nodes()))
	}
	if d.Nodes()[0].Type != model.Wire {
		t.Errorf("node 0 type = %v, want WIRE", d.Nodes()[0].Type)
	}
	if d.Nodes()[1].Type != model.PinBounce || !d.Nodes()[1].IsNodePinBounce {
		t.Errorf("node 1 = %+v, want type PINBOUNCE, IsNodePinBounce true", d.Nodes()[1])
	}
	if len(d.Edges()) != 1 || d.Edges()[0].From != 0 || d.Edges()[0].To != 1 {
		t.Errorf("edges = %+v, want one edge 0->1", d.Edges())
	}
}

func TestLoadTextRejectsUnknownNodeType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "device.txt")
	content := "LAYOUT 0 9 0 9\n" + "N 0 0 0 0 1 1.0 BOGUS 0 0 1 0 0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadText(path); err == nil {
		t.Fatalf("LoadText() error = nil, want an error for an unknown node type")
	}
}

func TestLoadTextRejectsMalformedNodeRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "device.txt")
	content := "LAYOUT 0 9 0 9\n" + "N 0 0 0\n" // too few fields
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadText(path); err == nil {
		t.Fatalf("LoadText() error = nil, want an error for a malformed N record")
	}
}

func TestParseNodeTypeAllVariants(t *testing.T) {
	tests := map[string]model.NodeType{
		"PINFEED_O":       model.PinfeedO,
		"PINFEED_I":       model.PinfeedI,
		"PINBOUNCE":       model.PinBounce,
		"SUPER_LONG_LINE": model.SuperLongLine,
		"LAGUNA_I":        model.LagunaI,
		"WIRE":            model.Wire,
	}
	for s, want := range tests {
		t.Run(s, func(t *testing.T) {
			got, err := parseNodeType(s)
			if err != nil {
				t.Fatalf("parseNodeType(%q) error = %v", s, err)
			}
			if got != want {
				t.Errorf("parseNodeType(%q) = %v, want %v", s, got, want)
			}
		})
	}
}
