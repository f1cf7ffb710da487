package netlistio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/uamyangel/potter/internal/model"
)

func TestLoadTextParsesRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "netlist.txt")
	content := "NET 7\n" +
		"IS 1 0\n" +
		"IK 2 0\n" +
		"IK 3 1\n" +
		"DS 10 0\n" +
		"DK 11 0\n" +
		"END\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writeFile: %v", err)
	}

	specs, err := LoadText(path)
	if err != nil {
		t.Fatalf("LoadText() error = %v", err)
	}
	if len(specs) != 1 {
		t.Fatalf("got %d specs, want 1", len(specs))
	}
	s := specs[0]
	if s.OriID != 7 {
		t.Errorf("OriID = %d, want 7", s.OriID)
	}
	if s.IndirectSource != 1 || s.IndirectSourcePin != 0 {
		t.Errorf("IndirectSource = (%d, %d), want (1, 0)", s.IndirectSource, s.IndirectSourcePin)
	}
	if len(s.IndirectSinks) != 2 || s.IndirectSinks[0] != 2 || s.IndirectSinks[1] != 3 {
		t.Errorf("IndirectSinks = %v, want [2 3]", s.IndirectSinks)
	}
	if s.DirectSource != 10 || len(s.DirectSinks) != 1 || s.DirectSinks[0] != 11 {
		t.Errorf("direct fields = (%d, %v), want (10, [11])", s.DirectSource, s.DirectSinks)
	}
}

func TestLoadTextRejectsEndWithoutNet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.txt")
	if err := os.WriteFile(path, []byte("END\n"), 0o644); err != nil {
		t.Fatalf("writeFile: %v", err)
	}
	if _, err := LoadText(path); err == nil {
		t.Fatalf("LoadText() error = nil, want an error for END without NET")
	}
}

func TestLoadTextRejectsUnknownRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.txt")
	if err := os.WriteFile(path, []byte("NET 1\nWAT 1 2\nEND\n"), 0o644); err != nil {
		t.Fatalf("writeFile: %v", err)
	}
	if _, err := LoadText(path); err == nil {
		t.Fatalf("LoadText() error = nil, want an error for an unknown record type")
	}
}

func TestWriteTextRoundTripsRoutedPath(t *testing.T) {
	net := model.NewNet(0)
	net.OriID = 42
	net.IndirectSource = 0
	net.IndirectSinks = []int32{1}
	net.IndirectSourcePin = 0
	net.IndirectSinkPins = []int32{0}
	net.IndirectConns = []int32{0}

	conn := model.NewConnection(0, 0, 0, 1, true)
	conn.Routed = true
	conn.Path = []int32{1, 0}

	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := WriteText(path, []*model.Net{net}, []*model.Connection{conn}); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}

	specs, err := LoadText(path)
	if err != nil {
		t.Fatalf("LoadText() on written file error = %v", err)
	}
	if len(specs) != 1 || specs[0].OriID != 42 {
		t.Fatalf("round-tripped specs = %+v, want one spec with OriID 42", specs)
	}
	if specs[0].IndirectSource != 0 || len(specs[0].IndirectSinks) != 1 || specs[0].IndirectSinks[0] != 1 {
		t.Errorf("round-tripped indirect fields = %+v, want source 0, sinks [1]", specs[0])
	}
}
