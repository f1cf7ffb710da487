package inspector

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/uamyangel/potter/internal/geom"
	"github.com/uamyangel/potter/internal/logger"
	"github.com/uamyangel/potter/internal/model"
	"github.com/uamyangel/potter/internal/rrg"
)

func TestParseIDValid(t *testing.T) {
	id, ok := parseID([]string{"42"}, "usage")
	if !ok || id != 42 {
		t.Errorf("parseID([\"42\"]) = (%d, %v), want (42, true)", id, ok)
	}
}

func TestParseIDMissingArg(t *testing.T) {
	_, ok := parseID(nil, "usage")
	if ok {
		t.Errorf("parseID(nil) = true, want false")
	}
}

func TestParseIDNotANumber(t *testing.T) {
	_, ok := parseID([]string{"banana"}, "usage")
	if ok {
		t.Errorf("parseID([\"banana\"]) = true, want false")
	}
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	w.Close()
	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func testInspector() *Inspector {
	n0 := model.NewRouteNode(0, 0, 0, 0, 0, 1.0, 1, model.Wire, false)
	n1 := model.NewRouteNode(1, 1, 0, 1, 0, 1.0, 1, model.Wire, false)
	n1.IncrementOccupancy()
	n1.IncrementOccupancy() // over capacity
	g := &rrg.Graph{Nodes: []*model.RouteNode{n0, n1}, Layout: geom.Box{}}

	net := model.NewNet(0)
	net.IndirectSinks = []int32{1}
	conn := model.NewConnection(0, 0, 0, 1, true)
	conn.Routed = true
	conn.Path = []int32{1, 0}

	return New(g, []*model.Net{net}, []*model.Connection{conn}, &logger.NopLogger{})
}

func TestCmdNodeReportsOccupancyAndCost(t *testing.T) {
	ins := testInspector()
	out := captureStdout(t, func() { ins.cmdNode([]string{"1"}) })
	if !bytes.Contains([]byte(out), []byte("occ=2/1")) {
		t.Errorf("cmdNode output = %q, want it to report occ=2/1", out)
	}
}

func TestCmdNodeRejectsOutOfRange(t *testing.T) {
	ins := testInspector()
	out := captureStdout(t, func() { ins.cmdNode([]string{"99"}) })
	if !bytes.Contains([]byte(out), []byte("no such node")) {
		t.Errorf("cmdNode(99) output = %q, want \"no such node\"", out)
	}
}

func TestCmdOverusedReportsCount(t *testing.T) {
	ins := testInspector()
	out := captureStdout(t, ins.cmdOverused)
	if !bytes.Contains([]byte(out), []byte("1 over-used nodes")) {
		t.Errorf("cmdOverused output = %q, want it to report 1 over-used node", out)
	}
}

func TestCmdStatsReportsCounts(t *testing.T) {
	ins := testInspector()
	out := captureStdout(t, ins.cmdStats)
	want := "nets=1 conns=1 routed=1 failed=0 overused=1"
	if !bytes.Contains([]byte(out), []byte(want)) {
		t.Errorf("cmdStats output = %q, want it to contain %q", out, want)
	}
}
