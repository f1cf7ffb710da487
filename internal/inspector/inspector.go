// Package inspector implements the congestion-inspection REPL
// (cmd/potter-inspect, and cmd/potter --shell): an interactive shell over
// a routed (or mid-run) design for poking at node occupancy, connection
// paths, and net statistics without re-running the router.
package inspector

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/uamyangel/potter/internal/logger"
	"github.com/uamyangel/potter/internal/model"
	"github.com/uamyangel/potter/internal/rrg"
)

// Inspector holds the design state the REPL commands query.
type Inspector struct {
	Graph *rrg.Graph
	Nets  []*model.Net
	Conns []*model.Connection
	lgr   logger.Logger
}

// New builds an Inspector over a completed (or partially routed) design.
func New(graph *rrg.Graph, nets []*model.Net, conns []*model.Connection, lgr logger.Logger) *Inspector {
	return &Inspector{Graph: graph, Nets: nets, Conns: conns, lgr: lgr}
}

// Run drives the interactive shell until the user exits or input closes.
// Available commands: node/conn/net/overused/stats/help/exit.
func (ins *Inspector) Run() {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Println("potter congestion inspector. Commands: node/conn/net/overused/stats/help/exit")
	for {
		input, err := line.Prompt("potter> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				fmt.Println("Aborted")
				continue
			}
			return
		}
		line.AppendHistory(input)

		args := strings.Fields(strings.TrimSpace(input))
		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "node":
			ins.cmdNode(args[1:])
		case "conn":
			ins.cmdConn(args[1:])
		case "net":
			ins.cmdNet(args[1:])
		case "overused":
			ins.cmdOverused()
		case "stats":
			ins.cmdStats()
		case "help":
			fmt.Println("node <id> | conn <id> | net <id> | overused | stats | exit")
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Printf("unknown command: %s\n", args[0])
		}
	}
}

func (ins *Inspector) cmdNode(args []string) {
	id, ok := parseID(args, "Usage: node <id>")
	if !ok || id < 0 || int(id) >= ins.Graph.Len() {
		fmt.Println("no such node")
		return
	}
	n := ins.Graph.Node(id)
	fmt.Printf("node %d: type=%s occ=%d/%d present=%.3f historical=%.3f children=%d\n",
		n.ID, n.Type, n.GetOccupancy(), model.NodeCapacity, n.PresentCost, n.HistoricalCost, len(n.Children))
}

func (ins *Inspector) cmdConn(args []string) {
	id, ok := parseID(args, "Usage: conn <id>")
	if !ok || id < 0 || int(id) >= len(ins.Conns) {
		fmt.Println("no such connection")
		return
	}
	c := ins.Conns[id]
	fmt.Printf("conn %d: net=%d source=%d sink=%d routed=%v congested=%v pathLen=%d explored=%d\n",
		c.ID, c.NetID, c.Source, c.Sink, c.Routed, c.IsCongested, len(c.Path), c.NumNodesExplored)
}

func (ins *Inspector) cmdNet(args []string) {
	id, ok := parseID(args, "Usage: net <id>")
	if !ok || id < 0 || int(id) >= len(ins.Nets) {
		fmt.Println("no such net")
		return
	}
	n := ins.Nets[id]
	fmt.Printf("net %d (ori=%d): fanout=%d labeled=%v area=%d\n",
		n.ID, n.OriID, len(n.IndirectSinks), n.Labeled, n.Area())
}

func (ins *Inspector) cmdOverused() {
	count := 0
	for _, n := range ins.Graph.Nodes {
		if n.IsOverUsed() {
			count++
			if count <= 20 {
				fmt.Printf("  node %d occ=%d\n", n.ID, n.GetOccupancy())
			}
		}
	}
	if count > 20 {
		fmt.Printf("  ... and %d more\n", count-20)
	}
	fmt.Printf("%d over-used nodes\n", count)
}

func (ins *Inspector) cmdStats() {
	routed, failed := 0, 0
	for _, c := range ins.Conns {
		if !c.IsIndirect {
			continue
		}
		if c.Routed {
			routed++
		} else {
			failed++
		}
	}
	overused := 0
	for _, n := range ins.Graph.Nodes {
		if n.IsOverUsed() {
			overused++
		}
	}
	fmt.Printf("nets=%d conns=%d routed=%d failed=%d overused=%d\n",
		len(ins.Nets), len(ins.Conns), routed, failed, overused)

	worst := append([]*model.RouteNode{}, ins.Graph.Nodes...)
	sort.Slice(worst, func(i, j int) bool { return worst[i].GetOccupancy() > worst[j].GetOccupancy() })
	for i := 0; i < 5 && i < len(worst) && worst[i].IsOverUsed(); i++ {
		fmt.Printf("  hottest[%d]: node %d occ=%d\n", i, worst[i].ID, worst[i].GetOccupancy())
	}
}

func parseID(args []string, usage string) (int32, bool) {
	if len(args) < 1 {
		fmt.Println(usage)
		return 0, false
	}
	v, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Println(usage)
		return 0, false
	}
	return int32(v), true
}
