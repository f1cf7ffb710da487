package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/uamyangel/potter/internal/deviceio"
	"github.com/uamyangel/potter/internal/inspector"
	"github.com/uamyangel/potter/internal/logger"
	"github.com/uamyangel/potter/internal/netlistio"
	"github.com/uamyangel/potter/internal/rrg"
)

func main() {
	var input, device string
	flag.StringVar(&input, "input", "", "routed (or mid-run) netlist path")
	flag.StringVar(&input, "i", "", "routed (or mid-run) netlist path (shorthand)")
	flag.StringVar(&device, "device", "xcvu3p.device", "device archive path")
	flag.StringVar(&device, "d", "xcvu3p.device", "device archive path (shorthand)")
	flag.Parse()

	if input == "" {
		fmt.Fprintln(os.Stderr, "potter-inspect: -i/--input is required")
		os.Exit(1)
	}

	dev, err := deviceio.LoadText(device)
	if err != nil {
		fmt.Fprintf(os.Stderr, "potter-inspect: %v\n", err)
		os.Exit(2)
	}
	graph, err := rrg.Build(dev.Nodes(), dev.Edges(), dev.Layout())
	if err != nil {
		fmt.Fprintf(os.Stderr, "potter-inspect: %v\n", err)
		os.Exit(2)
	}
	specs, err := netlistio.LoadText(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "potter-inspect: %v\n", err)
		os.Exit(2)
	}
	nets, conns := netlistio.Build(graph, specs)

	inspector.New(graph, nets, conns, &logger.NopLogger{}).Run()
}
