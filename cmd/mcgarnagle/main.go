//
// main.go
//
// Copyright (c) 2019-2025 Markku Rossi
//
// All rights reserved.
//

// Command mcgarnagle runs a two-party boolean circuit through the garbler
// and evaluator in a single process, given a Bristol Fashion or Yosys JSON
// circuit file and each party's input as an unsigned integer. No wire
// protocol is implemented here (see spec §6/Non-goals): the garbler's
// wire labels are hand delivered to the evaluator in memory, exactly as
// the OT package's Transfer would if the inputs crossed a process
// boundary.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/lermchair/mcgarnagle/evaluate"
	"github.com/lermchair/mcgarnagle/format/bristol"
	"github.com/lermchair/mcgarnagle/format/yosys"
	"github.com/lermchair/mcgarnagle/garble"
	"github.com/lermchair/mcgarnagle/gcrypto"
	"github.com/lermchair/mcgarnagle/netlist"
	"github.com/lermchair/mcgarnagle/optimize"
	"github.com/lermchair/mcgarnagle/ot"
)

// Verbose gates diagnostic output, set from the -v flag.
var Verbose = false

func main() {
	file := flag.String("c", "", "circuit file (.txt/.bristol for Bristol Fashion, .json for Yosys)")
	aInput := flag.Uint64("a", 0, "Alice's input")
	bInput := flag.Uint64("b", 0, "Bob's input")
	useOT := flag.Bool("ot", false, "deliver Bob's input labels via oblivious transfer instead of directly")
	runOpt := flag.Bool("opt", false, "optimize the circuit before garbling")
	optStats := flag.Bool("opt-stats", false, "print optimizer before/after gate cost")
	fVerbose := flag.Bool("v", false, "verbose output")
	flag.Parse()

	Verbose = *fVerbose

	if len(*file) == 0 {
		fmt.Fprintln(os.Stderr, "circuit file not specified (-c)")
		os.Exit(1)
	}

	circuit, ins, outs, err := loadCircuit(*file)
	if err != nil {
		log.Fatalf("failed to parse circuit file %q: %v", *file, err)
	}
	if Verbose {
		log.Printf("loaded circuit: %d gates, %d party-a wires, %d party-b wires, %d outputs",
			len(circuit.Gates), len(ins["a"]), len(ins["b"]), len(outs))
	}

	if *runOpt {
		before := circuit.Cost()
		optimized, stats, err := optimize.Optimize(circuit, outs, optimize.Options{})
		if err != nil {
			log.Fatalf("optimization failed: %v", err)
		}
		circuit = optimized
		if *optStats {
			fmt.Printf("optimizer: cost %d -> %d (%d DAG nodes)\n", before, stats.OutputCost, stats.NodeCount)
		}
	}

	result, err := run(circuit, ins, outs, *aInput, *bInput, *useOT)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("result: %d\n", result)
}

func loadCircuit(file string) (*netlist.Circuit, map[string][]netlist.WireID, []netlist.WireID, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, nil, err
	}
	defer f.Close()

	if strings.HasSuffix(file, ".json") {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, nil, nil, err
		}
		res, err := yosys.Parse(data)
		if err != nil {
			return nil, nil, nil, err
		}
		return res.Circuit, res.Inputs, res.Outputs, nil
	}

	res, err := bristol.Parse(f)
	if err != nil {
		return nil, nil, nil, err
	}
	return res.Circuit, res.Inputs, res.Outputs, nil
}

// run garbles circuit, hands Alice's labels directly to the evaluator and
// Bob's labels either directly or via OT depending on useOT, evaluates,
// and reassembles the output wires (LSB-first) into an unsigned integer.
func run(circuit *netlist.Circuit, ins map[string][]netlist.WireID, outs []netlist.WireID,
	aValue, bValue uint64, useOT bool) (uint64, error) {

	g, err := garble.New(circuit, ins, map[string][]netlist.WireID{"out": outs})
	if err != nil {
		return 0, err
	}
	wireToKeys, gates, err := g.Build()
	if err != nil {
		return 0, err
	}

	labels := make(map[netlist.WireID]gcrypto.Label, len(ins["a"])+len(ins["b"]))

	aBits := netlist.WireValues(ins["a"], aValue)
	for w, bit := range aBits {
		labels[w] = wireToKeys[w].Of(bit)
	}

	bBits := netlist.WireValues(ins["b"], bValue)
	for w, bit := range bBits {
		kp := wireToKeys[w]
		if !useOT {
			labels[w] = kp.Of(bit)
			continue
		}
		chosen, err := ot.Transfer(kp.Label0[:], kp.Label1[:], bit)
		if err != nil {
			return 0, fmt.Errorf("oblivious transfer for wire %q: %w", w, err)
		}
		var l gcrypto.Label
		copy(l[:], chosen)
		labels[w] = l
	}

	ev := evaluate.New(circuit, outs, wireToKeys, gates)
	bits, err := ev.Run(labels)
	if err != nil {
		return 0, err
	}

	var result uint64
	for i, w := range outs {
		if bits[w] == 1 {
			result |= 1 << uint(i)
		}
	}
	return result, nil
}
