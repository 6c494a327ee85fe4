//
// yosys.go
//
// Copyright (c) 2019-2025 Markku Rossi
//
// All rights reserved.
//

// Package yosys parses the JSON netlist format produced by Yosys's
// `write_json` backend, after technology mapping to the simple gate
// library (`$_AND_`, `$_OR_`, `$_NOT_`, and friends). Every bit index in
// the design becomes one wire, named "w_<bit>"; module ports classify
// those wires into the circuit's named inputs and outputs.
package yosys

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/lermchair/mcgarnagle/netlist"
)

type portJSON struct {
	Direction string `json:"direction"`
	Bits      []int  `json:"bits"`
}

type cellJSON struct {
	Type           string            `json:"type"`
	PortDirections map[string]string `json:"port_directions"`
	Connections    map[string][]int  `json:"connections"`
}

type moduleJSON struct {
	Ports map[string]portJSON `json:"ports"`
	Cells map[string]cellJSON `json:"cells"`
}

type designJSON struct {
	Modules map[string]moduleJSON `json:"modules"`
}

// cellKinds maps a Yosys simple-gate cell type to its netlist.GateKind.
var cellKinds = map[string]netlist.GateKind{
	"$_AND_":    netlist.AND,
	"$_OR_":     netlist.OR,
	"$_NOT_":    netlist.NOT,
	"$_XOR_":    netlist.XOR,
	"$_NOR_":    netlist.NOR,
	"$_NAND_":   netlist.NAND,
	"$_ANDNOT_": netlist.ANDNOT,
	"$_ORNOT_":  netlist.ORNOT,
	"$_XNOR_":   netlist.XNOR,
}

// Result bundles a parsed circuit with its named input ports (each port
// name maps to its ordered, LSB-first bit wires) and its output wires
// flattened across every output port, in port-then-bit order.
type Result struct {
	Circuit *netlist.Circuit
	Inputs  map[string][]netlist.WireID
	Outputs []netlist.WireID
}

// Parse reads a Yosys `write_json` document containing exactly one module
// after flattening and simple-gate technology mapping (`yosys -p
// "synth; abc -g AND,OR,XOR,NOT; write_json"` or equivalent).
func Parse(data []byte) (*Result, error) {
	var doc designJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yosys: invalid JSON: %w", err)
	}
	if len(doc.Modules) != 1 {
		return nil, fmt.Errorf("yosys: expected exactly one module, found %d", len(doc.Modules))
	}

	var mod moduleJSON
	for _, m := range doc.Modules {
		mod = m
	}

	circuit := netlist.New()
	inputs := make(map[string][]netlist.WireID)
	var outputPortNames []string

	for _, name := range sortedPortNames(mod.Ports) {
		port := mod.Ports[name]
		switch port.Direction {
		case "input":
			ws := make([]netlist.WireID, len(port.Bits))
			for i, bit := range port.Bits {
				w := wireName(bit)
				ws[i] = w
				if err := circuit.AddGate(w, netlist.INPUT); err != nil {
					return nil, err
				}
			}
			inputs[name] = ws
		case "output":
			outputPortNames = append(outputPortNames, name)
		default:
			return nil, fmt.Errorf("yosys: unknown port direction %q", port.Direction)
		}
	}

	for _, cellName := range sortedCellNames(mod.Cells) {
		cell := mod.Cells[cellName]
		kind, ok := cellKinds[cell.Type]
		if !ok {
			return nil, fmt.Errorf("yosys: unsupported cell type %q", cell.Type)
		}
		if err := buildCell(circuit, kind, cell); err != nil {
			return nil, fmt.Errorf("yosys: cell %q: %w", cellName, err)
		}
	}

	var outputs []netlist.WireID
	for _, name := range outputPortNames {
		for _, bit := range mod.Ports[name].Bits {
			outputs = append(outputs, wireName(bit))
		}
	}

	return &Result{Circuit: circuit, Inputs: inputs, Outputs: outputs}, nil
}

// buildCell locates the cell's "A"/"B"/"Y" connections by port direction
// (Yosys's simple-gate cells always use these port names) and declares the
// gate that produces Y's wire.
func buildCell(circuit *netlist.Circuit, kind netlist.GateKind, cell cellJSON) error {
	var inputs []netlist.WireID
	var output netlist.WireID
	haveOutput := false

	for _, port := range sortedConnectionNames(cell.Connections) {
		bits := cell.Connections[port]
		if len(bits) != 1 {
			return fmt.Errorf("multi-bit connection on port %q unsupported", port)
		}
		dir, ok := cell.PortDirections[port]
		if !ok {
			return fmt.Errorf("port %q has no direction", port)
		}
		w := wireName(bits[0])
		switch dir {
		case "input":
			inputs = append(inputs, w)
		case "output":
			output = w
			haveOutput = true
		default:
			return fmt.Errorf("unknown port direction %q", dir)
		}
	}
	if !haveOutput {
		return fmt.Errorf("no output connection found")
	}
	return circuit.AddGate(output, kind, inputs...)
}

func wireName(bit int) netlist.WireID {
	return netlist.WireID(fmt.Sprintf("w_%d", bit))
}

func sortedPortNames(m map[string]portJSON) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedCellNames(m map[string]cellJSON) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedConnectionNames(m map[string][]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
