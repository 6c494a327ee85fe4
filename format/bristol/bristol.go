//
// bristol.go
//
// Copyright (c) 2019-2025 Markku Rossi
//
// All rights reserved.
//

// Package bristol parses the Bristol Fashion plaintext circuit format into
// a netlist.Circuit. Bristol Fashion is the format used by the secure
// multi-party computation benchmark suites (Tillich-Smart adder/
// multiplier, AES, SHA, etc): a header line of gate/wire counts, a line of
// per-party input bit widths, a line of output bit widths, and one line
// per gate naming its input wires, output wire, and operation.
package bristol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/lermchair/mcgarnagle/netlist"
)

var reParts = regexp.MustCompilePOSIX("[[:space:]]+")

// ErrMalformed reports a structural problem with the input that is not
// more specifically classified.
var ErrMalformed = errors.New("bristol: malformed input")

// Result bundles a parsed circuit with its party input wires (keyed "a"
// and "b", matching the two-party protocol this module implements) and its
// output wires.
type Result struct {
	Circuit *netlist.Circuit
	Inputs  map[string][]netlist.WireID
	Outputs []netlist.WireID
}

// Parse reads a Bristol Fashion circuit from in. Input wire ids below
// the first party's bit width are renamed "a_<id>"; the rest up to the
// combined input width are renamed "b_<id>". Output wire ids (the top
// bits_out ids) are renamed "out_<id>"; every other wire keeps its
// original numeric id as its WireID.
func Parse(in io.Reader) (*Result, error) {
	r := bufio.NewReader(in)

	header, err := readLine(r)
	if err != nil {
		return nil, err
	}
	if len(header) != 2 {
		return nil, fmt.Errorf("%w: header line wants 2 fields, got %d", ErrMalformed, len(header))
	}
	numGates, err := strconv.Atoi(header[0])
	if err != nil {
		return nil, fmt.Errorf("%w: gate count: %v", ErrMalformed, err)
	}
	numWires, err := strconv.Atoi(header[1])
	if err != nil {
		return nil, fmt.Errorf("%w: wire count: %v", ErrMalformed, err)
	}

	ioLine, err := readLine(r)
	if err != nil {
		return nil, err
	}
	if len(ioLine) < 3 {
		return nil, fmt.Errorf("%w: io line wants at least 3 fields", ErrMalformed)
	}
	bitsA, err := strconv.Atoi(ioLine[1])
	if err != nil {
		return nil, fmt.Errorf("%w: party 0 bit width: %v", ErrMalformed, err)
	}
	bitsB, err := strconv.Atoi(ioLine[2])
	if err != nil {
		return nil, fmt.Errorf("%w: party 1 bit width: %v", ErrMalformed, err)
	}

	outLine, err := readLine(r)
	if err != nil {
		return nil, err
	}
	if len(outLine) < 2 {
		return nil, fmt.Errorf("%w: output line wants at least 2 fields", ErrMalformed)
	}
	bitsOut, err := strconv.Atoi(outLine[1])
	if err != nil {
		return nil, fmt.Errorf("%w: output bit width: %v", ErrMalformed, err)
	}

	minOutputID := numWires - bitsOut
	maxInputID := bitsA + bitsB - 1

	rename := func(id int) netlist.WireID {
		switch {
		case id < bitsA:
			return netlist.WireID(fmt.Sprintf("a_%d", id))
		case id <= maxInputID:
			return netlist.WireID(fmt.Sprintf("b_%d", id))
		case id >= minOutputID:
			return netlist.WireID(fmt.Sprintf("out_%d", id))
		default:
			return netlist.WireID(strconv.Itoa(id))
		}
	}

	circuit := netlist.New()

	aInputs := make([]netlist.WireID, bitsA)
	for i := 0; i < bitsA; i++ {
		w := rename(i)
		aInputs[i] = w
		if err := circuit.AddGate(w, netlist.INPUT); err != nil {
			return nil, err
		}
	}
	bInputs := make([]netlist.WireID, bitsB)
	for i := 0; i < bitsB; i++ {
		w := rename(bitsA + i)
		bInputs[i] = w
		if err := circuit.AddGate(w, netlist.INPUT); err != nil {
			return nil, err
		}
	}

	outputs := make([]netlist.WireID, bitsOut)
	for i := 0; i < bitsOut; i++ {
		outputs[i] = rename(minOutputID + i)
	}

	gate := 0
	for ; ; gate++ {
		line, err := readLine(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if gate >= numGates {
			return nil, fmt.Errorf("%w: more gate lines than header declared", ErrMalformed)
		}
		if len(line) < 4 {
			return nil, fmt.Errorf("%w: gate line %q too short", ErrMalformed, strings.Join(line, " "))
		}
		nIn, err := strconv.Atoi(line[0])
		if err != nil {
			return nil, fmt.Errorf("%w: gate %d input count: %v", ErrMalformed, gate, err)
		}
		nOut, err := strconv.Atoi(line[1])
		if err != nil {
			return nil, fmt.Errorf("%w: gate %d output count: %v", ErrMalformed, gate, err)
		}
		if nOut != 1 || 2+nIn+nOut+1 != len(line) {
			return nil, fmt.Errorf("%w: gate %d has an unsupported arity", ErrMalformed, gate)
		}

		inputs := make([]netlist.WireID, nIn)
		for i := 0; i < nIn; i++ {
			id, err := strconv.Atoi(line[2+i])
			if err != nil {
				return nil, fmt.Errorf("%w: gate %d input wire: %v", ErrMalformed, gate, err)
			}
			inputs[i] = rename(id)
		}
		outID, err := strconv.Atoi(line[2+nIn])
		if err != nil {
			return nil, fmt.Errorf("%w: gate %d output wire: %v", ErrMalformed, gate, err)
		}
		output := rename(outID)

		kind, err := gateKind(line[len(line)-1], nIn)
		if err != nil {
			return nil, fmt.Errorf("gate %d: %w", gate, err)
		}
		if err := circuit.AddGate(output, kind, inputs...); err != nil {
			return nil, err
		}
	}
	if gate != numGates {
		return nil, fmt.Errorf("%w: expected %d gates, read %d", ErrMalformed, numGates, gate)
	}

	return &Result{
		Circuit: circuit,
		Inputs: map[string][]netlist.WireID{
			"a": aInputs,
			"b": bInputs,
		},
		Outputs: outputs,
	}, nil
}

func gateKind(op string, arity int) (netlist.GateKind, error) {
	switch op {
	case "AND":
		return netlist.AND, requireArity(2, arity)
	case "OR":
		return netlist.OR, requireArity(2, arity)
	case "XOR":
		return netlist.XOR, requireArity(2, arity)
	case "XNOR":
		return netlist.XNOR, requireArity(2, arity)
	case "NAND":
		return netlist.NAND, requireArity(2, arity)
	case "NOR":
		return netlist.NOR, requireArity(2, arity)
	case "INV":
		return netlist.NOT, requireArity(1, arity)
	default:
		return 0, fmt.Errorf("%w: unsupported operation %q", ErrMalformed, op)
	}
}

func requireArity(want, got int) error {
	if want != got {
		return fmt.Errorf("%w: expects %d inputs, got %d", ErrMalformed, want, got)
	}
	return nil
}

func readLine(r *bufio.Reader) ([]string, error) {
	for {
		line, err := r.ReadString('\n')
		if len(strings.TrimSpace(line)) == 0 {
			if err != nil {
				return nil, err
			}
			continue
		}
		parts := reParts.Split(strings.TrimSpace(line), -1)
		return parts, nil
	}
}
