//
// optimize_test.go
//
// Copyright (c) 2019-2025 Markku Rossi
//
// All rights reserved.
//

package optimize

import (
	"testing"

	"github.com/lermchair/mcgarnagle/netlist"
)

// evalCircuit evaluates c's outputs directly (no garbling) for the given
// wire assignment, topologically, to cross-check optimizer soundness.
func evalCircuit(t *testing.T, c *netlist.Circuit, outputs []netlist.WireID, in map[netlist.WireID]int) map[netlist.WireID]int {
	t.Helper()
	order, err := netlist.TopologicalSort(c)
	if err != nil {
		t.Fatal(err)
	}
	values := make(map[netlist.WireID]int, len(order))
	for w, v := range in {
		values[w] = v
	}
	for _, w := range order {
		gate := c.Gates[w]
		switch gate.Kind {
		case netlist.INPUT:
			if _, ok := values[w]; !ok {
				t.Fatalf("input wire %q has no assignment", w)
			}
		case netlist.CONST0:
			values[w] = 0
		case netlist.CONST1:
			values[w] = 1
		case netlist.NOT:
			values[w] = 1 - values[gate.Inputs[0]]
		case netlist.PASSTHROUGH:
			values[w] = values[gate.Inputs[0]]
		default:
			a, b := values[gate.Inputs[0]], values[gate.Inputs[1]]
			values[w] = evalBinary(gate.Kind, a, b)
		}
	}
	out := make(map[netlist.WireID]int, len(outputs))
	for _, w := range outputs {
		out[w] = values[w]
	}
	return out
}

func evalBinary(kind netlist.GateKind, a, b int) int {
	ab, bb := a == 1, b == 1
	var r bool
	switch kind {
	case netlist.AND:
		r = ab && bb
	case netlist.OR:
		r = ab || bb
	case netlist.XOR:
		r = ab != bb
	case netlist.NAND:
		r = !(ab && bb)
	case netlist.NOR:
		r = !(ab || bb)
	case netlist.XNOR:
		r = ab == bb
	case netlist.ANDNOT:
		r = ab && !bb
	case netlist.ORNOT:
		r = ab || !bb
	default:
		panic("unreachable")
	}
	if r {
		return 1
	}
	return 0
}

func mustAdd(t *testing.T, c *netlist.Circuit, w netlist.WireID, kind netlist.GateKind, inputs ...netlist.WireID) {
	t.Helper()
	if err := c.AddGate(w, kind, inputs...); err != nil {
		t.Fatal(err)
	}
}

// fullAdderBit returns a,b,cin INPUT -> sum,cout circuit using the textbook
// XOR/AND/OR decomposition, deliberately unoptimized.
func fullAdderBit(t *testing.T) *netlist.Circuit {
	t.Helper()
	c := netlist.New()
	mustAdd(t, c, "a", netlist.INPUT)
	mustAdd(t, c, "b", netlist.INPUT)
	mustAdd(t, c, "cin", netlist.INPUT)
	mustAdd(t, c, "axb", netlist.XOR, "a", "b")
	mustAdd(t, c, "sum", netlist.XOR, "axb", "cin")
	mustAdd(t, c, "g1", netlist.AND, "a", "b")
	mustAdd(t, c, "g2", netlist.AND, "axb", "cin")
	mustAdd(t, c, "cout", netlist.OR, "g1", "g2")
	return c
}

func TestOptimizeFullAdderPreservesBehavior(t *testing.T) {
	c := fullAdderBit(t)
	outputs := []netlist.WireID{"sum", "cout"}

	opt, _, err := Optimize(c, outputs, Options{})
	if err != nil {
		t.Fatal(err)
	}

	for a := 0; a <= 1; a++ {
		for b := 0; b <= 1; b++ {
			for cin := 0; cin <= 1; cin++ {
				in := map[netlist.WireID]int{"a": a, "b": b, "cin": cin}
				want := evalCircuit(t, c, outputs, in)
				got := evalCircuit(t, opt, outputs, in)
				if got["sum"] != want["sum"] || got["cout"] != want["cout"] {
					t.Fatalf("a=%d b=%d cin=%d: got %v, want %v", a, b, cin, got, want)
				}
			}
		}
	}
}

func TestOptimizeDoesNotIncreaseCost(t *testing.T) {
	c := fullAdderBit(t)
	outputs := []netlist.WireID{"sum", "cout"}
	_, stats, err := Optimize(c, outputs, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if stats.OutputCost > stats.InputCost {
		t.Fatalf("optimized cost %d exceeds original cost %d", stats.OutputCost, stats.InputCost)
	}
}

func TestOptimizeDoubleNegationCollapses(t *testing.T) {
	c := netlist.New()
	mustAdd(t, c, "a", netlist.INPUT)
	mustAdd(t, c, "n1", netlist.NOT, "a")
	mustAdd(t, c, "out", netlist.NOT, "n1")
	outputs := []netlist.WireID{"out"}

	opt, _, err := Optimize(c, outputs, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for a := 0; a <= 1; a++ {
		in := map[netlist.WireID]int{"a": a}
		if got := evalCircuit(t, opt, outputs, in)["out"]; got != a {
			t.Fatalf("a=%d: got %d, want %d", a, got, a)
		}
	}
	if opt.Cost() >= c.Cost() {
		t.Fatalf("expected strict cost improvement, got %d >= %d", opt.Cost(), c.Cost())
	}
}

func TestOptimizeDeMorganNandCollapsesToAnd(t *testing.T) {
	c := netlist.New()
	mustAdd(t, c, "a", netlist.INPUT)
	mustAdd(t, c, "b", netlist.INPUT)
	mustAdd(t, c, "nand", netlist.NAND, "a", "b")
	mustAdd(t, c, "out", netlist.NOT, "nand")
	outputs := []netlist.WireID{"out"}

	opt, _, err := Optimize(c, outputs, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for a := 0; a <= 1; a++ {
		for b := 0; b <= 1; b++ {
			in := map[netlist.WireID]int{"a": a, "b": b}
			want := a & b
			if got := evalCircuit(t, opt, outputs, in)["out"]; got != want {
				t.Fatalf("a=%d b=%d: got %d, want %d", a, b, got, want)
			}
		}
	}
	if g := opt.Gates["out"]; g.Kind != netlist.AND {
		t.Fatalf("expected out to be a single AND gate, got %s", g.Kind)
	}
}

func TestOptimizeConstantFolding(t *testing.T) {
	c := netlist.New()
	mustAdd(t, c, "a", netlist.INPUT)
	mustAdd(t, c, "z", netlist.CONST0)
	mustAdd(t, c, "out", netlist.OR, "a", "z")
	outputs := []netlist.WireID{"out"}

	opt, _, err := Optimize(c, outputs, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for a := 0; a <= 1; a++ {
		in := map[netlist.WireID]int{"a": a}
		if got := evalCircuit(t, opt, outputs, in)["out"]; got != a {
			t.Fatalf("a=%d: got %d, want %d", a, got, a)
		}
	}
}

func TestOptimizeSharesSubexpressionAcrossOutputs(t *testing.T) {
	c := netlist.New()
	mustAdd(t, c, "a", netlist.INPUT)
	mustAdd(t, c, "b", netlist.INPUT)
	mustAdd(t, c, "out1", netlist.XOR, "a", "b")
	mustAdd(t, c, "out2", netlist.XOR, "a", "b")
	outputs := []netlist.WireID{"out1", "out2"}

	opt, stats, err := Optimize(c, outputs, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if stats.NodeCount == 0 {
		t.Fatalf("expected a non-empty pool")
	}
	xors := 0
	for _, g := range opt.Gates {
		if g.Kind == netlist.XOR {
			xors++
		}
	}
	if xors != 1 {
		t.Fatalf("expected the shared XOR to be emitted once, got %d XOR gates", xors)
	}
	for a := 0; a <= 1; a++ {
		for b := 0; b <= 1; b++ {
			in := map[netlist.WireID]int{"a": a, "b": b}
			got := evalCircuit(t, opt, outputs, in)
			if got["out1"] != got["out2"] {
				t.Fatalf("shared subexpression diverged: %v", got)
			}
		}
	}
}

func TestOptimizeParallelMatchesSequential(t *testing.T) {
	c := fullAdderBit(t)
	outputs := []netlist.WireID{"sum", "cout"}

	seq, seqStats, err := Optimize(c, outputs, Options{})
	if err != nil {
		t.Fatal(err)
	}
	par, parStats, err := Optimize(c, outputs, Options{Parallel: true})
	if err != nil {
		t.Fatal(err)
	}
	if seqStats.OutputCost != parStats.OutputCost {
		t.Fatalf("parallel cost %d != sequential cost %d", parStats.OutputCost, seqStats.OutputCost)
	}
	for a := 0; a <= 1; a++ {
		for b := 0; b <= 1; b++ {
			for cin := 0; cin <= 1; cin++ {
				in := map[netlist.WireID]int{"a": a, "b": b, "cin": cin}
				got := evalCircuit(t, par, outputs, in)
				want := evalCircuit(t, seq, outputs, in)
				if got["sum"] != want["sum"] || got["cout"] != want["cout"] {
					t.Fatalf("parallel/sequential mismatch at a=%d b=%d cin=%d", a, b, cin)
				}
			}
		}
	}
}

func TestOptimizeRespectsNodeBudget(t *testing.T) {
	c := fullAdderBit(t)
	outputs := []netlist.WireID{"sum", "cout"}

	opt, _, err := Optimize(c, outputs, Options{MaxNodes: 1})
	if err != nil {
		t.Fatal(err)
	}
	for a := 0; a <= 1; a++ {
		for b := 0; b <= 1; b++ {
			for cin := 0; cin <= 1; cin++ {
				in := map[netlist.WireID]int{"a": a, "b": b, "cin": cin}
				want := evalCircuit(t, c, outputs, in)
				got := evalCircuit(t, opt, outputs, in)
				if got["sum"] != want["sum"] || got["cout"] != want["cout"] {
					t.Fatalf("degraded optimization broke correctness at a=%d b=%d cin=%d", a, b, cin)
				}
			}
		}
	}
}
