//
// optimize.go
//
// Copyright (c) 2019-2025 Markku Rossi
//
// All rights reserved.
//

package optimize

import (
	"fmt"
	"sync"

	"github.com/lermchair/mcgarnagle/netlist"
)

// DefaultMaxNodes bounds how large the shared DAG may grow before rewrites
// stop firing and construction degrades to plain (correct, unsimplified)
// insertion for the remainder of the run.
const DefaultMaxNodes = 1 << 16

// Stats reports what an optimization run changed, for callers that want to
// confirm the pass actually helped (or to size a benchmark report around).
type Stats struct {
	InputCost  int
	OutputCost int
	NodeCount  int
}

// Options configures an optimization run. A zero Options uses
// DefaultMaxNodes and evaluates outputs sequentially.
type Options struct {
	MaxNodes int
	Parallel bool
}

// Optimize rewrites circuit toward cheaper gates, preserving its boolean
// behavior exactly. outputs names the wires that must survive the pass
// (everything else is free to be dropped or renamed).
//
// The rewrite works by lifting each output's cone of the circuit into a
// single shared, hash-consed expression DAG (see pool.go), applying a fixed
// rewrite set during construction (see simplify.go), and then linearizing
// the DAG back into a circuit with one gate per distinct sub-expression —
// so a sub-expression shared by several outputs is garbled once, not once
// per output.
func Optimize(circuit *netlist.Circuit, outputs []netlist.WireID, opts Options) (*netlist.Circuit, Stats, error) {
	maxNodes := opts.MaxNodes
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}

	stats := Stats{InputCost: circuit.Cost()}

	p := newPool(maxNodes)
	roots := make([]int, len(outputs))

	build := func(i int) error {
		id, err := p.fromWire(circuit, outputs[i], make(map[netlist.WireID]int))
		if err != nil {
			return err
		}
		roots[i] = id
		return nil
	}

	if opts.Parallel && len(outputs) > 1 {
		var wg sync.WaitGroup
		errs := make([]error, len(outputs))
		for i := range outputs {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = build(i)
			}()
		}
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				return nil, Stats{}, err
			}
		}
	} else {
		for i := range outputs {
			if err := build(i); err != nil {
				return nil, Stats{}, err
			}
		}
	}

	out := emit(p, outputs, roots)
	stats.OutputCost = out.Cost()
	stats.NodeCount = p.size()
	return out, stats, nil
}

// fromWire lifts the cone feeding wire w into the pool, returning its node
// id. memo caches per-call results so a wire reachable from several paths
// within this one output's cone is only translated once; cross-output
// sharing falls out of the pool's own hash-consing.
func (p *pool) fromWire(c *netlist.Circuit, w netlist.WireID, memo map[netlist.WireID]int) (int, error) {
	if id, ok := memo[w]; ok {
		return id, nil
	}
	gate, ok := c.Gates[w]
	if !ok {
		return 0, fmt.Errorf("netlist: unknown wire %q", w)
	}

	var id int
	switch gate.Kind {
	case netlist.INPUT:
		id = p.wire(w)
	case netlist.CONST0:
		id = p.const0()
	case netlist.CONST1:
		id = p.const1()
	case netlist.NOT, netlist.PASSTHROUGH:
		a, err := p.fromWire(c, gate.Inputs[0], memo)
		if err != nil {
			return 0, err
		}
		if gate.Kind == netlist.PASSTHROUGH {
			id = a
		} else {
			id = p.build1(kNot, a)
		}
	default:
		a, err := p.fromWire(c, gate.Inputs[0], memo)
		if err != nil {
			return 0, err
		}
		b, err := p.fromWire(c, gate.Inputs[1], memo)
		if err != nil {
			return 0, err
		}
		id = p.build2(gateKindOf(gate.Kind), a, b)
	}

	memo[w] = id
	return id, nil
}

func gateKindOf(k netlist.GateKind) kind {
	switch k {
	case netlist.AND:
		return kAnd
	case netlist.OR:
		return kOr
	case netlist.XOR:
		return kXor
	case netlist.NAND:
		return kNand
	case netlist.NOR:
		return kNor
	case netlist.XNOR:
		return kXnor
	case netlist.ANDNOT:
		return kAndNot
	case netlist.ORNOT:
		return kOrNot
	}
	panic(fmt.Sprintf("optimize: unhandled gate kind %v", k))
}

func netlistKindOf(k kind) netlist.GateKind {
	switch k {
	case kAnd:
		return netlist.AND
	case kOr:
		return netlist.OR
	case kXor:
		return netlist.XOR
	case kNand:
		return netlist.NAND
	case kNor:
		return netlist.NOR
	case kXnor:
		return netlist.XNOR
	case kAndNot:
		return netlist.ANDNOT
	case kOrNot:
		return netlist.ORNOT
	case kNot:
		return netlist.NOT
	}
	panic(fmt.Sprintf("optimize: unhandled node kind %v", k))
}

// emit linearizes the DAG reachable from roots into a netlist, declaring
// one gate per distinct node id the first time it is reached and reusing a
// synthetic wire name for every later reference to the same id. Output
// wires keep their original names: the gate computing an output's root is
// declared under the name of the first output it feeds. An output whose
// root already carries another name (it is shared with an earlier output,
// or it is a primary input or a constant) is wired through with a
// PASSTHROUGH gate rather than losing its identity.
func emit(p *pool, outputs []netlist.WireID, roots []int) *netlist.Circuit {
	out := netlist.New()
	names := make(map[int]netlist.WireID, p.size())

	outName := make(map[int]netlist.WireID, len(roots))
	for i, root := range roots {
		if _, ok := outName[root]; !ok {
			outName[root] = outputs[i]
		}
	}
	gateName := func(id int) netlist.WireID {
		if w, ok := outName[id]; ok {
			return w
		}
		return netlist.WireID(fmt.Sprintf("__opt_n%d", id))
	}

	var declare func(id int) netlist.WireID
	declare = func(id int) netlist.WireID {
		if w, ok := names[id]; ok {
			return w
		}
		n := p.get(id)

		var w netlist.WireID
		switch n.kind {
		case kWire:
			w = n.wire
			out.Gates[w] = netlist.Gate{Kind: netlist.INPUT}
		case kConst0:
			w = netlist.WireID("__opt_const0")
			out.Gates[w] = netlist.Gate{Kind: netlist.CONST0}
		case kConst1:
			w = netlist.WireID("__opt_const1")
			out.Gates[w] = netlist.Gate{Kind: netlist.CONST1}
		case kNot:
			a := declare(n.a)
			w = gateName(id)
			out.Gates[w] = netlist.Gate{Kind: netlist.NOT, Inputs: []netlist.WireID{a}}
		default:
			a := declare(n.a)
			b := declare(n.b)
			w = gateName(id)
			out.Gates[w] = netlist.Gate{Kind: netlistKindOf(n.kind), Inputs: []netlist.WireID{a, b}}
		}
		names[id] = w
		return w
	}

	for i, root := range roots {
		w := declare(root)
		orig := outputs[i]
		if w == orig {
			continue
		}
		out.Gates[orig] = netlist.Gate{Kind: netlist.PASSTHROUGH, Inputs: []netlist.WireID{w}}
	}

	return out
}
