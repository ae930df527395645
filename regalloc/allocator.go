// Package regalloc implements the "StraightForward" linear register
// allocator: a single forward pass over a strict-SSA graph that assigns
// every input and result an AllocatedOperand, inserts GapMove nodes where
// a value's physical location doesn't match where a consumer needs it, and
// builds the per-block merge state a code generator walks to materialize
// phi-resolution moves.
package regalloc

import (
	"github.com/xyproto/straightforward/holes"
	"github.com/xyproto/straightforward/ir"
	"github.com/xyproto/straightforward/trace"
)

// Allocator runs one allocation pass over a Graph. It is not reusable
// across graphs; construct a fresh one per compile job.
type Allocator struct {
	numRegisters int
	trace        *trace.Sink

	// registers[i] is the live value currently occupying physical register
	// i, or nil if free.
	registers []*ir.LiveNodeInfo

	// reserved[i] marks a register handed out as one of the current node's
	// temporaries (spec §4.2.3): free (registers[i] is nil) but not
	// available for the same node's own result or for eviction until the
	// node finishes allocating.
	reserved []bool

	// values indexes every currently-live node by ID, mirroring the
	// "values map" invariant of the source data model.
	values map[ir.NodeID]*ir.LiveNodeInfo

	freeSlots []int
	nextSlot  int
	maxSlot   int

	g   *ir.Graph
	cur *ir.BasicBlock
	// gapAt is the index into cur.Nodes that the next inserted GapMove
	// lands at; advanced by insertGapMove so consecutive moves preserve
	// relative order.
	gapAt int
}

// New builds an Allocator targeting numRegisters general-purpose physical
// registers, logging under sink if non-nil.
func New(numRegisters int, sink *trace.Sink) *Allocator {
	return &Allocator{
		numRegisters: numRegisters,
		trace:        sink,
		registers:    make([]*ir.LiveNodeInfo, numRegisters),
		reserved:     make([]bool, numRegisters),
		values:       make(map[ir.NodeID]*ir.LiveNodeInfo),
	}
}

// Allocate runs the main pass (spec §4.2.2) over g, which must already have
// had Finalize called; Allocate computes the post-dominating holes itself
// (holes.Compute). Returns the stack-slot count, which it also stores in
// g.StackSlots, or an error if g violates a structural invariant the
// allocator depends on.
//
// Malformed IR is reported via ir.InvariantError panics internally;
// Allocate recovers them at this boundary so a library caller is never
// killed by an internal assertion (see ir.Fatalf).
func (a *Allocator) Allocate(g *ir.Graph) (stackSlots int, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(*ir.InvariantError); ok {
				err = ie
				return
			}
			panic(r)
		}
	}()

	a.g = g
	holes.Compute(g)

	for _, b := range g.Blocks {
		a.allocateBlock(b)
	}

	g.StackSlots = a.maxSlot
	return a.maxSlot, nil
}

func (a *Allocator) allocateBlock(b *ir.BasicBlock) {
	a.cur = b
	a.trace.Regalloc("block %d: entry", b.Index)

	if b.Merge != nil {
		a.restoreFromMerge(b)
	}

	a.activatePhis(b)

	for idx := 0; idx < len(b.Nodes); idx++ {
		n := b.Nodes[idx]
		if n.Class == ir.ClassPhi || n.Class == ir.ClassGapMove {
			continue
		}
		a.gapAt = idx
		a.allocateNode(n)
		idx += a.gapAt - idx // absorb any gap moves inserted before n
	}

	a.gapAt = len(b.Nodes)
	a.allocateControl(b)
}

// liveInfo returns the LiveNodeInfo for node n, which must currently be
// live, or panics — every input the allocator processes must resolve to a
// value that is live at the point it is used (spec invariant 4.2, "every
// input reference is to a node with first_id < use_id <= last_id").
func (a *Allocator) liveInfo(n *ir.Node) *ir.LiveNodeInfo {
	li, ok := a.values[n.ID]
	if !ok {
		ir.Fatalf("node %s is not live at its use", n)
	}
	return li
}

// currentOperand returns li's current physical location as an
// AllocatedOperand, preferring its register if it has one.
func currentOperand(li *ir.LiveNodeInfo) ir.AllocatedOperand {
	if li.Register != ir.NoRegister {
		return ir.Reg(li.Register)
	}
	if li.HasSlot {
		return ir.Slot(li.Slot)
	}
	return ir.AllocatedOperand{}
}
