// Package codegen walks an allocated graph and produces the two artifacts a
// real backend would need from the allocator's output: a safepoint table
// (which stack slots hold live tagged values at each call/deopt point) and
// an executable code buffer to install the eventual machine code into. No
// instruction selection happens here — that stays an external collaborator,
// spec §1 — this package only demonstrates the lifecycle a backend drives
// once allocation has finished.
package codegen

import "github.com/xyproto/straightforward/ir"

// DeferredThunk is out-of-line work queued during the main walk and run once
// it completes — the shape the teacher's deopt/exception-exit lists would
// take in a real backend, minus any deopt-specific metadata (spec's
// Non-goals).
type DeferredThunk func(*Driver)

// SafepointEntry records, for one call or deopt point, which stack slots
// hold a live tagged value the garbage collector or deoptimizer would need
// to find.
type SafepointEntry struct {
	At        ir.NodeID
	LiveSlots []int
}

// Driver consumes a graph that has already been through regalloc.Allocate
// and produces codegen-adjacent artifacts from its operand assignments.
type Driver struct {
	g          *ir.Graph
	stackSlots int

	deferred   []DeferredThunk
	safepoints []SafepointEntry
	page       *ExecutablePage
}

// NewDriver wraps an allocated graph. stackSlots is the slot count Allocate
// returned; it sizes the frame the eventual prologue reserves.
func NewDriver(g *ir.Graph, stackSlots int) *Driver {
	return &Driver{g: g, stackSlots: stackSlots}
}

// Defer queues thunk to run after the main walk, in FIFO order.
func (d *Driver) Defer(thunk DeferredThunk) {
	d.deferred = append(d.deferred, thunk)
}

// RunDeferred drains the deferred queue, in the order thunks were queued.
func (d *Driver) RunDeferred() {
	q := d.deferred
	d.deferred = nil
	for _, thunk := range q {
		thunk(d)
	}
}

// StackSlots reports the frame's spill-slot count.
func (d *Driver) StackSlots() int { return d.stackSlots }

// Walk visits every block in program order and records a SafepointEntry at
// every call or deopt point, using the allocator's own Result/operand
// assignments rather than recomputing liveness.
func (d *Driver) Walk() []SafepointEntry {
	d.safepoints = d.safepoints[:0]
	for _, b := range d.g.Blocks {
		for _, n := range b.Nodes {
			if n.Class == ir.ClassGapMove {
				continue
			}
			if n.Props.IsCall || n.Props.CanDeopt {
				d.safepoints = append(d.safepoints, d.recordSafepoint(n))
			}
		}
	}
	return d.safepoints
}

// recordSafepoint gathers every value whose result operand is a stack slot
// and which is still live at n — defined at or before n and not yet dead —
// read back off the already-allocated graph instead of live allocator
// state. Values whose result is a register are not counted, even if the
// allocator later spilled them (for example at this call); the graph holds
// no record of those spill slots.
func (d *Driver) recordSafepoint(n *ir.Node) SafepointEntry {
	entry := SafepointEntry{At: n.ID}
	for _, b := range d.g.Blocks {
		for _, candidate := range b.Nodes {
			if !candidate.IsValue() || !candidate.Result.IsStackSlot() {
				continue
			}
			if candidate.ID <= n.ID && n.ID <= candidate.LiveRange.End {
				entry.LiveSlots = append(entry.LiveSlots, candidate.Result.Index)
			}
		}
	}
	return entry
}
