package regalloc

import (
	"github.com/xyproto/straightforward/holes"
	"github.com/xyproto/straightforward/ir"
)

// restoreFromMerge reinstates a.registers from b's merge state (spec
// §4.2.2 step 1). The previous block's register contents are discarded
// wholesale; anything still live across this edge is named again in
// b.Merge because every predecessor's control-node allocation wrote an
// entry for it (§4.2.6).
func (a *Allocator) restoreFromMerge(b *ir.BasicBlock) {
	for i := range a.registers {
		a.registers[i] = nil
	}
	for i, st := range b.Merge.Registers {
		if !st.Initialized {
			continue
		}
		var li *ir.LiveNodeInfo
		if st.IsMerge {
			if st.Merge == nil {
				continue
			}
			li = st.Merge.Representative
		} else {
			li = st.Single
		}
		if li == nil {
			continue
		}
		li.Register = i
		a.registers[i] = li
		a.values[li.Node.ID] = li
	}
}

// allocateControl implements spec §4.2.4: resolve the control node's own
// inputs exactly like any other node, then hand off to the target(s).
func (a *Allocator) allocateControl(b *ir.BasicBlock) {
	c := b.Control
	for _, in := range c.Inputs {
		a.resolveInput(c, in)
	}
	for _, in := range c.Inputs {
		a.updateNextUse(in.Producer, c.ID)
		if in.Producer.IsDeadAt(c.ID) {
			a.kill(in.Producer)
		}
	}

	switch c.Class {
	case ir.ClassReturn:
		// No targets, so there is no merge state to build.
	case ir.ClassJump, ir.ClassJumpLoop:
		if len(c.Targets) != 1 {
			ir.Fatalf("node %s: %s has %d targets, want 1", c, c.Class, len(c.Targets))
		}
		a.processControlEdge(c.Targets[0])
	case ir.ClassBranch:
		if len(c.Targets) != 2 {
			ir.Fatalf("node %s: Branch has %d targets, want 2", c, len(c.Targets))
		}
		for _, t := range c.Targets {
			a.processControlEdge(t)
		}
	default:
		ir.Fatalf("block %d: control node %s has unexpected class", b.Index, c)
	}
}

// processControlEdge resolves one control edge to rawTarget: routing
// through any chain of empty fallthrough blocks (spec §4.2.4), injecting
// and reconciling phi inputs at the real target, then folding this
// predecessor's ordinary register contents into the target's merge state
// (spec §4.2.6).
func (a *Allocator) processControlEdge(rawTarget *ir.BasicBlock) {
	predKey := a.cur
	target := rawTarget
	for target.IsEmpty() {
		predKey = target
		target = target.Control.Targets[0]
	}

	p := indexOfBlock(target.Predecessors, predKey)
	if p == -1 {
		ir.Fatalf("block %d: %d is not recorded as a predecessor of block %d", a.cur.Index, predKey.Index, target.Index)
	}

	a.injectAndReconcilePhis(target, p)
	a.mergeOrdinaryRegisters(target, p)
}

func indexOfBlock(blocks []*ir.BasicBlock, b *ir.BasicBlock) int {
	for i, x := range blocks {
		if x == b {
			return i
		}
	}
	return -1
}

// injectAndReconcilePhis implements the phi half of spec §4.2.4: record
// where this predecessor's contribution to each of target's phis currently
// lives (the "inject" step), and if target's phis have already been given
// a location (the back-edge case: target was visited before this
// predecessor, i.e. a loop header seen again via its JumpLoop), reconcile
// immediately with a gap move. For forward predecessors target hasn't been
// visited yet; reconciliation happens later in activatePhis, which can see
// every forward predecessor's injected operand already.
func (a *Allocator) injectAndReconcilePhis(target *ir.BasicBlock, p int) {
	for _, phi := range target.Phis {
		if p >= len(phi.Inputs) {
			ir.Fatalf("phi %s: predecessor index %d out of range", phi, p)
		}
		in := phi.Inputs[p]
		li := a.liveInfo(in.Producer)
		in.Operand = currentOperand(li)
		a.updateNextUse(in.Producer, a.cur.Control.ID)

		if !phi.Result.IsAllocated() {
			continue // forward predecessor: target's phi activation handles this.
		}
		if in.Operand != phi.Result {
			a.insertGapMove(in.Operand, phi.Result, in.Producer)
		}
		if phi.Result.IsRegister() {
			rs := &target.Merge.Registers[phi.Result.Index]
			if rs.IsMerge && rs.Merge != nil && p < len(rs.Merge.Operands) {
				rs.Merge.Operands[p] = in.Operand
			}
		}
	}
}

// mergeOrdinaryRegisters folds this predecessor's non-phi register
// contents into target's merge state (spec §4.2.6), initializing it on the
// first predecessor visited and merging on every subsequent one. Registers
// already claimed by a phi (activatePhis overwrote their entry with the
// phi's own RegisterMerge) are skipped; injectAndReconcilePhis owns those.
func (a *Allocator) mergeOrdinaryRegisters(target *ir.BasicBlock, p int) {
	if target.Merge == nil {
		target.Merge = &ir.MergeState{Registers: make([]ir.RegisterState, a.numRegisters)}
		for i := 0; i < a.numRegisters; i++ {
			occ := a.registers[i]
			if occ != nil && !holes.IsLiveAtTarget(occ.Node, a.cur, target) {
				occ = nil
			}
			target.Merge.Registers[i] = ir.RegisterState{Initialized: true, Single: occ}
		}
		return
	}

	for i := 0; i < a.numRegisters; i++ {
		if a.isPhiOwnedRegister(target, i) {
			continue
		}
		incoming := a.registers[i]
		if incoming != nil && !holes.IsLiveAtTarget(incoming.Node, a.cur, target) {
			incoming = nil
		}
		a.mergeRegisterEntry(target, i, p, incoming)
	}
}

func (a *Allocator) isPhiOwnedRegister(target *ir.BasicBlock, reg int) bool {
	st := target.Merge.Registers[reg]
	if !st.IsMerge || st.Merge == nil || st.Merge.Representative == nil {
		return false
	}
	rep := st.Merge.Representative.Node
	for _, phi := range target.Phis {
		if phi == rep {
			return true
		}
	}
	return false
}

// mergeRegisterEntry applies one row of spec §4.2.6's merge table for
// register reg, predecessor p, given the value (if any) live there on this
// predecessor's exit.
func (a *Allocator) mergeRegisterEntry(target *ir.BasicBlock, reg int, p int, incoming *ir.LiveNodeInfo) {
	st := &target.Merge.Registers[reg]

	if !st.IsMerge {
		node := st.Single
		if node == incoming {
			return
		}

		count := target.PredecessorCount
		merge := &ir.RegisterMerge{Operands: make([]ir.AllocatedOperand, count)}
		defaultOp := ir.Reg(reg)
		if node == nil && incoming != nil {
			defaultOp = currentOperand(incoming)
		}
		for j := range merge.Operands {
			merge.Operands[j] = defaultOp
		}
		if node != nil {
			merge.Representative = node
			if incoming != nil {
				merge.Operands[p] = currentOperand(incoming)
			} else {
				merge.Operands[p] = ir.AllocatedOperand{}
			}
		} else {
			merge.Representative = incoming
			merge.Operands[p] = ir.Reg(reg)
		}

		st.Initialized = true
		st.IsMerge = true
		st.Single = nil
		st.Merge = merge
		return
	}

	switch {
	case incoming == nil:
		st.Merge.Operands[p] = ir.AllocatedOperand{}
	case incoming == st.Merge.Representative:
		st.Merge.Operands[p] = ir.Reg(reg)
	default:
		st.Merge.Operands[p] = currentOperand(incoming)
	}
}
