package regalloc

import "github.com/xyproto/straightforward/ir"

// activatePhis runs the three-pass phi placement of spec §4.2.2 step 2,
// after merge state (if any) has already been restored into a.registers.
func (a *Allocator) activatePhis(b *ir.BasicBlock) {
	pending := make([]*ir.Node, 0, len(b.Phis))
	lis := make(map[*ir.Node]*ir.LiveNodeInfo, len(b.Phis))
	for _, p := range b.Phis {
		lis[p] = a.newLive(p)
		pending = append(pending, p)
	}

	// Pass (a): reuse a register already holding one of the phi's inputs.
	pending = a.activatePhisReusingInput(pending, lis)

	// Pass (b): any free register.
	pending = a.activatePhisFreeRegister(pending, lis)

	// Pass (c): spill slot for whatever's left.
	for _, p := range pending {
		li := lis[p]
		li.Slot = a.allocSlot()
		li.HasSlot = true
		p.Result = ir.Slot(li.Slot)
	}

	// Every phi's location is now fixed. Reconcile it against every forward
	// predecessor's already-injected operand (spec §8 S6): a predecessor
	// whose exit doesn't hold the value where the phi landed gets a gap
	// move spliced in retroactively, since that predecessor was processed
	// before this merge block decided where the phi lives.
	for _, p := range b.Phis {
		a.reconcilePhiLocation(b, p)
	}
}

// reconcilePhiLocation closes the loop opened by injectAndReconcilePhis for
// every forward predecessor of b (the back-edge case, if any, already
// reconciled itself on the spot because phi.Result was allocated by then).
// It also replaces whatever ordinary RegisterMerge mergeOrdinaryRegisters
// may have built for phi's register with the phi's own, since the phi now
// owns that register going forward.
func (a *Allocator) reconcilePhiLocation(b *ir.BasicBlock, phi *ir.Node) {
	result := phi.Result
	count := b.PredecessorCount

	var merge *ir.RegisterMerge
	if result.IsRegister() {
		merge = &ir.RegisterMerge{
			Operands:       make([]ir.AllocatedOperand, count),
			Representative: a.liveInfo(phi),
		}
	}

	for p, pred := range b.Predecessors {
		if p >= len(phi.Inputs) {
			ir.Fatalf("phi %s: predecessor index %d out of range", phi, p)
		}
		in := phi.Inputs[p]
		if !in.Operand.IsAllocated() {
			// Back-edge not visited yet; injectAndReconcilePhis will
			// reconcile it directly once it is.
			continue
		}
		if merge != nil {
			merge.Operands[p] = in.Operand
		}
		if in.Operand == result {
			continue
		}
		a.insertGapMoveAtBlockExit(pred, in.Operand, result, in.Producer)
		if merge != nil {
			merge.Operands[p] = result
		}
	}

	if merge != nil {
		b.Merge.Registers[result.Index] = ir.RegisterState{Initialized: true, IsMerge: true, Merge: merge}
	}
}

func (a *Allocator) activatePhisReusingInput(pending []*ir.Node, lis map[*ir.Node]*ir.LiveNodeInfo) []*ir.Node {
	var remaining []*ir.Node
	for _, p := range pending {
		reg := a.findRegisterHoldingInput(p)
		if reg == -1 {
			remaining = append(remaining, p)
			continue
		}
		li := lis[p]
		li.Register = reg
		a.registers[reg] = li
		p.Result = ir.Reg(reg)
	}
	return remaining
}

func (a *Allocator) activatePhisFreeRegister(pending []*ir.Node, lis map[*ir.Node]*ir.LiveNodeInfo) []*ir.Node {
	var remaining []*ir.Node
	for _, p := range pending {
		r := a.tryAllocateRegister()
		if r == -1 {
			remaining = append(remaining, p)
			continue
		}
		li := lis[p]
		li.Register = r
		a.registers[r] = li
		p.Result = ir.Reg(r)
	}
	return remaining
}

// findRegisterHoldingInput returns the register index currently holding any
// of p's per-predecessor input producers, or -1.
func (a *Allocator) findRegisterHoldingInput(p *ir.Node) int {
	for i, occ := range a.registers {
		if occ == nil {
			continue
		}
		for _, in := range p.Inputs {
			if in.Producer == occ.Node {
				return i
			}
		}
	}
	return -1
}
