package regalloc

import "github.com/xyproto/straightforward/ir"

// allocateNode implements spec §4.2.3: resolve every input's operand,
// assign temporaries, update liveness, handle call/deopt register spills,
// then allocate the node's own result if it defines one.
func (a *Allocator) allocateNode(n *ir.Node) {
	for _, in := range n.Inputs {
		a.resolveInput(n, in)
	}

	if n.NumTemporaries > 0 {
		regs := a.getFreeRegisters(n.NumTemporaries)
		n.Temporaries = make([]ir.AllocatedOperand, len(regs))
		for i, r := range regs {
			n.Temporaries[i] = ir.Reg(r)
		}
		// Held until n is done allocating (including its own result), so
		// allocateResult can't hand the result the same register as a
		// temporary (spec §4.2.3).
		a.reserveTemporaries(regs)
		defer a.releaseTemporaries(regs)
	}

	for _, in := range n.Inputs {
		producer := in.Producer
		a.updateNextUse(producer, n.ID)
		if producer.IsDeadAt(n.ID) {
			a.kill(producer)
		}
	}

	if n.Props.IsCall {
		a.spillAllRegisters(true)
	}
	if n.Props.CanDeopt {
		a.spillAllRegisters(false)
	}

	if n.IsValue() {
		a.allocateResult(n)
	}
}

// resolveInput assigns in.Operand according to in.Policy, inserting a
// GapMove if the resolved location differs from the value's current one
// (spec §4.2.3's policy table).
func (a *Allocator) resolveInput(n *ir.Node, in *ir.Input) {
	li := a.liveInfo(in.Producer)
	before := currentOperand(li)

	switch in.Policy.Policy {
	case ir.PolicyRegisterOrSlot, ir.PolicyRegisterOrSlotOrConstant:
		in.Operand = before

	case ir.PolicyMustHaveRegister:
		if li.Register != ir.NoRegister {
			in.Operand = ir.Reg(li.Register)
			return
		}
		r := a.allocateRegister(li)
		in.Operand = ir.Reg(r)
		a.maybeMove(in.Producer, before, in.Operand)

	case ir.PolicyFixedRegister:
		r := in.Policy.FixedIndex
		a.forceIntoRegister(li, r)
		in.Operand = ir.Reg(r)
		a.maybeMove(in.Producer, before, in.Operand)

	default:
		ir.Fatalf("node %s: input from %s has unreachable policy %s", n, in.Producer, in.Policy.Policy)
	}
}

// allocateResult assigns n's own result operand per its UnallocResult
// policy (spec §4.2.3's policy table, result side).
func (a *Allocator) allocateResult(n *ir.Node) {
	if n.UnallocResult == nil {
		ir.Fatalf("node %s: ValueNode/Phi with no result policy", n)
	}
	policy := *n.UnallocResult
	li := a.newLive(n)

	switch policy.Policy {
	case ir.PolicyMustHaveRegister:
		r := a.allocateRegister(li)
		n.Result = ir.Reg(r)

	case ir.PolicyFixedRegister:
		r := policy.FixedIndex
		if occ := a.registers[r]; occ != nil {
			a.free(r, true)
		}
		li.Register = r
		a.registers[r] = li
		n.Result = ir.Reg(r)

	case ir.PolicySameAsInput:
		i := policy.FixedIndex
		if i < 0 || i >= len(n.Inputs) {
			ir.Fatalf("node %s: SAME_AS_INPUT(%d) out of range", n, i)
		}
		donor := n.Inputs[i].Operand
		if !donor.IsRegister() {
			ir.Fatalf("node %s: SAME_AS_INPUT(%d) donor is not in a register", n, i)
		}
		li.Register = donor.Index
		a.registers[donor.Index] = li
		n.Result = donor

	case ir.PolicyRegisterOrSlot, ir.PolicyRegisterOrSlotOrConstant:
		if r := a.tryAllocateRegister(); r != -1 {
			li.Register = r
			a.registers[r] = li
			n.Result = ir.Reg(r)
		} else {
			li.Slot = a.allocSlot()
			li.HasSlot = true
			n.Result = ir.Slot(li.Slot)
		}

	case ir.PolicyFixedSlot:
		idx := policy.FixedIndex
		li.Slot = idx
		li.HasSlot = true
		n.Result = ir.Slot(idx)

	default:
		ir.Fatalf("node %s: result has unreachable policy %s", n, policy.Policy)
	}
}

// spillAllRegisters spills every currently occupied register's value to a
// stack slot (spec §4.2.3: is_call spills and clears, can_deopt spills
// without clearing — values remain usable in their registers too).
func (a *Allocator) spillAllRegisters(clear bool) {
	for r, occ := range a.registers {
		if occ == nil {
			continue
		}
		a.spill(occ)
		if clear {
			a.clearRegister(occ, r)
		}
	}
}
