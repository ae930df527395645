package regalloc

import "github.com/xyproto/straightforward/ir"

// tryAllocateRegister picks the first free physical register with no
// ordering preference beyond index (spec §4.2.5). Returns -1 if none free.
func (a *Allocator) tryAllocateRegister() int {
	for i, occ := range a.registers {
		if occ == nil && !a.reserved[i] {
			return i
		}
	}
	return -1
}

// farthestNextUse returns the index of the occupied register whose current
// occupant's next use is farthest in the future — Belady's MIN
// approximation (spec §4.2.5). A value with no recorded further use
// (ir.NoNextUse) is treated as farthest, since it is the best candidate to
// evict. Panics if every register is free (callers only call this once
// tryAllocateRegister has failed).
func (a *Allocator) farthestNextUse() int {
	best := -1
	var bestUse ir.NodeID
	for i, occ := range a.registers {
		if occ == nil || a.reserved[i] {
			continue
		}
		use := occ.NextUse
		if use == ir.NoNextUse {
			return i
		}
		if best == -1 || use > bestUse {
			best, bestUse = i, use
		}
	}
	if best == -1 {
		ir.Fatalf("farthestNextUse called with no registers occupied")
	}
	return best
}

// free evicts whatever currently occupies register reg (spec §4.2.5). If
// tryMove is set and another register is free, the occupant is relocated
// there via a GapMove instead of being spilled. If the occupant already has
// a stack slot, reg is simply dropped. Otherwise the occupant is spilled to
// a stack slot.
func (a *Allocator) free(reg int, tryMove bool) {
	w := a.registers[reg]
	if w == nil {
		return
	}

	if tryMove {
		if r2 := a.tryAllocateRegister(); r2 != -1 && r2 != reg {
			a.insertGapMove(ir.Reg(reg), ir.Reg(r2), w.Node)
			a.clearRegister(w, reg)
			w.Register = r2
			a.registers[r2] = w
			return
		}
	}

	a.clearRegister(w, reg)
	if w.HasSlot {
		// Already held in a slot; dropping the register is sufficient.
		return
	}
	a.spill(w)
}

// allocateRegister materializes li into some physical register, evicting
// the farthest-next-use occupant if none are free (spec §4.2.5). Does not
// insert a gap move; callers that need the value's old location preserved
// do that themselves by comparing currentOperand before and after.
func (a *Allocator) allocateRegister(li *ir.LiveNodeInfo) int {
	r := a.tryAllocateRegister()
	if r == -1 {
		r = a.farthestNextUse()
		a.free(r, false)
	}
	li.Register = r
	a.registers[r] = li
	return r
}

// getFreeRegisters gathers k currently-free registers, evicting by
// farthest-next-use (try_move=false) if fewer than k are free (spec
// §4.2.5). Returned indices are not bound to any value; callers own them.
func (a *Allocator) getFreeRegisters(k int) []int {
	out := make([]int, 0, k)
	for i, occ := range a.registers {
		if occ == nil && !a.reserved[i] {
			out = append(out, i)
			if len(out) == k {
				return out
			}
		}
	}
	for len(out) < k {
		r := a.farthestNextUse()
		a.free(r, false)
		out = append(out, r)
	}
	return out
}

// reserveTemporaries marks regs as held for the current node's temporaries,
// so tryAllocateRegister/farthestNextUse skip them until releaseTemporaries
// runs (spec §4.2.3: temporaries must not collide with the node's own
// result register).
func (a *Allocator) reserveTemporaries(regs []int) {
	for _, r := range regs {
		a.reserved[r] = true
	}
}

// releaseTemporaries undoes reserveTemporaries once the node that requested
// regs has finished allocating.
func (a *Allocator) releaseTemporaries(regs []int) {
	for _, r := range regs {
		a.reserved[r] = false
	}
}

// forceIntoRegister moves li into exactly register r, evicting whatever is
// there if it isn't already li, and reports the AllocatedOperand li held
// immediately beforehand (for the caller's gap-move decision).
func (a *Allocator) forceIntoRegister(li *ir.LiveNodeInfo, r int) (before ir.AllocatedOperand) {
	before = currentOperand(li)
	if li.Register == r {
		return before
	}
	if occ := a.registers[r]; occ != nil && occ != li {
		a.free(r, true)
	}
	if li.Register != ir.NoRegister {
		a.clearRegister(li, li.Register)
	}
	li.Register = r
	a.registers[r] = li
	return before
}
