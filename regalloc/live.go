package regalloc

import "github.com/xyproto/straightforward/ir"

// adopt installs li as the allocator's live-value record for its node,
// registering it in both the values map and, if it holds a register, the
// registers array (spec §3, "at every program point either
// register_values[r] is null or register_values[r].reg == r").
func (a *Allocator) adopt(li *ir.LiveNodeInfo) {
	a.values[li.Node.ID] = li
	if li.Register != ir.NoRegister {
		a.registers[li.Register] = li
	}
}

// newLive creates and adopts a LiveNodeInfo for n with no location yet,
// its NextUse set to n's first recorded use (or NoNextUse if it has none).
func (a *Allocator) newLive(n *ir.Node) *ir.LiveNodeInfo {
	li := &ir.LiveNodeInfo{Node: n, Register: ir.NoRegister, Slot: -1, HasSlot: false, NextUse: n.LiveRange.NextUseAfter(n.ID)}
	a.values[n.ID] = li
	return li
}

// allocSlot returns a free positive-index stack slot, reusing one from the
// free list if available (spec §3, "free-slot list"; spec invariant: a
// positive-index slot is reused only after its prior occupant dies).
func (a *Allocator) allocSlot() int {
	if n := len(a.freeSlots); n > 0 {
		s := a.freeSlots[n-1]
		a.freeSlots = a.freeSlots[:n-1]
		return s
	}
	s := a.nextSlot
	a.nextSlot++
	if a.nextSlot > a.maxSlot {
		a.maxSlot = a.nextSlot
	}
	return s
}

// releaseSlot returns a positive-index slot to the free list. Negative
// (argument) slots are never released (spec §3 invariant).
func (a *Allocator) releaseSlot(slot int) {
	if slot < 0 {
		return
	}
	a.freeSlots = append(a.freeSlots, slot)
}

// spill ensures li has a stack slot, allocating one if it doesn't already,
// and writes the value into it. Does not touch li.Register.
func (a *Allocator) spill(li *ir.LiveNodeInfo) {
	if li.HasSlot {
		return
	}
	li.Slot = a.allocSlot()
	li.HasSlot = true
}

// clearRegister drops li's claim on register r without moving or spilling
// it; callers that already know the value has another home (another
// register, or a slot) use this instead of free().
func (a *Allocator) clearRegister(li *ir.LiveNodeInfo, r int) {
	if a.registers[r] == li {
		a.registers[r] = nil
	}
	if li.Register == r {
		li.Register = ir.NoRegister
	}
}

// kill removes n's value from every live-tracking structure and returns its
// positive-index slot, if any, to the free list (spec §4.2.3, "the value
// becomes dead: remove it from all register_values entries, and if it had a
// positive-index spill slot, return that slot to the free list").
func (a *Allocator) kill(n *ir.Node) {
	li, ok := a.values[n.ID]
	if !ok {
		return
	}
	if li.Register != ir.NoRegister {
		a.clearRegister(li, li.Register)
	}
	if li.HasSlot {
		a.releaseSlot(li.Slot)
	}
	delete(a.values, n.ID)
}

// updateNextUse advances n's live-range use cursor past pos and mirrors the
// result onto its LiveNodeInfo, if it is still live.
func (a *Allocator) updateNextUse(n *ir.Node, pos ir.NodeID) {
	next := n.LiveRange.NextUseAfter(pos)
	if li, ok := a.values[n.ID]; ok {
		li.NextUse = next
	}
}
