package regalloc

import "github.com/xyproto/straightforward/ir"

// insertGapMove splices a GapMove(src → dst) for value into the current
// block at a.gapAt, then advances a.gapAt so a second gap move inserted
// immediately afterward lands after this one, preserving order (spec §4.2,
// "gap moves inserted before position p are always visited ... in that
// position").
func (a *Allocator) insertGapMove(src, dst ir.AllocatedOperand, value *ir.Node) *ir.Node {
	n := a.g.NewGapMove(a.cur, src, dst, value)
	b := a.cur
	idx := a.gapAt
	b.Nodes = append(b.Nodes[:idx:idx], append([]*ir.Node{n}, b.Nodes[idx:]...)...)
	a.gapAt++
	return n
}

// insertGapMoveAtBlockExit splices a GapMove at the very end of block's
// Nodes (immediately before its control node), regardless of which block
// the allocator is currently visiting. Used to reconcile a forward
// predecessor's contribution to a phi after the merge block decides where
// the phi lives — the predecessor has already been fully processed by
// then, so this reaches back into it (spec §4.2.6's comment: "the
// target-block entry can materialize a gap-move from that location").
func (a *Allocator) insertGapMoveAtBlockExit(block *ir.BasicBlock, src, dst ir.AllocatedOperand, value *ir.Node) {
	savedCur, savedGapAt := a.cur, a.gapAt
	a.cur = block
	a.gapAt = len(block.Nodes)
	a.insertGapMove(src, dst, value)
	a.cur, a.gapAt = savedCur, savedGapAt
}

// maybeMove inserts a gap move carrying value from before to after, unless
// they already name the same location (spec §4.2.3, "if the resolved
// location differs from the value's canonical location, insert a
// GapMove").
func (a *Allocator) maybeMove(value *ir.Node, before, after ir.AllocatedOperand) {
	if before == after {
		return
	}
	a.insertGapMove(before, after, value)
}
