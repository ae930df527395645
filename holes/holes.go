// Package holes implements the post-dominating hole analysis of spec
// §4.2.1: for every forward control node, the next unconditional control
// transfer that every concrete execution must cross.
package holes

import "github.com/xyproto/straightforward/ir"

// Compute fills in NextPostDominatingHole for every control node in g,
// visiting blocks in reverse program order so that a block's successors
// (which always appear earlier in that reversed walk, since Jump/Branch
// targets are later in program order) have already been resolved.
//
// JumpLoop back-edges are deliberately not reconciled here: a JumpLoop
// terminates hole chains and is skipped during this forward-only analysis
// (spec §9).
func Compute(g *ir.Graph) {
	for i := len(g.Blocks) - 1; i >= 0; i-- {
		b := g.Blocks[i]
		c := b.Control
		if c == nil {
			ir.Fatalf("block %d has no control node", b.Index)
		}
		switch c.Class {
		case ir.ClassReturn, ir.ClassJumpLoop:
			c.NextPostDominatingHole = nil
		case ir.ClassJump:
			if len(c.Targets) != 1 {
				ir.Fatalf("Jump node %d has %d targets, want 1", c.ID, len(c.Targets))
			}
			c.NextPostDominatingHole = nearestHole(c.Targets[0].Control)
		case ir.ClassBranch:
			computeBranchHole(c)
		default:
			ir.Fatalf("node %d has non-control class %s in control position", c.ID, c.Class)
		}
	}
}

// nearestHole returns n unless n is a fallthrough jump (spec §4.2.1:
// "fallthrough edges are transparent"), in which case it returns n's own
// next-hole pointer, which is already resolved because n's block is later
// in program order and Compute visits blocks in reverse.
func nearestHole(n *ir.Node) *ir.Node {
	if n.Class == ir.ClassJump && n.IsFallthrough() {
		return n.NextPostDominatingHole
	}
	return n
}

// computeBranchHole walks both successors' nearest-hole chains in
// lock-step, always advancing whichever pointer has the higher ID, until
// either they coincide (a genuine merge) or the advancing side reaches a
// terminator, in which case the other side's current position is the
// post-dominating hole (spec §4.2.1).
func computeBranchHole(c *ir.Node) {
	if len(c.Targets) != 2 {
		ir.Fatalf("Branch node %d has %d targets, want 2", c.ID, len(c.Targets))
	}
	a := nearestHole(c.Targets[0].Control)
	b := nearestHole(c.Targets[1].Control)

	for {
		if a == b {
			c.NextPostDominatingHole = a
			return
		}
		if a.ID > b.ID {
			if isTerminator(a) {
				c.NextPostDominatingHole = b
				return
			}
			a = nearestHole(a.NextPostDominatingHole)
		} else {
			if isTerminator(b) {
				c.NextPostDominatingHole = a
				return
			}
			b = nearestHole(b.NextPostDominatingHole)
		}
	}
}

func isTerminator(n *ir.Node) bool {
	return n.Class == ir.ClassReturn || n.Class == ir.ClassJumpLoop
}

// IsLiveAtTarget reports whether value v, defined before control node
// source, is still live at the entry of target (spec §4.2.1).
func IsLiveAtTarget(v *ir.Node, source *ir.BasicBlock, target *ir.BasicBlock) bool {
	if target.Index <= source.Index {
		// Loop back-edge: live iff v was defined strictly before target's
		// entry (excluding any gap moves already inserted there).
		return v.ID < target.FirstNonGapMoveID()
	}
	return v.LiveRange.End >= target.FirstID()
}
