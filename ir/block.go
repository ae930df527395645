package ir

// RegisterState mirrors spec §3's compact per-register encoding at a block
// entry: either uninitialized, a single live value, or a merge record. The
// source packs this into a tagged pointer; Go has no need for that hack
// (spec §9), so it is a plain tagged struct.
type RegisterState struct {
	Initialized bool
	IsMerge     bool
	Single      *LiveNodeInfo  // valid when Initialized && !IsMerge
	Merge       *RegisterMerge // valid when Initialized && IsMerge
}

// RegisterMerge records, for a register that receives different incoming
// values on different predecessors, where the representative value lived on
// each predecessor's exit (spec §3, §4.2.6).
type RegisterMerge struct {
	// Operands[p] is the representative value's location on predecessor p's
	// exit, in predecessor-index order.
	Operands []AllocatedOperand
	// Representative is the LiveNodeInfo the merged register holds after
	// the merge block's entry.
	Representative *LiveNodeInfo
}

// Operand returns the recorded location for predecessor p, or the zero
// AllocatedOperand if p is out of range or unset.
func (m *RegisterMerge) Operand(p int) AllocatedOperand {
	if m == nil || p < 0 || p >= len(m.Operands) {
		return AllocatedOperand{}
	}
	return m.Operands[p]
}

// LiveNodeInfo is per-live-value bookkeeping (spec §3): which node it is,
// which register and/or stack slot currently holds it, and the next
// position it will be used at.
type LiveNodeInfo struct {
	Node     *Node
	Register int // -1 if not in a register
	Slot     int // stack slot index, or -1 if not spilled
	HasSlot  bool
	NextUse  NodeID
}

// NoRegister marks "not currently in any register" in LiveNodeInfo.Register.
const NoRegister = -1

// MergeState is the per-block register snapshot predecessors reconcile
// against (spec §3, "merge state").
type MergeState struct {
	Registers []RegisterState // one per physical register
}

// BasicBlock is a list of Nodes in program order plus exactly one
// terminating ControlNode (spec §3).
type BasicBlock struct {
	Index int // position in the Graph's reverse-post-order block list

	Nodes   []*Node // value/phi nodes, in program order (phis first)
	Phis    []*Node // the subset of Nodes that are ClassPhi, kept for quick iteration
	Control *Node   // the block's single terminator

	PredecessorCount int
	Merge            *MergeState // populated by the allocator (spec §3, §4.2.6)

	// Predecessors is populated by Graph.Finalize from every block's
	// Control node Targets, so callers never have to keep it in sync by
	// hand. Successors are read directly off Control.Targets.
	Predecessors []*BasicBlock
}

// FirstID returns the ID of the first node at this block's entry: the first
// value/phi node if any exist, otherwise the control node itself.
func (b *BasicBlock) FirstID() NodeID {
	if len(b.Nodes) > 0 {
		return b.Nodes[0].ID
	}
	return b.Control.ID
}

// FirstNonGapMoveID returns the ID of the first node at this block's entry
// that is not a synthetic GapMove — the position spec §4.2.1's
// IsLiveAtTarget compares a back-edge target against.
func (b *BasicBlock) FirstNonGapMoveID() NodeID {
	for _, n := range b.Nodes {
		if n.Class != ClassGapMove {
			return n.ID
		}
	}
	return b.Control.ID
}

// IsEmpty reports whether this block contains only a trivial jump (spec §3):
// no value/phi nodes and a Jump control node.
func (b *BasicBlock) IsEmpty() bool {
	return len(b.Nodes) == 0 && b.Control != nil && b.Control.Class == ClassJump
}

// Graph is a Function's compiled body: a list of BasicBlocks in reverse
// post-order (spec §3). The Graph is the sole owner of every Node reachable
// from it — the arena described in spec §9 — so allocation can mutate nodes
// in place with no other owner to reconcile.
type Graph struct {
	Blocks []*BasicBlock

	nextID NodeID

	// StackSlots is filled in by the allocator: max_used_slot_index + 1
	// (spec §6, "Output from register allocator").
	StackSlots int
}

// NewGraph creates an empty graph ready to receive blocks via AddBlock.
func NewGraph() *Graph {
	return &Graph{}
}

// AddBlock appends a new, empty BasicBlock and returns it. Blocks must be
// added in reverse-post-order; the Graph does not reorder them.
func (g *Graph) AddBlock() *BasicBlock {
	b := &BasicBlock{Index: len(g.Blocks)}
	g.Blocks = append(g.Blocks, b)
	return b
}

// NextNodeID hands out the next monotonically increasing NodeID. Exported
// for the allocator, which mints new IDs for the GapMove nodes it inserts.
func (g *Graph) NextNodeID() NodeID {
	id := g.nextID
	g.nextID++
	return id
}

// AddValue appends a ClassValue node to b, assigning it the graph's next ID.
func (g *Graph) AddValue(b *BasicBlock, opcode string, result UnallocatedOperand, inputs ...*Input) *Node {
	n := &Node{
		ID:            g.NextNodeID(),
		Class:         ClassValue,
		Opcode:        opcode,
		Inputs:        inputs,
		UnallocResult: &result,
		owningBlock:   b,
	}
	n.LiveRange.End = n.ID
	b.Nodes = append(b.Nodes, n)
	return n
}

// AddPhi appends a ClassPhi node at block entry. Per spec §3, phis reside at
// block entry, so AddPhi always inserts before any non-phi node already in
// the block (callers are expected to add all phis before any value node,
// matching the teacher's and the source's own construction order; this is
// enforced defensively below rather than merely documented).
func (g *Graph) AddPhi(b *BasicBlock, result UnallocatedOperand, predInputs ...*Input) *Node {
	n := &Node{
		ID:            g.NextNodeID(),
		Class:         ClassPhi,
		Opcode:        "Phi",
		Inputs:        predInputs,
		UnallocResult: &result,
		owningBlock:   b,
	}
	n.LiveRange.End = n.ID
	b.Phis = append(b.Phis, n)
	// Insert right after the phis already at entry, so phis keep the order
	// they were added in and stay ahead of every non-phi node.
	at := len(b.Phis) - 1
	b.Nodes = append(b.Nodes[:at:at], append([]*Node{n}, b.Nodes[at:]...)...)
	return n
}

// SetControl installs b's terminator. target/targets are the successor
// blocks in Targets order (1 for Jump/JumpLoop, 2 [ifTrue, ifFalse] for
// Branch, 0 for Return).
func (g *Graph) SetControl(b *BasicBlock, class Class, props Properties, targets []*BasicBlock, inputs ...*Input) *Node {
	n := &Node{
		ID:          g.NextNodeID(),
		Class:       class,
		Props:       props,
		Inputs:      inputs,
		Targets:     targets,
		owningBlock: b,
	}
	n.LiveRange.End = n.ID
	b.Control = n
	for _, t := range targets {
		t.PredecessorCount++
	}
	return n
}

// NewGapMove builds a synthetic GapMove node owned by b but not yet
// spliced into b.Nodes — the allocator (package regalloc) decides where in
// program order the move belongs and inserts it there directly, since only
// it knows the current position within the block's forward pass.
func (g *Graph) NewGapMove(b *BasicBlock, src, dst AllocatedOperand, value *Node) *Node {
	n := &Node{
		ID:          g.NextNodeID(),
		Class:       ClassGapMove,
		GapSrc:      src,
		GapDst:      dst,
		GapValue:    value,
		owningBlock: b,
	}
	n.LiveRange.End = n.ID
	return n
}

// Finalize computes predecessor lists and per-node live ranges in a single
// pass over the whole graph. Must be called once construction is complete
// and before either hole analysis or allocation.
func (g *Graph) Finalize() {
	for _, b := range g.Blocks {
		if b.Control == nil {
			continue
		}
		for _, t := range b.Control.Targets {
			t.Predecessors = append(t.Predecessors, b)
		}
	}

	visit := func(n *Node) {
		for _, in := range n.Inputs {
			if in.Producer != nil {
				in.Producer.LiveRange.recordUse(n.ID)
			}
		}
	}
	for _, b := range g.Blocks {
		for _, n := range b.Nodes {
			visit(n)
		}
		if b.Control != nil {
			visit(b.Control)
		}
	}
}
