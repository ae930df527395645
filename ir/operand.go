package ir

import "fmt"

// Policy is an UnallocatedOperand policy (spec §3, "Operand kinds").
type Policy int

const (
	// PolicyRegisterOrSlot: use the value's current location, whatever it is.
	PolicyRegisterOrSlot Policy = iota
	// PolicyRegisterOrSlotOrConstant: same as above; constants are ordinary
	// values here and are allocated and evicted like any other.
	PolicyRegisterOrSlotOrConstant
	// PolicyMustHaveRegister: materialize into a register if not already in one.
	PolicyMustHaveRegister
	// PolicyFixedRegister: force into a specific physical register.
	PolicyFixedRegister
	// PolicySameAsInput: result must share input i's register.
	PolicySameAsInput
	// PolicyFixedSlot: only legal on InitialValue nodes loading incoming
	// argument slots (spec §3).
	PolicyFixedSlot
	// PolicyUnreachable marks policies the allocator will never see in this
	// subsystem (FP/vector registers, must-have-slot) — present so a
	// malformed graph fails loudly instead of allocating garbage.
	PolicyUnreachable
)

func (p Policy) String() string {
	switch p {
	case PolicyRegisterOrSlot:
		return "REGISTER_OR_SLOT"
	case PolicyRegisterOrSlotOrConstant:
		return "REGISTER_OR_SLOT_OR_CONSTANT"
	case PolicyMustHaveRegister:
		return "MUST_HAVE_REGISTER"
	case PolicyFixedRegister:
		return "FIXED_REGISTER"
	case PolicySameAsInput:
		return "SAME_AS_INPUT"
	case PolicyFixedSlot:
		return "FIXED_SLOT"
	default:
		return "UNREACHABLE"
	}
}

// UnallocatedOperand is the pre-allocation operand attached to every Input
// and every ValueNode result (spec §3).
type UnallocatedOperand struct {
	Policy Policy
	// FixedIndex holds the register index for PolicyFixedRegister, the
	// input position for PolicySameAsInput, or the slot index for
	// PolicyFixedSlot. Negative values are legal for PolicyFixedSlot
	// (incoming-argument slots, spec §3 "StackSlot").
	FixedIndex int
}

func RegisterOrSlot() UnallocatedOperand { return UnallocatedOperand{Policy: PolicyRegisterOrSlot} }
func RegisterOrSlotOrConstant() UnallocatedOperand {
	return UnallocatedOperand{Policy: PolicyRegisterOrSlotOrConstant}
}
func MustHaveRegister() UnallocatedOperand { return UnallocatedOperand{Policy: PolicyMustHaveRegister} }
func FixedRegister(idx int) UnallocatedOperand {
	return UnallocatedOperand{Policy: PolicyFixedRegister, FixedIndex: idx}
}
func SameAsInput(i int) UnallocatedOperand {
	return UnallocatedOperand{Policy: PolicySameAsInput, FixedIndex: i}
}
func FixedSlot(idx int) UnallocatedOperand {
	return UnallocatedOperand{Policy: PolicyFixedSlot, FixedIndex: idx}
}

// LocationKind discriminates an AllocatedOperand's physical location.
type LocationKind int

const (
	LocationNone LocationKind = iota
	LocationRegister
	LocationStackSlot
)

// AllocatedOperand is the post-allocation operand: either a physical
// register index or a frame-relative stack-slot index (spec §3).
type AllocatedOperand struct {
	Kind LocationKind
	// Index is a register index when Kind == LocationRegister, or a slot
	// index (possibly negative, for incoming arguments) when
	// Kind == LocationStackSlot.
	Index int
}

// Reg builds a register-valued AllocatedOperand.
func Reg(index int) AllocatedOperand { return AllocatedOperand{Kind: LocationRegister, Index: index} }

// Slot builds a stack-slot-valued AllocatedOperand.
func Slot(index int) AllocatedOperand { return AllocatedOperand{Kind: LocationStackSlot, Index: index} }

// IsRegister reports whether the operand names a physical register.
func (o AllocatedOperand) IsRegister() bool { return o.Kind == LocationRegister }

// IsStackSlot reports whether the operand names a stack slot.
func (o AllocatedOperand) IsStackSlot() bool { return o.Kind == LocationStackSlot }

// IsAllocated reports whether allocation has filled this operand in at all.
func (o AllocatedOperand) IsAllocated() bool { return o.Kind != LocationNone }

func (o AllocatedOperand) String() string {
	switch o.Kind {
	case LocationRegister:
		return fmt.Sprintf("r%d", o.Index)
	case LocationStackSlot:
		return fmt.Sprintf("slot[%d]", o.Index)
	default:
		return "<unallocated>"
	}
}

// StackSlot is a frame-relative slot index plus a representation tag (spec
// §3). Negative indices denote incoming-argument slots, set only by
// InitialValue, and are never returned to the free-slot list.
type StackSlot struct {
	Index int
	// Tagged marks the sole representation this subsystem models: a
	// tagged-pointer width value (spec §1 Non-goals: no FP/vector slots).
	Tagged bool
}

// IsArgument reports whether this slot is a caller-provided incoming
// argument slot rather than a spill slot this compile job owns.
func (s StackSlot) IsArgument() bool { return s.Index < 0 }
