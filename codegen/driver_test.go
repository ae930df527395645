package codegen

import (
	"testing"

	"github.com/xyproto/straightforward/ir"
	"github.com/xyproto/straightforward/regalloc"
)

func TestDriver_WalkRecordsSafepointAtCall(t *testing.T) {
	g := ir.NewGraph()
	b0 := g.AddBlock()

	v0 := g.AddValue(b0, "Const", ir.MustHaveRegister())
	v1 := g.AddValue(b0, "Const", ir.MustHaveRegister())
	call := g.AddValue(b0, "Call", ir.MustHaveRegister(),
		ir.NewInput(v0, ir.RegisterOrSlot()))
	call.Props.IsCall = true
	g.SetControl(b0, ir.ClassReturn, ir.Properties{}, nil,
		ir.NewInput(call, ir.MustHaveRegister()),
		ir.NewInput(v1, ir.MustHaveRegister()))

	g.Finalize()

	alloc := regalloc.New(1, nil)
	slots, err := alloc.Allocate(g)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	d := NewDriver(g, slots)
	points := d.Walk()
	if len(points) != 1 {
		t.Fatalf("expected exactly one safepoint (the call), got %d", len(points))
	}
	if points[0].At != call.ID {
		t.Fatalf("expected safepoint at call node %d, got %d", call.ID, points[0].At)
	}
}

func TestDriver_DeferredThunksRunInOrder(t *testing.T) {
	g := ir.NewGraph()
	b0 := g.AddBlock()
	g.SetControl(b0, ir.ClassReturn, ir.Properties{}, nil)
	g.Finalize()

	d := NewDriver(g, 0)
	var order []int
	d.Defer(func(*Driver) { order = append(order, 1) })
	d.Defer(func(*Driver) { order = append(order, 2) })
	d.RunDeferred()

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("expected deferred thunks to run in FIFO order, got %v", order)
	}
}
