package tiering

import (
	"testing"

	"github.com/xyproto/straightforward/config"
	"github.com/xyproto/straightforward/ir"
)

type fakeCompiler struct {
	baselineCalls int
	optRequests   []Decision
}

func (f *fakeCompiler) CompileBaseline(fn *ir.Function) { f.baselineCalls++ }
func (f *fakeCompiler) RequestOptimization(fn *ir.Function, d Decision) {
	f.optRequests = append(f.optRequests, d)
}

func newTestFunction(bytecodeLength int, tier ir.Tier) *ir.Function {
	return &ir.Function{
		Name:          "f",
		Bytecode:      &ir.Bytecode{Length: bytecodeLength},
		Shared:        &ir.SharedInfo{},
		Tier:          tier,
		IsUserDefined: true,
	}
}

// S1: small-function fast path.
func TestDecideOptimize_S1_SmallFunction(t *testing.T) {
	cfg := config.Default()
	cfg.MaxBytecodeSizeForEarlyOpt = 64
	cfg.TicksBeforeOptimization = 8
	comp := &fakeCompiler{}
	m := New(cfg, comp, nil)

	fn := newTestFunction(20, ir.TierInterpreterFeedback)
	fn.Feedback = &ir.FeedbackVector{ProfilerTickCount: 0, ICChangedThisTick: false}

	got := m.decideOptimize(fn, false)
	if got != SmallFunction {
		t.Fatalf("decideOptimize = %s, want SmallFunction", got)
	}
}

// S2: IC churn blocks the small-function fast path.
func TestDecideOptimize_S2_ICChurnBlocks(t *testing.T) {
	cfg := config.Default()
	cfg.MaxBytecodeSizeForEarlyOpt = 64
	cfg.TicksBeforeOptimization = 8
	m := New(cfg, &fakeCompiler{}, nil)

	fn := newTestFunction(20, ir.TierInterpreterFeedback)
	fn.Feedback = &ir.FeedbackVector{ProfilerTickCount: 0, ICChangedThisTick: true}

	got := m.decideOptimize(fn, false)
	if got != DoNotOptimize {
		t.Fatalf("decideOptimize = %s, want DoNotOptimize", got)
	}
}

// S3: hot threshold, exact boundary on both sides.
func TestDecideOptimize_S3_HotThreshold(t *testing.T) {
	cfg := config.Default()
	cfg.BytecodeSizeAllowancePerTick = 100
	cfg.TicksBeforeOptimization = 8
	m := New(cfg, &fakeCompiler{}, nil)

	fn := newTestFunction(1000, ir.TierInterpreterFeedback)
	fn.Feedback = &ir.FeedbackVector{ProfilerTickCount: 17}
	if got := m.decideOptimize(fn, false); got != DoNotOptimize {
		t.Fatalf("ticks=17: decideOptimize = %s, want DoNotOptimize", got)
	}

	fn.Feedback.ProfilerTickCount = 18
	if got := m.decideOptimize(fn, false); got != HotAndStable {
		t.Fatalf("ticks=18: decideOptimize = %s, want HotAndStable", got)
	}
}

// Property 8: tiering idempotence on an already-optimized function.
func TestOnInterruptTick_IdempotentWhenOptimized(t *testing.T) {
	cfg := config.Default()
	comp := &fakeCompiler{}
	m := New(cfg, comp, nil)

	fn := newTestFunction(50, ir.TierOptimized)
	fn.Feedback = &ir.FeedbackVector{}

	m.OnInterruptTick(fn)
	m.OnInterruptTick(fn)

	if len(comp.optRequests) != 0 {
		t.Fatalf("expected no optimization requests for an optimized function, got %v", comp.optRequests)
	}
	if fn.Feedback.ProfilerTickCount != 2 {
		t.Fatalf("expected tick count to still advance via bookkeeping, got %d", fn.Feedback.ProfilerTickCount)
	}
}

// Step 1 of the state machine: a function with no feedback vector becomes
// I1 and the tick ends without reaching the optimize decision.
func TestOnInterruptTick_FirstTickAllocatesFeedback(t *testing.T) {
	cfg := config.Default()
	comp := &fakeCompiler{}
	m := New(cfg, comp, nil)

	fn := newTestFunction(20, ir.TierInterpreterNoFeedback)

	m.OnInterruptTick(fn)

	if fn.Feedback == nil {
		t.Fatalf("expected a feedback vector to be allocated")
	}
	if fn.Feedback.InvocationCount != 1 {
		t.Fatalf("expected invocation count seeded to 1, got %d", fn.Feedback.InvocationCount)
	}
	if fn.Tier != ir.TierInterpreterFeedback {
		t.Fatalf("expected tier I1, got %s", fn.Tier)
	}
	if len(comp.optRequests) != 0 {
		t.Fatalf("expected no optimize reasoning on the feedback-allocation tick")
	}
}

// Baseline compilation is gated purely on tier, never on
// BaselineBatchCompilation: that flag only tells the compiler collaborator
// whether to enqueue or compile inline, a choice the manager has no part in.
func TestOnInterruptTick_BaselineCompilesWhenBelowBaseline(t *testing.T) {
	for _, batch := range []bool{false, true} {
		cfg := config.Default()
		cfg.BaselineBatchCompilation = batch
		comp := &fakeCompiler{}
		m := New(cfg, comp, nil)

		fn := newTestFunction(20, ir.TierInterpreterFeedback)
		fn.Feedback = &ir.FeedbackVector{}

		m.OnInterruptTick(fn)

		if comp.baselineCalls != 1 {
			t.Fatalf("BaselineBatchCompilation=%v: expected one baseline compile request, got %d", batch, comp.baselineCalls)
		}
	}
}
