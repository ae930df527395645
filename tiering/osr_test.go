package tiering

import (
	"testing"

	"github.com/xyproto/straightforward/config"
	"github.com/xyproto/straightforward/ir"
)

// S4: OSR arming under the "optimization already pending" path occurs iff
// bytecode_length <= 119 + ticks*44.
func TestEvaluateFrame_S4_OSRArmingThreshold(t *testing.T) {
	cfg := config.Default()
	m := New(cfg, &fakeCompiler{}, nil)

	fn := newTestFunction(295, ir.TierInterpreterFeedback)
	fn.Feedback = &ir.FeedbackVector{ProfilerTickCount: 4}
	fn.HasOptimizedCode = true

	m.evaluateFrame(fn)
	if fn.Bytecode.OSRLoopNestingLevel != 1 {
		t.Fatalf("length=295 ticks=4: expected back-edges armed, got level %d", fn.Bytecode.OSRLoopNestingLevel)
	}

	fn2 := newTestFunction(296, ir.TierInterpreterFeedback)
	fn2.Feedback = &ir.FeedbackVector{ProfilerTickCount: 4}
	fn2.HasOptimizedCode = true

	m.evaluateFrame(fn2)
	if fn2.Bytecode.OSRLoopNestingLevel != 0 {
		t.Fatalf("length=296 ticks=4: expected no arming, got level %d", fn2.Bytecode.OSRLoopNestingLevel)
	}
}

// Property 9, restated generically across a spread of tick counts.
func TestOSRBytecodeSizeAllowance_MatchesThreshold(t *testing.T) {
	cfg := config.Default()
	for ticks := 0; ticks < 20; ticks++ {
		want := config.OSRBytecodeSizeAllowanceBase + ticks*config.OSRBytecodeSizeAllowancePerTick
		if got := cfg.OSRBytecodeSizeAllowance(ticks); got != want {
			t.Fatalf("ticks=%d: OSRBytecodeSizeAllowance = %d, want %d", ticks, got, want)
		}
	}
}

func TestArmBackEdges_Idempotent(t *testing.T) {
	cfg := config.Default()
	m := New(cfg, &fakeCompiler{}, nil)
	fn := newTestFunction(10, ir.TierInterpreterFeedback)

	m.armBackEdges(fn, config.MaxLoopNestingMarker+5)
	level := fn.Bytecode.OSRLoopNestingLevel
	if level != config.MaxLoopNestingMarker {
		t.Fatalf("expected clamp to %d, got %d", config.MaxLoopNestingMarker, level)
	}

	m.armBackEdges(fn, 1)
	if fn.Bytecode.OSRLoopNestingLevel != config.MaxLoopNestingMarker {
		t.Fatalf("expected arming past the ceiling to stay clamped, got %d", fn.Bytecode.OSRLoopNestingLevel)
	}
}

func TestAttemptOnStackReplacement_ArmsFrame(t *testing.T) {
	cfg := config.Default()
	m := New(cfg, &fakeCompiler{}, nil)
	fn := newTestFunction(10, ir.TierInterpreterFeedback)

	m.AttemptOnStackReplacement(fn, 3)

	if fn.Bytecode.OSRLoopNestingLevel != 3 {
		t.Fatalf("expected OSR nesting level 3, got %d", fn.Bytecode.OSRLoopNestingLevel)
	}
}

func TestOSRCacheLookup_Hit(t *testing.T) {
	cfg := config.Default()
	m := New(cfg, &fakeCompiler{}, nil)

	loop := ir.LoopRange{JumpTargetOffset: 10, JumpOffset: 50}
	fn := newTestFunction(10, ir.TierInterpreterFeedback)
	fn.Bytecode.LoopRanges = []ir.LoopRange{loop}
	fn.Shared.OSRCache = []ir.OSRCacheEntry{{Range: loop, Level: 2}}

	level, hit := m.osrCacheLookup(fn)
	if !hit || level != 2 {
		t.Fatalf("expected cache hit at level 2, got hit=%v level=%d", hit, level)
	}
}
