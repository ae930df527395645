package tiering

import (
	"github.com/xyproto/straightforward/config"
	"github.com/xyproto/straightforward/ir"
)

// evaluateFrame runs OSR arming followed by the optimize decision (spec
// §4.1.1 step 7, §4.1.2, §4.1.3). Returns immediately, doing nothing, when
// heuristic optimization is disallowed for testing or the function is
// already marked for optimization.
func (m *Manager) evaluateFrame(fn *ir.Function) {
	if m.cfg.HeuristicOptimizationDisallowed || fn.MarkedForOptimization {
		return
	}

	osrEligible := fn.IsUserDefined && fn.Tier < ir.TierOptimized && m.cfg.UseOSR

	if osrEligible {
		ticks := int(fn.Feedback.ProfilerTickCount)
		if fn.HasOptimizedCode && fn.Bytecode.Length <= m.cfg.OSRBytecodeSizeAllowance(ticks) {
			// Optimization already pending (spec §4.1.2): arm once and
			// skip the optimize decision entirely this tick.
			m.armBackEdges(fn, 1)
			return
		}
	}

	var osrCacheHit bool
	if osrEligible {
		switch {
		case m.cfg.AlwaysOSR:
			m.armBackEdges(fn, config.MaxLoopNestingMarker)
			m.trace.OSR("function %s: always-osr armed to max", fn.Name)
		default:
			if level, hit := m.osrCacheLookup(fn); hit {
				m.armBackEdges(fn, level+1)
				osrCacheHit = true
				m.trace.OSR("function %s: osr cache hit at level %d", fn.Name, level)
			}
		}
	}

	decision := m.decideOptimize(fn, osrCacheHit)
	m.trace.Opt("function %s: ticks=%d length=%d ic_changed=%v -> %s",
		fn.Name, fn.Feedback.ProfilerTickCount, fn.Bytecode.Length, fn.Feedback.ICChangedThisTick, decision)

	if decision == DoNotOptimize {
		return
	}
	fn.MarkedForOptimization = true
	m.compiler.RequestOptimization(fn, decision)
}

// osrCacheLookup reports whether fn's shared OSR code cache has an entry
// whose loop range contains the frame's current bytecode offset (spec
// §4.1.2, "OSR-cache hit"). This module has no bytecode interpreter to ask
// for "the current offset"; it searches every cached entry's range against
// fn's static loop table instead, which is the information the interpreter
// would otherwise supply.
func (m *Manager) osrCacheLookup(fn *ir.Function) (level int, hit bool) {
	if fn.Shared == nil {
		return 0, false
	}
	for _, entry := range fn.Shared.OSRCache {
		for _, loop := range fn.Bytecode.LoopRanges {
			if loop == entry.Range {
				return entry.Level, true
			}
		}
	}
	return 0, false
}

// armBackEdges increases the bytecode's OSR loop-nesting-level marker by
// delta, clamped to the saturation ceiling (spec §4.1.2, "Arming
// back-edges increases ... clamped to the maximum marker"). Idempotent: a
// function already at the ceiling is unaffected by a second call (spec
// §4.1.4, "OSR arming is idempotent").
func (m *Manager) armBackEdges(fn *ir.Function, delta int) {
	level := fn.Bytecode.OSRLoopNestingLevel + delta
	if level > config.MaxLoopNestingMarker {
		level = config.MaxLoopNestingMarker
	}
	fn.Bytecode.OSRLoopNestingLevel = level
}

// AttemptOnStackReplacement implements the manager's other public entry
// point (spec §4.1): arm back-edges in frame's bytecode up to levels
// additional nesting markers, so the next loop iteration triggers OSR. The
// caller (the interpreter's OSR dispatch) is responsible for retrieving an
// unoptimized top frame before calling this; the manager does not inspect
// call stacks (spec §1, "external collaborators").
func (m *Manager) AttemptOnStackReplacement(frame *ir.Function, levels int) {
	if frame == nil || frame.Bytecode == nil {
		return
	}
	m.armBackEdges(frame, levels)
	m.trace.OSR("function %s: on-stack replacement armed +%d levels", frame.Name, levels)
}

// decideOptimize implements spec §4.1.3's optimize decision table.
func (m *Manager) decideOptimize(fn *ir.Function, osrCacheHit bool) Decision {
	if fn.Tier == ir.TierOptimized {
		return DoNotOptimize
	}
	if osrCacheHit {
		return HotAndStable
	}

	ticks := int(fn.Feedback.ProfilerTickCount)
	length := fn.Bytecode.Length
	threshold := m.cfg.TicksBeforeOptimization + length/m.cfg.BytecodeSizeAllowancePerTick
	if ticks >= threshold {
		return HotAndStable
	}
	if !fn.Feedback.ICChangedThisTick && length < m.cfg.MaxBytecodeSizeForEarlyOpt {
		return SmallFunction
	}
	return DoNotOptimize
}
