// Package tiering implements the promotion state machine that decides, on
// each interrupt tick from a running interpreter or baseline frame, whether
// a function should compile to baseline, get marked for a concurrent
// optimizing recompile, or have its loop back-edges armed for on-stack
// replacement.
package tiering

import (
	"github.com/xyproto/straightforward/config"
	"github.com/xyproto/straightforward/ir"
	"github.com/xyproto/straightforward/trace"
)

// Decision is the outcome of the optimize decision (spec §4.1.3).
type Decision int

const (
	DoNotOptimize Decision = iota
	SmallFunction
	HotAndStable
)

func (d Decision) String() string {
	switch d {
	case DoNotOptimize:
		return "DoNotOptimize"
	case SmallFunction:
		return "SmallFunction"
	case HotAndStable:
		return "HotAndStable"
	default:
		return "?"
	}
}

// Compiler is the external concurrent/baseline compiler collaborator (spec
// §1, "explicitly out of scope"). The manager only calls it; failures are
// swallowed per spec §4.1.4/§7 — compile-job failure is transparent to the
// core and the function simply stays at its current tier.
type Compiler interface {
	// CompileBaseline compiles fn's bytecode to the baseline tier, either
	// inline or by handing off to a batch queue, per cfg.BaselineBatchCompilation.
	CompileBaseline(fn *ir.Function)
	// RequestOptimization schedules a concurrent optimizing recompile for
	// fn. The manager does not itself compile (spec §4.1.3).
	RequestOptimization(fn *ir.Function, reason Decision)
}

// Manager runs the tiering state machine (spec §4.1). It is not safe for
// concurrent use; spec §5 requires it run on the interpreter's own thread
// during interrupt callbacks and never block.
type Manager struct {
	cfg      config.Config
	compiler Compiler
	trace    *trace.Sink
}

// New builds a Manager using cfg's thresholds and flags, issuing compile
// requests through compiler and diagnostics through sink (nil is fine).
func New(cfg config.Config, compiler Compiler, sink *trace.Sink) *Manager {
	return &Manager{cfg: cfg, compiler: compiler, trace: sink}
}

// OnInterruptTick implements spec §4.1.1: the function's interrupt budget
// has just expired on the thread running it. Every step is advisory and
// side-effect-only; nothing here blocks or returns an error (spec §4.1.4).
func (m *Manager) OnInterruptTick(fn *ir.Function) {
	justAllocatedFeedback := fn.EnsureFeedbackVector()
	defer func() { fn.Feedback.ICChangedThisTick = false }()
	if justAllocatedFeedback {
		fn.Tier = ir.TierInterpreterFeedback
	}

	m.resetInterruptBudget(fn)

	if fn.Tier < ir.TierBaseline {
		m.compiler.CompileBaseline(fn)
	}

	if justAllocatedFeedback {
		return
	}
	if m.cfg.OptimizerDisabled {
		return
	}

	fn.Feedback.IncrementProfilerTicks()

	m.evaluateFrame(fn)
}

// resetInterruptBudget installs the budget sized for fn's current tier
// (spec §4.1.1 step 2; SUPPLEMENTED FEATURES: per-tier sizing).
func (m *Manager) resetInterruptBudget(fn *ir.Function) {
	if fn.Tier >= ir.TierBaseline {
		fn.InterruptBudget = m.cfg.InterruptBudgetBaseline
	} else {
		fn.InterruptBudget = m.cfg.InterruptBudgetInterpreter
	}
}
