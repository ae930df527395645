// Package trace provides an opt-in diagnostic sink, gated per concern, so the
// tiering manager and register allocator never pay for formatting when
// nobody asked to see it.
package trace

import (
	"fmt"
	"io"
)

// Sink writes diagnostic lines for one or more gated concerns. A nil *Sink is
// always valid and silently discards everything, mirroring the teacher's
// "VerboseMode false means silent" behavior without a package-level global.
type Sink struct {
	w        io.Writer
	opt      bool
	verbose  bool
	osr      bool
	regalloc bool
}

// New builds a Sink writing to w with the given concerns enabled.
func New(w io.Writer, opt, verbose, osr, regalloc bool) *Sink {
	if w == nil {
		return nil
	}
	return &Sink{w: w, opt: opt, verbose: verbose, osr: osr, regalloc: regalloc}
}

func (s *Sink) enabled(which bool) bool {
	return s != nil && which
}

// Opt logs under trace_opt.
func (s *Sink) Opt(format string, args ...interface{}) {
	if s == nil || !s.enabled(s.opt) {
		return
	}
	fmt.Fprintf(s.w, "[opt] "+format+"\n", args...)
}

// OptVerbose logs under trace_opt_verbose, which only fires when Opt is also
// on (the flag is a refinement of trace_opt, not an independent switch).
func (s *Sink) OptVerbose(format string, args ...interface{}) {
	if s == nil || !s.enabled(s.opt && s.verbose) {
		return
	}
	fmt.Fprintf(s.w, "[opt:verbose] "+format+"\n", args...)
}

// OSR logs under trace_osr.
func (s *Sink) OSR(format string, args ...interface{}) {
	if s == nil || !s.enabled(s.osr) {
		return
	}
	fmt.Fprintf(s.w, "[osr] "+format+"\n", args...)
}

// Regalloc logs under trace_maglev_regalloc.
func (s *Sink) Regalloc(format string, args ...interface{}) {
	if s == nil || !s.enabled(s.regalloc) {
		return
	}
	fmt.Fprintf(s.w, "[regalloc] "+format+"\n", args...)
}
