// Command sfjit is a demo driver for the straightforward tiering manager and
// register allocator: it builds a small hand-written graph, runs it through
// a few simulated interrupt ticks, then allocates and walks the resulting
// graph. It exists to exercise the library end to end, in the shape of the
// teacher's own flag-driven main.go/cli.go rather than as a real compiler
// front end — there is no parser here, spec §1's instruction selection stays
// out of scope.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/xyproto/straightforward/codegen"
	"github.com/xyproto/straightforward/config"
	"github.com/xyproto/straightforward/ir"
	"github.com/xyproto/straightforward/regalloc"
	"github.com/xyproto/straightforward/tiering"
	"github.com/xyproto/straightforward/trace"
)

const versionString = "sfjit 0.1.0"

// loggingCompiler is the demo's tiering.Compiler: it just prints what it
// would hand off to a real baseline/optimizing backend.
type loggingCompiler struct {
	verbose bool
}

func (c *loggingCompiler) CompileBaseline(fn *ir.Function) {
	if c.verbose {
		fmt.Printf("sfjit: compiling %s to baseline\n", fn.Name)
	}
	fn.Tier = ir.TierBaseline
}

func (c *loggingCompiler) RequestOptimization(fn *ir.Function, reason tiering.Decision) {
	fmt.Printf("sfjit: requesting optimizing compile of %s (%s)\n", fn.Name, reason)
	fn.HasOptimizedCode = true
}

func main() {
	var (
		ticksFlag    = flag.Int("ticks", 20, "number of simulated interrupt ticks to run")
		bytecodeLen  = flag.Int("bytecode-length", 40, "simulated bytecode length for the demo function")
		verbose      = flag.Bool("v", false, "verbose mode (show tiering and regalloc trace output)")
		verboseLong  = flag.Bool("verbose", false, "verbose mode (show tiering and regalloc trace output)")
		numRegisters = flag.Int("registers", 0, "override the number of general-purpose registers (0: use config default)")
		version      = flag.Bool("version", false, "print version information and exit")
	)
	flag.Parse()

	if *version {
		fmt.Println(versionString)
		return
	}

	v := *verbose || *verboseLong
	cfg := config.FromEnv()
	if *numRegisters > 0 {
		cfg.NumGeneralRegisters = *numRegisters
	}

	sink := trace.New(os.Stderr, v, v, v, v)

	fn := &ir.Function{
		Name:          "demo",
		Bytecode:      &ir.Bytecode{Length: *bytecodeLen},
		Shared:        &ir.SharedInfo{},
		Tier:          ir.TierInterpreterNoFeedback,
		IsUserDefined: true,
	}

	compiler := &loggingCompiler{verbose: v}
	manager := tiering.New(cfg, compiler, sink)

	for i := 0; i < *ticksFlag; i++ {
		manager.OnInterruptTick(fn)
		if fn.HasOptimizedCode {
			break
		}
	}

	fmt.Printf("sfjit: function %s settled at tier %s after %d ticks\n", fn.Name, fn.Tier, fn.Feedback.ProfilerTickCount)

	g := buildDemoGraph()
	alloc := regalloc.New(cfg.NumGeneralRegisters, sink)
	stackSlots, err := alloc.Allocate(g)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sfjit: register allocation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("sfjit: allocated demo graph with %d registers, %d stack slots\n", cfg.NumGeneralRegisters, stackSlots)

	driver := codegen.NewDriver(g, stackSlots)
	safepoints := driver.Walk()
	fmt.Printf("sfjit: recorded %d safepoint(s)\n", len(safepoints))
	for _, sp := range safepoints {
		fmt.Printf("sfjit:   at node %d, live slots %v\n", sp.At, sp.LiveSlots)
	}
}

// buildDemoGraph constructs a tiny straight-line graph: two constants added
// together and returned, enough to exercise allocation and the safepoint
// walk without a front end. It has no call or deopt node, so the walk
// records no safepoints.
func buildDemoGraph() *ir.Graph {
	g := ir.NewGraph()
	b0 := g.AddBlock()

	v0 := g.AddValue(b0, "Const", ir.MustHaveRegister())
	v1 := g.AddValue(b0, "Const", ir.MustHaveRegister())
	sum := g.AddValue(b0, "Add", ir.MustHaveRegister(),
		ir.NewInput(v0, ir.RegisterOrSlot()),
		ir.NewInput(v1, ir.RegisterOrSlot()))
	g.SetControl(b0, ir.ClassReturn, ir.Properties{}, nil, ir.NewInput(sum, ir.MustHaveRegister()))

	g.Finalize()
	return g
}
