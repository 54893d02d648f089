package interpreter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"ksc/pkg/debugger"
	"ksc/pkg/diag"
	"ksc/pkg/engine"
	"ksc/pkg/eval"
	"ksc/pkg/parser"
	"ksc/pkg/state"
)

// MaxRecursionDepth is the number of function and subroutine frames that may be active at once
const MaxRecursionDepth = 16

var (
	ErrNotLoaded        = errors.New("no script loaded")
	ErrMaxStepsExceeded = errors.New("maximum steps exceeded")
	ErrFaulted          = errors.New("run ended with a fault; reset or load the script to run again")
)

// Interpreter runs a script line by line over a program counter
type Interpreter struct {
	engine   engine.Engine
	eval     *eval.Evaluator
	state    *state.GameState
	debugger *debugger.Debugger
	log      *log.Logger

	script string   // source text, for diagnostics
	lines  []string // script lines, untrimmed
	loaded bool

	pc        int          // index of the next line to run
	returning *returnValue // set by a return statement until the routine body sees it
	transfers int          // bumped by every jump, call and ret

	stepDepth int // call depth when the debugger last paused

	stopped  atomic.Bool
	fault    error // set when a run ends with a fault, until Reset
	maxSteps int   // 0 = unlimited
	steps    int
}

type returnValue struct {
	value state.Value
}

type Option func(*Interpreter)

// WithLogger sets the logger for control flow tracing and warnings
func WithLogger(l *log.Logger) Option {
	return func(i *Interpreter) { i.log = l }
}

// WithDebugger attaches a debugger
func WithDebugger(d *debugger.Debugger) Option {
	return func(i *Interpreter) { i.debugger = d }
}

// WithMaxSteps sets a maximum number of steps before returning ErrMaxStepsExceeded
func WithMaxSteps(n int) Option {
	return func(i *Interpreter) { i.maxSteps = n }
}

// New creates an Interpreter presenting through e
func New(e engine.Engine, opts ...Option) *Interpreter {
	i := &Interpreter{
		engine: e,
		state:  state.New(),
	}

	i.eval = eval.New(eval.ResolverFunc(i.resolve))

	for _, o := range opts {
		o(i)
	}

	if i.log == nil {
		i.log = log.Default().WithPrefix("interpreter")
	}

	return i
}

// Load replaces the current script, indexing labels and definitions with a fresh state.
// Nothing runs when the script is malformed.
func (i *Interpreter) Load(script string) error {
	lines := parser.SplitLines(script)
	st := state.New()

	labels, err := parser.BuildLabelMap(lines)
	if err != nil {
		return loadError(err, script)
	}
	st.Labels = labels

	defs, err := parser.Definitions(lines)
	if err != nil {
		return loadError(err, script)
	}

	for _, def := range defs {
		line := def.Header + 1

		if IsBuiltin(def.Name) {
			return diag.NewRuntimeError(fmt.Sprintf("'%s' is a builtin command and cannot be redefined", def.Name), line, nil, script)
		}

		if prev, dup := st.LookupRoutine(def.Name); dup {
			return diag.NewSyntaxError(fmt.Sprintf("'%s' is already defined on line %d", def.Name, prev.Header+1), line, nil, script)
		}

		if def.Subroutine {
			st.Subroutines[def.Name] = def
		} else {
			st.Functions[def.Name] = def
		}
	}

	i.script = script
	i.lines = lines
	i.state = st
	i.loaded = true
	i.Reset()

	i.log.Debug("script loaded", "lines", len(lines), "labels", len(st.Labels), "routines", len(defs))
	return nil
}

func loadError(err error, script string) error {
	var se *parser.SyntaxError
	if errors.As(err, &se) {
		e := diag.NewSyntaxError(se.Msg, se.Line, nil, script)
		e.Err = err
		return e
	}

	return err
}

// Reset rewinds to the first line and clears a fault. Variables and definitions are kept.
func (i *Interpreter) Reset() {
	i.pc = 0
	i.steps = 0
	i.transfers = 0
	i.returning = nil
	i.fault = nil
	i.stopped.Store(false)
}

// Stop halts the run before the next top-level statement. A routine or block in
// progress runs to its end first. Safe to call from another goroutine.
func (i *Interpreter) Stop() {
	i.stopped.Store(true)
}

// State returns the game state of the loaded script
func (i *Interpreter) State() *state.GameState {
	return i.state
}

// Lines returns the loaded script lines
func (i *Interpreter) Lines() []string {
	return i.lines
}

// PC returns the index of the next line to run
func (i *Interpreter) PC() int {
	return i.pc
}

// Line returns the 1-based line number of the next line to run
func (i *Interpreter) Line() int {
	return i.pc + 1
}

// Steps returns the number of steps executed since the last Load or Reset
func (i *Interpreter) Steps() int {
	return i.steps
}

// Step executes the statement at the program counter, returning (halted, error).
// Every error other than cancellation is a *diag.Error. After a fault, Step refuses
// to run with ErrFaulted until Reset, Load or Restore.
func (i *Interpreter) Step(ctx context.Context) (bool, error) {
	if !i.loaded {
		return true, ErrNotLoaded
	}

	if i.fault != nil {
		return true, fmt.Errorf("%w: %w", ErrFaulted, i.fault)
	}

	if i.pc >= len(i.lines) {
		i.finish()
		return true, nil
	}

	if i.stopped.CompareAndSwap(true, false) {
		i.log.Debug("stopped", "line", i.Line())
		return true, nil
	}

	if err := i.step(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			// cancelled inside a routine: the call cannot be resumed
			if i.state.CallDepth() > 0 || i.state.ScopeDepth() > 0 {
				i.fault = ctxErr
			}
			return true, ctxErr
		}

		i.fault = i.enrich(err)
		return true, i.fault
	}

	if i.pc >= len(i.lines) {
		i.finish()
		return true, nil
	}

	return false, nil
}

// Run executes until the end of the script, Stop, cancellation or a fault
func (i *Interpreter) Run(ctx context.Context) error {
	for {
		halted, err := i.Step(ctx)
		if err != nil {
			return err
		}

		if halted {
			return nil
		}
	}
}

// finish flags frames or scopes left behind by a completed run
func (i *Interpreter) finish() {
	if frames, scopes := i.state.CallDepth(), i.state.ScopeDepth(); frames > 0 || scopes > 0 {
		i.log.Warn("script ended with an active call stack", "frames", frames, "scopes", scopes)
	}
}

// tick accounts for one step and reports cancellation and the step limit
func (i *Interpreter) tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if i.maxSteps > 0 && i.steps >= i.maxSteps {
		return ErrMaxStepsExceeded
	}

	i.steps++
	return nil
}

// current returns the trimmed line at the program counter
func (i *Interpreter) current() string {
	return strings.TrimSpace(i.lines[i.pc])
}
