package debugger

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"ksc/pkg/state"
)

type StepMode string

const (
	StepNone StepMode = "none"
	StepOver StepMode = "over"
	StepInto StepMode = "into"
	StepOut  StepMode = "out"
)

// BreakpointInfo is a breakpoint on a 1-based line
type BreakpointInfo struct {
	Line      int
	Condition string
	Enabled   bool
}

// VariableChange is one entry of a watched variable's history
type VariableChange struct {
	Line int
	Old  state.Value
	New  state.Value
	Time time.Time
}

// ConditionFunc evaluates a breakpoint condition against the current state
type ConditionFunc func(ctx context.Context, condition string, st *state.GameState) (bool, error)

// Debugger observes a run: watches, breakpoints, tracing and events. It never changes
// control flow; pausing is a flag the embedding caller acts on. Safe for concurrent use.
type Debugger struct {
	mu sync.Mutex

	enabled bool
	trace   bool

	watched     map[string]struct{}
	history     map[string][]VariableChange
	breakpoints map[int]*BreakpointInfo

	paused   bool
	stepMode StepMode

	traceLog []string

	listeners []listenerEntry
	nextID    ListenerID

	log *log.Logger
	now func() time.Time
}

type Option func(*Debugger)

// WithEnabled turns the debugger on at construction
func WithEnabled(enabled bool) Option {
	return func(d *Debugger) { d.enabled = enabled }
}

// WithTrace turns the trace log on at construction
func WithTrace(enabled bool) Option {
	return func(d *Debugger) { d.trace = enabled }
}

// WithWatch watches the given variables
func WithWatch(names ...string) Option {
	return func(d *Debugger) {
		for _, n := range names {
			d.watch(n)
		}
	}
}

// WithBreakpoints adds unconditional breakpoints on the given 1-based lines
func WithBreakpoints(lines ...int) Option {
	return func(d *Debugger) {
		for _, l := range lines {
			d.breakpoints[l] = &BreakpointInfo{Line: l, Enabled: true}
		}
	}
}

// WithLogger sets the logger used to report listener failures
func WithLogger(l *log.Logger) Option {
	return func(d *Debugger) { d.log = l }
}

// WithClock replaces time.Now for timestamps
func WithClock(now func() time.Time) Option {
	return func(d *Debugger) { d.now = now }
}

// New creates a Debugger, disabled unless WithEnabled(true) is given
func New(opts ...Option) *Debugger {
	d := &Debugger{
		watched:     make(map[string]struct{}),
		history:     make(map[string][]VariableChange),
		breakpoints: make(map[int]*BreakpointInfo),
		stepMode:    StepNone,
		now:         time.Now,
	}

	for _, o := range opts {
		o(d)
	}

	if d.log == nil {
		d.log = log.Default().WithPrefix("debugger")
	}

	return d
}

func (d *Debugger) Enable() {
	d.mu.Lock()
	d.enabled = true
	d.mu.Unlock()
}

// Disable turns the debugger off and clears any pause or step request
func (d *Debugger) Disable() {
	d.mu.Lock()
	d.enabled = false
	d.paused = false
	d.stepMode = StepNone
	d.mu.Unlock()
}

func (d *Debugger) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}

// Watch

func (d *Debugger) watch(name string) {
	d.watched[name] = struct{}{}
	if _, ok := d.history[name]; !ok {
		d.history[name] = nil
	}
}

func (d *Debugger) Watch(name string) {
	d.mu.Lock()
	d.watch(name)
	d.mu.Unlock()
}

// Unwatch stops recording name; its history is kept
func (d *Debugger) Unwatch(name string) {
	d.mu.Lock()
	delete(d.watched, name)
	d.mu.Unlock()
}

// Watched returns the watched names, sorted
func (d *Debugger) Watched() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Sorted(maps.Keys(d.watched))
}

// History returns a copy of the recorded changes of name
func (d *Debugger) History(name string) []VariableChange {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.history[name])
}

// RecordVariableChange appends to the history of a watched variable. It is a no-op
// while disabled or for unwatched names.
func (d *Debugger) RecordVariableChange(name string, prev, next state.Value, line int) {
	d.mu.Lock()
	if _, ok := d.watched[name]; !d.enabled || !ok {
		d.mu.Unlock()
		return
	}

	d.history[name] = append(d.history[name], VariableChange{Line: line, Old: prev, New: next, Time: d.now()})
	d.addTraceLocked(fmt.Sprintf("[Line %d] %s changed: %s → %s", line, name, prev.Debug(), next.Debug()))
	d.mu.Unlock()

	d.emit(Event{Type: VariableChanged, Line: line, Data: VariableChangedData{Name: name, Old: prev, New: next}})
}

// Breakpoints

// AddBreakpoint sets an enabled breakpoint on line, replacing any existing one
func (d *Debugger) AddBreakpoint(line int, condition string) {
	d.mu.Lock()
	d.breakpoints[line] = &BreakpointInfo{Line: line, Condition: strings.TrimSpace(condition), Enabled: true}
	d.mu.Unlock()
}

func (d *Debugger) RemoveBreakpoint(line int) {
	d.mu.Lock()
	delete(d.breakpoints, line)
	d.mu.Unlock()
}

// ToggleBreakpoint enables or disables the breakpoint on line; false when none exists
func (d *Debugger) ToggleBreakpoint(line int, enabled bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	bp, ok := d.breakpoints[line]
	if ok {
		bp.Enabled = enabled
	}
	return ok
}

// Breakpoints returns copies of all breakpoints ordered by line
func (d *Debugger) Breakpoints() []BreakpointInfo {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]BreakpointInfo, 0, len(d.breakpoints))
	for _, line := range slices.Sorted(maps.Keys(d.breakpoints)) {
		out = append(out, *d.breakpoints[line])
	}
	return out
}

// ShouldBreak reports whether execution at line hits an enabled breakpoint. A condition
// that cannot be evaluated counts as a hit.
func (d *Debugger) ShouldBreak(ctx context.Context, line int, st *state.GameState, cond ConditionFunc) bool {
	d.mu.Lock()
	if !d.enabled {
		d.mu.Unlock()
		return false
	}

	bp, ok := d.breakpoints[line]
	if !ok || !bp.Enabled {
		d.mu.Unlock()
		return false
	}
	condition := bp.Condition
	d.mu.Unlock()

	if condition == "" || cond == nil {
		return true
	}

	hit, err := cond(ctx, condition, st)
	if err != nil {
		d.log.Debug("breakpoint condition failed", "line", line, "condition", condition, "err", err)
		return true
	}

	return hit
}

// HitBreakpoint pauses and publishes a breakpoint event
func (d *Debugger) HitBreakpoint(line int) {
	d.Pause()
	d.emit(Event{Type: BreakpointHit, Line: line})
}

// Stepping

func (d *Debugger) Pause() {
	d.mu.Lock()
	d.paused = true
	d.mu.Unlock()
}

func (d *Debugger) Continue() {
	d.setStep(StepNone)
}

func (d *Debugger) StepOver() {
	d.setStep(StepOver)
}

func (d *Debugger) StepInto() {
	d.setStep(StepInto)
}

func (d *Debugger) StepOut() {
	d.setStep(StepOut)
}

func (d *Debugger) setStep(mode StepMode) {
	d.mu.Lock()
	d.paused = false
	d.stepMode = mode
	d.mu.Unlock()
}

func (d *Debugger) Paused() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paused
}

func (d *Debugger) StepMode() StepMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stepMode
}

// NotifyStepComplete pauses again after a requested step and publishes StepComplete
func (d *Debugger) NotifyStepComplete(line int) {
	d.mu.Lock()
	if d.stepMode == StepNone {
		d.mu.Unlock()
		return
	}
	d.paused = true
	d.stepMode = StepNone
	d.mu.Unlock()

	d.emit(Event{Type: StepComplete, Line: line})
}

// Tracing

func (d *Debugger) EnableTrace() {
	d.mu.Lock()
	d.trace = true
	d.mu.Unlock()
}

func (d *Debugger) DisableTrace() {
	d.mu.Lock()
	d.trace = false
	d.mu.Unlock()
}

func (d *Debugger) Tracing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.trace
}

// AddTrace appends a timestamped message while tracing is on
func (d *Debugger) AddTrace(message string) {
	d.mu.Lock()
	d.addTraceLocked(message)
	d.mu.Unlock()
}

func (d *Debugger) addTraceLocked(message string) {
	if d.trace {
		d.traceLog = append(d.traceLog, "["+d.now().UTC().Format("2006-01-02T15:04:05.000Z")+"] "+message)
	}
}

// TraceLog returns a copy of the trace log
func (d *Debugger) TraceLog() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.traceLog)
}

func (d *Debugger) ClearTraceLog() {
	d.mu.Lock()
	d.traceLog = nil
	d.mu.Unlock()
}

// TraceFunctionCall records a call to a user function or subroutine
func (d *Debugger) TraceFunctionCall(name string, args []state.Value, line int) {
	rendered := make([]string, len(args))
	for i, a := range args {
		rendered[i] = a.Debug()
	}

	d.AddTrace(fmt.Sprintf("[Line %d] call %s(%s)", line, name, strings.Join(rendered, ", ")))
	d.emit(Event{Type: FunctionCall, Line: line, Data: FunctionCallData{Name: name, Args: slices.Clone(args)}})
}

// TraceFunctionReturn records the value a routine returned
func (d *Debugger) TraceFunctionReturn(name string, v state.Value, line int) {
	d.AddTrace(fmt.Sprintf("[Line %d] %s() returned %s", line, name, v.Debug()))
	d.emit(Event{Type: FunctionReturn, Line: line, Data: FunctionReturnData{Name: name, Value: v}})
}

// Events

// Subscribe registers a listener and returns its id
func (d *Debugger) Subscribe(l Listener) ListenerID {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	d.listeners = append(d.listeners, listenerEntry{id: d.nextID, fn: l})
	return d.nextID
}

func (d *Debugger) Unsubscribe(id ListenerID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.listeners = slices.DeleteFunc(d.listeners, func(e listenerEntry) bool {
		return e.id == id
	})
}

func (d *Debugger) emit(ev Event) {
	d.mu.Lock()
	listeners := slices.Clone(d.listeners)
	d.mu.Unlock()

	for _, l := range listeners {
		d.dispatch(l, ev)
	}
}

func (d *Debugger) dispatch(l listenerEntry, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("debug listener panicked", "event", ev.Type, "listener", l.id, "panic", r)
		}
	}()

	if err := l.fn(ev); err != nil {
		d.log.Error("debug listener failed", "event", ev.Type, "listener", l.id, "err", err)
	}
}

// Reset clears histories, the trace log and any pause or step request.
// Watches, breakpoints and listeners are kept.
func (d *Debugger) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for name := range d.history {
		d.history[name] = nil
	}
	d.traceLog = nil
	d.paused = false
	d.stepMode = StepNone
}
