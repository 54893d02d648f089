package state

import (
	"errors"
	"maps"
	"slices"

	"ksc/pkg/stack"
)

var ErrNoLocalScope = errors.New("no local scope is active")

// Scope is one layer of local bindings
type Scope map[string]Value

// GameState is the mutable record of one script run
type GameState struct {
	Globals     map[string]Value       // global variables
	Labels      map[string]int         // label name -> declaring line index
	Functions   map[string]FunctionDef // value-returning definitions
	Subroutines map[string]FunctionDef // side-effect-only definitions

	scopes *stack.Stack[Scope] // local scopes, innermost on top
	frames *stack.Stack[Frame] // call stack
}

// New creates an empty GameState
func New() *GameState {
	return &GameState{
		Globals:     make(map[string]Value),
		Labels:      make(map[string]int),
		Functions:   make(map[string]FunctionDef),
		Subroutines: make(map[string]FunctionDef),
		scopes:      stack.New[Scope](),
		frames:      stack.New[Frame](),
	}
}

// lookup finds the innermost mapping binding name
func (s *GameState) lookup(name string) (map[string]Value, bool) {
	scopes := s.scopes.Array()
	for i := len(scopes) - 1; i >= 0; i-- {
		if _, ok := scopes[i][name]; ok {
			return scopes[i], true
		}
	}

	if _, ok := s.Globals[name]; ok {
		return s.Globals, true
	}

	return nil, false
}

// GetVar reads name from the innermost scope binding it, then the globals
func (s *GameState) GetVar(name string) (Value, bool) {
	m, ok := s.lookup(name)
	if !ok {
		return Value{}, false
	}

	return m[name], true
}

// SetVar updates the innermost binding of name, or creates a global
func (s *GameState) SetVar(name string, v Value) {
	if m, ok := s.lookup(name); ok {
		m[name] = v
		return
	}

	s.Globals[name] = v
}

// HasVar reports whether name is bound anywhere
func (s *GameState) HasVar(name string) bool {
	_, ok := s.lookup(name)
	return ok
}

// SetLocalVar binds name in the innermost local scope
func (s *GameState) SetLocalVar(name string, v Value) error {
	top, ok := s.scopes.Peek()
	if !ok {
		return ErrNoLocalScope
	}

	top[name] = v
	return nil
}

// PushScope opens a new local scope
func (s *GameState) PushScope() {
	s.scopes.Push(make(Scope))
}

// PopScope closes the innermost local scope
func (s *GameState) PopScope() {
	s.scopes.Pop()
}

// ScopeDepth returns the number of active local scopes
func (s *GameState) ScopeDepth() int {
	return s.scopes.Size()
}

// PushFrame pushes a call frame
func (s *GameState) PushFrame(f Frame) {
	s.frames.Push(f)
}

// PopFrame pops the top call frame; ok is false when the stack is empty
func (s *GameState) PopFrame() (Frame, bool) {
	return s.frames.Pop()
}

// PeekFrame returns the top call frame without removing it
func (s *GameState) PeekFrame() (Frame, bool) {
	return s.frames.Peek()
}

// Frames returns a copy of the call stack, outermost first
func (s *GameState) Frames() []Frame {
	return s.frames.Array()
}

// RoutineDepth counts active function and subroutine frames
func (s *GameState) RoutineDepth() int {
	n := 0
	for _, f := range s.frames.Array() {
		if f.IsRoutine() {
			n++
		}
	}

	return n
}

// CallDepth returns the number of call frames
func (s *GameState) CallDepth() int {
	return s.frames.Size()
}

// LookupRoutine finds a function, then a subroutine, by name
func (s *GameState) LookupRoutine(name string) (FunctionDef, bool) {
	if def, ok := s.Functions[name]; ok {
		return def, true
	}

	def, ok := s.Subroutines[name]
	return def, ok
}

// VariableNames lists every bound name, locals included, sorted
func (s *GameState) VariableNames() []string {
	seen := make(map[string]struct{}, len(s.Globals))
	for name := range s.Globals {
		seen[name] = struct{}{}
	}
	for _, scope := range s.scopes.Array() {
		for name := range scope {
			seen[name] = struct{}{}
		}
	}

	return slices.Sorted(maps.Keys(seen))
}

// RoutineNames lists every function and subroutine name, sorted
func (s *GameState) RoutineNames() []string {
	names := slices.Collect(maps.Keys(s.Functions))
	names = slices.AppendSeq(names, maps.Keys(s.Subroutines))
	slices.Sort(names)
	return names
}

// SnapshotGlobals copies the global variables
func (s *GameState) SnapshotGlobals() map[string]Value {
	return maps.Clone(s.Globals)
}
