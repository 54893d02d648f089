package interpreter

import (
	"context"
	"fmt"

	"ksc/pkg/eval"
	"ksc/pkg/state"
)

// resolve answers calls made from expressions. Builtins have no value and are refused.
func (i *Interpreter) resolve(ctx context.Context, name string, args []state.Value) (state.Value, bool, error) {
	if def, ok := i.state.LookupRoutine(name); ok {
		v, err := i.invoke(ctx, def, args, "")
		return v, true, err
	}

	if IsBuiltin(name) {
		return state.Null(), true, &RuntimeError{Msg: fmt.Sprintf("builtin %s does not return a value", name)}
	}

	return state.Null(), false, nil
}

// isCallable reports whether name is a user routine or a builtin
func (i *Interpreter) isCallable(name string) bool {
	if _, ok := i.state.LookupRoutine(name); ok {
		return true
	}

	return IsBuiltin(name)
}

// execCall runs a bare `name(args)` statement
func (i *Interpreter) execCall(ctx context.Context, name, argSrc string) error {
	if def, ok := i.state.LookupRoutine(name); ok {
		args, err := i.eval.EvaluateArgs(ctx, argSrc, i.state)
		if err != nil {
			return err
		}

		if _, err := i.invoke(ctx, def, args, ""); err != nil {
			return err
		}

		i.pc++
		return nil
	}

	if b, ok := builtins[name]; ok {
		args, err := i.eval.EvaluateArgs(ctx, argSrc, i.state)
		if err != nil {
			return err
		}

		return i.runBuiltin(ctx, name, b, args)
	}

	return &eval.FunctionNotFoundError{Name: name}
}

// execAssignCall runs `name = fn(args)` where fn is a routine or builtin
func (i *Interpreter) execAssignCall(ctx context.Context, name, fn, argSrc string) error {
	def, ok := i.state.LookupRoutine(fn)
	if !ok {
		return &RuntimeError{Msg: fmt.Sprintf("builtin %s does not return a value", fn)}
	}

	args, err := i.eval.EvaluateArgs(ctx, argSrc, i.state)
	if err != nil {
		return err
	}

	v, err := i.invoke(ctx, def, args, name)
	if err != nil {
		return err
	}

	old, _ := i.state.GetVar(name)
	i.state.SetVar(name, v)
	i.recordChange(name, old, v)

	i.pc++
	return nil
}

// invoke runs a function or subroutine body in a new scope and restores pc afterwards.
// target names the variable receiving the result, empty when it is discarded.
// On error the frames and scopes are left as they were at the fault.
func (i *Interpreter) invoke(ctx context.Context, def state.FunctionDef, args []state.Value, target string) (state.Value, error) {
	if len(args) != len(def.Params) {
		return state.Value{}, &RuntimeError{
			Msg: fmt.Sprintf("%s expects %d argument(s), got %d", def.Name, len(def.Params), len(args)),
		}
	}

	if i.state.RoutineDepth() >= MaxRecursionDepth {
		return state.Value{}, &StackOverflowError{Name: def.Name, Limit: MaxRecursionDepth}
	}

	kind := state.FrameFunction
	if def.Subroutine {
		kind = state.FrameSubroutine
	}

	savedPC, savedTransfers := i.pc, i.transfers
	callDepth, scopeDepth := i.state.CallDepth(), i.state.ScopeDepth()

	i.state.PushScope()
	for k, p := range def.Params {
		if err := i.state.SetLocalVar(p, args[k]); err != nil {
			return state.Value{}, err
		}
	}

	i.state.PushFrame(state.Frame{
		Kind:       kind,
		ReturnPC:   savedPC,
		ScopeDepth: scopeDepth,
		ReturnVar:  target,
		Source:     &state.Source{Line: savedPC + 1, Name: def.Name},
	})

	i.log.Debug("enter", "routine", def.Name, "depth", i.state.RoutineDepth())
	if i.tracing() {
		i.debugger.TraceFunctionCall(def.Name, args, savedPC+1)
	}

	result, err := i.runBody(ctx, def)
	if err != nil {
		return state.Value{}, err
	}

	if extra := i.state.CallDepth() - callDepth - 1; extra > 0 {
		i.log.Warn("discarding label frames left by routine", "routine", def.Name, "frames", extra)
	}
	for i.state.CallDepth() > callDepth {
		i.state.PopFrame()
	}
	for i.state.ScopeDepth() > scopeDepth {
		i.state.PopScope()
	}

	i.pc, i.transfers = savedPC, savedTransfers

	i.log.Debug("exit", "routine", def.Name, "value", result.Debug(), "into", target)
	if i.tracing() {
		i.debugger.TraceFunctionReturn(def.Name, result, savedPC+1)
	}

	return result, nil
}

// runBody steps through a routine body until it ends, returns or transfers control away
func (i *Interpreter) runBody(ctx context.Context, def state.FunctionDef) (state.Value, error) {
	transfers := i.transfers

	i.pc = def.BodyStart
	for i.pc <= def.BodyEnd {
		if err := i.step(ctx); err != nil {
			return state.Value{}, err
		}

		if r := i.returning; r != nil {
			i.returning = nil
			return r.value, nil
		}

		if i.transfers != transfers {
			i.log.Debug("control left routine body", "routine", def.Name, "line", i.Line())
			break
		}
	}

	return state.Null(), nil
}

// execReturn handles `return [expr]` inside a function or subroutine body
func (i *Interpreter) execReturn(ctx context.Context, expr string) error {
	f, ok := i.state.PeekFrame()
	switch {
	case !ok:
		return &RuntimeError{Msg: "return outside of a function"}
	case f.Kind == state.FrameLabel:
		return &RuntimeError{Msg: "return inside a label call; use ret()"}
	case f.Kind == state.FrameSubroutine && expr != "":
		return &RuntimeError{Msg: fmt.Sprintf("subroutine %s cannot return a value", f.Source.Name)}
	}

	v, err := i.eval.Evaluate(ctx, expr, i.state)
	if err != nil {
		return err
	}

	i.returning = &returnValue{value: v}
	i.pc++
	return nil
}
