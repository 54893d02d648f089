package interpreter

import (
	"context"
	"strings"

	"ksc/pkg/debugger"
	"ksc/pkg/parser"
)

// step runs the line at the program counter. Nested constructs (blocks, dialogue,
// definitions) are consumed whole, so pc ends past them.
func (i *Interpreter) step(ctx context.Context) error {
	if err := i.tick(ctx); err != nil {
		return err
	}

	if i.pc >= len(i.lines) {
		return nil
	}

	i.checkBreakpoint(ctx)
	depth := i.state.CallDepth()

	line := i.current()

	var err error
	switch parser.ClassifyLine(line) {
	case parser.LineEmpty, parser.LineComment, parser.LineLabel, parser.LineDialogueEnd:
		i.pc++
	case parser.LineDialogueStart:
		err = i.execDialogue(ctx)
	default:
		err = i.execStatement(ctx, line)
	}

	if err != nil {
		return err
	}

	i.notifyStep(depth)
	return nil
}

func (i *Interpreter) checkBreakpoint(ctx context.Context) {
	if i.debugger == nil || !i.debugger.Enabled() {
		return
	}

	if i.debugger.ShouldBreak(ctx, i.Line(), i.state, i.eval.EvaluateCondition) {
		i.stepDepth = i.state.CallDepth()
		i.debugger.HitBreakpoint(i.Line())
	}
}

// notifyStep completes a pending debugger step request once the step that started at
// depth has finished at the right call depth
func (i *Interpreter) notifyStep(depth int) {
	if i.debugger == nil || !i.debugger.Enabled() {
		return
	}

	now := i.state.CallDepth()

	done := false
	switch i.debugger.StepMode() {
	case debugger.StepInto:
		done = true
	case debugger.StepOver:
		done = now <= i.stepDepth && depth <= i.stepDepth
	case debugger.StepOut:
		done = now < i.stepDepth
	}

	if done {
		i.stepDepth = now
		i.debugger.NotifyStepComplete(i.Line())
	}
}

// execDialogue shows the `#speaker ... #` block at pc, interpolating every body line
func (i *Interpreter) execDialogue(ctx context.Context) error {
	end, ok := parser.FindDialogueEnd(i.lines, i.pc)
	if !ok {
		return &parser.SyntaxError{Line: i.Line(), Msg: "unterminated dialogue block"}
	}

	speaker := parser.Speaker(i.lines[i.pc])

	body := make([]string, 0, end-i.pc-1)
	for k := i.pc + 1; k < end; k++ {
		text, err := i.eval.Interpolate(ctx, strings.TrimSpace(i.lines[k]), i.state)
		if err != nil {
			// report the line holding the failing span
			i.pc = k
			return err
		}
		body = append(body, text)
	}

	if err := i.engine.ShowDialogue(ctx, speaker, body); err != nil {
		return err
	}

	i.pc = end + 1
	return nil
}

// execStatement dispatches an expression line; the first matching form wins
func (i *Interpreter) execStatement(ctx context.Context, line string) error {
	switch {
	case line == "}":
		// close of a block left by a transfer
		i.pc++
		return nil
	case parser.IsElseHeader(line):
		return i.skipElseChain()
	case parser.IsDefinition(line):
		return i.skipDefinition()
	}

	if expr, ok := parser.ReturnExpr(line); ok {
		return i.execReturn(ctx, expr)
	}

	if parser.IsIf(line) {
		return i.execIf(ctx, line)
	}

	if parser.IsChoice(line) {
		return i.execChoice(ctx)
	}

	if name, op, rhs, ok := parser.SplitAssignment(line); ok {
		if err := parser.ReservedName(i.pc, name); err != nil {
			return err
		}

		if op == "=" {
			if fn, args, ok := parser.SplitCall(rhs); ok && i.isCallable(fn) {
				return i.execAssignCall(ctx, name, fn, args)
			}
		}
		return i.execAssignment(ctx, line)
	}

	if name, args, ok := parser.SplitCall(line); ok {
		return i.execCall(ctx, name, args)
	}

	if _, err := i.eval.Evaluate(ctx, line, i.state); err != nil {
		return err
	}

	i.pc++
	return nil
}

// skipDefinition moves past a def or sub block; definitions run only when called
func (i *Interpreter) skipDefinition() error {
	end, err := parser.FindBlockEnd(i.lines, i.pc)
	if err != nil {
		return err
	}

	i.pc = end + 1
	return nil
}

func (i *Interpreter) execAssignment(ctx context.Context, line string) error {
	a, err := i.eval.ExecuteAssignment(ctx, line, i.state)
	if err != nil {
		return err
	}

	i.recordChange(a.Name, a.Old, a.New)
	i.pc++
	return nil
}
