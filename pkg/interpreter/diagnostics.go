package interpreter

import (
	"errors"
	"maps"
	"slices"

	"ksc/pkg/diag"
	"ksc/pkg/eval"
	"ksc/pkg/lexer"
	"ksc/pkg/parser"
	"ksc/pkg/state"
)

// enrich converts a fault into a *diag.Error located at the current line, with the
// call stack as it was when the fault was raised
func (i *Interpreter) enrich(err error) error {
	var de *diag.Error
	if errors.As(err, &de) {
		return err
	}

	line := min(i.Line(), len(i.lines))
	stack := i.stackTrace(line)

	var (
		overflow   *StackOverflowError
		undefVar   *eval.UndefinedVariableError
		undefFunc  *eval.FunctionNotFoundError
		undefLabel *UndefinedLabelError
		typeErr    *eval.TypeError
		syntaxErr  *parser.SyntaxError
		exprErr    *eval.SyntaxError
		lexErr     *lexer.Error
	)

	switch {
	case errors.As(err, &overflow):
		de = diag.NewStackOverflowError(line, overflow.Limit, stack)
	case errors.As(err, &undefVar):
		de = diag.NewReferenceError(undefVar.Name, line, i.state.VariableNames(), stack, i.script)
	case errors.As(err, &undefFunc):
		de = diag.NewFunctionNotFoundError(undefFunc.Name, line, i.callableNames(), stack, i.script)
	case errors.As(err, &undefLabel):
		de = diag.NewLabelNotFoundError(undefLabel.Name, line, slices.Collect(maps.Keys(i.state.Labels)), stack, i.script)
	case errors.As(err, &typeErr):
		de = diag.NewTypeError(typeErr.Error(), line, stack, i.script)
	case errors.As(err, &syntaxErr):
		de = diag.NewSyntaxError(syntaxErr.Msg, syntaxErr.Line, stack, i.script)
	case errors.As(err, &exprErr):
		de = diag.NewSyntaxError(exprErr.Error(), line, stack, i.script)
	case errors.As(err, &lexErr):
		de = diag.NewSyntaxError(lexErr.Error(), line, stack, i.script)
	default:
		de = diag.NewRuntimeError(err.Error(), line, stack, i.script)
	}

	de.Err = err
	return de
}

// stackTrace lists the current context first, then each call site outwards
func (i *Interpreter) stackTrace(line int) []diag.Frame {
	frames := i.state.Frames()

	name := func(k int) string {
		if k < 0 || frames[k].Source == nil {
			return "<main>"
		}
		return frames[k].Source.Name
	}

	out := make([]diag.Frame, 0, len(frames)+1)
	out = append(out, diag.Frame{Function: name(len(frames) - 1), Line: line})

	for k := len(frames) - 1; k >= 0; k-- {
		if frames[k].Source == nil {
			continue
		}
		out = append(out, diag.Frame{Function: name(k - 1), Line: frames[k].Source.Line})
	}

	return out
}

func (i *Interpreter) callableNames() []string {
	return append(i.state.RoutineNames(), BuiltinNames()...)
}

func (i *Interpreter) tracing() bool {
	return i.debugger != nil && i.debugger.Enabled()
}

// recordChange reports an assignment to the debugger
func (i *Interpreter) recordChange(name string, prev, next state.Value) {
	if i.tracing() {
		i.debugger.RecordVariableChange(name, prev, next, i.Line())
	}
}
