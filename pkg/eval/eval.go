package eval

import (
	"context"
	"math"

	"ksc/pkg/lexer"
	"ksc/pkg/state"
)

// Resolver answers calls made from inside expressions. found is false when the name is unknown.
type Resolver interface {
	Resolve(ctx context.Context, name string, args []state.Value) (v state.Value, found bool, err error)
}

// ResolverFunc adapts a function to Resolver
type ResolverFunc func(ctx context.Context, name string, args []state.Value) (state.Value, bool, error)

func (f ResolverFunc) Resolve(ctx context.Context, name string, args []state.Value) (state.Value, bool, error) {
	return f(ctx, name, args)
}

// Evaluator computes expressions against a GameState. It keeps no per-expression state,
// so a resolver may evaluate nested expressions while an outer one is in progress.
type Evaluator struct {
	resolver Resolver
}

// New creates an Evaluator delegating calls to r. A nil resolver makes every call unresolved.
func New(r Resolver) *Evaluator {
	return &Evaluator{resolver: r}
}

// Assignment describes the effect of ExecuteAssignment
type Assignment struct {
	Name   string
	Op     string
	Old    state.Value
	HadOld bool
	New    state.Value
}

// Evaluate parses and computes expr. An empty expression yields null.
func (e *Evaluator) Evaluate(ctx context.Context, expr string, st *state.GameState) (state.Value, error) {
	c, err := e.newCursor(ctx, expr, st)
	if err != nil {
		return state.Value{}, err
	}

	if c.atEnd() {
		return state.Null(), nil
	}

	v, err := c.parseOr()
	if err != nil {
		return state.Value{}, err
	}

	if err := c.expectEnd(); err != nil {
		return state.Value{}, err
	}

	return v, nil
}

// EvaluateCondition evaluates expr and applies the truthiness rule
func (e *Evaluator) EvaluateCondition(ctx context.Context, expr string, st *state.GameState) (bool, error) {
	v, err := e.Evaluate(ctx, expr, st)
	if err != nil {
		return false, err
	}

	return v.Truthy(), nil
}

// EvaluateArgs evaluates a comma separated argument list such as `"a", x + 1`
func (e *Evaluator) EvaluateArgs(ctx context.Context, src string, st *state.GameState) ([]state.Value, error) {
	c, err := e.newCursor(ctx, src, st)
	if err != nil {
		return nil, err
	}

	if c.atEnd() {
		return nil, nil
	}

	args, err := c.parseList()
	if err != nil {
		return nil, err
	}

	return args, c.expectEnd()
}

// ExecuteAssignment runs `name (= | += | -= | *= | /=) expr`. Compound operators treat an
// unbound target as 0.
func (e *Evaluator) ExecuteAssignment(ctx context.Context, expr string, st *state.GameState) (Assignment, error) {
	c, err := e.newCursor(ctx, expr, st)
	if err != nil {
		return Assignment{}, err
	}

	target := c.next()
	if target.Type != lexer.ID {
		return Assignment{}, &SyntaxError{Expr: expr, Token: target, Msg: "assignment target must be a variable name"}
	}

	op := c.next()
	if op.Type != lexer.ASSIGN {
		return Assignment{}, &SyntaxError{Expr: expr, Token: op, Msg: "expected an assignment operator"}
	}

	if c.atEnd() {
		return Assignment{}, &SyntaxError{Expr: expr, Msg: "missing value after " + op.Lexeme}
	}

	rhs, err := c.parseOr()
	if err != nil {
		return Assignment{}, err
	}

	if err := c.expectEnd(); err != nil {
		return Assignment{}, err
	}

	a := Assignment{Name: target.Lexeme, Op: op.Lexeme}
	a.Old, a.HadOld = st.GetVar(a.Name)

	switch op.Lexeme {
	case "=":
		a.New = rhs
	default:
		current := a.Old
		if !a.HadOld {
			current = state.Number(0)
		}

		// "+=" -> "+"
		a.New, err = binary(op.Lexeme[:1], current, rhs)
		if err != nil {
			return Assignment{}, err
		}
	}

	st.SetVar(a.Name, a.New)
	return a, nil
}

// binary applies a non-logical binary operator
func binary(op string, l, r state.Value) (state.Value, error) {
	switch op {
	case "==":
		return state.Bool(l.Equal(r)), nil
	case "!=":
		return state.Bool(!l.Equal(r)), nil
	case "+":
		if l.Kind == state.KindString || r.Kind == state.KindString {
			return state.String(l.String() + r.String()), nil
		}
	}

	if l.Kind != state.KindNumber || r.Kind != state.KindNumber {
		return state.Value{}, &TypeError{Op: op, Left: l.Kind, Right: r.Kind}
	}

	a, b := l.Num, r.Num
	switch op {
	case "+":
		return state.Number(a + b), nil
	case "-":
		return state.Number(a - b), nil
	case "*":
		return state.Number(a * b), nil
	case "/":
		if b == 0 {
			return state.Value{}, ErrDivisionByZero
		}
		return state.Number(a / b), nil
	case "%":
		if b == 0 {
			return state.Value{}, ErrDivisionByZero
		}
		return state.Number(math.Mod(a, b)), nil
	case ">":
		return state.Bool(a > b), nil
	case ">=":
		return state.Bool(a >= b), nil
	case "<":
		return state.Bool(a < b), nil
	case "<=":
		return state.Bool(a <= b), nil
	}

	return state.Value{}, &SyntaxError{Msg: "unknown operator " + op}
}
