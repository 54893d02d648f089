package eval

import (
	"errors"
	"fmt"

	"ksc/pkg/lexer"
	"ksc/pkg/state"
)

var ErrDivisionByZero = errors.New("division by zero")

// UndefinedVariableError is raised when an expression reads an unbound name
type UndefinedVariableError struct {
	Name string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("undefined variable '%s'", e.Name)
}

// FunctionNotFoundError is raised when the resolver does not know a called name
type FunctionNotFoundError struct {
	Name string
}

func (e *FunctionNotFoundError) Error() string {
	return fmt.Sprintf("undefined function '%s'", e.Name)
}

// TypeError is an operand-type violation
type TypeError struct {
	Op    string
	Left  state.ValueKind
	Right state.ValueKind
	Unary bool
}

func (e *TypeError) Error() string {
	if e.Unary {
		return fmt.Sprintf("operator %s expects a number, got %s", e.Op, e.Right)
	}

	return fmt.Sprintf("operator %s expects numbers, got %s and %s", e.Op, e.Left, e.Right)
}

// SyntaxError is a malformed expression
type SyntaxError struct {
	Expr  string
	Token lexer.Token
	Msg   string
}

func (e *SyntaxError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s in %q", e.Msg, e.Expr)
	}

	return fmt.Sprintf("unexpected %s in %q", e.Token, e.Expr)
}

// InterpolationError wraps the failure of one {expr} span
type InterpolationError struct {
	Span string
	Err  error
}

func (e *InterpolationError) Error() string {
	return fmt.Sprintf("interpolation of %s failed: %v", e.Span, e.Err)
}

func (e *InterpolationError) Unwrap() error {
	return e.Err
}
