package interpreter

import "fmt"

// RuntimeError is a fault in an otherwise well-formed script
type RuntimeError struct {
	Msg string
}

func (e *RuntimeError) Error() string {
	return e.Msg
}

// UndefinedLabelError is raised by jump, call and battle for an unknown label
type UndefinedLabelError struct {
	Name string
}

func (e *UndefinedLabelError) Error() string {
	return fmt.Sprintf("undefined label '%s'", e.Name)
}

// StackOverflowError is raised when a call would exceed the recursion limit
type StackOverflowError struct {
	Name  string
	Limit int
}

func (e *StackOverflowError) Error() string {
	return fmt.Sprintf("stack overflow calling %s: recursion depth exceeded the limit of %d", e.Name, e.Limit)
}
