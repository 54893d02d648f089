package parser

import "fmt"

// SyntaxError is a structural fault in the script, located by 1-based line
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func errorAt(index int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Line: index + 1, Msg: fmt.Sprintf(format, args...)}
}
