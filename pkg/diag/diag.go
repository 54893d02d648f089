package diag

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

type ErrorType string

const (
	SyntaxError    ErrorType = "SyntaxError"
	ReferenceError ErrorType = "ReferenceError"
	TypeError      ErrorType = "TypeError"
	RuntimeError   ErrorType = "RuntimeError"
	StackOverflow  ErrorType = "StackOverflow"
)

const (
	MaxSuggestions  = 3
	MaxEditDistance = 3
	ContextRadius   = 2
)

// Frame is one entry of a rendered stack trace
type Frame struct {
	Function string
	Line     int
	Column   int
}

// Error is the structured record of a fault raised by a script run
type Error struct {
	Type        ErrorType
	Message     string
	Line        int // 1-based
	Column      int // 1-based, 0 when unknown
	Stack       []Frame
	Suggestions []string // similar names
	Hints       []string // fixed remediation advice
	Context     string   // source window around Line
	Err         error    // underlying fault
}

func (e *Error) Error() string {
	return Format(e)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// SuggestSimilar ranks candidates by edit distance to name, keeping those within
// MaxEditDistance and half the length of name, closest first.
func SuggestSimilar(name string, candidates []string) []string {
	type scored struct {
		name     string
		distance int
	}

	limit := float64(utf8.RuneCountInString(name)) / 2

	var found []scored
	for _, c := range candidates {
		d := fuzzy.LevenshteinDistance(name, c)
		if d <= MaxEditDistance && float64(d) <= limit {
			found = append(found, scored{c, d})
		}
	}

	slices.SortStableFunc(found, func(a, b scored) int {
		return a.distance - b.distance
	})

	out := make([]string, 0, MaxSuggestions)
	for _, s := range found {
		if len(out) == MaxSuggestions {
			break
		}
		out = append(out, s.name)
	}

	return out
}

// FormatStackTrace renders frames as `  at name (line N)`
func FormatStackTrace(stack []Frame) string {
	lines := make([]string, 0, len(stack))
	for _, f := range stack {
		lines = append(lines, "  at "+f.Function+" (line "+location(f)+")")
	}

	return strings.Join(lines, "\n")
}

func location(f Frame) string {
	if f.Column > 0 {
		return fmt.Sprintf("%d:%d", f.Line, f.Column)
	}

	return fmt.Sprintf("%d", f.Line)
}

// GenerateContext extracts radius lines around the 1-based line, marking the target with →
func GenerateContext(script string, line, radius int) string {
	lines := strings.Split(strings.ReplaceAll(script, "\r\n", "\n"), "\n")
	start := max(0, line-1-radius)
	end := min(len(lines), line+radius)

	parts := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		prefix := "  "
		if i+1 == line {
			prefix = "→ "
		}
		parts = append(parts, fmt.Sprintf("%s%d: %s", prefix, i+1, lines[i]))
	}

	return strings.Join(parts, "\n")
}

// Header returns the first line of the rendering: `[KNF Type] Line N: message`
func (e *Error) Header() string {
	return fmt.Sprintf("[KNF %s] Line %d: %s", e.Type, e.Line, e.Message)
}

// HintText returns the suggestion or hint paragraph, empty when there is none
func (e *Error) HintText() string {
	switch {
	case len(e.Suggestions) == 1:
		return fmt.Sprintf("Hint: did you mean '%s'?", e.Suggestions[0])
	case len(e.Suggestions) > 1:
		return fmt.Sprintf("Hint: did you mean one of '%s'?", strings.Join(e.Suggestions, "', '"))
	case len(e.Hints) > 0:
		return "Hint: " + strings.Join(e.Hints, "; ")
	}

	return ""
}

// Format renders the record as plain multi-line text
func Format(e *Error) string {
	parts := []string{e.Header()}

	if len(e.Stack) > 0 {
		parts = append(parts, FormatStackTrace(e.Stack))
	}

	if e.Context != "" {
		parts = append(parts, "", e.Context)
	}

	if hint := e.HintText(); hint != "" {
		parts = append(parts, "", hint)
	}

	return strings.Join(parts, "\n")
}

func newError(t ErrorType, message string, line int, stack []Frame, script string) *Error {
	e := &Error{
		Type:    t,
		Message: message,
		Line:    line,
		Stack:   stack,
	}

	if script != "" && line > 0 {
		e.Context = GenerateContext(script, line, ContextRadius)
	}

	return e
}

// NewReferenceError reports an undefined variable with name suggestions
func NewReferenceError(name string, line int, candidates []string, stack []Frame, script string) *Error {
	e := newError(ReferenceError, fmt.Sprintf("undefined variable '%s'", name), line, stack, script)
	e.Suggestions = SuggestSimilar(name, candidates)
	return e
}

// NewFunctionNotFoundError reports an undefined function with name suggestions
func NewFunctionNotFoundError(name string, line int, candidates []string, stack []Frame, script string) *Error {
	e := newError(ReferenceError, fmt.Sprintf("undefined function '%s'", name), line, stack, script)
	e.Suggestions = SuggestSimilar(name, candidates)
	return e
}

// NewLabelNotFoundError reports a jump or call to an undeclared label
func NewLabelNotFoundError(name string, line int, candidates []string, stack []Frame, script string) *Error {
	e := newError(ReferenceError, fmt.Sprintf("undefined label '%s'", name), line, stack, script)
	e.Suggestions = SuggestSimilar(name, candidates)
	return e
}

func NewTypeError(message string, line int, stack []Frame, script string) *Error {
	return newError(TypeError, message, line, stack, script)
}

func NewRuntimeError(message string, line int, stack []Frame, script string) *Error {
	return newError(RuntimeError, message, line, stack, script)
}

func NewSyntaxError(message string, line int, stack []Frame, script string) *Error {
	return newError(SyntaxError, message, line, stack, script)
}

// NewStackOverflowError reports recursion deeper than limit. It carries fixed hints only.
func NewStackOverflowError(line, limit int, stack []Frame) *Error {
	return &Error{
		Type:    StackOverflow,
		Message: fmt.Sprintf("stack overflow: recursion depth exceeded the limit of %d", limit),
		Line:    line,
		Stack:   stack,
		Hints: []string{
			"check the exit condition of the recursive function",
			"reduce the recursion depth",
		},
	}
}
