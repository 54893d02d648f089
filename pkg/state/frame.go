package state

type FrameKind int

const (
	FrameLabel FrameKind = iota
	FrameFunction
	FrameSubroutine
)

func (k FrameKind) String() string {
	switch k {
	case FrameFunction:
		return "function"
	case FrameSubroutine:
		return "subroutine"
	default:
		return "label"
	}
}

// Frame is one entry of the call stack
type Frame struct {
	Kind       FrameKind // what pushed the frame
	ReturnPC   int       // line index to resume at (label calls) or restore (function calls)
	ScopeDepth int       // number of local scopes active when the frame was pushed
	ReturnVar  string    // variable receiving the result, empty when discarded
	Source     *Source   // call site, for stack traces
}

// Source describes where a frame was created
type Source struct {
	Line int    // 1-based line of the call
	Name string // routine name, or *label for label calls
}

// IsRoutine reports whether the frame belongs to a function or subroutine
func (f Frame) IsRoutine() bool {
	return f.Kind == FrameFunction || f.Kind == FrameSubroutine
}

// FunctionDef is a hoisted def or sub declaration
type FunctionDef struct {
	Name       string
	Params     []string
	Header     int // line index of the def or sub line
	BodyStart  int // first body line index
	BodyEnd    int // last body line index, before the closing brace
	Subroutine bool
}
