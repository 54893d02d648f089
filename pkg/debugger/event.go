package debugger

import "ksc/pkg/state"

type EventType string

const (
	VariableChanged EventType = "variable_changed"
	BreakpointHit   EventType = "breakpoint"
	StepComplete    EventType = "step_complete"
	FunctionCall    EventType = "function_call"
	FunctionReturn  EventType = "function_return"
)

// Event is published to listeners. Data holds one of the *Data types below, or nil.
type Event struct {
	Type EventType
	Line int
	Data any
}

type VariableChangedData struct {
	Name string
	Old  state.Value
	New  state.Value
}

type FunctionCallData struct {
	Name string
	Args []state.Value
}

type FunctionReturnData struct {
	Name  string
	Value state.Value
}

// Listener receives events. Returned errors and panics are logged and never reach the interpreter.
type Listener func(Event) error

// ListenerID identifies a subscription for Unsubscribe
type ListenerID int

type listenerEntry struct {
	id ListenerID
	fn Listener
}
