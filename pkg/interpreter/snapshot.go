package interpreter

import (
	"errors"
	"fmt"
	"maps"

	"ksc/pkg/state"
)

var ErrActiveCall = errors.New("cannot snapshot while a call is active")

// Snapshot is the resumable part of a run: the next line and the global variables
type Snapshot struct {
	PC        int                    `json:"pc"`
	Variables map[string]state.Value `json:"variables"`
}

// Snapshot captures the run between top-level statements
func (i *Interpreter) Snapshot() (Snapshot, error) {
	if !i.loaded {
		return Snapshot{}, ErrNotLoaded
	}

	if i.state.CallDepth() > 0 || i.state.ScopeDepth() > 0 {
		return Snapshot{}, ErrActiveCall
	}

	return Snapshot{PC: i.pc, Variables: i.state.SnapshotGlobals()}, nil
}

// Restore continues a loaded script from s. Labels and definitions come from Load.
func (i *Interpreter) Restore(s Snapshot) error {
	if !i.loaded {
		return ErrNotLoaded
	}

	if s.PC < 0 || s.PC > len(i.lines) {
		return fmt.Errorf("snapshot line %d is outside the script (%d lines)", s.PC+1, len(i.lines))
	}

	st := state.New()
	st.Labels = i.state.Labels
	st.Functions = i.state.Functions
	st.Subroutines = i.state.Subroutines
	if s.Variables != nil {
		st.Globals = maps.Clone(s.Variables)
	}

	i.state = st
	i.Reset()
	i.pc = s.PC

	return nil
}
