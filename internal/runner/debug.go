package runner

import (
	"fmt"
	"io"
	"strings"

	"ksc/pkg/color"
	"ksc/pkg/debugger"
	"ksc/pkg/engine"
)

func (r *Runner) newDebugger(w io.Writer, p engine.Prompter) *debugger.Debugger {
	d := r.Config.Debug

	dbg := debugger.New(
		debugger.WithEnabled(true),
		debugger.WithTrace(d.Trace),
		debugger.WithWatch(d.Watch...),
	)

	for _, bp := range d.Breakpoints {
		dbg.AddBreakpoint(bp.Line, bp.Condition)
	}

	dbg.Subscribe(func(ev debugger.Event) error {
		switch ev.Type {
		case debugger.BreakpointHit:
			fmt.Fprintf(w, "%s %s\n", color.MagentaText("● breakpoint"), color.Line(ev.Line))
		case debugger.StepComplete:
			fmt.Fprintf(w, "%s %s\n", color.MagentaText("● step"), color.Line(ev.Line))
		case debugger.VariableChanged:
			if data, ok := ev.Data.(debugger.VariableChangedData); ok {
				fmt.Fprintf(w, "%s %s: %s → %s\n", color.MagentaText("● watch"), data.Name, data.Old.Debug(), data.New.Debug())
			}
			return nil
		default:
			return nil
		}

		return resume(dbg, p)
	})

	return dbg
}

// resume asks what to do after a pause. Without a prompter the run continues.
func resume(dbg *debugger.Debugger, p engine.Prompter) error {
	if p == nil {
		dbg.Continue()
		return nil
	}

	for {
		in, err := p.Prompt("debug [c]ontinue [s]tep over step [i]nto step [o]ut: ")
		if err != nil {
			// a failed prompt must not leave the run paused
			dbg.Continue()
			return err
		}

		switch strings.ToLower(strings.TrimSpace(in)) {
		case "", "c":
			dbg.Continue()
		case "s":
			dbg.StepOver()
		case "i":
			dbg.StepInto()
		case "o":
			dbg.StepOut()
		default:
			continue
		}

		return nil
	}
}
