package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/peterh/liner"

	"ksc/internal/config"
	"ksc/internal/savedata"
	"ksc/pkg/color"
	"ksc/pkg/debugger"
	"ksc/pkg/engine"
	"ksc/pkg/interpreter"
)

type Runner struct {
	Config     config.Config
	SourceFile string          // Path to the script
	LoadSlot   string          // Save slot to resume from, if any
	Verbose    bool            // Dump variables when the run ends
	Out        io.Writer       // Engine output, stdout when nil
	Prompter   engine.Prompter // Player input; a terminal line editor is used when nil and interactive
}

// Run loads the script, resumes a save slot when asked and runs to the end.
// The position is saved to the configured slot unless the run faulted.
func (r *Runner) Run(ctx context.Context) error {
	log.Info("Running script", "file", r.SourceFile)

	source, err := os.ReadFile(r.SourceFile)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	out := r.Out
	if out == nil {
		out = os.Stdout
	}

	prompter := r.Prompter
	if prompter == nil && r.Config.Console.Interactive {
		line := liner.NewLiner()
		line.SetCtrlCAborts(true)
		defer line.Close()
		prompter = line
	}

	console := engine.NewConsole(out, r.consoleOptions(prompter)...)

	opts := []interpreter.Option{interpreter.WithMaxSteps(r.Config.Limits.MaxSteps)}

	var dbg *debugger.Debugger
	if r.Config.DebugRequested() {
		dbg = r.newDebugger(out, prompter)
		opts = append(opts, interpreter.WithDebugger(dbg))
	}

	intr := interpreter.New(console, opts...)
	if err := intr.Load(string(source)); err != nil {
		return err
	}

	var store *savedata.Store
	if r.LoadSlot != "" || r.Config.Save.Slot != "" {
		store, err = savedata.Open(ctx, r.Config.Save.Database)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	if r.LoadSlot != "" {
		if err := r.restore(ctx, store, intr); err != nil {
			return err
		}
	}

	runErr := intr.Run(ctx)

	if interrupted(runErr) {
		log.Warn("Run interrupted", "line", intr.Line())
	}

	if r.Config.Save.Slot != "" && (runErr == nil || interrupted(runErr)) {
		if err := r.save(ctx, store, intr); err != nil {
			return err
		}
	}

	if dbg != nil && dbg.Tracing() {
		printTrace(out, dbg.TraceLog())
	}

	if r.Verbose {
		printVariables(out, intr)
	}

	if interrupted(runErr) {
		return nil
	}

	return runErr
}

func (r *Runner) consoleOptions(p engine.Prompter) []engine.ConsoleOption {
	c := r.Config.Console

	opts := []engine.ConsoleOption{
		engine.WithDefaultChoice(c.DefaultChoice),
		engine.WithBattleResult(engine.BattleResult(c.BattleResult)),
		engine.WithRealTime(c.RealTime),
	}

	if p != nil {
		opts = append(opts, engine.WithPrompter(p))
	}

	return opts
}

func (r *Runner) restore(ctx context.Context, store *savedata.Store, intr *interpreter.Interpreter) error {
	slot, err := store.Load(ctx, r.LoadSlot)
	if err != nil {
		return err
	}

	if script := filepath.Base(r.SourceFile); slot.Script != script {
		return fmt.Errorf("slot %s was saved from %s, not %s", slot.Name, slot.Script, script)
	}

	if err := intr.Restore(slot.Snapshot); err != nil {
		return fmt.Errorf("restore slot %s: %w", slot.Name, err)
	}

	log.Info("Resumed", "slot", slot.Name, "line", intr.Line(), "saved", slot.SavedAt.Format("2006-01-02 15:04"))
	return nil
}

func (r *Runner) save(ctx context.Context, store *savedata.Store, intr *interpreter.Interpreter) error {
	snap, err := intr.Snapshot()
	if errors.Is(err, interpreter.ErrActiveCall) {
		log.Warn("Not saving inside a call", "slot", r.Config.Save.Slot, "line", intr.Line())
		return nil
	}
	if err != nil {
		return err
	}

	// a fresh context, the run's may be cancelled already
	saveCtx := context.WithoutCancel(ctx)

	return store.Save(saveCtx, savedata.Slot{
		Name:     r.Config.Save.Slot,
		Script:   filepath.Base(r.SourceFile),
		Snapshot: snap,
	})
}

// interrupted reports a run ended by the player rather than by the script
func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, liner.ErrPromptAborted)
}

func printTrace(w io.Writer, entries []string) {
	fmt.Fprintln(w, color.GreenText("\n=== Trace ==="))
	if len(entries) == 0 {
		fmt.Fprintln(w, color.GrayText("No trace entries."))
		return
	}

	for _, e := range entries {
		fmt.Fprintln(w, color.GrayText(e))
	}
}

func printVariables(w io.Writer, intr *interpreter.Interpreter) {
	st := intr.State()

	fmt.Fprintln(w, color.GreenText("\n=== Variables ==="))
	names := st.VariableNames()
	if len(names) == 0 {
		fmt.Fprintln(w, color.GrayText("No variables set."))
		return
	}

	width := 0
	for _, n := range names {
		width = max(width, len(n))
	}

	for _, n := range names {
		v, _ := st.GetVar(n)
		fmt.Fprintf(w, "%s = %s\n", color.CyanText(n+strings.Repeat(" ", width-len(n))), color.YellowText(v.Debug()))
	}
}
