package interpreter

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"ksc/pkg/engine"
	"ksc/pkg/state"
)

// builtin is a native command. Control builtins move pc themselves; the others are
// followed by pc+1.
type builtin struct {
	minArgs int
	control bool
	run     func(i *Interpreter, ctx context.Context, a args) error
}

var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"bg":            {minArgs: 1, run: builtinBackground},
		"ch":            {minArgs: 2, run: builtinCharacter},
		"ch_anim":       {minArgs: 2, run: builtinAnimate},
		"ch_hide":       {minArgs: 1, run: builtinHide},
		"ch_clear":      {run: builtinClear},
		"ch_move":       {minArgs: 2, run: builtinMove},
		"bgm":           {minArgs: 1, run: builtinBGM},
		"bgm_stop":      {run: builtinStopBGM},
		"se":            {minArgs: 1, run: builtinSE},
		"voice":         {minArgs: 1, run: builtinVoice},
		"wait":          {minArgs: 1, run: builtinWait},
		"waitclick":     {run: builtinWaitClick},
		"timeline":      {minArgs: 1, run: builtinTimeline},
		"timeline_play": {minArgs: 1, run: builtinTimeline},
		"battle":        {minArgs: 1, control: true, run: builtinBattle},
		"jump":          {minArgs: 1, control: true, run: builtinJump},
		"call":          {minArgs: 1, control: true, run: builtinCall},
		"ret":           {control: true, run: builtinRet},
	}
}

// IsBuiltin reports whether name is a reserved builtin command
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// BuiltinNames lists the builtin commands, sorted
func BuiltinNames() []string {
	return slices.Sorted(maps.Keys(builtins))
}

func (i *Interpreter) runBuiltin(ctx context.Context, name string, b builtin, a args) error {
	if len(a) < b.minArgs {
		return &RuntimeError{Msg: fmt.Sprintf("%s expects at least %d argument(s), got %d", name, b.minArgs, len(a))}
	}

	a = append(args{state.String(name)}, a...)
	if err := b.run(i, ctx, a); err != nil {
		return err
	}

	if !b.control {
		i.pc++
	}
	return nil
}

// args holds the builtin name at index 0 followed by the call arguments
type args []state.Value

func (a args) str(n int) string {
	return a.optStr(n, "")
}

func (a args) optStr(n int, def string) string {
	if n >= len(a) || a[n].IsNull() {
		return def
	}

	return a[n].String()
}

func (a args) optNum(n int, def float64) (float64, error) {
	if n >= len(a) || a[n].IsNull() {
		return def, nil
	}

	f, err := a[n].AsNumber()
	if err != nil {
		return 0, &RuntimeError{Msg: fmt.Sprintf("argument %d of %s: %v", n, a[0].Str, err)}
	}

	return f, nil
}

func (a args) duration(n int) (time.Duration, error) {
	ms, err := a.optNum(n, 0)
	if err != nil {
		return 0, err
	}

	return time.Duration(ms * float64(time.Millisecond)), nil
}

func (a args) volume(n int) (int, error) {
	v, err := a.optNum(n, engine.DefaultVolume)
	return int(v), err
}

// Presentation

func builtinBackground(i *Interpreter, ctx context.Context, a args) error {
	return i.engine.SetBackground(ctx, a.str(1), a.str(2))
}

func builtinCharacter(i *Interpreter, ctx context.Context, a args) error {
	fade, err := a.duration(4)
	if err != nil {
		return err
	}

	return i.engine.ShowCharacter(ctx, a.str(1), a.str(2), a.optStr(3, "center"), fade)
}

func builtinAnimate(i *Interpreter, ctx context.Context, a args) error {
	return i.engine.AnimateCharacter(ctx, a.str(1), a.str(2), a.optStr(3, "center"))
}

func builtinHide(i *Interpreter, ctx context.Context, a args) error {
	fade, err := a.duration(2)
	if err != nil {
		return err
	}

	return i.engine.HideCharacter(ctx, a.str(1), fade)
}

func builtinClear(i *Interpreter, ctx context.Context, a args) error {
	fade, err := a.duration(1)
	if err != nil {
		return err
	}

	return i.engine.ClearCharacters(ctx, fade)
}

func builtinMove(i *Interpreter, ctx context.Context, a args) error {
	d, err := a.duration(3)
	if err != nil {
		return err
	}

	return i.engine.MoveCharacter(ctx, a.str(1), a.str(2), d)
}

func builtinBGM(i *Interpreter, ctx context.Context, a args) error {
	vol, err := a.volume(2)
	if err != nil {
		return err
	}

	fade, err := a.duration(3)
	if err != nil {
		return err
	}

	return i.engine.PlayBGM(ctx, a.str(1), vol, fade)
}

func builtinStopBGM(i *Interpreter, ctx context.Context, a args) error {
	fade, err := a.duration(1)
	if err != nil {
		return err
	}

	if fade > 0 {
		return i.engine.FadeBGM(ctx, fade)
	}
	return i.engine.StopBGM(ctx)
}

func builtinSE(i *Interpreter, ctx context.Context, a args) error {
	vol, err := a.volume(2)
	if err != nil {
		return err
	}

	return i.engine.PlaySE(ctx, a.str(1), vol)
}

func builtinVoice(i *Interpreter, ctx context.Context, a args) error {
	return i.engine.PlayVoice(ctx, a.str(1))
}

func builtinWait(i *Interpreter, ctx context.Context, a args) error {
	d, err := a.duration(1)
	if err != nil {
		return err
	}

	return i.engine.Wait(ctx, d)
}

func builtinWaitClick(i *Interpreter, ctx context.Context, _ args) error {
	return i.engine.WaitForClick(ctx)
}

func builtinTimeline(i *Interpreter, ctx context.Context, a args) error {
	return i.engine.PlayTimeline(ctx, a.str(1))
}

// Control

func builtinBattle(i *Interpreter, ctx context.Context, a args) error {
	troop := a.str(1)

	result, err := i.engine.StartBattle(ctx, troop)
	if err != nil {
		return err
	}

	target := a.str(2)
	if result == engine.BattleLose {
		target = a.str(3)
	}

	i.log.Debug("battle", "troop", troop, "result", result, "label", target)

	if target != "" {
		return i.jump(target)
	}

	i.pc++
	return nil
}

func builtinJump(i *Interpreter, _ context.Context, a args) error {
	return i.jump(a.str(1))
}

func builtinCall(i *Interpreter, _ context.Context, a args) error {
	label := a.str(1)

	target, ok := i.state.Labels[label]
	if !ok {
		return &UndefinedLabelError{Name: label}
	}

	i.state.PushFrame(state.Frame{
		Kind:       state.FrameLabel,
		ReturnPC:   i.pc + 1,
		ScopeDepth: i.state.ScopeDepth(),
		Source:     &state.Source{Line: i.Line(), Name: "*" + label},
	})

	i.log.Debug("call", "label", label, "from", i.Line(), "depth", i.state.CallDepth())

	i.pc = target + 1
	i.transfers++
	return nil
}

func builtinRet(i *Interpreter, _ context.Context, _ args) error {
	f, ok := i.state.PeekFrame()
	if !ok {
		return &RuntimeError{Msg: "ret() with an empty call stack"}
	}

	if f.Kind != state.FrameLabel {
		return &RuntimeError{Msg: fmt.Sprintf("ret() cannot leave a %s; use return", f.Kind)}
	}

	i.state.PopFrame()
	i.log.Debug("ret", "to", f.ReturnPC+1)

	i.pc = f.ReturnPC
	i.transfers++
	return nil
}

// jump moves pc to the line after label
func (i *Interpreter) jump(label string) error {
	target, ok := i.state.Labels[label]
	if !ok {
		return &UndefinedLabelError{Name: label}
	}

	i.log.Debug("jump", "label", label, "from", i.Line(), "to", target+2)

	i.pc = target + 1
	i.transfers++
	return nil
}
