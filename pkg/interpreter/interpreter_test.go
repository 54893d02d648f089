package interpreter_test

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"ksc/pkg/debugger"
	"ksc/pkg/diag"
	"ksc/pkg/engine"
	"ksc/pkg/interpreter"
	"ksc/pkg/state"
)

func quiet() interpreter.Option {
	return interpreter.WithLogger(log.New(io.Discard))
}

func script(lines ...string) string {
	return strings.Join(lines, "\n")
}

func runScript(t *testing.T, rec *engine.Recorder, src string, opts ...interpreter.Option) (*interpreter.Interpreter, error) {
	t.Helper()

	it := interpreter.New(rec, append([]interpreter.Option{quiet()}, opts...)...)
	if err := it.Load(src); err != nil {
		t.Fatalf("Load: %v", err)
	}

	return it, it.Run(context.Background())
}

func mustRun(t *testing.T, src string) (*interpreter.Interpreter, *engine.Recorder) {
	t.Helper()

	rec := engine.NewRecorder()
	it, err := runScript(t, rec, src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	return it, rec
}

func expectVar(t *testing.T, it *interpreter.Interpreter, name string, want state.Value) {
	t.Helper()

	got, ok := it.State().GetVar(name)
	if !ok {
		t.Fatalf("variable %s is not bound", name)
	}
	if !got.Equal(want) {
		t.Errorf("%s = %s, want %s", name, got.Debug(), want.Debug())
	}
}

func expectUnbound(t *testing.T, it *interpreter.Interpreter, name string) {
	t.Helper()

	if v, ok := it.State().GetVar(name); ok {
		t.Errorf("%s should be unbound, got %s", name, v.Debug())
	}
}

func diagError(t *testing.T, err error) *diag.Error {
	t.Helper()

	var de *diag.Error
	if !errors.As(err, &de) {
		t.Fatalf("expected *diag.Error, got %T: %v", err, err)
	}

	return de
}

func TestArithmeticScript(t *testing.T) {
	it, _ := mustRun(t, script(
		"x = 10",
		"y = 20",
		"result = x + y",
	))

	expectVar(t, it, "result", state.Number(30))
	if it.State().CallDepth() != 0 || it.State().ScopeDepth() != 0 {
		t.Errorf("call stack should be empty after the run")
	}
}

func TestJumpSkipsLines(t *testing.T) {
	it, _ := mustRun(t, script(
		"a = 1",
		`jump("target")`,
		"skipped = 1",
		"*target",
		"b = 2",
	))

	expectVar(t, it, "a", state.Number(1))
	expectVar(t, it, "b", state.Number(2))
	expectUnbound(t, it, "skipped")
}

func TestCallAndRetAreLIFO(t *testing.T) {
	it, _ := mustRun(t, script(
		`trace = ""`,
		`call("a")`,
		`trace += "3"`,
		`jump("end")`,
		"*a",
		`trace += "1"`,
		`call("b")`,
		`trace += "2"`,
		"ret()",
		"*b",
		`trace += "b"`,
		"ret()",
		"*end",
	))

	expectVar(t, it, "trace", state.String("1b23"))
}

func TestRetErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"empty stack", "ret()", "empty call stack"},
		{"inside function", script("def f() {", "  ret()", "}", "f()"), "use return"},
		{"unknown label", `jump("nowhere")`, "undefined label 'nowhere'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runScript(t, engine.NewRecorder(), tt.src)
			de := diagError(t, err)
			if !strings.Contains(de.Message, tt.msg) {
				t.Errorf("message %q should contain %q", de.Message, tt.msg)
			}
		})
	}
}

func TestMoodFunction(t *testing.T) {
	it, _ := mustRun(t, script(
		"def mood(a) {",
		"  if (a >= 8) {",
		`    return "happy"`,
		"  }",
		"  if (a >= 4) {",
		`    return "normal"`,
		"  }",
		`  return "sad"`,
		"}",
		"m1 = mood(9)",
		"m2 = mood(5)",
		"m3 = mood(2)",
	))

	expectVar(t, it, "m1", state.String("happy"))
	expectVar(t, it, "m2", state.String("normal"))
	expectVar(t, it, "m3", state.String("sad"))
}

func TestRecursion(t *testing.T) {
	it, _ := mustRun(t, script(
		"def fact(n) {",
		"  if (n <= 1) {",
		"    return 1",
		"  }",
		"  return n * fact(n - 1)",
		"}",
		"def quadruple(n) {",
		"  return double(double(n))",
		"}",
		"def double(n) {",
		"  return n * 2",
		"}",
		"f = fact(5)",
		"q = quadruple(3)",
	))

	expectVar(t, it, "f", state.Number(120))
	expectVar(t, it, "q", state.Number(12))
}

func TestRecursionLimit(t *testing.T) {
	depth := script(
		"def down(n) {",
		"  if (n <= 1) {",
		"    return 1",
		"  }",
		"  return down(n - 1) + 1",
		"}",
	)

	it, _ := mustRun(t, depth+"\nr = down(16)")
	expectVar(t, it, "r", state.Number(16))

	_, err := runScript(t, engine.NewRecorder(), depth+"\nr = down(17)")
	de := diagError(t, err)
	if de.Type != diag.StackOverflow {
		t.Fatalf("expected StackOverflow, got %s", de.Type)
	}
	if !strings.Contains(de.Message, "16") {
		t.Errorf("message should mention the limit: %q", de.Message)
	}
}

func TestUnboundedRecursion(t *testing.T) {
	rec := engine.NewRecorder()
	it, err := runScript(t, rec, script(
		"def f() {",
		"  return f()",
		"}",
		"f()",
	))

	de := diagError(t, err)
	if de.Type != diag.StackOverflow {
		t.Fatalf("expected StackOverflow, got %s", de.Type)
	}
	if got := it.State().RoutineDepth(); got != interpreter.MaxRecursionDepth {
		t.Errorf("expected %d active frames at the fault, got %d", interpreter.MaxRecursionDepth, got)
	}
	if len(de.Stack) != interpreter.MaxRecursionDepth+1 {
		t.Errorf("stack trace should list every frame plus the current context, got %d", len(de.Stack))
	}
}

func TestFunctionScoping(t *testing.T) {
	it, _ := mustRun(t, script(
		"score = 1",
		"n = 100",
		"sub bump(n) {",
		"  score = score + n",
		"  temp = 5",
		"}",
		"bump(2)",
	))

	expectVar(t, it, "score", state.Number(3))
	expectVar(t, it, "n", state.Number(100))
	// unbound names assigned inside a routine become globals
	expectVar(t, it, "temp", state.Number(5))
}

func TestRoutineErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		typ  diag.ErrorType
		msg  string
	}{
		{
			"argument count",
			script("def f(a) {", "  return a", "}", "x = f(1, 2)"),
			diag.RuntimeError, "f expects 1 argument(s), got 2",
		},
		{
			"return at top level",
			"return 1",
			diag.RuntimeError, "return outside of a function",
		},
		{
			"subroutine returning a value",
			script("sub s() {", "  return 1", "}", "s()"),
			diag.RuntimeError, "cannot return a value",
		},
		{
			"builtin in expression",
			`x = bg("a")`,
			diag.RuntimeError, "does not return a value",
		},
		{
			"division by zero",
			"x = 1 / 0",
			diag.RuntimeError, "division by zero",
		},
		{
			"type error",
			`x = "a" * 2`,
			diag.TypeError, "expects numbers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runScript(t, engine.NewRecorder(), tt.src)
			de := diagError(t, err)
			if de.Type != tt.typ {
				t.Errorf("type = %s, want %s", de.Type, tt.typ)
			}
			if !strings.Contains(de.Message, tt.msg) {
				t.Errorf("message %q should contain %q", de.Message, tt.msg)
			}
		})
	}
}

func TestSubroutineReturnsNull(t *testing.T) {
	it, _ := mustRun(t, script(
		"sub s() {",
		"  return",
		"  never = 1",
		"}",
		"x = s()",
	))

	expectVar(t, it, "x", state.Null())
	expectUnbound(t, it, "never")
}

func TestIfElseChain(t *testing.T) {
	chain := script(
		"if (n > 10) {",
		`  r = "big"`,
		"} else if (n > 5) {",
		`  r = "medium"`,
		"} else {",
		`  r = "small"`,
		"}",
		"after = 1",
	)

	tests := []struct {
		n    float64
		want string
	}{
		{20, "big"},
		{7, "medium"},
		{1, "small"},
	}

	for _, tt := range tests {
		it, _ := mustRun(t, "n = "+state.FormatNumber(tt.n)+"\n"+chain)
		expectVar(t, it, "r", state.String(tt.want))
		expectVar(t, it, "after", state.Number(1))
	}
}

func TestNestedBlocksAndDialogue(t *testing.T) {
	it, rec := mustRun(t, script(
		"a = 1",
		"if (a == 1) {",
		"  #Aoi",
		"  a closing } brace",
		"  #",
		"  if (a > 5) {",
		"    inner = 1",
		"  } else {",
		"    inner = 2",
		"  }",
		"}",
		"done = true",
	))

	expectVar(t, it, "inner", state.Number(2))
	expectVar(t, it, "done", state.Bool(true))

	if len(rec.Dialogues) != 1 || rec.Dialogues[0].Speaker != "Aoi" {
		t.Fatalf("unexpected dialogues: %+v", rec.Dialogues)
	}
}

func TestCallInsideBlock(t *testing.T) {
	it, _ := mustRun(t, script(
		"if (true) {",
		`  call("side")`,
		"  x = 1",
		"} else {",
		"  w = 1",
		"}",
		"y = 2",
		`jump("end")`,
		"*side",
		"z = 3",
		"ret()",
		"*end",
	))

	expectVar(t, it, "x", state.Number(1))
	expectVar(t, it, "y", state.Number(2))
	expectVar(t, it, "z", state.Number(3))
	expectUnbound(t, it, "w")
}

func TestJumpInsideBlockAbandonsChain(t *testing.T) {
	it, _ := mustRun(t, script(
		"if (true) {",
		`  jump("out")`,
		"  never = 1",
		"} else {",
		"  never = 2",
		"}",
		"*out",
		"ok = 1",
	))

	expectUnbound(t, it, "never")
	expectVar(t, it, "ok", state.Number(1))
}

func TestChoice(t *testing.T) {
	menu := script(
		"choice {",
		`  "Fight" if (hp > 5) {`,
		`    picked = "fight"`,
		"  }",
		`  "Run" {`,
		`    picked = "run"`,
		"  }",
		`  "Hide" if (false) {`,
		`    picked = "hide"`,
		"  }",
		"}",
		"after = 1",
	)

	tests := []struct {
		name    string
		hp      string
		choose  int
		options []string
		want    string
	}{
		{"all visible", "10", 1, []string{"Fight", "Run"}, "run"},
		{"filtered", "1", 0, []string{"Run"}, "run"},
		{"first", "10", 0, []string{"Fight", "Run"}, "fight"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := engine.NewRecorder().QueueChoices(tt.choose)
			it, err := runScript(t, rec, "hp = "+tt.hp+"\n"+menu)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}

			if len(rec.Choices) != 1 || !slices.Equal(rec.Choices[0].Options, tt.options) {
				t.Fatalf("presented %+v, want %v", rec.Choices, tt.options)
			}
			expectVar(t, it, "picked", state.String(tt.want))
			expectVar(t, it, "after", state.Number(1))
		})
	}
}

func TestChoiceWithoutVisibleOptions(t *testing.T) {
	_, err := runScript(t, engine.NewRecorder(), script(
		"choice {",
		`  "Never" if (false) {`,
		"    x = 1",
		"  }",
		"}",
	))

	de := diagError(t, err)
	if de.Type != diag.RuntimeError || de.Line != 1 {
		t.Errorf("expected a RuntimeError on line 1, got %s on line %d", de.Type, de.Line)
	}
}

func TestInterpolation(t *testing.T) {
	_, rec := mustRun(t, script(
		"a = 1",
		"b = 2",
		"#Aoi",
		"{a} and {b}",
		"#",
	))

	d, ok := rec.LastDialogue()
	if !ok || len(d.Lines) != 1 || d.Lines[0] != "1 and 2" {
		t.Fatalf("unexpected dialogue %+v", d)
	}

	_, err := runScript(t, engine.NewRecorder(), script("#Aoi", "{missing}", "#"))
	de := diagError(t, err)
	if de.Type != diag.ReferenceError || !strings.Contains(de.Message, "missing") || de.Line != 2 {
		t.Errorf("expected a ReferenceError naming missing on line 2, got %s on %d: %s", de.Type, de.Line, de.Message)
	}
}

func TestSuggestions(t *testing.T) {
	_, err := runScript(t, engine.NewRecorder(), script(
		"affection = 5",
		"x = afection + 1",
	))

	de := diagError(t, err)
	if de.Type != diag.ReferenceError || de.Line != 2 {
		t.Fatalf("expected ReferenceError on line 2, got %s on %d", de.Type, de.Line)
	}
	if !slices.Contains(de.Suggestions, "affection") {
		t.Errorf("suggestions %v should contain affection", de.Suggestions)
	}
	if !strings.Contains(de.Context, "→ 2: x = afection + 1") {
		t.Errorf("context should mark the faulting line:\n%s", de.Context)
	}

	_, err = runScript(t, engine.NewRecorder(), script(
		"sub greet() {",
		"}",
		"gret()",
	))

	de = diagError(t, err)
	if !slices.Contains(de.Suggestions, "greet") {
		t.Errorf("suggestions %v should contain greet", de.Suggestions)
	}
}

func TestStackTrace(t *testing.T) {
	_, err := runScript(t, engine.NewRecorder(), script(
		"def bad() {",
		"  return nope",
		"}",
		"x = bad()",
	))

	de := diagError(t, err)
	want := []diag.Frame{
		{Function: "bad", Line: 2},
		{Function: "<main>", Line: 4},
	}
	if !slices.Equal(de.Stack, want) {
		t.Errorf("stack = %+v, want %+v", de.Stack, want)
	}
}

func TestBuiltins(t *testing.T) {
	_, rec := mustRun(t, script(
		`bg("forest", "fade")`,
		`ch("aoi", "smile", "left", 300)`,
		`bgm("theme", 80)`,
		`se("click")`,
		"wait(500)",
		"waitclick()",
		`ch_move("aoi", "right", 200)`,
		"bgm_stop(1000)",
		`timeline_play("op")`,
		`voice("v01")`,
		`ch_hide("aoi")`,
	))

	want := []string{
		"SetBackground", "ShowCharacter", "PlayBGM", "PlaySE", "Wait", "WaitForClick",
		"MoveCharacter", "FadeBGM", "PlayTimeline", "PlayVoice", "HideCharacter",
	}
	if got := rec.Methods(); !slices.Equal(got, want) {
		t.Fatalf("methods = %v, want %v", got, want)
	}

	if rec.Background != "forest" || rec.Waited != 500*time.Millisecond || rec.Clicks != 1 {
		t.Errorf("unexpected stage state: bg=%q waited=%v clicks=%d", rec.Background, rec.Waited, rec.Clicks)
	}
	if args := rec.Calls[3].Args; !slices.Equal(args, []string{"click", "100"}) {
		t.Errorf("se should default the volume, got %v", args)
	}
	if args := rec.Calls[1].Args; !slices.Equal(args, []string{"aoi", "smile", "left", "300"}) {
		t.Errorf("unexpected ch arguments %v", args)
	}
}

func TestBuiltinArgumentErrors(t *testing.T) {
	for _, src := range []string{"bg()", `wait("soon")`} {
		_, err := runScript(t, engine.NewRecorder(), src)
		if de := diagError(t, err); de.Type != diag.RuntimeError {
			t.Errorf("%s: expected RuntimeError, got %s", src, de.Type)
		}
	}
}

func TestBattle(t *testing.T) {
	src := script(
		`battle("slime", "won", "lost")`,
		`result = "none"`,
		`jump("end")`,
		"*won",
		`result = "win"`,
		`jump("end")`,
		"*lost",
		`result = "lose"`,
		"*end",
	)

	for _, outcome := range []engine.BattleResult{engine.BattleWin, engine.BattleLose} {
		rec := engine.NewRecorder().QueueBattles(outcome)
		it, err := runScript(t, rec, src)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		expectVar(t, it, "result", state.String(string(outcome)))
	}

	it, _ := mustRun(t, script(`battle("slime")`, `result = "continued"`))
	expectVar(t, it, "result", state.String("continued"))
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		typ  diag.ErrorType
	}{
		{"reserved name", script("def bg(x) {", "}"), diag.RuntimeError},
		{"duplicate routine", script("def f() {", "}", "sub f() {", "}"), diag.SyntaxError},
		{"duplicate label", script("*a", "*a"), diag.SyntaxError},
		{"unterminated definition", script("def f() {", "x = 1"), diag.SyntaxError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := interpreter.New(engine.NewRecorder(), quiet())
			de := diagError(t, it.Load(tt.src))
			if de.Type != tt.typ {
				t.Errorf("type = %s, want %s", de.Type, tt.typ)
			}
		})
	}
}

func TestUnterminatedBlock(t *testing.T) {
	_, err := runScript(t, engine.NewRecorder(), script("if (true) {", "a = 1"))

	de := diagError(t, err)
	if de.Type != diag.SyntaxError || de.Line != 1 {
		t.Errorf("expected SyntaxError on line 1, got %s on line %d", de.Type, de.Line)
	}
}

func TestStopAndResume(t *testing.T) {
	it := interpreter.New(engine.NewRecorder(), quiet())
	if err := it.Load(script("a = 1", "b = 2")); err != nil {
		t.Fatal(err)
	}

	it.Stop()
	if err := it.Run(context.Background()); err != nil {
		t.Fatalf("stopped run should not fail: %v", err)
	}
	expectUnbound(t, it, "a")

	if err := it.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	expectVar(t, it, "b", state.Number(2))
}

// hookEngine runs onWait before each wait() so a test can act while a routine is active
type hookEngine struct {
	*engine.Recorder
	onWait func()
}

func (e *hookEngine) Wait(ctx context.Context, d time.Duration) error {
	if e.onWait != nil {
		e.onWait()
	}
	return e.Recorder.Wait(ctx, d)
}

func TestStopInsideFunction(t *testing.T) {
	eng := &hookEngine{Recorder: engine.NewRecorder()}
	it := interpreter.New(eng, quiet())
	if err := it.Load(script(
		"def f(n) {",
		"  wait(1)",
		"  return n * 2",
		"}",
		"r = f(3)",
		"q = f(5)",
		"if (true) {",
		"  a = 1",
		"  b = 2",
		"}",
	)); err != nil {
		t.Fatal(err)
	}

	var targets []string
	eng.onWait = func() {
		if f, ok := it.State().PeekFrame(); ok {
			targets = append(targets, f.ReturnVar)
		}
		if len(targets) == 1 {
			it.Stop()
		}
	}

	ctx := context.Background()
	if err := it.Run(ctx); err != nil {
		t.Fatalf("stopped run should not fail: %v", err)
	}

	expectVar(t, it, "r", state.Number(6))
	expectUnbound(t, it, "q")
	if d, s := it.State().CallDepth(), it.State().ScopeDepth(); d != 0 || s != 0 {
		t.Fatalf("stop left %d frames and %d scopes", d, s)
	}

	if err := it.Run(ctx); err != nil {
		t.Fatalf("resumed run: %v", err)
	}

	expectVar(t, it, "q", state.Number(10))
	expectVar(t, it, "b", state.Number(2))

	if got := eng.Methods(); !slices.Equal(got, []string{"Wait", "Wait"}) {
		t.Errorf("expected two waits, got %v", got)
	}
	if !slices.Equal(targets, []string{"r", "q"}) {
		t.Errorf("expected return targets [r q], got %v", targets)
	}
	if d, s := it.State().CallDepth(), it.State().ScopeDepth(); d != 0 || s != 0 {
		t.Errorf("finished run left %d frames and %d scopes", d, s)
	}
}

func TestFaultIsTerminal(t *testing.T) {
	ctx := context.Background()

	it, err := runScript(t, engine.NewRecorder(), script("x = 1 / 0", "y = 2"))
	diagError(t, err)

	err = it.Run(ctx)
	if !errors.Is(err, interpreter.ErrFaulted) {
		t.Fatalf("expected ErrFaulted, got %v", err)
	}
	if de := diagError(t, err); de.Line != 1 {
		t.Errorf("expected the original fault on line 1, got line %d", de.Line)
	}
	if halted, _ := it.Step(ctx); !halted {
		t.Error("a faulted interpreter must stay halted")
	}
	expectUnbound(t, it, "y")

	it.Reset()
	if err := it.Run(ctx); err == nil || errors.Is(err, interpreter.ErrFaulted) {
		t.Errorf("after Reset the script should run and fault again, got %v", err)
	}
}

func TestReservedWordAssignment(t *testing.T) {
	for _, word := range []string{"while", "sub", "def", "choice"} {
		_, err := runScript(t, engine.NewRecorder(), script("x = 1", word+" = 2"))

		de := diagError(t, err)
		if de.Type != diag.SyntaxError || de.Line != 2 || !strings.Contains(de.Message, "'"+word+"' is a reserved word") {
			t.Errorf("%s: got %s on line %d: %s", word, de.Type, de.Line, de.Message)
		}
	}
}

func TestDuplicateDefinitionLines(t *testing.T) {
	it := interpreter.New(engine.NewRecorder(), quiet())
	de := diagError(t, it.Load(script("x = 1", "", "def f() {", "}", "sub f() {", "}")))

	if de.Line != 5 || !strings.Contains(de.Message, "already defined on line 3") {
		t.Errorf("expected a duplicate on line 5 pointing at line 3, got line %d: %s", de.Line, de.Message)
	}
}

func TestCancellation(t *testing.T) {
	it := interpreter.New(engine.NewRecorder(), quiet())
	if err := it.Load("a = 1"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := it.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMaxSteps(t *testing.T) {
	_, err := runScript(t, engine.NewRecorder(), script("*loop", `jump("loop")`), interpreter.WithMaxSteps(50))
	if !errors.Is(err, interpreter.ErrMaxStepsExceeded) {
		t.Errorf("expected ErrMaxStepsExceeded, got %v", err)
	}
}

func TestRunWithoutLoad(t *testing.T) {
	it := interpreter.New(engine.NewRecorder(), quiet())
	if err := it.Run(context.Background()); !errors.Is(err, interpreter.ErrNotLoaded) {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
}

func TestSnapshotRestore(t *testing.T) {
	src := script("a = 1", "b = 2", "c = a + b")

	first := interpreter.New(engine.NewRecorder(), quiet())
	if err := first.Load(src); err != nil {
		t.Fatal(err)
	}

	for range 2 {
		if _, err := first.Step(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	snap, err := first.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.PC != 2 || len(snap.Variables) != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	second := interpreter.New(engine.NewRecorder(), quiet())
	if err := second.Load(src); err != nil {
		t.Fatal(err)
	}
	if err := second.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if err := second.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	expectVar(t, second, "c", state.Number(3))

	if err := second.Restore(interpreter.Snapshot{PC: 99}); err == nil {
		t.Errorf("restoring past the end should fail")
	}
}

func TestDebuggerIntegration(t *testing.T) {
	d := debugger.New(
		debugger.WithLogger(log.New(io.Discard)),
		debugger.WithEnabled(true),
		debugger.WithTrace(true),
		debugger.WithWatch("x"),
	)
	d.AddBreakpoint(6, "x > 1")

	var events []debugger.Event
	d.Subscribe(func(ev debugger.Event) error {
		events = append(events, ev)
		if ev.Type == debugger.BreakpointHit {
			d.Continue()
		}
		return nil
	})

	_, err := runScript(t, engine.NewRecorder(), script(
		"def twice(n) {",
		"  return n * 2",
		"}",
		"x = 1",
		"x = twice(x)",
		"y = x",
	), interpreter.WithDebugger(d))
	if err != nil {
		t.Fatal(err)
	}

	hist := d.History("x")
	if len(hist) != 2 || hist[1].New.Num != 2 || hist[1].Line != 5 {
		t.Fatalf("unexpected history %+v", hist)
	}

	var types []debugger.EventType
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	want := []debugger.EventType{
		debugger.VariableChanged,
		debugger.FunctionCall,
		debugger.FunctionReturn,
		debugger.VariableChanged,
		debugger.BreakpointHit,
	}
	if !slices.Equal(types, want) {
		t.Errorf("events = %v, want %v", types, want)
	}

	trace := d.TraceLog()
	if len(trace) != 4 || !strings.HasSuffix(trace[1], "[Line 5] call twice(1)") {
		t.Errorf("unexpected trace %q", trace)
	}
}
