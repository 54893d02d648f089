package runner_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ksc/internal/config"
	"ksc/internal/runner"
	"ksc/internal/savedata"
	"ksc/pkg/color"
	"ksc/pkg/diag"
	"ksc/pkg/interpreter"
)

const story = `x = 1
#Aoi
before {x}
#
waitclick()
x = x + 1
#Aoi
after {x}
#
`

type answerPrompter struct{}

func (answerPrompter) Prompt(string) (string, error) { return "", nil }

// cancelPrompter cancels the run from inside a click wait
type cancelPrompter struct {
	cancel context.CancelFunc
}

func (p cancelPrompter) Prompt(string) (string, error) {
	p.cancel()
	return "", nil
}

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	color.EnableColor(false)
	dir := t.TempDir()

	var out bytes.Buffer
	r := runner.Runner{
		Config:     config.Defaults(),
		SourceFile: writeScript(t, dir, "story.ksc", story),
		Verbose:    true,
		Out:        &out,
	}

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, want := range []string{"before 1", "[click]", "after 2", "=== Variables ===", "x = 2"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output is missing %q:\n%s", want, out.String())
		}
	}
}

func TestInterruptedRunResumesFromSlot(t *testing.T) {
	color.EnableColor(false)
	dir := t.TempDir()
	path := writeScript(t, dir, "story.ksc", story)

	cfg := config.Defaults()
	cfg.Save.Database = filepath.Join(dir, "saves.db")
	cfg.Save.Slot = "auto"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var first bytes.Buffer
	r := runner.Runner{Config: cfg, SourceFile: path, Out: &first, Prompter: cancelPrompter{cancel}}
	if err := r.Run(ctx); err != nil {
		t.Fatalf("interrupted Run: %v", err)
	}
	if strings.Contains(first.String(), "after") {
		t.Fatalf("run continued past the interruption:\n%s", first.String())
	}

	cfg.Save.Slot = ""

	var second bytes.Buffer
	r = runner.Runner{Config: cfg, SourceFile: path, LoadSlot: "auto", Out: &second, Prompter: answerPrompter{}}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("resumed Run: %v", err)
	}

	if got := second.String(); strings.Contains(got, "before") || !strings.Contains(got, "after 2") {
		t.Errorf("unexpected resumed output:\n%s", got)
	}
}

func TestSlotFromAnotherScript(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cfg := config.Defaults()
	cfg.Save.Database = filepath.Join(dir, "saves.db")

	store, err := savedata.Open(ctx, cfg.Save.Database)
	if err != nil {
		t.Fatal(err)
	}
	err = store.Save(ctx, savedata.Slot{Name: "s1", Script: "other.ksc", Snapshot: interpreter.Snapshot{}})
	_ = store.Close()
	if err != nil {
		t.Fatal(err)
	}

	r := runner.Runner{Config: cfg, SourceFile: writeScript(t, dir, "story.ksc", story), LoadSlot: "s1", Out: &bytes.Buffer{}}
	if err := r.Run(ctx); err == nil || !strings.Contains(err.Error(), "was saved from other.ksc") {
		t.Errorf("expected a script mismatch error, got %v", err)
	}
}

func TestFaultIsNotSaved(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cfg := config.Defaults()
	cfg.Save.Database = filepath.Join(dir, "saves.db")
	cfg.Save.Slot = "auto"

	r := runner.Runner{Config: cfg, SourceFile: writeScript(t, dir, "bad.ksc", "x = missing + 1\n"), Out: &bytes.Buffer{}}

	err := r.Run(ctx)
	var de *diag.Error
	if !errors.As(err, &de) || de.Type != diag.ReferenceError {
		t.Fatalf("expected a ReferenceError, got %v", err)
	}

	store, err := savedata.Open(ctx, cfg.Save.Database)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, err := store.Load(ctx, "auto"); !errors.Is(err, savedata.ErrSlotNotFound) {
		t.Errorf("expected no saved slot, got %v", err)
	}
}

func TestDebugOutput(t *testing.T) {
	color.EnableColor(false)
	dir := t.TempDir()

	cfg := config.Defaults()
	cfg.Debug.Trace = true
	cfg.Debug.Watch = []string{"x"}
	cfg.Debug.Breakpoints = []config.Breakpoint{{Line: 6, Condition: "x == 1"}}

	var out bytes.Buffer
	r := runner.Runner{Config: cfg, SourceFile: writeScript(t, dir, "story.ksc", story), Out: &out}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, want := range []string{"● breakpoint line 6", "● watch x:", "=== Trace ===", "after 2"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output is missing %q:\n%s", want, out.String())
		}
	}
}
