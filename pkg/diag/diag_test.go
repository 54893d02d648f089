package diag_test

import (
	"errors"
	"ksc/pkg/color"
	"ksc/pkg/diag"
	"strings"
	"testing"
)

func TestSuggestSimilar(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		expected   []string
	}{
		{"afection", []string{"affection", "money", "flag"}, []string{"affection"}},
		{"cnt", []string{"count", "cat", "cut", "cnt2", "x"}, []string{"cat", "cut", "cnt2"}},
		{"ab", []string{"xy"}, []string{}},
		{"score", []string{"scores", "core", "scare", "store", "snore"}, []string{"scores", "core", "scare"}},
	}

	for _, test := range tests {
		got := diag.SuggestSimilar(test.name, test.candidates)
		if strings.Join(got, ",") != strings.Join(test.expected, ",") {
			t.Errorf("%s: expected %v, got %v", test.name, test.expected, got)
		}
	}
}

func TestGenerateContext(t *testing.T) {
	script := "a = 1\nb = 2\nc = x\nd = 4\ne = 5\nf = 6"

	got := diag.GenerateContext(script, 3, 2)
	want := "  1: a = 1\n  2: b = 2\n→ 3: c = x\n  4: d = 4\n  5: e = 5"
	if got != want {
		t.Errorf("expected\n%s\ngot\n%s", want, got)
	}

	got = diag.GenerateContext(script, 6, 1)
	want = "  5: e = 5\n→ 6: f = 6"
	if got != want {
		t.Errorf("expected\n%s\ngot\n%s", want, got)
	}
}

func TestFormat(t *testing.T) {
	stack := []diag.Frame{{Function: "<main>", Line: 3}, {Function: "def mood", Line: 1, Column: 4}}
	e := diag.NewReferenceError("afection", 3, []string{"affection"}, stack, "x = 1\ny = 2\nz = afection")

	out := e.Error()
	for _, want := range []string{
		"[KNF ReferenceError] Line 3: undefined variable 'afection'",
		"  at <main> (line 3)",
		"  at def mood (line 1:4)",
		"→ 3: z = afection",
		"Hint: did you mean 'affection'?",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("formatted error is missing %q:\n%s", want, out)
		}
	}
}

func TestStackOverflowError(t *testing.T) {
	e := diag.NewStackOverflowError(2, 16, nil)
	if e.Type != diag.StackOverflow || !strings.Contains(e.Message, "16") {
		t.Errorf("unexpected error %+v", e)
	}
	if len(e.Suggestions) != 0 || len(e.Hints) != 2 {
		t.Errorf("stack overflow carries two fixed hints and no suggestions, got %+v", e)
	}
	if e.Context != "" {
		t.Error("stack overflow has no context window")
	}
}

func TestRender(t *testing.T) {
	color.EnableColor(false)

	cause := errors.New("boom")
	e := diag.NewRuntimeError("division by zero", 1, nil, "x = 1 / 0")
	e.Err = cause

	if !errors.Is(e, cause) {
		t.Error("Error must unwrap to its cause")
	}

	if got := diag.Render(e); got != e.Error() {
		t.Errorf("uncolored rendering should match Error():\n%s\n---\n%s", got, e.Error())
	}

	if got := diag.Render(cause); got != "boom" {
		t.Errorf("expected plain message, got %q", got)
	}
}
