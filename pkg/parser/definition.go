package parser

import (
	"regexp"
	"strings"

	"ksc/pkg/state"
)

var funcDefRegex = regexp.MustCompile(`^(def|sub)\s+(\w+)\s*\(([^)]*)\)\s*\{$`)

// ParseFunctionDef parses the `def name(a, b) {` or `sub name() {` declaration at start.
// It returns the definition and the index of its closing brace.
func ParseFunctionDef(lines []string, start int) (state.FunctionDef, int, error) {
	line := strings.TrimSpace(lines[start])

	m := funcDefRegex.FindStringSubmatch(line)
	if m == nil {
		return state.FunctionDef{}, -1, errorAt(start, "malformed function declaration")
	}

	if err := ReservedName(start, m[2]); err != nil {
		return state.FunctionDef{}, -1, err
	}

	def := state.FunctionDef{
		Name:       m[2],
		Header:     start,
		Subroutine: m[1] == "sub",
	}

	if params := strings.TrimSpace(m[3]); params != "" {
		seen := make(map[string]bool)
		for p := range strings.SplitSeq(params, ",") {
			p = strings.TrimSpace(p)
			if err := ReservedName(start, p); err != nil {
				return state.FunctionDef{}, -1, err
			}
			if !IsIdentifier(p) {
				return state.FunctionDef{}, -1, errorAt(start, "invalid parameter name '%s' in %s", p, def.Name)
			}
			if seen[p] {
				return state.FunctionDef{}, -1, errorAt(start, "duplicate parameter '%s' in %s", p, def.Name)
			}
			seen[p] = true
			def.Params = append(def.Params, p)
		}
	}

	end, err := FindBlockEnd(lines, start)
	if err != nil {
		return state.FunctionDef{}, -1, err
	}

	def.BodyStart = start + 1
	def.BodyEnd = end - 1

	return def, end, nil
}

// Definitions collects every def and sub declared outside dialogue bodies, in source order
func Definitions(lines []string) ([]state.FunctionDef, error) {
	var defs []state.FunctionDef

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		switch ClassifyLine(line) {
		case LineDialogueStart:
			end, ok := FindDialogueEnd(lines, i)
			if !ok {
				return nil, errorAt(i, "unterminated dialogue block")
			}
			i = end

		case LineExpression:
			if !IsDefinition(line) {
				continue
			}

			def, _, err := ParseFunctionDef(lines, i)
			if err != nil {
				return nil, err
			}
			defs = append(defs, def)
		}
	}

	return defs, nil
}
