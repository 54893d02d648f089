package parser

import (
	"strings"
)

type LineType int

const (
	LineEmpty LineType = iota
	LineDialogueStart
	LineDialogueEnd
	LineLabel
	LineComment
	LineExpression
)

var lineTypeNames = map[LineType]string{
	LineEmpty:         "Empty",
	LineDialogueStart: "DialogueStart",
	LineDialogueEnd:   "DialogueEnd",
	LineLabel:         "Label",
	LineComment:       "Comment",
	LineExpression:    "Expression",
}

func (t LineType) String() string {
	return lineTypeNames[t]
}

// SplitLines breaks a script into lines, accepting \n and \r\n endings
func SplitLines(script string) []string {
	script = strings.ReplaceAll(script, "\r\n", "\n")
	return strings.Split(script, "\n")
}

// ClassifyLine returns the type of a line. Surrounding whitespace is ignored.
func ClassifyLine(line string) LineType {
	line = strings.TrimSpace(line)

	switch {
	case line == "":
		return LineEmpty
	case line == "#":
		return LineDialogueEnd
	case line[0] == '#':
		return LineDialogueStart
	case line[0] == '*':
		return LineLabel
	case strings.HasPrefix(line, "//"):
		return LineComment
	default:
		return LineExpression
	}
}

// LabelName extracts the name from a `*name` line
func LabelName(line string) string {
	return strings.TrimSpace(strings.TrimSpace(line)[1:])
}

// Speaker extracts the speaker from a `#speaker` line; narration has an empty speaker
func Speaker(line string) string {
	return strings.TrimSpace(strings.TrimSpace(line)[1:])
}

// FindDialogueEnd returns the index of the `#` line closing the dialogue block opened at start
func FindDialogueEnd(lines []string, start int) (int, bool) {
	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "#" {
			return i, true
		}
	}

	return -1, false
}

// FindBlockEnd returns the index of the line closing the first brace opened at or after start.
// Dialogue bodies, comments and quoted text are not counted, and closing braces seen
// before the first opening one (as in `} else {`) belong to an outer block.
func FindBlockEnd(lines []string, start int) (int, error) {
	depth := 0
	opened := false

	for i := start; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		switch ClassifyLine(line) {
		case LineDialogueStart:
			end, ok := FindDialogueEnd(lines, i)
			if !ok {
				return -1, errorAt(i, "unterminated dialogue block")
			}
			i = end
			continue
		case LineComment, LineEmpty:
			continue
		}

		closed := false
		scanCode(line, func(_ int, ch rune) {
			switch {
			case closed:
			case ch == '{':
				depth++
				opened = true
			case ch == '}' && opened:
				depth--
				closed = depth == 0
			}
		})

		if closed {
			return i, nil
		}
	}

	return -1, errorAt(start, "unterminated block")
}

// BuildLabelMap indexes every `*label` line outside dialogue bodies
func BuildLabelMap(lines []string) (map[string]int, error) {
	labels := make(map[string]int)

	for i := 0; i < len(lines); i++ {
		switch ClassifyLine(lines[i]) {
		case LineDialogueStart:
			end, ok := FindDialogueEnd(lines, i)
			if !ok {
				return nil, errorAt(i, "unterminated dialogue block")
			}
			i = end

		case LineLabel:
			name := LabelName(lines[i])
			if name == "" {
				return nil, errorAt(i, "label without a name")
			}
			if prev, dup := labels[name]; dup {
				return nil, errorAt(i, "label '%s' already declared on line %d", name, prev+1)
			}
			labels[name] = i
		}
	}

	return labels, nil
}
