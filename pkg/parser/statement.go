package parser

import (
	"regexp"
	"strings"

	"ksc/pkg/lexer"
)

var (
	ifRegex       = regexp.MustCompile(`^if\s*\((.+)\)\s*\{$`)
	elseIfRegex   = regexp.MustCompile(`^\}\s*else\s+if\s*\((.+)\)\s*\{$`)
	elseRegex     = regexp.MustCompile(`^\}\s*else\s*\{$`)
	elseHeadRegex = regexp.MustCompile(`^\}\s*else\b`)
	returnRegex   = regexp.MustCompile(`^return\b\s*(.*)$`)
	choiceRegex   = regexp.MustCompile(`^choice\s*\{$`)
	defRegex      = regexp.MustCompile(`^(def|sub)\s+[A-Za-z_]`)
	callRegex     = regexp.MustCompile(`^([A-Za-z_]\w*)\s*\(`)
	assignRegex   = regexp.MustCompile(`^([A-Za-z_]\w*)\s*([-+*/]?=)(.*)$`)
	identRegex    = regexp.MustCompile(`^[A-Za-z_]\w*$`)
)

// IsIf reports whether the line opens an if statement (well-formed or not)
func IsIf(line string) bool {
	return line == "if" || strings.HasPrefix(line, "if ") || strings.HasPrefix(line, "if(")
}

// IfCondition extracts the condition of an `if (cond) {` header
func IfCondition(line string) (string, bool) {
	if m := ifRegex.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), true
	}

	return "", false
}

// ElseIfCondition extracts the condition of a `} else if (cond) {` line
func ElseIfCondition(line string) (string, bool) {
	if m := elseIfRegex.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), true
	}

	return "", false
}

// IsElse matches `} else {`
func IsElse(line string) bool {
	return elseRegex.MatchString(line)
}

// IsElseHeader matches any line continuing an if chain: `} else ...`
func IsElseHeader(line string) bool {
	return elseHeadRegex.MatchString(line)
}

// ReturnExpr matches `return` and `return expr`
func ReturnExpr(line string) (string, bool) {
	m := returnRegex.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}

	return strings.TrimSpace(m[1]), true
}

// IsChoice matches a `choice {` header
func IsChoice(line string) bool {
	return choiceRegex.MatchString(line)
}

// IsDefinition reports whether the line starts a def or sub declaration
func IsDefinition(line string) bool {
	return defRegex.MatchString(line)
}

// IsIdentifier checks the identifier grammar. Reserved words are not identifiers.
func IsIdentifier(s string) bool {
	return identRegex.MatchString(s) && !lexer.IsKeyword(s)
}

// ReservedName rejects a reserved word used as a name on the line at index
func ReservedName(index int, name string) error {
	if lexer.IsKeyword(name) {
		return errorAt(index, "'%s' is a reserved word and cannot be used as a name", name)
	}

	return nil
}

// SplitCall splits `name(args)` when the whole line is one call. The parenthesis after name
// must be the one closed by the final character, so `f(1) + g(2)` is not a call.
func SplitCall(line string) (name, args string, ok bool) {
	line = strings.TrimSpace(line)

	m := callRegex.FindStringSubmatchIndex(line)
	if m == nil || !strings.HasSuffix(line, ")") {
		return "", "", false
	}

	open := m[1] - 1
	depth := 0
	closedEarly := false

	scanCode(line[open:], func(i int, ch rune) {
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && open+i != len(line)-1 {
				closedEarly = true
			}
		}
	})

	if closedEarly {
		return "", "", false
	}

	if depth != 0 {
		return "", "", false
	}

	return line[m[2]:m[3]], strings.TrimSpace(line[open+1 : len(line)-1]), true
}

// SplitAssignment matches `name op rhs` for = += -= *= /=, rejecting `==`
func SplitAssignment(line string) (name, op, rhs string, ok bool) {
	m := assignRegex.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", "", "", false
	}

	if m[2] == "=" && strings.HasPrefix(m[3], "=") {
		return "", "", "", false
	}

	return m[1], m[2], strings.TrimSpace(m[3]), true
}

// scanCode calls fn for every character of line that is not inside a quoted string
func scanCode(line string, fn func(i int, ch rune)) {
	var quote rune
	escaped := false

	for i, ch := range line {
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == quote:
				quote = 0
			}
			continue
		}

		if ch == '"' || ch == '\'' {
			quote = ch
			continue
		}

		fn(i, ch)
	}
}
