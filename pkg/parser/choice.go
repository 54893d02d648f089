package parser

import (
	"regexp"
	"strings"
)

var choiceOptionRegex = regexp.MustCompile(`^"([^"]+)"\s*(?:if\s*\((.+)\))?\s*\{$`)

// Choice is a parsed `choice { ... }` construct
type Choice struct {
	Start   int // index of the `choice {` line
	End     int // index of the closing `}`
	Options []Option
}

// Option is one player-selectable branch of a choice
type Option struct {
	Text      string
	Condition string // empty when the option is always visible
	Line      int    // index of the option header
	BodyStart int    // first body line
	End       int    // index of the option's closing brace
}

// ParseChoice parses the choice construct opened at start
func ParseChoice(lines []string, start int) (Choice, error) {
	if !IsChoice(strings.TrimSpace(lines[start])) {
		return Choice{}, errorAt(start, "malformed choice header")
	}

	c := Choice{Start: start}

	for i := start + 1; i < len(lines); {
		line := strings.TrimSpace(lines[i])

		switch ClassifyLine(line) {
		case LineEmpty, LineComment:
			i++
			continue
		}

		if line == "}" {
			c.End = i
			return c, nil
		}

		m := choiceOptionRegex.FindStringSubmatch(line)
		if m == nil {
			return Choice{}, errorAt(i, "malformed choice option")
		}

		end, err := FindBlockEnd(lines, i)
		if err != nil {
			return Choice{}, err
		}

		c.Options = append(c.Options, Option{
			Text:      m[1],
			Condition: strings.TrimSpace(m[2]),
			Line:      i,
			BodyStart: i + 1,
			End:       end,
		})

		i = end + 1
	}

	return Choice{}, errorAt(start, "unterminated choice block")
}
