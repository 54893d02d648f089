package eval

import (
	"context"
	"regexp"
	"strings"

	"ksc/pkg/state"
)

var interpolationRegex = regexp.MustCompile(`\{([^}]+)\}`)

// Interpolate replaces every {expr} span in text with the rendered value of expr.
// Spans are substituted right to left so earlier offsets stay valid.
func (e *Evaluator) Interpolate(ctx context.Context, text string, st *state.GameState) (string, error) {
	matches := interpolationRegex.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	out := text
	for k := len(matches) - 1; k >= 0; k-- {
		m := matches[k]
		span := text[m[0]:m[1]]
		expr := strings.TrimSpace(text[m[2]:m[3]])

		v, err := e.Evaluate(ctx, expr, st)
		if err != nil {
			return "", &InterpolationError{Span: span, Err: err}
		}

		out = out[:m[0]] + Render(v) + out[m[1]:]
	}

	return out, nil
}

// Render formats a value for display inside text
func Render(v state.Value) string {
	switch v.Kind {
	case state.KindNull:
		return ""
	case state.KindNumber, state.KindBool, state.KindString:
		return v.String()
	default:
		return v.Debug()
	}
}
