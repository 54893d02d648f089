package diag

import (
	"errors"
	"strings"

	"ksc/pkg/color"
)

// Render formats err for a terminal. Errors that are not *Error are printed as is.
func Render(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return color.BrightRedText(err.Error())
	}

	parts := []string{color.BoldText(color.BrightRedText(e.Header()))}

	if len(e.Stack) > 0 {
		parts = append(parts, color.GrayText(FormatStackTrace(e.Stack)))
	}

	if e.Context != "" {
		parts = append(parts, "")
		for line := range strings.SplitSeq(e.Context, "\n") {
			if strings.HasPrefix(line, "→") {
				parts = append(parts, color.YellowText(line))
			} else {
				parts = append(parts, color.GrayText(line))
			}
		}
	}

	if hint := e.HintText(); hint != "" {
		parts = append(parts, "", color.GreenText(hint))
	}

	return strings.Join(parts, "\n")
}
