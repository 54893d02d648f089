package color

import (
	"fmt"
	"sync"

	"github.com/muesli/termenv"
)

var (
	mu      sync.RWMutex
	profile = termenv.EnvColorProfile() // honours NO_COLOR and CLICOLOR_FORCE
)

// EnableColor switches styling on or off for the whole process
func EnableColor(enable bool) {
	mu.Lock()
	defer mu.Unlock()

	switch {
	case !enable:
		profile = termenv.Ascii
	case profile == termenv.Ascii:
		profile = termenv.ANSI
	}
}

// Colorize paints text with an ANSI color number ("1", "9", "245") or a "#rrggbb" value
func Colorize(color, text string) string {
	mu.RLock()
	p := profile
	mu.RUnlock()

	if p == termenv.Ascii {
		return text
	}
	return p.String(text).Foreground(p.Color(color)).String()
}

func RedText(text string) string {
	return Colorize("1", text)
}

func BrightRedText(text string) string {
	return Colorize("9", text)
}

func GreenText(text string) string {
	return Colorize("2", text)
}

func YellowText(text string) string {
	return Colorize("3", text)
}

func MagentaText(text string) string {
	return Colorize("5", text)
}

func CyanText(text string) string {
	return Colorize("6", text)
}

func GrayText(text string) string {
	return Colorize("8", text)
}

func BoldText(text string) string {
	mu.RLock()
	p := profile
	mu.RUnlock()

	if p == termenv.Ascii {
		return text
	}
	return p.String(text).Bold().String()
}

// Speaker formats a dialogue speaker name
func Speaker(name string) string {
	return BoldText(CyanText(name))
}

// Line formats a 1-based script line reference
func Line(line int) string {
	return YellowText(fmt.Sprintf("line %d", line))
}
