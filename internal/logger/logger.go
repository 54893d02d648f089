package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process logger
type Options struct {
	Verbose bool   // debug level
	Level   string // explicit level, wins over Verbose when set
	NoColor bool
	File    string // rotating log file, teed with stderr
}

// Init initializes the logger. The returned func closes the log file, if any.
func Init(opts Options) func() error {
	var (
		w       io.Writer = os.Stderr
		closeFn           = func() error { return nil }
	)

	if file := strings.TrimSpace(opts.File); file != "" {
		rotating := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		w = io.MultiWriter(os.Stderr, rotating)
		closeFn = rotating.Close
	}

	log.SetDefault(log.NewWithOptions(w,
		log.Options{
			ReportCaller:    true,
			ReportTimestamp: false,
			TimeFormat:      time.RFC3339,
			Prefix:          "KSC",
		}))

	log.SetLevel(level(opts))

	// escape codes would end up in the log file
	if opts.NoColor || opts.File != "" {
		log.SetColorProfile(termenv.Ascii)
	} else {
		log.SetColorProfile(termenv.ANSI256)
	}

	return closeFn
}

func level(opts Options) log.Level {
	if opts.Level != "" {
		if lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level))); err == nil {
			return lvl
		}
	}

	if opts.Verbose {
		return log.DebugLevel
	}

	return log.WarnLevel
}
