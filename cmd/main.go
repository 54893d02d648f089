package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"ksc/internal/config"
	"ksc/internal/logger"
	"ksc/internal/runner"
	"ksc/pkg/color"
	"ksc/pkg/diag"
)

type options struct {
	Help        bool   // Show help message
	Verbose     bool   // Debug logging and a variable dump
	NoColor     bool   // Disable colored output
	ConfigFile  string // Path to the YAML config
	Debug       bool   // Enable the debugger
	Trace       bool   // Print the execution trace
	Breakpoints string // Breakpoints as "line[:condition],..."
	Watch       string // Watched variables as "a,b"
	Interactive bool   // Prompt for choices, clicks and debugger commands
	SaveSlot    string // Slot written when the run ends
	LoadSlot    string // Slot to resume from
	Database    string // Save database path
	MaxSteps    int    // Step limit, 0 = unlimited
}

// Main entry point for the script runner.
func main() {
	opts := options{}

	flag.BoolVar(&opts.Help, "h", false, "Show help")
	flag.BoolVar(&opts.Verbose, "v", false, "Verbose mode")
	flag.BoolVar(&opts.NoColor, "n", false, "No color")
	flag.StringVar(&opts.ConfigFile, "c", config.DefaultFile, "Config file")
	flag.BoolVar(&opts.Debug, "d", false, "Enable the debugger")
	flag.BoolVar(&opts.Trace, "t", false, "Print the execution trace")
	flag.StringVar(&opts.Breakpoints, "b", "", "Breakpoints (e.g., 12,30:hp < 10)")
	flag.StringVar(&opts.Watch, "w", "", "Watched variables (e.g., hp,name)")
	flag.BoolVar(&opts.Interactive, "i", false, "Interactive mode")
	flag.StringVar(&opts.SaveSlot, "save", "", "Save slot written when the run ends")
	flag.StringVar(&opts.LoadSlot, "load", "", "Save slot to resume from")
	flag.StringVar(&opts.Database, "db", "", "Save database file")
	flag.IntVar(&opts.MaxSteps, "max-steps", 0, "Maximum steps before aborting (0 = unlimited)")

	flag.Parse()
	args := flag.Args()

	if opts.Help {
		fmt.Printf("Usage: %s [options] <script>\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal("Invalid configuration", "file", opts.ConfigFile, "error", err)
	}

	if err := applyFlags(&cfg, opts); err != nil {
		log.Fatal("Invalid flag", "error", err)
	}

	closeLog := logger.Init(logger.Options{
		Verbose: opts.Verbose,
		Level:   levelOverride(cfg, opts),
		NoColor: cfg.Log.NoColor,
		File:    cfg.Log.File,
	})
	defer closeLog()

	if cfg.Log.NoColor {
		color.EnableColor(false)
	}

	if len(args) == 0 {
		log.Fatal("No input file provided", "help", fmt.Sprintf("%s -h", os.Args[0]))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := runner.Runner{
		Config:     cfg,
		SourceFile: args[0],
		LoadSlot:   opts.LoadSlot,
		Verbose:    opts.Verbose,
	}

	if err := r.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, diag.Render(err))
		stop()
		_ = closeLog()
		os.Exit(1)
	}
}

// applyFlags lets flags given on the command line win over the config file
func applyFlags(cfg *config.Config, opts options) error {
	var err error

	flag.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}

		switch f.Name {
		case "n":
			cfg.Log.NoColor = opts.NoColor
		case "d":
			cfg.Debug.Enabled = opts.Debug
		case "t":
			cfg.Debug.Trace = opts.Trace
		case "b":
			var bps []config.Breakpoint
			bps, err = config.ParseBreakpoints(opts.Breakpoints)
			cfg.Debug.Breakpoints = append(cfg.Debug.Breakpoints, bps...)
		case "w":
			cfg.Debug.Watch = append(cfg.Debug.Watch, config.ParseList(opts.Watch)...)
		case "i":
			cfg.Console.Interactive = opts.Interactive
		case "save":
			cfg.Save.Slot = opts.SaveSlot
		case "db":
			cfg.Save.Database = opts.Database
		case "max-steps":
			cfg.Limits.MaxSteps = opts.MaxSteps
		}
	})

	if err != nil {
		return err
	}

	return cfg.Validate()
}

// levelOverride keeps -v in charge unless the config or environment names a level
func levelOverride(cfg config.Config, opts options) string {
	if opts.Verbose {
		return ""
	}
	return cfg.Log.Level
}
