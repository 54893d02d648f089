package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is read from the working directory when no path is given
const DefaultFile = "ksc.yaml"

type LogConfig struct {
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	NoColor bool   `yaml:"no_color"`
}

type Breakpoint struct {
	Line      int    `yaml:"line"`
	Condition string `yaml:"condition,omitempty"`
}

type DebugConfig struct {
	Enabled     bool         `yaml:"enabled"`
	Trace       bool         `yaml:"trace"`
	Watch       []string     `yaml:"watch,omitempty"`
	Breakpoints []Breakpoint `yaml:"breakpoints,omitempty"`
}

type ConsoleConfig struct {
	Interactive   bool   `yaml:"interactive"`
	DefaultChoice int    `yaml:"default_choice"` // 0-based
	BattleResult  string `yaml:"battle_result"`  // win | lose
	RealTime      bool   `yaml:"real_time"`
}

type LimitsConfig struct {
	MaxSteps int `yaml:"max_steps"` // 0 = unlimited
}

type SaveConfig struct {
	Database string `yaml:"database"`
	Slot     string `yaml:"slot"`
}

// Config is the ksc.yaml file. Environment variables override it, flags override both.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Debug   DebugConfig   `yaml:"debug"`
	Console ConsoleConfig `yaml:"console"`
	Limits  LimitsConfig  `yaml:"limits"`
	Save    SaveConfig    `yaml:"save"`
}

// Env var names used as overrides
const (
	EnvLogLevel = "KSC_LOG_LEVEL"
	EnvLogFile  = "KSC_LOG_FILE"
	EnvDebug    = "KSC_DEBUG"
	EnvTrace    = "KSC_TRACE"
	EnvMaxSteps = "KSC_MAX_STEPS"
	EnvSaveDB   = "KSC_SAVE_DB"
)

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		Log:     LogConfig{Level: "warn"},
		Console: ConsoleConfig{BattleResult: "win"},
		Limits:  LimitsConfig{MaxSteps: 1_000_000},
		Save:    SaveConfig{Database: "ksc-saves.db"},
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// Save writes cfg as YAML, creating the directory when needed
func Save(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks values that cannot be expressed by the YAML types
func (c Config) Validate() error {
	switch c.Console.BattleResult {
	case "win", "lose":
	default:
		return fmt.Errorf("console.battle_result must be win or lose, got %q", c.Console.BattleResult)
	}

	if c.Console.DefaultChoice < 0 {
		return fmt.Errorf("console.default_choice must not be negative")
	}

	if c.Limits.MaxSteps < 0 {
		return fmt.Errorf("limits.max_steps must not be negative")
	}

	for _, bp := range c.Debug.Breakpoints {
		if bp.Line <= 0 {
			return fmt.Errorf("breakpoint line must be positive, got %d", bp.Line)
		}
	}

	return nil
}

// DebugRequested reports whether any debugger feature is configured
func (c Config) DebugRequested() bool {
	d := c.Debug
	return d.Enabled || d.Trace || len(d.Watch) > 0 || len(d.Breakpoints) > 0
}

func applyEnvOverrides(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Log.File = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDebug)); v != "" {
		cfg.Debug.Enabled = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTrace)); v != "" {
		cfg.Debug.Trace = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvMaxSteps)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxSteps, err)
		}
		cfg.Limits.MaxSteps = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvSaveDB)); v != "" {
		cfg.Save.Database = v
	}

	return nil
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// ParseBreakpoints parses "12,30:x > 3". A condition runs to the next "," followed by a line number.
func ParseBreakpoints(s string) ([]Breakpoint, error) {
	var out []Breakpoint

	for part := range strings.SplitSeq(s, ",") {
		head, cond, hasCond := strings.Cut(part, ":")

		line, err := strconv.Atoi(strings.TrimSpace(head))
		if err != nil {
			// a comma inside the previous condition
			if len(out) == 0 || out[len(out)-1].Condition == "" {
				if strings.TrimSpace(part) == "" {
					continue
				}
				return nil, fmt.Errorf("invalid breakpoint %q", strings.TrimSpace(part))
			}
			out[len(out)-1].Condition += "," + part
			continue
		}

		if line <= 0 {
			return nil, fmt.Errorf("breakpoint line must be positive, got %d", line)
		}

		bp := Breakpoint{Line: line}
		if hasCond {
			bp.Condition = cond
		}
		out = append(out, bp)
	}

	for i := range out {
		out[i].Condition = strings.TrimSpace(out[i].Condition)
	}

	return out, nil
}

// ParseList splits "a, b" into trimmed non-empty names
func ParseList(s string) []string {
	var out []string
	for name := range strings.SplitSeq(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}
