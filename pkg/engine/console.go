package engine

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"ksc/pkg/color"
)

// Prompter reads one line of player input
type Prompter interface {
	Prompt(prompt string) (string, error)
}

// Console renders every effect as a line of text. Without a Prompter, choices and
// battles resolve to their configured defaults.
type Console struct {
	out           io.Writer
	prompter      Prompter
	defaultChoice int
	battleResult  BattleResult
	realTime      bool
}

type ConsoleOption func(*Console)

// WithDefaultChoice sets the option index picked when no input is available
func WithDefaultChoice(n int) ConsoleOption {
	return func(c *Console) { c.defaultChoice = n }
}

// WithBattleResult sets the outcome reported for every battle
func WithBattleResult(r BattleResult) ConsoleOption {
	return func(c *Console) { c.battleResult = r }
}

// WithRealTime makes wait() actually sleep
func WithRealTime(enabled bool) ConsoleOption {
	return func(c *Console) { c.realTime = enabled }
}

// WithPrompter enables interactive choices and click waits
func WithPrompter(p Prompter) ConsoleOption {
	return func(c *Console) { c.prompter = p }
}

// NewConsole creates a console engine writing to w
func NewConsole(w io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{
		out:          w,
		battleResult: BattleWin,
	}

	for _, o := range opts {
		o(c)
	}

	return c
}

func (c *Console) printf(format string, args ...any) error {
	_, err := fmt.Fprintf(c.out, format+"\n", args...)
	return err
}

func (c *Console) effect(tag, detail string) error {
	return c.printf("%s %s", color.GrayText("["+tag+"]"), detail)
}

func ms(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
}

func (c *Console) ShowDialogue(_ context.Context, speaker string, lines []string) error {
	name := speaker
	if name == "" {
		name = "narration"
	}

	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString("\n  ")
		sb.WriteString(l)
	}

	return c.printf("\n%s%s", color.Speaker("["+name+"]"), sb.String())
}

func (c *Console) SetBackground(_ context.Context, name, effect string) error {
	if effect != "" {
		name += " (" + effect + ")"
	}
	return c.effect("bg", name)
}

func (c *Console) ShowCharacter(_ context.Context, name, pose, position string, fade time.Duration) error {
	parts := []string{name, pose}
	if position != "" {
		parts = append(parts, position)
	}
	if fade > 0 {
		parts = append(parts, ms(fade))
	}
	return c.effect("ch", strings.Join(parts, " "))
}

func (c *Console) AnimateCharacter(_ context.Context, name, pose, position string) error {
	return c.effect("ch_anim", strings.Join([]string{name, pose, position}, " "))
}

func (c *Console) HideCharacter(_ context.Context, name string, fade time.Duration) error {
	if fade > 0 {
		name += " " + ms(fade)
	}
	return c.effect("ch_hide", name)
}

func (c *Console) ClearCharacters(_ context.Context, fade time.Duration) error {
	detail := "all"
	if fade > 0 {
		detail += " " + ms(fade)
	}
	return c.effect("ch_clear", detail)
}

func (c *Console) MoveCharacter(_ context.Context, name, position string, d time.Duration) error {
	return c.effect("ch_move", fmt.Sprintf("%s → %s (%s)", name, position, ms(d)))
}

func (c *Console) PlayBGM(_ context.Context, name string, volume int, fade time.Duration) error {
	detail := fmt.Sprintf("%s vol=%d", name, volume)
	if fade > 0 {
		detail += " fade=" + ms(fade)
	}
	return c.effect("bgm", detail)
}

func (c *Console) StopBGM(_ context.Context) error {
	return c.effect("bgm", "stop")
}

func (c *Console) FadeBGM(_ context.Context, d time.Duration) error {
	return c.effect("bgm", "fade out "+ms(d))
}

func (c *Console) PlaySE(_ context.Context, name string, volume int) error {
	return c.effect("se", fmt.Sprintf("%s vol=%d", name, volume))
}

func (c *Console) PlayVoice(_ context.Context, name string) error {
	return c.effect("voice", name)
}

func (c *Console) PlayTimeline(_ context.Context, name string) error {
	return c.effect("timeline", name)
}

func (c *Console) StartBattle(_ context.Context, troopID string) (BattleResult, error) {
	return c.battleResult, c.effect("battle", fmt.Sprintf("%s → %s", troopID, c.battleResult))
}

func (c *Console) ShowChoice(_ context.Context, options []string) (int, error) {
	if err := c.printf("%s", color.BoldText("=== choice ===")); err != nil {
		return 0, err
	}
	for i, opt := range options {
		if err := c.printf("  %s %s", color.YellowText(strconv.Itoa(i+1)+"."), opt); err != nil {
			return 0, err
		}
	}

	def := min(max(c.defaultChoice, 0), len(options)-1)
	if c.prompter == nil {
		return def, c.printf("→ auto-selected %d", def+1)
	}

	for {
		in, err := c.prompter.Prompt(fmt.Sprintf("choose 1-%d [%d]: ", len(options), def+1))
		if err != nil {
			return 0, err
		}

		in = strings.TrimSpace(in)
		if in == "" {
			return def, nil
		}

		n, err := strconv.Atoi(in)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}

		if err := c.printf("%s", color.RedText("enter a number between 1 and "+strconv.Itoa(len(options)))); err != nil {
			return 0, err
		}
	}
}

func (c *Console) WaitForClick(_ context.Context) error {
	if c.prompter == nil {
		return c.effect("click", "")
	}

	_, err := c.prompter.Prompt("▼ ")
	return err
}

func (c *Console) Wait(ctx context.Context, d time.Duration) error {
	if err := c.effect("wait", ms(d)); err != nil {
		return err
	}

	if !c.realTime || d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
