package engine

import (
	"context"
	"time"
)

type BattleResult string

const (
	BattleWin  BattleResult = "win"
	BattleLose BattleResult = "lose"
)

// DefaultVolume is used when a script omits the volume argument
const DefaultVolume = 100

// Engine is the presentation backend driven by the interpreter. Every method is a
// suspension point: the interpreter waits for it to return before running the next line.
type Engine interface {
	ShowDialogue(ctx context.Context, speaker string, lines []string) error

	SetBackground(ctx context.Context, name, effect string) error

	ShowCharacter(ctx context.Context, name, pose, position string, fade time.Duration) error
	AnimateCharacter(ctx context.Context, name, pose, position string) error
	HideCharacter(ctx context.Context, name string, fade time.Duration) error
	ClearCharacters(ctx context.Context, fade time.Duration) error
	MoveCharacter(ctx context.Context, name, position string, d time.Duration) error

	PlayBGM(ctx context.Context, name string, volume int, fade time.Duration) error
	StopBGM(ctx context.Context) error
	FadeBGM(ctx context.Context, d time.Duration) error
	PlaySE(ctx context.Context, name string, volume int) error
	PlayVoice(ctx context.Context, name string) error

	PlayTimeline(ctx context.Context, name string) error
	StartBattle(ctx context.Context, troopID string) (BattleResult, error)

	// ShowChoice presents options and returns the selected index into options
	ShowChoice(ctx context.Context, options []string) (int, error)
	WaitForClick(ctx context.Context) error
	Wait(ctx context.Context, d time.Duration) error
}
