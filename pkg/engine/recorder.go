package engine

import (
	"context"
	"strconv"
	"time"
)

// Call is one recorded engine invocation
type Call struct {
	Method string
	Args   []string
}

// Dialogue is a recorded dialogue block
type Dialogue struct {
	Speaker string
	Lines   []string
}

// Character is the last known state of a shown character
type Character struct {
	Pose     string
	Position string
	Animated bool
}

// ChoiceRecord is a presented menu and the index answered
type ChoiceRecord struct {
	Options  []string
	Selected int
}

// BattleRecord is a resolved battle
type BattleRecord struct {
	TroopID string
	Result  BattleResult
}

// Recorder is an Engine that keeps every call and the resulting stage state.
// Choices and battles are answered from queues, falling back to 0 and BattleWin.
type Recorder struct {
	Calls      []Call
	Dialogues  []Dialogue
	Background string
	Characters map[string]Character
	BGM        string
	BGMVolume  int
	Choices    []ChoiceRecord
	Battles    []BattleRecord
	Waited     time.Duration
	Clicks     int

	choiceQueue []int
	battleQueue []BattleResult
}

// NewRecorder creates an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{Characters: make(map[string]Character)}
}

// QueueChoices appends answers for upcoming ShowChoice calls
func (r *Recorder) QueueChoices(indices ...int) *Recorder {
	r.choiceQueue = append(r.choiceQueue, indices...)
	return r
}

// QueueBattles appends outcomes for upcoming StartBattle calls
func (r *Recorder) QueueBattles(results ...BattleResult) *Recorder {
	r.battleQueue = append(r.battleQueue, results...)
	return r
}

// Methods lists the recorded method names in call order
func (r *Recorder) Methods() []string {
	out := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		out[i] = c.Method
	}
	return out
}

// LastDialogue returns the most recent dialogue, ok is false when none was shown
func (r *Recorder) LastDialogue() (Dialogue, bool) {
	if len(r.Dialogues) == 0 {
		return Dialogue{}, false
	}
	return r.Dialogues[len(r.Dialogues)-1], true
}

func (r *Recorder) record(method string, args ...string) {
	r.Calls = append(r.Calls, Call{Method: method, Args: args})
}

func msArg(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10)
}

func (r *Recorder) ShowDialogue(_ context.Context, speaker string, lines []string) error {
	r.record("ShowDialogue", append([]string{speaker}, lines...)...)
	r.Dialogues = append(r.Dialogues, Dialogue{Speaker: speaker, Lines: append([]string(nil), lines...)})
	return nil
}

func (r *Recorder) SetBackground(_ context.Context, name, effect string) error {
	r.record("SetBackground", name, effect)
	r.Background = name
	return nil
}

func (r *Recorder) ShowCharacter(_ context.Context, name, pose, position string, fade time.Duration) error {
	r.record("ShowCharacter", name, pose, position, msArg(fade))
	if position == "" {
		position = "center"
	}
	r.Characters[name] = Character{Pose: pose, Position: position}
	return nil
}

func (r *Recorder) AnimateCharacter(_ context.Context, name, pose, position string) error {
	r.record("AnimateCharacter", name, pose, position)
	r.Characters[name] = Character{Pose: pose, Position: position, Animated: true}
	return nil
}

func (r *Recorder) HideCharacter(_ context.Context, name string, fade time.Duration) error {
	r.record("HideCharacter", name, msArg(fade))
	delete(r.Characters, name)
	return nil
}

func (r *Recorder) ClearCharacters(_ context.Context, fade time.Duration) error {
	r.record("ClearCharacters", msArg(fade))
	clear(r.Characters)
	return nil
}

func (r *Recorder) MoveCharacter(_ context.Context, name, position string, d time.Duration) error {
	r.record("MoveCharacter", name, position, msArg(d))
	if ch, ok := r.Characters[name]; ok {
		ch.Position = position
		r.Characters[name] = ch
	}
	return nil
}

func (r *Recorder) PlayBGM(_ context.Context, name string, volume int, fade time.Duration) error {
	r.record("PlayBGM", name, strconv.Itoa(volume), msArg(fade))
	r.BGM, r.BGMVolume = name, volume
	return nil
}

func (r *Recorder) StopBGM(_ context.Context) error {
	r.record("StopBGM")
	r.BGM = ""
	return nil
}

func (r *Recorder) FadeBGM(_ context.Context, d time.Duration) error {
	r.record("FadeBGM", msArg(d))
	r.BGM = ""
	return nil
}

func (r *Recorder) PlaySE(_ context.Context, name string, volume int) error {
	r.record("PlaySE", name, strconv.Itoa(volume))
	return nil
}

func (r *Recorder) PlayVoice(_ context.Context, name string) error {
	r.record("PlayVoice", name)
	return nil
}

func (r *Recorder) PlayTimeline(_ context.Context, name string) error {
	r.record("PlayTimeline", name)
	return nil
}

func (r *Recorder) StartBattle(_ context.Context, troopID string) (BattleResult, error) {
	result := BattleWin
	if len(r.battleQueue) > 0 {
		result, r.battleQueue = r.battleQueue[0], r.battleQueue[1:]
	}

	r.record("StartBattle", troopID, string(result))
	r.Battles = append(r.Battles, BattleRecord{TroopID: troopID, Result: result})
	return result, nil
}

func (r *Recorder) ShowChoice(_ context.Context, options []string) (int, error) {
	selected := 0
	if len(r.choiceQueue) > 0 {
		selected, r.choiceQueue = r.choiceQueue[0], r.choiceQueue[1:]
	}

	r.record("ShowChoice", options...)
	r.Choices = append(r.Choices, ChoiceRecord{Options: append([]string(nil), options...), Selected: selected})
	return selected, nil
}

func (r *Recorder) WaitForClick(_ context.Context) error {
	r.record("WaitForClick")
	r.Clicks++
	return nil
}

func (r *Recorder) Wait(_ context.Context, d time.Duration) error {
	r.record("Wait", msArg(d))
	r.Waited += d
	return nil
}

var (
	_ Engine = (*Recorder)(nil)
	_ Engine = (*Console)(nil)
)
