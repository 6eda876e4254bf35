// Package record keeps a transcript of a game driven by the turn engine and
// reads and writes it in a Jellyfish-style MAT text format.
package record

import (
	"github.com/yourusername/bgturn/pkg/engine"
)

// Transcript is the record of one game.
type Transcript struct {
	Red   string // Name of the red player
	White string // Name of the white player
	Date  string // YYYY-MM-DD
	Event string
	Turns []*Turn
}

// Turn is one player's roll and the moves made with it.
type Turn struct {
	Player  engine.Color
	Dice    [engine.NumDice]int
	Steps   []Step
	Skipped bool // The move phase was skipped (blocked re-entry)
}

// Step is a single committed pawn movement. From and To are travel indexes:
// 0-23 for fields, and the player's band index for an entry.
type Step struct {
	From int
	To   int
	Hit  bool
}

// FromBand reports whether the step entered a pawn from the band.
func (s Step) FromBand() bool {
	return s.From == engine.BandIndexRed || s.From == engine.BandIndexWhite
}

// Rolled reports whether the turn's dice have settled.
func (t *Turn) Rolled() bool {
	return t.Dice[0] > 0 && t.Dice[1] > 0
}

// Hits returns the number of pawns hit during the turn.
func (t *Turn) Hits() int {
	n := 0
	for _, s := range t.Steps {
		if s.Hit {
			n++
		}
	}
	return n
}

// NewTranscript creates an empty transcript.
func NewTranscript(red, white string) *Transcript {
	return &Transcript{
		Red:   red,
		White: white,
		Turns: make([]*Turn, 0),
	}
}

// Hits returns the number of pawns c has hit.
func (t *Transcript) Hits(c engine.Color) int {
	n := 0
	for _, turn := range t.Turns {
		if turn.Player == c {
			n += turn.Hits()
		}
	}
	return n
}

// Skips returns the number of skipped move phases.
func (t *Transcript) Skips() int {
	n := 0
	for _, turn := range t.Turns {
		if turn.Skipped {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (t *Transcript) Clone() *Transcript {
	out := *t
	out.Turns = make([]*Turn, len(t.Turns))
	for i, turn := range t.Turns {
		c := *turn
		c.Steps = append([]Step(nil), turn.Steps...)
		out.Turns[i] = &c
	}
	return &out
}

// Recorder is an engine.Observer that builds a Transcript. Like the engine
// it must only be used from the engine's goroutine.
type Recorder struct {
	t   *Transcript
	cur *Turn
}

var _ engine.Observer = (*Recorder)(nil)

// NewRecorder creates a recorder for a game between red and white.
func NewRecorder(red, white string) *Recorder {
	return &Recorder{t: NewTranscript(red, white)}
}

// Transcript returns a copy of the game so far.
func (r *Recorder) Transcript() *Transcript {
	return r.t.Clone()
}

// OnStateChanged starts a new turn on every rolling phase. Going from one
// rolling phase straight to the other means the move phase was skipped.
func (r *Recorder) OnStateChanged(old, next engine.GameState) {
	if old.IsRolls() && next.IsRolls() && r.cur != nil {
		r.cur.Skipped = true
	}
	if next.IsRolls() {
		r.cur = &Turn{Player: next.Player()}
		r.t.Turns = append(r.t.Turns, r.cur)
	}
}

// OnDiceRolled stores the settled face.
func (r *Recorder) OnDiceRolled(die, face int) {
	if r.cur == nil || die < 0 || die >= engine.NumDice {
		return
	}
	r.cur.Dice[die] = face
}

// OnDiceUsed is a no-op; usage follows from the steps.
func (r *Recorder) OnDiceUsed(int, engine.Usage) {}

// OnMoveCommitted appends the move to the current turn.
func (r *Recorder) OnMoveCommitted(m engine.Move, captured *engine.Pawn) {
	if r.cur == nil {
		return
	}
	r.cur.Steps = append(r.cur.Steps, Step{
		From: m.Start,
		To:   m.Dest,
		Hit:  captured != nil,
	})
}
