package record

import (
	"errors"
	"fmt"

	"github.com/yourusername/bgturn/pkg/engine"
)

// ErrReplay is returned when a transcript step cannot be applied.
var ErrReplay = errors.New("transcript does not replay")

// Replay applies every step of the transcript to a board set up from
// layout and returns the final board. Each step must move a pawn the
// player owns over a distance one of the turn's dice combinations covers,
// and must hit exactly when the transcript says it does.
func (t *Transcript) Replay(layout []engine.Placement) (*engine.Board, error) {
	b := engine.NewBoard(engine.DefaultMaxPawns)
	if err := b.Setup(layout, nil); err != nil {
		return nil, err
	}

	for ti, turn := range t.Turns {
		for si, s := range turn.Steps {
			if err := applyStep(b, turn, s); err != nil {
				return nil, fmt.Errorf("turn %d step %d: %w", ti+1, si+1, err)
			}
		}
	}
	return b, nil
}

func applyStep(b *engine.Board, turn *Turn, s Step) error {
	from := b.Field(s.From)
	if s.From == turn.Player.BandIndex() {
		from = b.Band()
	}
	to := b.Field(s.To)
	if from == nil || to == nil {
		return fmt.Errorf("%w: %s/%s out of range", ErrReplay, formatPoint(s.From), formatPoint(s.To))
	}

	distance := (s.To - s.From) * turn.Player.Direction()
	if !reachable(turn.Dice, distance) {
		return fmt.Errorf("%w: %d steps with %d%d", ErrReplay, distance, turn.Dice[0], turn.Dice[1])
	}

	captured, ok := b.MovePawnOf(from, to, turn.Player)
	if !ok {
		return fmt.Errorf("%w: %s cannot move %s/%s", ErrReplay, turn.Player,
			formatPoint(s.From), formatPoint(s.To))
	}
	if (captured != nil) != s.Hit {
		return fmt.Errorf("%w: hit mismatch on %s", ErrReplay, formatPoint(s.To))
	}
	return nil
}

// reachable reports whether a single move of n steps can be made with dice:
// either die, their sum, or for doubles up to four times the face.
func reachable(dice [engine.NumDice]int, n int) bool {
	a, b := dice[0], dice[1]
	if n <= 0 || a < 1 || b < 1 {
		return false
	}
	if a == b {
		return n%a == 0 && n/a <= 4
	}
	return n == a || n == b || n == a+b
}
