package external

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/bgturn/internal/positionid"
	"github.com/yourusername/bgturn/pkg/engine"
)

// fibsFields is the number of colon separated values after "board:".
const fibsFields = 42

// FIBSBoard represents a FIBS board string seen by the player on roll.
// See: http://www.fibs.com/fibs_interface.html#board_state
//
// Board[0] is the opponent's band (negative), Board[25] the player's band
// (positive) and Board[p] point p counted from the player's home side:
// positive counts are the player's pawns, negative the opponent's.
type FIBSBoard struct {
	Player1      string  // Player on roll
	Player2      string  // Opponent
	MatchLength  int     // Always 0, single games only
	Score1       int     // Player score
	Score2       int     // Opponent score
	Board        [26]int // Band, points 1-24, band
	Turn         int     // Whose turn (1 = player, -1 = opponent)
	Dice         [2]int  // Player's dice (0,0 if not rolled)
	OppDice      [2]int  // Opponent's dice
	Cube         int     // Cube value, always 1
	CanDouble    bool
	OppCanDouble bool
	Doubled      bool
	Color        int // 1 for red, -1 for white
	Direction    int // Travel direction on the engine's field indexes
}

// NewFIBSBoard describes b from onRoll's point of view.
func NewFIBSBoard(b *engine.Board, onRoll engine.Color, dice [engine.NumDice]int) *FIBSBoard {
	fb := &FIBSBoard{
		Player1:   onRoll.String(),
		Player2:   onRoll.Opponent().String(),
		Turn:      1,
		Dice:      dice,
		Cube:      1,
		Direction: onRoll.Direction(),
		Color:     1,
	}
	if onRoll == engine.White {
		fb.Color = -1
	}

	pos := b.Position(onRoll)
	for p := 1; p <= 24; p++ {
		switch {
		case pos[1][p-1] > 0:
			fb.Board[p] = int(pos[1][p-1])
		case pos[0][24-p] > 0:
			fb.Board[p] = -int(pos[0][24-p])
		}
	}
	fb.Board[0] = -int(pos[0][positionid.BarPoint])
	fb.Board[25] = int(pos[1][positionid.BarPoint])
	return fb
}

// Position converts the board back into a position ID board with the player
// on roll at index 1.
func (fb *FIBSBoard) Position() positionid.Board {
	var pos positionid.Board
	for p := 1; p <= 24; p++ {
		n := fb.Board[p]
		if n > 0 {
			pos[1][p-1] = uint8(n)
		} else if n < 0 {
			pos[0][24-p] = uint8(-n)
		}
	}
	pos[0][positionid.BarPoint] = uint8(abs(fb.Board[0]))
	pos[1][positionid.BarPoint] = uint8(abs(fb.Board[25]))
	return pos
}

func (fb *FIBSBoard) String() string {
	parts := make([]string, 0, fibsFields)
	parts = append(parts, fb.Player1, fb.Player2,
		strconv.Itoa(fb.MatchLength), strconv.Itoa(fb.Score1), strconv.Itoa(fb.Score2))
	for _, n := range fb.Board {
		parts = append(parts, strconv.Itoa(n))
	}
	parts = append(parts,
		strconv.Itoa(fb.Turn),
		strconv.Itoa(fb.Dice[0]), strconv.Itoa(fb.Dice[1]),
		strconv.Itoa(fb.OppDice[0]), strconv.Itoa(fb.OppDice[1]),
		strconv.Itoa(fb.Cube),
		flag(fb.CanDouble), flag(fb.OppCanDouble), flag(fb.Doubled),
		strconv.Itoa(fb.Color), strconv.Itoa(fb.Direction))
	return "board:" + strings.Join(parts, ":")
}

// ParseFIBSBoard parses a FIBS board string.
// Format: board:player1:player2:matchlen:score1:score2:board[26]:turn:dice[4]:cube:...
func ParseFIBSBoard(s string) (*FIBSBoard, error) {
	s = strings.TrimPrefix(s, "board:")

	parts := strings.Split(s, ":")
	if len(parts) < 32 {
		return nil, fmt.Errorf("invalid FIBS board: expected at least 32 fields, got %d", len(parts))
	}

	fb := &FIBSBoard{Player1: parts[0], Player2: parts[1]}
	ints := make([]int, len(parts))
	for i := 2; i < len(parts); i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return nil, fmt.Errorf("invalid FIBS board: field %d: %w", i, err)
		}
		ints[i] = n
	}

	fb.MatchLength, fb.Score1, fb.Score2 = ints[2], ints[3], ints[4]
	copy(fb.Board[:], ints[5:31])
	fb.Turn = ints[31]

	if len(parts) > 35 {
		fb.Dice = [2]int{ints[32], ints[33]}
		fb.OppDice = [2]int{ints[34], ints[35]}
	}
	if len(parts) > 36 {
		fb.Cube = ints[36]
	}
	if len(parts) > 39 {
		fb.CanDouble = ints[37] == 1
		fb.OppCanDouble = ints[38] == 1
		fb.Doubled = ints[39] == 1
	}
	if len(parts) > 41 {
		fb.Color, fb.Direction = ints[40], ints[41]
	}

	for p, n := range fb.Board {
		if abs(n) > engine.PawnsPerColor {
			return nil, fmt.Errorf("invalid FIBS board: %d pawns on point %d", n, p)
		}
	}
	return fb, nil
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
