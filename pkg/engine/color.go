// Package engine implements the backgammon turn engine: dice usage tracking,
// board occupancy rules, legal-move generation and the turn state machine.
//
// Board indexing: fields are numbered 0-23 in Red's direction of travel.
// Red moves from 0 towards 23, White from 23 towards 0. The band (bar) is
// addressed as virtual field -1 on Red's turn and 24 on White's turn, so a
// destination is always start + steps*direction.
package engine

// Color identifies a player and the pawns they own.
type Color int

const (
	Red Color = iota
	White
)

// Band addresses used by IndexOf.
const (
	BandIndexRed   = -1
	BandIndexWhite = 24
)

// Opponent returns the other player.
func (c Color) Opponent() Color {
	if c == Red {
		return White
	}
	return Red
}

// Direction returns +1 for Red and -1 for White.
func (c Color) Direction() int {
	if c == Red {
		return 1
	}
	return -1
}

// BandIndex returns the virtual field index of the band for this player.
func (c Color) BandIndex() int {
	if c == Red {
		return BandIndexRed
	}
	return BandIndexWhite
}

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case White:
		return "white"
	default:
		return "unknown"
	}
}
