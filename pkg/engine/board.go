package engine

import (
	"fmt"

	"github.com/yourusername/bgturn/internal/positionid"
)

const (
	// NumFields is the number of movement fields on the board.
	NumFields = 24
	// PawnsPerColor is the number of pawns each player owns.
	PawnsPerColor = 15
	// DefaultMaxPawns is the capacity of a single field.
	DefaultMaxPawns = 15
)

// Placement puts Count pawns of Color on Field at setup time.
type Placement struct {
	Field int
	Color Color
	Count int
}

// StandardLayout returns the usual starting position. Red starts with 2 on
// field 0, 5 on 11, 3 on 16 and 5 on 18; White mirrors it.
func StandardLayout() []Placement {
	return []Placement{
		{Field: 0, Color: Red, Count: 2},
		{Field: 11, Color: Red, Count: 5},
		{Field: 16, Color: Red, Count: 3},
		{Field: 18, Color: Red, Count: 5},

		{Field: 23, Color: White, Count: 2},
		{Field: 12, Color: White, Count: 5},
		{Field: 7, Color: White, Count: 3},
		{Field: 5, Color: White, Count: 5},
	}
}

// Board owns the 24 fields and the band.
type Board struct {
	fields []*Stack
	band   *Stack
	nextID int
}

// NewBoard creates an empty board whose fields hold at most maxPawns pawns
// each (0 means unbounded).
func NewBoard(maxPawns int) *Board {
	b := &Board{band: newBand()}
	b.fields = make([]*Stack, NumFields)
	for i := range b.fields {
		b.fields[i] = newField(i, maxPawns, b.band)
	}
	return b
}

// Field returns field i, or nil when i is out of range.
func (b *Board) Field(i int) *Stack {
	if i < 0 || i >= len(b.fields) {
		return nil
	}
	return b.fields[i]
}

// Fields returns the fields in index order.
func (b *Board) Fields() []*Stack {
	out := make([]*Stack, len(b.fields))
	copy(out, b.fields)
	return out
}

// Band returns the shared band.
func (b *Board) Band() *Stack { return b.band }

// IndexOf returns the travel index of s for player: 0-23 for a field, and
// -1 (Red) or 24 (White) for the band. ok is false for stacks that do not
// belong to this board.
func (b *Board) IndexOf(s *Stack, player Color) (index int, ok bool) {
	if s == nil {
		return 0, false
	}
	if s == b.band {
		return player.BandIndex(), true
	}
	if f := b.Field(s.index); f == s {
		return s.index, true
	}
	return 0, false
}

// MovePawn moves the top pawn of from onto to.
func (b *Board) MovePawn(from, to *Stack) (captured *Pawn, ok bool) {
	if from == nil {
		return nil, false
	}
	top := from.Top()
	if top == nil {
		return nil, false
	}
	return b.MovePawnOf(from, to, top.Color)
}

// MovePawnOf moves the topmost pawn of color c from one stack to another.
// The destination is checked before the pawn leaves its source, so a failed
// move changes nothing. A blot hit on the destination is returned.
func (b *Board) MovePawnOf(from, to *Stack, c Color) (captured *Pawn, ok bool) {
	if from == nil || to == nil || from == to {
		return nil, false
	}
	p := from.TopOf(c)
	if p == nil || !to.IsRoomForPawn(c) {
		return nil, false
	}

	from.RemovePawn(p)
	captured, ok = to.add(p)
	if !ok {
		from.add(p)
		return nil, false
	}
	return captured, true
}

// Count returns the number of pawns of color c on the fields and band.
func (b *Board) Count(c Color) int {
	n := b.band.Count(c)
	for _, f := range b.fields {
		n += f.Count(c)
	}
	return n
}

// Clear removes every pawn.
func (b *Board) Clear() {
	for _, s := range append(b.Fields(), b.band) {
		for _, p := range s.Pawns() {
			s.RemovePawn(p)
		}
		s.Reset()
	}
}

// Setup clears the board and places pawns from layout. Pawns come from
// factory, or are numbered sequentially when factory is nil.
func (b *Board) Setup(layout []Placement, factory PawnFactory) error {
	b.Clear()
	for _, pl := range layout {
		f := b.Field(pl.Field)
		if f == nil {
			return fmt.Errorf("%w: field %d out of range", ErrLayout, pl.Field)
		}
		if owner, ok := f.Owner(); ok && owner != pl.Color {
			return fmt.Errorf("%w: field %d already holds %s pawns", ErrLayout, pl.Field, owner)
		}
		for i := 0; i < pl.Count; i++ {
			p := b.newPawn(pl.Color, factory)
			if !f.AddPawn(p) {
				return fmt.Errorf("%w: no room for %s pawn on field %d", ErrLayout, pl.Color, pl.Field)
			}
		}
	}
	return nil
}

func (b *Board) newPawn(c Color, factory PawnFactory) *Pawn {
	if factory != nil {
		if p := factory(c); p != nil {
			p.Color = c
			p.stack = nil
			return p
		}
	}
	b.nextID++
	return &Pawn{ID: b.nextID, Color: c}
}

// Position returns the board as seen by onRoll in gnubg's layout: index 1
// is the player on roll, index 0 the opponent, each counted on points 0-23
// from their own home side with the band on point 24. Red's point i is field
// 23-i, White's point i is field i.
func (b *Board) Position(onRoll Color) positionid.Board {
	var pos positionid.Board
	sides := [2]Color{onRoll.Opponent(), onRoll}
	for side, c := range sides {
		for point := 0; point < NumFields; point++ {
			field := point
			if c == Red {
				field = NumFields - 1 - point
			}
			pos[side][point] = uint8(b.fields[field].Count(c))
		}
		pos[side][positionid.BarPoint] = uint8(b.band.Count(c))
	}
	return pos
}

// PositionID returns the 14-character gnubg position ID of the board from
// onRoll's point of view.
func (b *Board) PositionID(onRoll Color) string {
	return positionid.Encode(b.Position(onRoll))
}
