package engine

import "fmt"

// Pawn is a single checker.
type Pawn struct {
	ID    int
	Color Color

	stack *Stack
}

// Stack returns the stack currently holding the pawn, or nil.
func (p *Pawn) Stack() *Stack {
	if p == nil {
		return nil
	}
	return p.stack
}

// PawnFactory creates the pawns placed on the board at setup time.
type PawnFactory func(c Color) *Pawn

// StackKind distinguishes board fields from the band.
type StackKind int

const (
	KindField StackKind = iota
	KindBand
)

func (k StackKind) String() string {
	if k == KindBand {
		return "band"
	}
	return "field"
}

// Stack is an ordered pile of pawns. The last pawn added is the top and the
// only one that can be moved or hit.
//
// A field holds pawns of one color. Landing on a field that holds a single
// opposing pawn (a blot) sends that pawn to the band first. The band holds
// hit pawns of both colors and never captures.
type Stack struct {
	kind  StackKind
	index int // field index, -1 for the band
	max   int // 0 means unbounded

	pawns []*Pawn
	band  *Stack

	highlighted bool
}

func newField(index, maxPawns int, band *Stack) *Stack {
	return &Stack{kind: KindField, index: index, max: maxPawns, band: band}
}

func newBand() *Stack {
	return &Stack{kind: KindBand, index: -1}
}

// Kind returns whether the stack is a field or the band.
func (s *Stack) Kind() StackKind { return s.kind }

// Index returns the field index, or -1 for the band. Use Board.IndexOf for
// move arithmetic.
func (s *Stack) Index() int { return s.index }

// Len returns the number of pawns on the stack.
func (s *Stack) Len() int { return len(s.pawns) }

// IsEmpty reports whether the stack holds no pawns.
func (s *Stack) IsEmpty() bool { return len(s.pawns) == 0 }

// Top returns the most recently added pawn, or nil.
func (s *Stack) Top() *Pawn {
	if len(s.pawns) == 0 {
		return nil
	}
	return s.pawns[len(s.pawns)-1]
}

// TopOf returns the most recently added pawn of color c, or nil.
func (s *Stack) TopOf(c Color) *Pawn {
	for i := len(s.pawns) - 1; i >= 0; i-- {
		if s.pawns[i].Color == c {
			return s.pawns[i]
		}
	}
	return nil
}

// Count returns the number of pawns of color c.
func (s *Stack) Count(c Color) int {
	n := 0
	for _, p := range s.pawns {
		if p.Color == c {
			n++
		}
	}
	return n
}

// Pawns returns a copy of the pawns, bottom first.
func (s *Stack) Pawns() []*Pawn {
	out := make([]*Pawn, len(s.pawns))
	copy(out, s.pawns)
	return out
}

// Owner returns the color of the top pawn; ok is false on an empty stack.
func (s *Stack) Owner() (c Color, ok bool) {
	top := s.Top()
	if top == nil {
		return Red, false
	}
	return top.Color, true
}

// IsRoomForPawn reports whether a pawn of color c may land here. A field
// accepts a pawn when it is empty, holds a single pawn of any color, or its
// top pawn is already c; two or more opposing pawns block it. No stack
// accepts pawns past its capacity.
func (s *Stack) IsRoomForPawn(c Color) bool {
	if s.max > 0 && len(s.pawns) >= s.max {
		return false
	}
	if s.kind == KindBand {
		return true
	}
	return len(s.pawns) <= 1 || s.Top().Color == c
}

// AddPawn puts p on top of the stack, capturing a lone opposing pawn on a
// field. It returns false, leaving everything unchanged, when p already
// belongs to a stack, there is no room for it, or a blot cannot be sent to
// the band.
func (s *Stack) AddPawn(p *Pawn) bool {
	_, ok := s.add(p)
	return ok
}

func (s *Stack) add(p *Pawn) (captured *Pawn, ok bool) {
	if p == nil || p.stack != nil || !s.IsRoomForPawn(p.Color) {
		return nil, false
	}

	if s.kind == KindField && len(s.pawns) == 1 && s.pawns[0].Color != p.Color {
		blot := s.pawns[0]
		// A hit needs somewhere to put the blot.
		if s.band == nil || !s.band.IsRoomForPawn(blot.Color) {
			return nil, false
		}
		s.pawns = s.pawns[:0]
		blot.stack = nil
		if _, ok := s.band.add(blot); !ok {
			s.pawns = append(s.pawns, blot)
			blot.stack = s
			return nil, false
		}
		captured = blot
	}

	s.pawns = append(s.pawns, p)
	p.stack = s
	return captured, true
}

// RemovePawn takes p off the stack. It is a no-op returning false when p is
// not on this stack.
func (s *Stack) RemovePawn(p *Pawn) bool {
	if p == nil || p.stack != s {
		return false
	}
	for i, q := range s.pawns {
		if q == p {
			s.pawns = append(s.pawns[:i], s.pawns[i+1:]...)
			p.stack = nil
			return true
		}
	}
	return false
}

// Highlight marks the stack as a candidate destination.
func (s *Stack) Highlight() { s.highlighted = true }

// Reset clears the candidate highlight.
func (s *Stack) Reset() { s.highlighted = false }

// Highlighted reports whether the stack is marked as a candidate destination.
func (s *Stack) Highlighted() bool { return s.highlighted }

func (s *Stack) String() string {
	if s == nil {
		return "<nil>"
	}
	if s.kind == KindBand {
		return fmt.Sprintf("band(%d)", len(s.pawns))
	}
	return fmt.Sprintf("field %d(%d)", s.index, len(s.pawns))
}
