package engine

import "fmt"

// dieUse records how many face-value units a move takes from one die.
type dieUse struct {
	die   int
	units int
}

// Combination is one way of spending the dice: a total step count and the
// dice it consumes.
type Combination struct {
	Steps int
	uses  []dieUse
	split bool // doubles: each unit is half a die
}

// Dice returns the indexes of the dice the combination consumes, one entry
// per unit.
func (c Combination) Dice() []int {
	var out []int
	for _, u := range c.uses {
		for i := 0; i < u.units; i++ {
			out = append(out, u.die)
		}
	}
	return out
}

// Combinations enumerates the usable dice combinations, before any board
// check.
//
// For a non-double roll {a, b}: a alone, b alone, and a+b, each only while
// the dice it needs are available. For doubles of v each die is worth two
// moves of v: the remaining units are listed die by die (2 for an unused
// die, 1 for a half-used one) and every prefix of k units gives a
// combination of k*v steps.
//
// entryOnly restricts the result to single-die moves, as required when
// entering from the band.
func Combinations(dice *DiceSet, entryOnly bool) []Combination {
	a, b := dice.Die(0), dice.Die(1)
	if a.Face() < 1 || b.Face() < 1 {
		return nil
	}

	if dice.Doubles() {
		var units []int
		for i := 0; i < NumDice; i++ {
			for u := 0; u < dice.Die(i).Remaining(); u++ {
				units = append(units, i)
			}
		}
		limit := len(units)
		if entryOnly && limit > 1 {
			limit = 1
		}

		combos := make([]Combination, 0, limit)
		for k := 1; k <= limit; k++ {
			combos = append(combos, Combination{
				Steps: k * a.Face(),
				uses:  groupUnits(units[:k]),
				split: true,
			})
		}
		return combos
	}

	var combos []Combination
	if a.IsAvailable() {
		combos = append(combos, Combination{Steps: a.Face(), uses: []dieUse{{die: 0, units: 1}}})
	}
	if b.IsAvailable() {
		combos = append(combos, Combination{Steps: b.Face(), uses: []dieUse{{die: 1, units: 1}}})
	}
	if !entryOnly && a.IsAvailable() && b.IsAvailable() {
		combos = append(combos, Combination{
			Steps: a.Face() + b.Face(),
			uses:  []dieUse{{die: 0, units: 1}, {die: 1, units: 1}},
		})
	}
	return combos
}

func groupUnits(units []int) []dieUse {
	var uses []dieUse
	for _, d := range units {
		if n := len(uses); n > 0 && uses[n-1].die == d {
			uses[n-1].units++
			continue
		}
		uses = append(uses, dieUse{die: d, units: 1})
	}
	return uses
}

// available reports whether every unit the combination needs is still
// unspent.
func (c Combination) available(dice *DiceSet) bool {
	for _, u := range c.uses {
		d := dice.Die(u.die)
		if d == nil {
			return false
		}
		if c.split {
			if d.Remaining() < u.units {
				return false
			}
		} else if !d.IsAvailable() {
			return false
		}
	}
	return true
}

// Move is a candidate pawn movement.
type Move struct {
	Start       int // Travel index of the source (-1/24 for the band)
	Steps       int
	Dest        int // Travel index of the destination
	Player      Color
	Source      *Stack
	Destination *Stack // nil when Dest is off the board

	combo Combination
}

// Dice returns the indexes of the dice the move consumes, one entry per
// unit.
func (m Move) Dice() []int { return m.combo.Dice() }

// FromBand reports whether the move re-enters a pawn from the band.
func (m Move) FromBand() bool {
	return m.Source != nil && m.Source.Kind() == KindBand
}

func (m Move) String() string {
	return fmt.Sprintf("[%d->%d(%d steps)]", m.Start, m.Dest, m.Steps)
}

// MoveList is the set of legal candidate moves from one source stack. It is
// built by GenerateMoves and discarded once a move is committed or Clear is
// called.
type MoveList struct {
	board  *Board
	dice   *DiceSet
	source *Stack
	player Color
	moves  []Move

	onCommit func(Move, *Pawn)
}

// GenerateMoves builds the legal moves of player's top pawn on source and
// highlights their destinations. entryOnly limits candidates to single-die
// moves (band re-entry).
func GenerateMoves(board *Board, dice *DiceSet, source *Stack, player Color, entryOnly bool) *MoveList {
	return generate(board, dice, source, player, entryOnly, true)
}

func generate(board *Board, dice *DiceSet, source *Stack, player Color, entryOnly, highlight bool) *MoveList {
	ml := &MoveList{board: board, dice: dice, source: source, player: player}
	if board == nil || dice == nil || source == nil {
		return ml
	}
	start, ok := board.IndexOf(source, player)
	if !ok {
		return ml
	}

	for _, combo := range Combinations(dice, entryOnly) {
		dest := start + combo.Steps*player.Direction()
		m := Move{
			Start:       start,
			Steps:       combo.Steps,
			Dest:        dest,
			Player:      player,
			Source:      source,
			Destination: board.Field(dest),
			combo:       combo,
		}
		if !ml.valid(m) {
			continue
		}
		if highlight {
			m.Destination.Highlight()
		}
		ml.moves = append(ml.moves, m)
	}
	return ml
}

// valid checks a candidate against the current dice and board.
func (ml *MoveList) valid(m Move) bool {
	return m.Source != nil &&
		m.Destination != nil &&
		m.combo.available(ml.dice) &&
		m.Source.TopOf(ml.player) != nil &&
		m.Destination.IsRoomForPawn(ml.player)
}

// Source returns the stack the moves start from.
func (ml *MoveList) Source() *Stack { return ml.source }

// Player returns the color the moves were generated for.
func (ml *MoveList) Player() Color { return ml.player }

// Moves returns the candidates in generation order.
func (ml *MoveList) Moves() []Move {
	out := make([]Move, len(ml.moves))
	copy(out, ml.moves)
	return out
}

// HasAnyMoves reports whether there is at least one candidate.
func (ml *MoveList) HasAnyMoves() bool { return len(ml.moves) > 0 }

// IsMovePossible reports whether some candidate lands on dest.
func (ml *MoveList) IsMovePossible(dest *Stack) bool {
	if dest == nil {
		return false
	}
	for _, m := range ml.moves {
		if m.Destination == dest {
			return true
		}
	}
	return false
}

// DoFirstMove commits the first candidate and clears the list.
func (ml *MoveList) DoFirstMove() bool {
	defer ml.Clear()
	if len(ml.moves) == 0 {
		return false
	}
	m := ml.moves[0]
	if !ml.valid(m) {
		return false
	}
	return ml.commit(m)
}

// MoveTo commits the first candidate landing on dest. The candidate is
// checked again first since the dice may have been used since generation.
// The list is cleared whether or not a move was made.
func (ml *MoveList) MoveTo(dest *Stack) bool {
	defer ml.Clear()
	for _, m := range ml.moves {
		if m.Destination != dest {
			continue
		}
		if !ml.valid(m) {
			return false
		}
		return ml.commit(m)
	}
	return false
}

// commit moves the pawn, then spends the dice.
func (ml *MoveList) commit(m Move) bool {
	captured, ok := ml.board.MovePawnOf(m.Source, m.Destination, ml.player)
	if !ok {
		return false
	}
	if ml.onCommit != nil {
		ml.onCommit(m, captured)
	}

	for _, u := range m.combo.uses {
		d := ml.dice.Die(u.die)
		for i := 0; i < u.units; i++ {
			d.Use(!m.combo.split)
		}
	}
	return true
}

// Clear removes the highlights and empties the list.
func (ml *MoveList) Clear() {
	for _, m := range ml.moves {
		if m.Destination != nil {
			m.Destination.Reset()
		}
	}
	ml.moves = nil
}
