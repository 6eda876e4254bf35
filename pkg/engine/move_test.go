package engine

import "testing"

func diceOf(a, b int) *DiceSet {
	ds := NewDiceSet(DiceConfig{}, &Immediate{}, roll(1))
	ds.Set(a, b)
	return ds
}

func boardOf(t *testing.T, layout ...Placement) *Board {
	t.Helper()
	b := NewBoard(DefaultMaxPawns)
	if err := b.Setup(layout, nil); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	return b
}

func steps(combos []Combination) []int {
	out := make([]int, len(combos))
	for i, c := range combos {
		out[i] = c.Steps
	}
	return out
}

func TestCombinationsNonDoubles(t *testing.T) {
	ds := diceOf(3, 5)

	tests := []struct {
		name      string
		use       func()
		entryOnly bool
		want      []int
	}{
		{"fresh", func() {}, false, []int{3, 5, 8}},
		{"entry only", func() {}, true, []int{3, 5}},
		{"first used", func() { ds.Die(0).Use(true) }, false, []int{5}},
		{"both used", func() { ds.Die(1).Use(true) }, false, []int{}},
	}

	for _, tc := range tests {
		tc.use()
		got := steps(Combinations(ds, tc.entryOnly))
		if !equalInts(got, tc.want) {
			t.Errorf("%s: steps = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCombinationsDoubles(t *testing.T) {
	tests := []struct {
		name      string
		prepare   func(ds *DiceSet)
		entryOnly bool
		want      []int
	}{
		{"fresh", func(*DiceSet) {}, false, []int{2, 4, 6, 8}},
		{"entry only", func(*DiceSet) {}, true, []int{2}},
		{"one unit used", func(ds *DiceSet) { ds.Die(0).Use(false) }, false, []int{2, 4, 6}},
		{"first die used", func(ds *DiceSet) { ds.Die(0).Use(true) }, false, []int{2, 4}},
		{"one unit left", func(ds *DiceSet) {
			ds.Die(0).Use(true)
			ds.Die(1).Use(false)
		}, false, []int{2}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ds := diceOf(2, 2)
			tc.prepare(ds)
			got := steps(Combinations(ds, tc.entryOnly))
			if !equalInts(got, tc.want) {
				t.Errorf("steps = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCombinationsUnrolled(t *testing.T) {
	ds := NewDiceSet(DiceConfig{}, &Immediate{}, roll(1))
	if got := Combinations(ds, false); got != nil {
		t.Errorf("Combinations = %v, want nil before a roll", got)
	}
}

func TestCombinationDice(t *testing.T) {
	ds := diceOf(4, 4)
	ds.Die(0).Use(false)
	combos := Combinations(ds, false)
	if got := combos[2].Dice(); !equalInts(got, []int{0, 1, 1}) {
		t.Errorf("Dice = %v, want [0 1 1]", got)
	}
}

func TestGenerateMovesBasic(t *testing.T) {
	b := boardOf(t, Placement{Field: 0, Color: Red, Count: 1})
	ml := GenerateMoves(b, diceOf(3, 4), b.Field(0), Red, false)

	if got := destinations(ml.Moves()); !equalInts(got, []int{3, 4, 7}) {
		t.Fatalf("destinations = %v, want [3 4 7]", got)
	}
	for _, i := range []int{3, 4, 7} {
		if !b.Field(i).Highlighted() {
			t.Errorf("field %d should be highlighted", i)
		}
	}

	ml.Clear()
	for _, f := range b.Fields() {
		if f.Highlighted() {
			t.Errorf("%v still highlighted after Clear", f)
		}
	}
	if ml.HasAnyMoves() {
		t.Error("Clear should empty the list")
	}
}

func TestGenerateMovesBlockedDestination(t *testing.T) {
	b := boardOf(t,
		Placement{Field: 0, Color: Red, Count: 1},
		Placement{Field: 7, Color: White, Count: 2},
	)
	ml := GenerateMoves(b, diceOf(3, 4), b.Field(0), Red, false)

	if got := destinations(ml.Moves()); !equalInts(got, []int{3, 4}) {
		t.Errorf("destinations = %v, want [3 4]", got)
	}
	if b.Field(7).Highlighted() {
		t.Error("blocked field should not be highlighted")
	}
}

func TestGenerateMovesIgnoresIntermediateLanding(t *testing.T) {
	b := boardOf(t,
		Placement{Field: 0, Color: Red, Count: 1},
		Placement{Field: 3, Color: White, Count: 2},
	)
	ml := GenerateMoves(b, diceOf(3, 4), b.Field(0), Red, false)

	if got := destinations(ml.Moves()); !equalInts(got, []int{4, 7}) {
		t.Errorf("destinations = %v, want [4 7]", got)
	}
}

func TestGenerateMovesWhite(t *testing.T) {
	b := boardOf(t, Placement{Field: 23, Color: White, Count: 2})
	ml := GenerateMoves(b, diceOf(6, 1), b.Field(23), White, false)

	if got := destinations(ml.Moves()); !equalInts(got, []int{17, 22, 16}) {
		t.Errorf("destinations = %v, want [17 22 16]", got)
	}
}

func TestGenerateMovesOffBoard(t *testing.T) {
	b := boardOf(t, Placement{Field: 21, Color: Red, Count: 1})
	ml := GenerateMoves(b, diceOf(2, 5), b.Field(21), Red, false)

	if got := destinations(ml.Moves()); !equalInts(got, []int{23}) {
		t.Errorf("destinations = %v, want [23]", got)
	}
}

func TestGenerateMovesWrongColor(t *testing.T) {
	b := boardOf(t, Placement{Field: 5, Color: White, Count: 3})
	ml := GenerateMoves(b, diceOf(1, 2), b.Field(5), Red, false)
	if ml.HasAnyMoves() {
		t.Errorf("moves = %v, want none for a stack without red pawns", ml.Moves())
	}
}

func TestBandEntryDoubles(t *testing.T) {
	b := boardOf(t, Placement{Field: 10, Color: Red, Count: 1})
	toBand(t, b, 10, Red)
	ds := diceOf(5, 5)

	ml := GenerateMoves(b, ds, b.Band(), Red, true)
	if got := destinations(ml.Moves()); !equalInts(got, []int{4}) {
		t.Fatalf("destinations = %v, want [4]", got)
	}
	if !ml.DoFirstMove() {
		t.Fatal("DoFirstMove failed")
	}

	if b.Band().Count(Red) != 0 {
		t.Error("band should be empty")
	}
	if b.Field(4).Count(Red) != 1 {
		t.Error("pawn should have entered on field 4")
	}
	if ds.Die(0).Usage() != HalfUsed || ds.Die(1).Usage() != Unused {
		t.Errorf("usage = %v/%v, want half_used/unused", ds.Die(0).Usage(), ds.Die(1).Usage())
	}
}

func TestBandEntryWhite(t *testing.T) {
	b := boardOf(t,
		Placement{Field: 12, Color: White, Count: 1},
		Placement{Field: 21, Color: Red, Count: 2},
	)
	toBand(t, b, 12, White)

	ml := GenerateMoves(b, diceOf(3, 1), b.Band(), White, true)
	if got := destinations(ml.Moves()); !equalInts(got, []int{23}) {
		t.Errorf("destinations = %v, want [23]", got)
	}
}

func TestMoveToCaptures(t *testing.T) {
	b := boardOf(t,
		Placement{Field: 0, Color: Red, Count: 1},
		Placement{Field: 3, Color: White, Count: 1},
	)
	ds := diceOf(3, 4)
	ml := GenerateMoves(b, ds, b.Field(0), Red, false)

	var hit *Pawn
	ml.onCommit = func(_ Move, captured *Pawn) { hit = captured }
	if !ml.MoveTo(b.Field(3)) {
		t.Fatal("MoveTo failed")
	}

	if hit == nil || hit.Color != White {
		t.Fatalf("captured = %v, want a white pawn", hit)
	}
	if b.Band().Count(White) != 1 {
		t.Error("hit pawn should be on the band")
	}
	if ds.Die(0).Usage() != FullyUsed || ds.Die(1).Usage() != Unused {
		t.Errorf("usage = %v/%v, want fully_used/unused", ds.Die(0).Usage(), ds.Die(1).Usage())
	}
}

func TestMoveToCombined(t *testing.T) {
	b := boardOf(t, Placement{Field: 0, Color: Red, Count: 1})
	ds := diceOf(3, 4)
	ml := GenerateMoves(b, ds, b.Field(0), Red, false)

	if !ml.MoveTo(b.Field(7)) {
		t.Fatal("MoveTo failed")
	}
	if ds.AnyAvailable() {
		t.Error("combined move should spend both dice")
	}
}

func TestMoveToDoublesUnits(t *testing.T) {
	b := boardOf(t, Placement{Field: 0, Color: Red, Count: 1})
	ds := diceOf(2, 2)
	ml := GenerateMoves(b, ds, b.Field(0), Red, false)

	if !ml.MoveTo(b.Field(6)) {
		t.Fatal("MoveTo failed")
	}
	if ds.Die(0).Usage() != FullyUsed || ds.Die(1).Usage() != HalfUsed {
		t.Errorf("usage = %v/%v, want fully_used/half_used", ds.Die(0).Usage(), ds.Die(1).Usage())
	}
}

func TestMoveToUnknownDestination(t *testing.T) {
	b := boardOf(t, Placement{Field: 0, Color: Red, Count: 1})
	ds := diceOf(3, 4)
	ml := GenerateMoves(b, ds, b.Field(0), Red, false)

	if ml.MoveTo(b.Field(9)) {
		t.Error("MoveTo a non-candidate should fail")
	}
	if ml.HasAnyMoves() || b.Field(3).Highlighted() {
		t.Error("list should be cleared after a failed MoveTo")
	}
	if b.Field(0).Count(Red) != 1 || !ds.Die(0).IsAvailable() {
		t.Error("failed MoveTo must not change the board or dice")
	}
}

func TestMoveToRevalidatesDice(t *testing.T) {
	b := boardOf(t, Placement{Field: 0, Color: Red, Count: 1})
	ds := diceOf(3, 4)
	ml := GenerateMoves(b, ds, b.Field(0), Red, false)

	ds.Die(0).Use(true)
	if ml.MoveTo(b.Field(3)) {
		t.Error("MoveTo with a spent die should fail")
	}
	if b.Field(0).Count(Red) != 1 {
		t.Error("pawn should not have moved")
	}
}

func TestIsMovePossible(t *testing.T) {
	b := boardOf(t, Placement{Field: 0, Color: Red, Count: 1})
	ml := GenerateMoves(b, diceOf(1, 2), b.Field(0), Red, false)

	if !ml.IsMovePossible(b.Field(3)) {
		t.Error("field 3 should be reachable")
	}
	if ml.IsMovePossible(b.Field(4)) || ml.IsMovePossible(nil) {
		t.Error("field 4 and nil should not be reachable")
	}
}
