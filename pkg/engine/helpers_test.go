package engine

import "testing"

// scriptedRoller returns the given faces in order, cycling when exhausted.
type scriptedRoller struct {
	faces []int
	next  int
}

func roll(faces ...int) *scriptedRoller {
	return &scriptedRoller{faces: faces}
}

func (r *scriptedRoller) Intn(n int) int {
	f := r.faces[r.next%len(r.faces)]
	r.next++
	if f < 1 || f > n {
		return 0
	}
	return f - 1
}

// stateLog collects state transitions.
type stateLog struct {
	states []GameState
}

func (l *stateLog) observer() Observer {
	return ObserverFuncs{
		StateChanged: func(_, next GameState) { l.states = append(l.states, next) },
	}
}

func emptyConfig(layout ...Placement) Config {
	cfg := DefaultConfig()
	cfg.Layout = layout
	return cfg
}

// toBand moves the top pawn of color c from field i to the band.
func toBand(t *testing.T, b *Board, i int, c Color) {
	t.Helper()
	if _, ok := b.MovePawnOf(b.Field(i), b.Band(), c); !ok {
		t.Fatalf("could not move %s pawn from field %d to band", c, i)
	}
}

func destinations(moves []Move) []int {
	out := make([]int, len(moves))
	for i, m := range moves {
		out[i] = m.Dest
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
