package engine

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newEngine(t *testing.T, cfg Config, r Roller, opts ...Option) (*TurnEngine, *stateLog) {
	t.Helper()
	log := &stateLog{}
	opts = append([]Option{WithRoller(r), WithObserver(log.observer())}, opts...)
	e := New(cfg, opts...)
	if err := e.Err(); err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, log
}

func statesEqual(a, b []GameState) bool {
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

func TestGameStatePlayer(t *testing.T) {
	tests := []struct {
		state GameState
		want  Color
	}{
		{Init, White},
		{RedRolls, Red},
		{RedMoves, Red},
		{WhiteRolls, White},
		{WhiteMoves, White},
	}
	for _, tc := range tests {
		if got := tc.state.Player(); got != tc.want {
			t.Errorf("%s.Player() = %s, want %s", tc.state, got, tc.want)
		}
	}
}

func TestTurnCycle(t *testing.T) {
	e, log := newEngine(t, DefaultConfig(), roll(3, 1))
	e.Start()

	if e.State() != RedMoves {
		t.Fatalf("state = %s, want red_moves", e.State())
	}
	if !e.RequestShowMoves(e.Board().Field(0)) {
		t.Fatal("red should have moves from field 0")
	}
	if got := destinations(e.Candidates()); !equalInts(got, []int{3, 1, 4}) {
		t.Errorf("candidates = %v, want [3 1 4]", got)
	}
	if !e.RequestCommitMove(e.Board().Field(4)) {
		t.Fatal("commit to field 4 failed")
	}

	if e.State() != WhiteMoves {
		t.Fatalf("state = %s, want white_moves", e.State())
	}
	if !e.RequestShowMoves(e.Board().Field(23)) {
		t.Fatal("white should have moves from field 23")
	}
	if !e.RequestCommitMove(e.Board().Field(19)) {
		t.Fatal("commit to field 19 failed")
	}

	want := []GameState{RedRolls, RedMoves, WhiteRolls, WhiteMoves, RedRolls, RedMoves}
	if !statesEqual(log.states, want) {
		t.Errorf("states = %v, want %v", log.states, want)
	}
}

func TestPartialMoveKeepsTurn(t *testing.T) {
	e, _ := newEngine(t, DefaultConfig(), roll(3, 1))
	e.Start()

	e.RequestShowMoves(e.Board().Field(0))
	if !e.RequestCommitMove(e.Board().Field(3)) {
		t.Fatal("commit failed")
	}
	if e.State() != RedMoves {
		t.Errorf("state = %s, want red_moves", e.State())
	}
	if e.Dice().Die(0).Usage() != FullyUsed || e.Dice().Die(1).Usage() != Unused {
		t.Error("only the 3 should be spent")
	}
	if e.Candidates() != nil {
		t.Error("candidates should be cleared after a commit")
	}
}

func TestAllDiceUsedEndsTurn(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoRoll = false
	e, _ := newEngine(t, cfg, roll(6, 2))
	e.Start()

	if e.State() != RedRolls {
		t.Fatalf("state = %s, want red_rolls", e.State())
	}
	if !e.RequestRoll() {
		t.Fatal("RequestRoll failed")
	}
	if e.State() != RedMoves {
		t.Fatalf("state = %s, want red_moves", e.State())
	}
	if e.RequestRoll() {
		t.Error("RequestRoll should fail during a move phase")
	}

	e.Dice().Die(0).Use(true)
	if e.State() != RedMoves {
		t.Fatalf("state = %s after one die, want red_moves", e.State())
	}
	e.Dice().Die(1).Use(true)
	if e.State() != WhiteRolls {
		t.Fatalf("state = %s after both dice, want white_rolls", e.State())
	}

	e.Dice().Die(1).Use(true)
	if e.State() != WhiteRolls {
		t.Errorf("state = %s, spent die must not advance a rolling phase", e.State())
	}
}

func TestRollFromStateObserver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoRoll = false

	var e *TurnEngine
	var rolled []bool
	view := ObserverFuncs{StateChanged: func(_, next GameState) {
		if next == RedRolls {
			rolled = append(rolled, e.RequestRoll())
		}
	}}
	e, _ = newEngine(t, cfg, roll(3, 1), WithObserver(view))
	e.Start()

	if len(rolled) != 1 || !rolled[0] {
		t.Fatalf("RequestRoll on entering red_rolls = %v, want [true]", rolled)
	}
	if e.State() != RedMoves {
		t.Errorf("state = %s, want red_moves", e.State())
	}
	if e.Dice().Die(0).Face() != 3 || e.Dice().Die(1).Face() != 1 {
		t.Errorf("faces = %d %d, want 3 1", e.Dice().Die(0).Face(), e.Dice().Die(1).Face())
	}
}

func TestForcedReentry(t *testing.T) {
	cfg := emptyConfig(
		Placement{Field: 10, Color: Red, Count: 1},
		Placement{Field: 23, Color: White, Count: 2},
	)
	e, _ := newEngine(t, cfg, roll(3, 1))
	toBand(t, e.Board(), 10, Red)

	var committed []Move
	e.Subscribe(ObserverFuncs{MoveCommitted: func(m Move, _ *Pawn) { committed = append(committed, m) }})
	e.Start()

	if e.State() != RedMoves {
		t.Fatalf("state = %s, want red_moves", e.State())
	}
	if e.Board().Band().Count(Red) != 0 || e.Board().Field(2).Count(Red) != 1 {
		t.Error("red pawn should have entered on field 2")
	}
	if e.Dice().Die(0).Usage() != FullyUsed || e.Dice().Die(1).Usage() != Unused {
		t.Error("entry should use the first die only")
	}
	if len(committed) != 1 || !committed[0].FromBand() || committed[0].Start != BandIndexRed {
		t.Errorf("committed = %v, want one entry from the band", committed)
	}
}

func TestForcedReentryDoubles(t *testing.T) {
	cfg := emptyConfig(
		Placement{Field: 10, Color: Red, Count: 2},
		Placement{Field: 23, Color: White, Count: 2},
	)
	e, _ := newEngine(t, cfg, roll(5, 5))
	toBand(t, e.Board(), 10, Red)
	toBand(t, e.Board(), 10, Red)
	e.Start()

	if e.State() != RedMoves {
		t.Fatalf("state = %s, want red_moves", e.State())
	}
	if got := e.Board().Field(4).Count(Red); got != 2 {
		t.Errorf("red on field 4 = %d, want 2", got)
	}
	if e.Dice().Die(0).Usage() != FullyUsed || e.Dice().Die(1).Usage() != Unused {
		t.Errorf("usage = %v/%v, want fully_used/unused",
			e.Dice().Die(0).Usage(), e.Dice().Die(1).Usage())
	}
}

func TestBlockedReentrySkipsTurn(t *testing.T) {
	layout := []Placement{{Field: 10, Color: Red, Count: 1}}
	for f := 0; f < 6; f++ {
		layout = append(layout, Placement{Field: f, Color: White, Count: 2})
	}
	e, log := newEngine(t, emptyConfig(layout...), roll(3, 1))
	toBand(t, e.Board(), 10, Red)
	e.Start()

	want := []GameState{RedRolls, WhiteRolls, WhiteMoves}
	if !statesEqual(log.states, want) {
		t.Errorf("states = %v, want %v", log.states, want)
	}
	if e.Board().Band().Count(Red) != 1 {
		t.Error("red pawn should still be on the band")
	}
}

func TestBlockedWithoutDetection(t *testing.T) {
	cfg := emptyConfig(
		Placement{Field: 20, Color: Red, Count: 2},
		Placement{Field: 3, Color: White, Count: 2},
	)
	cfg.AutoRoll = false
	e, _ := newEngine(t, cfg, roll(6, 5))
	e.Start()
	e.RequestRoll()

	if e.State() != RedMoves {
		t.Errorf("state = %s, want red_moves", e.State())
	}
	if e.HasLegalMoves() {
		t.Error("red should have no legal moves")
	}
}

func TestEndTurnWhenBlocked(t *testing.T) {
	cfg := emptyConfig(
		Placement{Field: 20, Color: Red, Count: 2},
		Placement{Field: 3, Color: White, Count: 2},
	)
	cfg.AutoRoll = false
	cfg.EndTurnWhenBlocked = true
	e, log := newEngine(t, cfg, roll(6, 5))
	e.Start()
	e.RequestRoll()

	want := []GameState{RedRolls, WhiteRolls}
	if !statesEqual(log.states, want) {
		t.Errorf("states = %v, want %v", log.states, want)
	}
}

func TestEndTurnWhenBlockedAfterMove(t *testing.T) {
	cfg := emptyConfig(
		Placement{Field: 16, Color: Red, Count: 1},
		Placement{Field: 3, Color: White, Count: 2},
	)
	cfg.AutoRoll = false
	cfg.EndTurnWhenBlocked = true
	e, _ := newEngine(t, cfg, roll(2, 6))
	e.Start()
	e.RequestRoll()

	if e.State() != RedMoves {
		t.Fatalf("state = %s, want red_moves", e.State())
	}
	e.RequestShowMoves(e.Board().Field(16))
	if !e.RequestCommitMove(e.Board().Field(22)) {
		t.Fatal("commit to field 22 failed")
	}
	if e.State() != WhiteRolls {
		t.Errorf("state = %s, want white_rolls once the 2 cannot be played", e.State())
	}
}

func TestRequestShowMovesRejects(t *testing.T) {
	e, _ := newEngine(t, DefaultConfig(), roll(3, 1))
	e.Start()
	b := e.Board()

	tests := []struct {
		name  string
		stack *Stack
	}{
		{"opponent field", b.Field(23)},
		{"empty field", b.Field(2)},
		{"band", b.Band()},
		{"nil", nil},
	}
	for _, tc := range tests {
		if e.RequestShowMoves(tc.stack) {
			t.Errorf("%s: RequestShowMoves should fail", tc.name)
		}
	}
}

func TestRequestCommitMoveNotCandidate(t *testing.T) {
	e, _ := newEngine(t, DefaultConfig(), roll(3, 1))
	e.Start()

	e.RequestShowMoves(e.Board().Field(0))
	if e.RequestCommitMove(e.Board().Field(9)) {
		t.Error("commit to a non-candidate should fail")
	}
	if e.Candidates() != nil {
		t.Error("candidates should be cleared")
	}
	if e.RequestCommitMove(e.Board().Field(3)) {
		t.Error("commit without candidates should fail")
	}
}

func TestCanPawnBeMoved(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoRoll = false
	e, _ := newEngine(t, cfg, roll(3, 1))
	red := e.Board().Field(0).Top()
	white := e.Board().Field(23).Top()

	e.Start()
	if e.CanPawnBeMoved(red) {
		t.Error("pawns cannot move while rolling")
	}
	e.RequestRoll()
	if !e.CanPawnBeMoved(red) {
		t.Error("red pawn should be movable in red_moves")
	}
	if e.CanPawnBeMoved(white) || e.CanPawnBeMoved(nil) {
		t.Error("white and nil pawns should not be movable")
	}
}

func TestStartIsIdempotent(t *testing.T) {
	e, log := newEngine(t, DefaultConfig(), roll(3, 1))
	e.Start()
	e.Start()

	if len(log.states) != 2 {
		t.Errorf("states = %v, want one RedRolls and one RedMoves", log.states)
	}
}

func TestDiceNotifications(t *testing.T) {
	var rolled [][2]int
	var used []Usage
	obs := ObserverFuncs{
		DiceRolled: func(die, face int) { rolled = append(rolled, [2]int{die, face}) },
		DiceUsed:   func(_ int, u Usage) { used = append(used, u) },
	}
	e, _ := newEngine(t, DefaultConfig(), roll(4, 4), WithObserver(obs))
	e.Start()

	if len(rolled) != 2 || rolled[0] != [2]int{0, 4} || rolled[1] != [2]int{1, 4} {
		t.Errorf("rolled = %v, want [[0 4] [1 4]]", rolled)
	}

	e.RequestShowMoves(e.Board().Field(0))
	e.RequestCommitMove(e.Board().Field(4))
	if len(used) != 1 || used[0] != HalfUsed {
		t.Errorf("used = %v, want [half_used]", used)
	}
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"fields", func(c *Config) { c.Fields = 23 }, ErrFieldCount},
		{"dice", func(c *Config) { c.Dice = 3 }, ErrDiceCount},
		{"field range", func(c *Config) { c.Layout = []Placement{{Field: 24, Color: Red, Count: 1}} }, ErrLayout},
		{"mixed field", func(c *Config) {
			c.Layout = []Placement{{Field: 4, Color: Red, Count: 1}, {Field: 4, Color: White, Count: 1}}
		}, ErrLayout},
		{"too many pawns", func(c *Config) {
			c.Layout = append(c.Layout, Placement{Field: 1, Color: Red, Count: 1})
		}, ErrLayout},
		{"over capacity", func(c *Config) {
			c.MaxPawns = 4
		}, ErrLayout},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.ErrorLevel)
			cfg := DefaultConfig()
			tc.modify(&cfg)

			e := New(cfg, WithLogger(zap.New(core)), WithRoller(roll(1)))
			if !errors.Is(e.Err(), tc.want) {
				t.Fatalf("Err = %v, want %v", e.Err(), tc.want)
			}
			if e.Ready() || e.Board() != nil || e.Dice() != nil {
				t.Error("engine should be inert")
			}
			if got := logs.FilterMessage("engine disabled by configuration error").Len(); got != 1 {
				t.Errorf("logged %d configuration errors, want 1", got)
			}

			e.Start()
			if e.State() != Init {
				t.Errorf("state = %s, want init", e.State())
			}
			if e.RequestRoll() || e.RequestShowMoves(nil) || e.RequestCommitMove(nil) || e.HasLegalMoves() {
				t.Error("requests on an inert engine should fail")
			}
		})
	}
}

func TestStartupDelay(t *testing.T) {
	sched := &delayRecorder{}
	cfg := DefaultConfig()
	cfg.StartupDelay = 250_000_000
	cfg.AutoRoll = false
	e, _ := newEngine(t, cfg, roll(1), WithScheduler(sched))
	e.Start()

	if len(sched.delays) == 0 || sched.delays[0] != cfg.StartupDelay {
		t.Errorf("delays = %v, want startup delay first", sched.delays)
	}
	if e.State() != RedRolls {
		t.Errorf("state = %s, want red_rolls", e.State())
	}
}
