package engine

import (
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// GameState is the turn state machine's state. After Init the states cycle
// RedRolls, RedMoves, WhiteRolls, WhiteMoves.
type GameState int

const (
	Init GameState = iota
	RedRolls
	RedMoves
	WhiteRolls
	WhiteMoves
)

func (s GameState) String() string {
	switch s {
	case Init:
		return "init"
	case RedRolls:
		return "red_rolls"
	case RedMoves:
		return "red_moves"
	case WhiteRolls:
		return "white_rolls"
	case WhiteMoves:
		return "white_moves"
	default:
		return "unknown"
	}
}

// Player returns the player a state belongs to: Red during RedRolls and
// RedMoves, White otherwise.
func (s GameState) Player() Color {
	if s == RedRolls || s == RedMoves {
		return Red
	}
	return White
}

// IsRolls reports whether s is a rolling phase.
func (s GameState) IsRolls() bool { return s == RedRolls || s == WhiteRolls }

// IsMoves reports whether s is a move phase.
func (s GameState) IsMoves() bool { return s == RedMoves || s == WhiteMoves }

// RollsState returns c's rolling phase.
func RollsState(c Color) GameState {
	if c == Red {
		return RedRolls
	}
	return WhiteRolls
}

// MovesState returns c's move phase.
func MovesState(c Color) GameState {
	if c == Red {
		return RedMoves
	}
	return WhiteMoves
}

// Option configures a TurnEngine.
type Option func(*TurnEngine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *TurnEngine) {
		if l != nil {
			e.log = l.Named("engine")
		}
	}
}

// WithScheduler sets the scheduler. The default is an Immediate scheduler.
func WithScheduler(s Scheduler) Option {
	return func(e *TurnEngine) {
		if s != nil {
			e.sched = s
		}
	}
}

// WithRoller sets the random source for dice.
func WithRoller(r Roller) Option {
	return func(e *TurnEngine) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithPawnFactory sets how starting pawns are created.
func WithPawnFactory(f PawnFactory) Option {
	return func(e *TurnEngine) { e.factory = f }
}

// WithObserver subscribes o before the engine is built.
func WithObserver(o Observer) Option {
	return func(e *TurnEngine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// TurnEngine owns the board and the dice and drives the turn cycle. It is
// not safe for concurrent use; run it on one goroutine or through a Loop.
type TurnEngine struct {
	cfg     Config
	log     *zap.Logger
	sched   Scheduler
	rng     Roller
	factory PawnFactory

	board *Board
	dice  *DiceSet

	state      GameState
	candidates *MoveList
	observers  []Observer

	started    bool
	committing bool
	usedLater  bool

	err error
}

// New builds an engine from cfg. An invalid configuration is logged and
// leaves the engine inert: it never leaves Init and Err reports the cause.
func New(cfg Config, opts ...Option) *TurnEngine {
	e := &TurnEngine{
		cfg:   cfg,
		log:   zap.NewNop(),
		sched: &Immediate{},
		state: Init,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	if err := cfg.Validate(); err != nil {
		e.fail(err)
		return e
	}

	e.board = NewBoard(cfg.MaxPawns)
	if err := e.board.Setup(cfg.Layout, e.factory); err != nil {
		e.board = nil
		e.fail(err)
		return e
	}

	e.dice = NewDiceSet(cfg.Roll, e.sched, e.rng)
	e.dice.OnRolled(e.onDiceRolled)
	e.dice.OnUsed(e.onDiceUsed)
	return e
}

func (e *TurnEngine) fail(err error) {
	e.err = err
	e.log.Error("engine disabled by configuration error", zap.Error(err))
}

// Err returns the configuration error that disabled the engine, if any.
func (e *TurnEngine) Err() error { return e.err }

// Ready reports whether the engine was configured correctly.
func (e *TurnEngine) Ready() bool { return e.err == nil }

// Board returns the board, or nil when the engine is disabled.
func (e *TurnEngine) Board() *Board { return e.board }

// Dice returns the dice, or nil when the engine is disabled.
func (e *TurnEngine) Dice() *DiceSet { return e.dice }

// State returns the current state.
func (e *TurnEngine) State() GameState { return e.state }

// CurrentPlayer returns the player whose turn it is.
func (e *TurnEngine) CurrentPlayer() Color { return e.state.Player() }

// Subscribe adds an observer.
func (e *TurnEngine) Subscribe(o Observer) {
	if o != nil {
		e.observers = append(e.observers, o)
	}
}

// Candidates returns the moves currently offered to the player.
func (e *TurnEngine) Candidates() []Move {
	if e.candidates == nil {
		return nil
	}
	return e.candidates.Moves()
}

// Start schedules the first transition to RedRolls after the startup delay.
func (e *TurnEngine) Start() {
	if e.err != nil {
		e.log.Error("cannot start engine", zap.Error(e.err))
		return
	}
	if e.started {
		return
	}
	e.started = true
	e.sched.After(e.cfg.StartupDelay, func() {
		if e.state == Init {
			e.changeState(RedRolls)
		}
	})
}

// RequestRoll rolls the dice during a rolling phase.
func (e *TurnEngine) RequestRoll() bool {
	if e.err != nil || !e.state.IsRolls() {
		return false
	}
	return e.dice.RollAll()
}

// CanPawnBeMoved reports whether p belongs to the current player and that
// player's move phase is active.
func (e *TurnEngine) CanPawnBeMoved(p *Pawn) bool {
	if e.err != nil || p == nil || p.Color != e.CurrentPlayer() {
		return false
	}
	return e.state == MovesState(p.Color)
}

// RequestShowMoves generates the candidate moves for the top pawn of a
// field. It returns true when at least one move is offered.
func (e *TurnEngine) RequestShowMoves(s *Stack) bool {
	if e.err != nil || s == nil || s.Kind() != KindField {
		return false
	}
	if !e.CanPawnBeMoved(s.Top()) {
		e.log.Debug("selection ignored",
			zap.Stringer("stack", s),
			zap.Stringer("state", e.state))
		return false
	}

	e.clearCandidates()
	e.candidates = GenerateMoves(e.board, e.dice, s, e.CurrentPlayer(), false)
	e.candidates.onCommit = e.onCommit

	for _, m := range e.candidates.moves {
		e.log.Debug("candidate",
			zap.Int("start", m.Start),
			zap.Int("steps", m.Steps),
			zap.Int("dest", m.Dest))
	}
	return e.candidates.HasAnyMoves()
}

// RequestCommitMove moves to dest if it is one of the offered candidates.
// The candidates are cleared either way.
func (e *TurnEngine) RequestCommitMove(dest *Stack) bool {
	if e.err != nil || !e.state.IsMoves() || e.candidates == nil {
		return false
	}

	ml := e.candidates
	e.committing = true
	ok := ml.MoveTo(dest)
	e.committing = false
	if e.candidates == ml {
		e.candidates = nil
	}
	if !ok {
		e.log.Debug("move rejected", zap.Stringer("dest", dest))
	}

	if e.usedLater {
		e.usedLater = false
		e.checkTurnOver()
	}
	return ok
}

// HasLegalMoves reports whether the current player can move any pawn with
// the dice left. Pawns on the band are checked first since they must enter
// before anything else moves.
func (e *TurnEngine) HasLegalMoves() bool {
	if e.err != nil {
		return false
	}
	player := e.CurrentPlayer()
	if e.board.Band().Count(player) > 0 {
		return generate(e.board, e.dice, e.board.Band(), player, true, false).HasAnyMoves()
	}
	for _, f := range e.board.fields {
		if owner, ok := f.Owner(); !ok || owner != player {
			continue
		}
		if generate(e.board, e.dice, f, player, false, false).HasAnyMoves() {
			return true
		}
	}
	return false
}

func (e *TurnEngine) clearCandidates() {
	if e.candidates != nil {
		e.candidates.Clear()
		e.candidates = nil
	}
}

func (e *TurnEngine) changeState(next GameState) {
	old := e.state
	e.state = next
	e.clearCandidates()

	// Observers may roll as soon as they see a rolling phase.
	if next.IsRolls() {
		e.dice.Arm()
	}

	e.log.Debug("state changed",
		zap.Stringer("from", old),
		zap.Stringer("to", next))
	for _, o := range e.observers {
		o.OnStateChanged(old, next)
	}

	if next.IsRolls() && e.cfg.AutoRoll {
		e.sched.After(0, func() { e.RequestRoll() })
	}
}

func (e *TurnEngine) onDiceRolled(d *Die) {
	for _, o := range e.observers {
		o.OnDiceRolled(d.Index(), d.Face())
	}
	if !e.dice.AllFinishedRolling() {
		return
	}
	if !e.state.IsRolls() {
		e.log.Warn("dice settled outside a rolling phase", zap.Stringer("state", e.state))
		return
	}
	e.beginMoves()
}

// beginMoves runs forced band re-entry and then opens the move phase, or
// hands the turn over when the player cannot move.
func (e *TurnEngine) beginMoves() {
	player := e.CurrentPlayer()
	band := e.board.Band()

	for band.Count(player) > 0 && e.dice.AnyAvailable() {
		ml := GenerateMoves(e.board, e.dice, band, player, true)
		ml.onCommit = e.onCommit
		if !ml.DoFirstMove() {
			break
		}
	}

	if band.Count(player) > 0 || !e.dice.AnyAvailable() {
		e.log.Info("move phase skipped",
			zap.Stringer("player", player),
			zap.Int("band", band.Count(player)),
			zap.Ints("dice", e.faces()))
		e.changeState(RollsState(player.Opponent()))
		return
	}
	if e.cfg.EndTurnWhenBlocked && !e.HasLegalMoves() {
		e.log.Info("no legal moves", zap.Stringer("player", player), zap.Ints("dice", e.faces()))
		e.changeState(RollsState(player.Opponent()))
		return
	}
	e.changeState(MovesState(player))
}

func (e *TurnEngine) onDiceUsed(d *Die) {
	for _, o := range e.observers {
		o.OnDiceUsed(d.Index(), d.Usage())
	}
	if e.committing {
		e.usedLater = true
		return
	}
	e.checkTurnOver()
}

// checkTurnOver ends the move phase once the dice are spent. Running out of
// legal moves only ends it when EndTurnWhenBlocked is set.
func (e *TurnEngine) checkTurnOver() {
	if !e.state.IsMoves() {
		return
	}
	movesExist := true
	if e.cfg.EndTurnWhenBlocked && e.dice.AnyAvailable() {
		movesExist = e.HasLegalMoves()
	}
	if !e.dice.AnyAvailable() || !movesExist {
		e.changeState(RollsState(e.CurrentPlayer().Opponent()))
	}
}

func (e *TurnEngine) onCommit(m Move, captured *Pawn) {
	if captured != nil {
		e.log.Debug("pawn hit",
			zap.Stringer("player", m.Player),
			zap.Int("dest", m.Dest))
	}
	for _, o := range e.observers {
		o.OnMoveCommitted(m, captured)
	}
}

func (e *TurnEngine) faces() []int {
	f := e.dice.Faces()
	return f[:]
}
