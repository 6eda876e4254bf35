package engine

// Observer receives engine notifications. Calls are made on the engine's
// scheduler and must not block.
type Observer interface {
	OnStateChanged(old, next GameState)
	OnDiceRolled(die, face int)
	OnDiceUsed(die int, usage Usage)
	OnMoveCommitted(m Move, captured *Pawn)
}

// ObserverFuncs adapts optional callbacks to Observer. Nil fields are
// skipped.
type ObserverFuncs struct {
	StateChanged  func(old, next GameState)
	DiceRolled    func(die, face int)
	DiceUsed      func(die int, usage Usage)
	MoveCommitted func(m Move, captured *Pawn)
}

func (o ObserverFuncs) OnStateChanged(old, next GameState) {
	if o.StateChanged != nil {
		o.StateChanged(old, next)
	}
}

func (o ObserverFuncs) OnDiceRolled(die, face int) {
	if o.DiceRolled != nil {
		o.DiceRolled(die, face)
	}
}

func (o ObserverFuncs) OnDiceUsed(die int, usage Usage) {
	if o.DiceUsed != nil {
		o.DiceUsed(die, usage)
	}
}

func (o ObserverFuncs) OnMoveCommitted(m Move, captured *Pawn) {
	if o.MoveCommitted != nil {
		o.MoveCommitted(m, captured)
	}
}
