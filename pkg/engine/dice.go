package engine

// NumDice is the number of dice in a DiceSet.
const NumDice = 2

// DiceSet owns the two dice of the game.
type DiceSet struct {
	dice [NumDice]*Die

	rolled []func(*Die)
	used   []func(*Die)
}

// NewDiceSet creates two dice sharing the given scheduler and random source.
func NewDiceSet(cfg DiceConfig, sched Scheduler, rng Roller) *DiceSet {
	ds := &DiceSet{}
	for i := range ds.dice {
		d := newDie(i, cfg, sched, rng)
		d.onRolled = ds.fireRolled
		d.onUsed = ds.fireUsed
		ds.dice[i] = d
	}
	return ds
}

// OnRolled registers a callback fired every time a die settles.
func (ds *DiceSet) OnRolled(fn func(*Die)) {
	ds.rolled = append(ds.rolled, fn)
}

// OnUsed registers a callback fired every time a die is used.
func (ds *DiceSet) OnUsed(fn func(*Die)) {
	ds.used = append(ds.used, fn)
}

func (ds *DiceSet) fireRolled(d *Die) {
	for _, fn := range ds.rolled {
		fn(d)
	}
}

func (ds *DiceSet) fireUsed(d *Die) {
	for _, fn := range ds.used {
		fn(d)
	}
}

// Die returns die i, or nil when i is out of range.
func (ds *DiceSet) Die(i int) *Die {
	if i < 0 || i >= NumDice {
		return nil
	}
	return ds.dice[i]
}

// Faces returns both face values.
func (ds *DiceSet) Faces() [NumDice]int {
	return [NumDice]int{ds.dice[0].face, ds.dice[1].face}
}

// Doubles reports whether both dice show the same rolled face.
func (ds *DiceSet) Doubles() bool {
	return ds.dice[0].face > 0 && ds.dice[0].face == ds.dice[1].face
}

// Arm resets both dice so each may be rolled once.
func (ds *DiceSet) Arm() {
	for _, d := range ds.dice {
		d.arm()
	}
}

// RollAll rolls every armed die. All dice are marked as rolling before any
// of them is allowed to settle. It reports whether any die started.
func (ds *DiceSet) RollAll() bool {
	var started []*Die
	for _, d := range ds.dice {
		if d.begin() {
			started = append(started, d)
		}
	}
	for _, d := range started {
		d.schedule()
	}
	return len(started) > 0
}

// AllFinishedRolling reports whether every die has settled.
func (ds *DiceSet) AllFinishedRolling() bool {
	for _, d := range ds.dice {
		if !d.finished {
			return false
		}
	}
	return true
}

// AnyAvailable reports whether any die still has movement left.
func (ds *DiceSet) AnyAvailable() bool {
	for _, d := range ds.dice {
		if d.IsAvailable() {
			return true
		}
	}
	return false
}

// Set places both dice as if they had just been rolled to a and b. No
// notifications fire. It is meant for replays and tests.
func (ds *DiceSet) Set(a, b int) {
	ds.dice[0].set(a)
	ds.dice[1].set(b)
}
