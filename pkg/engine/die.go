package engine

import "time"

// Usage tracks how much of a die's movement allowance has been spent this
// turn. It only ever advances Unused -> HalfUsed -> FullyUsed between rolls.
type Usage int

const (
	Unused Usage = iota
	HalfUsed
	FullyUsed
)

func (u Usage) String() string {
	switch u {
	case Unused:
		return "unused"
	case HalfUsed:
		return "half_used"
	case FullyUsed:
		return "fully_used"
	default:
		return "unknown"
	}
}

// Roller is the random source used for faces and roll animation timing.
// *math/rand.Rand satisfies it.
type Roller interface {
	Intn(n int) int
}

// Die is a single six-sided die.
type Die struct {
	index    int
	face     int // 0 until the first roll completes
	usage    Usage
	armed    bool
	finished bool

	cfg   DiceConfig
	sched Scheduler
	rng   Roller

	onRolled func(*Die)
	onUsed   func(*Die)
}

func newDie(index int, cfg DiceConfig, sched Scheduler, rng Roller) *Die {
	return &Die{
		index: index,
		cfg:   cfg,
		sched: sched,
		rng:   rng,
	}
}

// Index is the die's position in its DiceSet.
func (d *Die) Index() int { return d.index }

// Face returns the number of dots shown, 1-6, or 0 before the first roll.
func (d *Die) Face() int { return d.face }

// Usage returns the current usage state.
func (d *Die) Usage() Usage { return d.usage }

// IsAvailable reports whether the die still has movement left.
func (d *Die) IsAvailable() bool { return d.usage != FullyUsed }

// Remaining returns the number of face-value moves left on the die when it
// is split for doubles: 2 when unused, 1 when half used, 0 when fully used.
func (d *Die) Remaining() int {
	switch d.usage {
	case Unused:
		return 2
	case HalfUsed:
		return 1
	default:
		return 0
	}
}

// HasFinishedRolling reports whether the die has settled since it was last
// armed.
func (d *Die) HasFinishedRolling() bool { return d.finished }

// Armed reports whether the die may be rolled.
func (d *Die) Armed() bool { return d.armed }

// arm allows exactly one roll.
func (d *Die) arm() {
	d.armed = true
	d.finished = false
}

// Roll starts a roll. It returns false if the die has not been armed since
// its last roll.
func (d *Die) Roll() bool {
	if !d.begin() {
		return false
	}
	d.schedule()
	return true
}

func (d *Die) begin() bool {
	if !d.armed {
		return false
	}
	d.armed = false
	d.finished = false
	d.usage = Unused
	return true
}

func (d *Die) schedule() {
	d.sched.After(d.cfg.rollDuration(d.rng), d.settle)
}

func (d *Die) settle() {
	d.face = d.rng.Intn(6) + 1
	d.finished = true
	if d.onRolled != nil {
		d.onRolled(d)
	}
}

// Use consumes movement from the die. whole consumes the entire die; a
// partial use (doubles) consumes half. A half-used die always becomes fully
// used. The used notification fires on every call, including when the die
// was already fully used.
func (d *Die) Use(whole bool) {
	switch d.usage {
	case Unused:
		if whole {
			d.usage = FullyUsed
		} else {
			d.usage = HalfUsed
		}
	case HalfUsed:
		d.usage = FullyUsed
	}

	if d.onUsed != nil {
		d.onUsed(d)
	}
}

// set forces a settled face with fresh usage, without notifications.
func (d *Die) set(face int) {
	d.face = face
	d.usage = Unused
	d.armed = false
	d.finished = true
}

// rollDuration returns the cosmetic settle time of one roll: a random start
// offset followed by a random number of face flips.
func (c DiceConfig) rollDuration(rng Roller) time.Duration {
	delay := c.StartDelayMin
	if span := int((c.StartDelayMax - c.StartDelayMin) / time.Millisecond); span > 0 {
		delay += time.Duration(rng.Intn(span+1)) * time.Millisecond
	}

	flips := c.FlipsMin
	if c.FlipsMax > c.FlipsMin {
		flips += rng.Intn(c.FlipsMax - c.FlipsMin + 1)
	}
	if flips < 0 {
		flips = 0
	}

	return delay + time.Duration(flips)*c.FlipTime
}
