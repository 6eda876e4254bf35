package engine

import (
	"errors"
	"fmt"
	"time"
)

// Configuration errors. An engine built from an invalid Config stays in Init.
var (
	ErrFieldCount = errors.New("board must have exactly 24 fields")
	ErrDiceCount  = errors.New("exactly 2 dice are required")
	ErrLayout     = errors.New("invalid pawn layout")
)

// DiceConfig controls the cosmetic roll timing. The zero value settles
// dice immediately.
type DiceConfig struct {
	StartDelayMin time.Duration // Random offset before the first flip
	StartDelayMax time.Duration
	FlipsMin      int // Number of face flips per roll
	FlipsMax      int
	FlipTime      time.Duration // Time per flip
}

// AnimatedDice returns the roll timing of the desktop board: 50-200ms
// offset, then 5-15 flips of 100ms.
func AnimatedDice() DiceConfig {
	return DiceConfig{
		StartDelayMin: 50 * time.Millisecond,
		StartDelayMax: 200 * time.Millisecond,
		FlipsMin:      5,
		FlipsMax:      15,
		FlipTime:      100 * time.Millisecond,
	}
}

// Config holds everything a TurnEngine is built from.
type Config struct {
	Fields   int         // Number of board fields (must be 24)
	Dice     int         // Number of dice (must be 2)
	MaxPawns int         // Capacity of one field (0 = unbounded)
	Layout   []Placement // Starting pawns

	StartupDelay time.Duration // Delay before Init -> RedRolls
	Roll         DiceConfig

	// AutoRoll rolls the dice as soon as a Rolls state is entered. Without
	// it the view calls RequestRoll.
	AutoRoll bool

	// EndTurnWhenBlocked ends a move phase as soon as the player has no
	// legal move left. When false a move phase only ends once every die is
	// fully used.
	EndTurnWhenBlocked bool
}

// DefaultConfig returns a headless configuration with the standard layout
// and no delays.
func DefaultConfig() Config {
	return Config{
		Fields:   NumFields,
		Dice:     NumDice,
		MaxPawns: DefaultMaxPawns,
		Layout:   StandardLayout(),
		AutoRoll: true,
	}
}

// Validate checks the board, dice and layout configuration.
func (c Config) Validate() error {
	if c.Fields != NumFields {
		return fmt.Errorf("%w: got %d", ErrFieldCount, c.Fields)
	}
	if c.Dice != NumDice {
		return fmt.Errorf("%w: got %d", ErrDiceCount, c.Dice)
	}

	owners := make(map[int]Color)
	perField := make(map[int]int)
	var perColor [2]int
	for _, pl := range c.Layout {
		if pl.Field < 0 || pl.Field >= NumFields {
			return fmt.Errorf("%w: field %d out of range", ErrLayout, pl.Field)
		}
		if pl.Color != Red && pl.Color != White {
			return fmt.Errorf("%w: unknown color %d", ErrLayout, pl.Color)
		}
		if pl.Count <= 0 {
			return fmt.Errorf("%w: field %d has count %d", ErrLayout, pl.Field, pl.Count)
		}
		if owner, seen := owners[pl.Field]; seen && owner != pl.Color {
			return fmt.Errorf("%w: field %d holds both colors", ErrLayout, pl.Field)
		}
		owners[pl.Field] = pl.Color
		perField[pl.Field] += pl.Count
		perColor[pl.Color] += pl.Count

		if c.MaxPawns > 0 && perField[pl.Field] > c.MaxPawns {
			return fmt.Errorf("%w: field %d exceeds %d pawns", ErrLayout, pl.Field, c.MaxPawns)
		}
		if perColor[pl.Color] > PawnsPerColor {
			return fmt.Errorf("%w: more than %d %s pawns", ErrLayout, PawnsPerColor, pl.Color)
		}
	}
	return nil
}
