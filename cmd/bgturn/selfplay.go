package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/bgturn/internal/dicestat"
	"github.com/yourusername/bgturn/pkg/engine"
	"github.com/yourusername/bgturn/pkg/record"
)

func cmdSelfPlay(args []string) {
	fs := flag.NewFlagSet("selfplay", flag.ExitOnError)
	games := fs.Int("games", 10, "Number of games")
	turns := fs.Int("turns", 200, "Turn limit per game")
	seed := fs.Int64("seed", time.Now().UnixNano(), "Random seed for dice and players")
	transcript := fs.String("transcript", "", "Write the last game's record to this file")
	verbose := fs.Bool("v", false, "Log engine diagnostics to stderr")
	fs.Parse(args)

	if *games <= 0 || *turns <= 0 {
		fatalf("games and turns must be positive")
	}

	log := newLogger(*verbose)
	defer log.Sync()

	opts := selfPlayOptions{Games: *games, Turns: *turns, Seed: *seed}
	sum, last, err := selfPlay(opts, log)
	if err != nil {
		fatalf("%v", err)
	}
	sum.print(os.Stdout)

	if *transcript != "" {
		if err := writeTranscript(*transcript, last); err != nil {
			fatalf("write transcript: %v", err)
		}
		fmt.Printf("Transcript written to %s\n", *transcript)
	}
}

type selfPlayOptions struct {
	Games int
	Turns int // Rolls per game before it is stopped
	Seed  int64
}

// selfPlaySummary aggregates every game of a run.
type selfPlaySummary struct {
	Games   int
	Turns   int
	Moves   int
	Hits    [2]int
	Skips   int
	Stalled int // Games stopped because neither player could move
	Dice    dicestat.Report
}

// stallLimit is the number of consecutive turns without a move after which
// a game is considered stuck.
const stallLimit = 20

var errNoMove = errors.New("move phase without a legal move")

// selfPlay runs random legal players against each other and returns the
// summary and the last game's transcript.
func selfPlay(opts selfPlayOptions, log *zap.Logger) (selfPlaySummary, *record.Transcript, error) {
	rng := rand.New(rand.NewSource(opts.Seed))
	sum := selfPlaySummary{Games: opts.Games}
	var (
		pairs []dicestat.Pair
		last  *record.Transcript
	)

	for g := 0; g < opts.Games; g++ {
		t, stalled, err := playRandomGame(rng, opts.Turns, log)
		if err != nil {
			return sum, nil, fmt.Errorf("game %d: %w", g+1, err)
		}
		if stalled {
			sum.Stalled++
		}

		for _, turn := range t.Turns {
			if !turn.Rolled() {
				continue
			}
			sum.Turns++
			sum.Moves += len(turn.Steps)
			pairs = append(pairs, dicestat.Pair(turn.Dice))
		}
		sum.Hits[engine.Red] += t.Hits(engine.Red)
		sum.Hits[engine.White] += t.Hits(engine.White)
		sum.Skips += t.Skips()
		last = t
	}

	sum.Dice = dicestat.Analyze(pairs)
	return sum, last, nil
}

// playRandomGame plays one game with random legal moves. Rolls are driven
// here rather than by AutoRoll so the turn limit always holds.
func playRandomGame(rng *rand.Rand, maxTurns int, log *zap.Logger) (*record.Transcript, bool, error) {
	cfg := engine.DefaultConfig()
	cfg.AutoRoll = false
	cfg.EndTurnWhenBlocked = true

	rec := record.NewRecorder("red", "white")
	moved := false
	e := engine.New(cfg,
		engine.WithLogger(log),
		engine.WithRoller(rng),
		engine.WithObserver(rec),
		engine.WithObserver(engine.ObserverFuncs{
			MoveCommitted: func(engine.Move, *engine.Pawn) { moved = true },
		}))
	if err := e.Err(); err != nil {
		return nil, false, err
	}
	e.Start()

	idle := 0
	for turn := 0; turn < maxTurns; turn++ {
		if !e.RequestRoll() {
			return nil, false, fmt.Errorf("cannot roll in %s", e.State())
		}
		moved = false
		for e.State().IsMoves() {
			if err := randomMove(e, rng); err != nil {
				return nil, false, err
			}
		}

		if moved {
			idle = 0
			continue
		}
		idle++
		if idle >= stallLimit {
			return rec.Transcript(), true, nil
		}
	}
	return rec.Transcript(), false, nil
}

// randomMove selects a random movable pawn and commits a random candidate.
func randomMove(e *engine.TurnEngine, rng *rand.Rand) error {
	player := e.CurrentPlayer()

	var movable []*engine.Stack
	for _, f := range e.Board().Fields() {
		if owner, ok := f.Owner(); !ok || owner != player {
			continue
		}
		if e.RequestShowMoves(f) {
			movable = append(movable, f)
		}
	}
	if len(movable) == 0 {
		return errNoMove
	}

	src := movable[rng.Intn(len(movable))]
	e.RequestShowMoves(src)
	moves := e.Candidates()
	m := moves[rng.Intn(len(moves))]
	if !e.RequestCommitMove(m.Destination) {
		return fmt.Errorf("commit %v refused", m)
	}
	return nil
}

func (s selfPlaySummary) print(w io.Writer) {
	fmt.Fprintf(w, "Games:       %d (%d stalled)\n", s.Games, s.Stalled)
	fmt.Fprintf(w, "Turns:       %d\n", s.Turns)
	fmt.Fprintf(w, "Moves:       %d\n", s.Moves)
	fmt.Fprintf(w, "Hits:        red %d, white %d\n", s.Hits[engine.Red], s.Hits[engine.White])
	fmt.Fprintf(w, "Skipped:     %d\n", s.Skips)
	fmt.Fprintf(w, "Dice:        %s\n", s.Dice)
	if !s.Dice.Fair(0.01) {
		fmt.Fprintln(w, "Warning: dice fail the fairness test at 1%")
	}
}
