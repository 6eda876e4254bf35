package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/bgturn/pkg/engine"
	"github.com/yourusername/bgturn/pkg/record"
)

func cmdPlay(args []string) {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	seed := fs.Int64("seed", time.Now().UnixNano(), "Dice seed")
	autoRoll := fs.Bool("auto-roll", false, "Roll as soon as a turn starts")
	endBlocked := fs.Bool("end-turn-when-blocked", true, "End a move phase with no legal move")
	red := fs.String("red", "red", "Red player name")
	white := fs.String("white", "white", "White player name")
	verbose := fs.Bool("v", false, "Log engine diagnostics to stderr")
	fs.Parse(args)

	log := newLogger(*verbose)
	defer log.Sync()

	cfg := engine.DefaultConfig()
	cfg.AutoRoll = *autoRoll
	cfg.EndTurnWhenBlocked = *endBlocked

	rec := record.NewRecorder(*red, *white)
	e := engine.New(cfg,
		engine.WithLogger(log),
		engine.WithRoller(rand.New(rand.NewSource(*seed))),
		engine.WithObserver(rec))
	if err := e.Err(); err != nil {
		fatalf("%v", err)
	}

	g := &game{engine: e, recorder: rec, in: os.Stdin, out: os.Stdout}
	if err := g.run(); err != nil {
		fatalf("%v", err)
	}
}

var errQuit = errors.New("quit")

// game is a hot-seat session reading commands line by line.
type game struct {
	engine   *engine.TurnEngine
	recorder *record.Recorder
	in       io.Reader
	out      io.Writer
}

func (g *game) run() error {
	g.engine.Start()
	g.show()

	scanner := bufio.NewScanner(g.in)
	fmt.Fprint(g.out, "> ")
	for scanner.Scan() {
		err := g.command(strings.Fields(scanner.Text()))
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(g.out, "error: %v\n", err)
		}
		fmt.Fprint(g.out, "> ")
	}
	return scanner.Err()
}

func (g *game) show() {
	renderBoard(g.out, g.engine)
	renderStatus(g.out, g.engine)
}

func (g *game) command(args []string) error {
	if len(args) == 0 {
		return nil
	}
	e := g.engine

	switch strings.ToLower(args[0]) {
	case "roll", "r":
		if !e.RequestRoll() {
			return fmt.Errorf("cannot roll in %s", e.State())
		}
		g.show()

	case "sel", "s":
		f, err := fieldArg(args)
		if err != nil {
			return err
		}
		if !e.RequestShowMoves(e.Board().Field(f)) {
			return fmt.Errorf("no moves from field %d", f)
		}
		dests := make([]string, 0, len(e.Candidates()))
		for _, m := range e.Candidates() {
			dests = append(dests, strconv.Itoa(m.Dest))
		}
		renderBoard(g.out, e)
		fmt.Fprintf(g.out, "moves: %s\n", strings.Join(dests, " "))

	case "mv", "m":
		f, err := fieldArg(args)
		if err != nil {
			return err
		}
		if !e.RequestCommitMove(e.Board().Field(f)) {
			return fmt.Errorf("cannot move to field %d", f)
		}
		g.show()

	case "board", "b":
		g.show()

	case "id":
		fmt.Fprintln(g.out, e.Board().PositionID(e.CurrentPlayer()))

	case "transcript", "t":
		return g.recorder.Transcript().WriteMAT(g.out)

	case "save":
		if len(args) != 2 {
			return errors.New("usage: save <file>")
		}
		return writeTranscript(args[1], g.recorder.Transcript())

	case "help", "h", "?":
		fmt.Fprintln(g.out, `commands:
  roll | r          roll the dice
  sel | s <field>   show the moves of the top pawn on a field
  mv | m <field>    move the selected pawn
  board | b         show the board
  id                show the position ID
  transcript | t    show the game record
  save <file>       write the game record
  quit | q          leave`)

	case "quit", "q", "exit":
		return errQuit

	default:
		return fmt.Errorf("unknown command %q (try help)", args[0])
	}
	return nil
}

func fieldArg(args []string) (int, error) {
	if len(args) != 2 {
		return 0, fmt.Errorf("usage: %s <field>", args[0])
	}
	f, err := strconv.Atoi(args[1])
	if err != nil || f < 0 || f >= engine.NumFields {
		return 0, fmt.Errorf("field must be between 0 and %d", engine.NumFields-1)
	}
	return f, nil
}

func writeTranscript(path string, t *record.Transcript) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.WriteMAT(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
