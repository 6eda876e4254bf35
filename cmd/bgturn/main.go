// bgturn - play and exercise the backgammon turn engine from a terminal
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "play":
		cmdPlay(args)
	case "selfplay":
		cmdSelfPlay(args)
	case "dice":
		cmdDice(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`bgturn - Backgammon Turn Engine

Usage: bgturn <command> [options]

Commands:
  play       Hot-seat game in the terminal
  selfplay   Random players against each other
  dice       Dice fairness report

Use "bgturn <command> -h" for command-specific help.

Fields are numbered 0-23 in Red's direction of travel. Red moves from
field 0 towards 23, White from 23 towards 0.`)
}

// newLogger returns a development logger when verbose is set and a no-op
// logger otherwise, so diagnostics never mix with game output by default.
func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: logger: %v\n", err)
		return zap.NewNop()
	}
	return log
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
