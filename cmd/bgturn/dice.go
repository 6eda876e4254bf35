package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/yourusername/bgturn/internal/dicestat"
)

func cmdDice(args []string) {
	fs := flag.NewFlagSet("dice", flag.ExitOnError)
	n := fs.Int("n", 36000, "Number of rolls")
	seed := fs.Int64("seed", time.Now().UnixNano(), "Random seed")
	alpha := fs.Float64("alpha", 0.01, "Significance level of the fairness test")
	fs.Parse(args)

	if *n <= 0 {
		fatalf("n must be positive")
	}

	start := time.Now()
	rep := dicestat.Sample(rand.New(rand.NewSource(*seed)), *n)
	elapsed := time.Since(start)

	fmt.Printf("Rolls:     %d (%v)\n", rep.Rolls, elapsed)
	for face, count := range rep.Counts {
		fmt.Printf("  %d: %6d  %.4f\n", face+1, count, float64(count)/float64(2*rep.Rolls))
	}
	fmt.Printf("Doubles:   %.4f (expected %.4f)\n", rep.DoublesRate(), 1.0/dicestat.Faces)
	fmt.Printf("Mean:      %.4f\n", rep.Mean)
	fmt.Printf("Std dev:   %.4f\n", rep.StdDev)
	fmt.Printf("Chi2:      %.3f (p = %.4f)\n", rep.ChiSquare, rep.PValue)

	if !rep.Fair(*alpha) {
		fmt.Printf("Dice fail the fairness test at %.2f%%\n", *alpha*100)
		os.Exit(2)
	}
	fmt.Println("Dice pass the fairness test")
}
