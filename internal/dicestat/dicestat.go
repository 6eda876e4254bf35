// Package dicestat checks dice output for fairness.
//
// Faces from both dice are pooled into a histogram and compared against the
// uniform distribution with Pearson's chi-squared test (5 degrees of
// freedom). Doubles are counted separately; a fair pair shows doubles one
// roll in six.
package dicestat

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/yourusername/bgturn/pkg/engine"
)

// Faces is the number of sides on a die.
const Faces = 6

// Pair is one roll of both dice.
type Pair [engine.NumDice]int

// Report summarises a run of rolls.
type Report struct {
	Rolls     int
	Counts    [Faces]int // Occurrences of each face, index 0 = face 1
	Doubles   int
	Mean      float64
	StdDev    float64
	ChiSquare float64
	PValue    float64 // Probability of a statistic at least this large from fair dice
}

// Sample rolls a fresh pair of dice n times using r and analyzes the
// result. The dice are driven exactly as the engine drives them.
func Sample(r engine.Roller, n int) Report {
	ds := engine.NewDiceSet(engine.DiceConfig{}, &engine.Immediate{}, r)
	pairs := make([]Pair, 0, n)
	for i := 0; i < n; i++ {
		ds.Arm()
		ds.RollAll()
		pairs = append(pairs, Pair(ds.Faces()))
	}
	return Analyze(pairs)
}

// Analyze computes the report for pairs. Faces outside 1-6 are ignored.
func Analyze(pairs []Pair) Report {
	rep := Report{Rolls: len(pairs), PValue: 1}

	values := make([]float64, 0, len(pairs)*engine.NumDice)
	for _, p := range pairs {
		if p[0] == p[1] && p[0] >= 1 && p[0] <= Faces {
			rep.Doubles++
		}
		for _, f := range p {
			if f < 1 || f > Faces {
				continue
			}
			rep.Counts[f-1]++
			values = append(values, float64(f))
		}
	}
	if len(values) == 0 {
		return rep
	}

	rep.Mean, rep.StdDev = stat.MeanStdDev(values, nil)
	if math.IsNaN(rep.StdDev) {
		rep.StdDev = 0
	}

	observed := make([]float64, Faces)
	for i, c := range rep.Counts {
		observed[i] = float64(c)
	}
	expected := make([]float64, Faces)
	floats.AddConst(floats.Sum(observed)/Faces, expected)

	rep.ChiSquare = stat.ChiSquare(observed, expected)
	rep.PValue = distuv.ChiSquared{K: Faces - 1}.Survival(rep.ChiSquare)
	return rep
}

// DoublesRate returns the fraction of rolls that were doubles.
func (r Report) DoublesRate() float64 {
	if r.Rolls == 0 {
		return 0
	}
	return float64(r.Doubles) / float64(r.Rolls)
}

// Fair reports whether the fairness hypothesis survives at significance
// level alpha.
func (r Report) Fair(alpha float64) bool {
	return r.PValue >= alpha
}

func (r Report) String() string {
	return fmt.Sprintf("rolls=%d counts=%v doubles=%.3f mean=%.3f sd=%.3f chi2=%.2f p=%.4f",
		r.Rolls, r.Counts, r.DoublesRate(), r.Mean, r.StdDev, r.ChiSquare, r.PValue)
}
