package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/yourusername/bgturn/pkg/engine"
)

var (
	redInk    = color.New(color.FgRed, color.Bold)
	whiteInk  = color.New(color.FgHiWhite, color.Bold)
	markInk   = color.New(color.FgBlack, color.BgYellow)
	dimInk    = color.New(color.Faint)
	headerInk = color.New(color.FgCyan)
)

// cellWidth is the printed width of one field.
const cellWidth = 4

// renderBoard prints the board with fields 12-23 on top and 11-0 below,
// both read left to right. Highlighted fields are candidate destinations.
func renderBoard(w io.Writer, e *engine.TurnEngine) {
	b := e.Board()

	top := make([]int, 0, 12)
	for i := 12; i < 24; i++ {
		top = append(top, i)
	}
	bottom := make([]int, 0, 12)
	for i := 11; i >= 0; i-- {
		bottom = append(bottom, i)
	}

	fmt.Fprintln(w, headerInk.Sprint(indexRow(top)))
	fmt.Fprintln(w, fieldRow(b, top))
	fmt.Fprintln(w, fieldRow(b, bottom))
	fmt.Fprintln(w, headerInk.Sprint(indexRow(bottom)))

	band := b.Band()
	fmt.Fprintf(w, "band: %s %d  %s %d\n",
		redInk.Sprint("red"), band.Count(engine.Red),
		whiteInk.Sprint("white"), band.Count(engine.White))
}

// renderStatus prints the state and the dice.
func renderStatus(w io.Writer, e *engine.TurnEngine) {
	fmt.Fprintf(w, "%s  dice: %s\n", inkFor(e.CurrentPlayer()).Sprint(e.State()), diceText(e))
}

func diceText(e *engine.TurnEngine) string {
	parts := make([]string, 0, engine.NumDice)
	for i := 0; i < engine.NumDice; i++ {
		d := e.Dice().Die(i)
		if d.Face() == 0 {
			parts = append(parts, "-")
			continue
		}
		text := fmt.Sprintf("%d", d.Face())
		switch d.Usage() {
		case engine.HalfUsed:
			text += "/2"
		case engine.FullyUsed:
			text = dimInk.Sprint(text + "x")
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

func indexRow(fields []int) string {
	var sb strings.Builder
	for i, f := range fields {
		if i == 6 {
			sb.WriteString(" |")
		}
		fmt.Fprintf(&sb, "%*d", cellWidth, f)
	}
	return sb.String()
}

func fieldRow(b *engine.Board, fields []int) string {
	var sb strings.Builder
	for i, f := range fields {
		if i == 6 {
			sb.WriteString(" |")
		}
		sb.WriteString(cell(b.Field(f)))
	}
	return sb.String()
}

// cell pads before colouring so escape codes do not break the columns.
func cell(s *engine.Stack) string {
	owner, ok := s.Owner()
	text := "."
	if ok {
		text = fmt.Sprintf("%c%d", strings.ToUpper(owner.String())[0], s.Len())
	}
	padded := fmt.Sprintf("%*s", cellWidth, text)

	switch {
	case s.Highlighted():
		return markInk.Sprint(padded)
	case ok:
		return inkFor(owner).Sprint(padded)
	default:
		return dimInk.Sprint(padded)
	}
}

func inkFor(c engine.Color) *color.Color {
	if c == engine.Red {
		return redInk
	}
	return whiteInk
}
