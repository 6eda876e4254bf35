package record

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/yourusername/bgturn/pkg/engine"
)

// The MAT transcript follows the Jellyfish match layout:
//
//	 ; [Player 1 "red"]
//	 ; [Player 2 "white"]
//
//	 Game 1
//	 red : 0                          white : 0
//	  1) 31: 1/4 12/13                42: 24/20 13/11*
//	  2) 55: bar/5 (skip)             21: 20/18 18/17
//
// Points are field numbers 1-24 in Red's direction of travel, "bar" is the
// band, "*" marks a hit and "(skip)" a skipped move phase. Each line holds
// Red's turn followed by White's, separated by at least three spaces.

// ErrSyntax is returned by ReadMAT for lines it cannot parse.
var ErrSyntax = errors.New("malformed transcript")

const (
	redColumn   = 30
	placeholder = "--"
	skipMarker  = "(skip)"
)

var (
	gameHeaderRE = regexp.MustCompile(`^Game\s+(\d+)`)
	scoreLineRE  = regexp.MustCompile(`^(.+?)\s*:\s*(\d+)\s+(.+?)\s*:\s*(\d+)$`)
	moveLineRE   = regexp.MustCompile(`^\s*(\d+)\)`)
	separatorRE  = regexp.MustCompile(`\s{3,}`)
	tagRE        = regexp.MustCompile(`\[([\w ]+?)\s+"([^"]*)"\]`)
)

// WriteMAT writes the transcript. Turns whose dice have not settled yet are
// left out.
func (t *Transcript) WriteMAT(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, " ; [Player 1 %q]\n", t.Red)
	fmt.Fprintf(bw, " ; [Player 2 %q]\n", t.White)
	if t.Date != "" {
		fmt.Fprintf(bw, " ; [Date %q]\n", t.Date)
	}
	if t.Event != "" {
		fmt.Fprintf(bw, " ; [Event %q]\n", t.Event)
	}
	red, white := nameOr(t.Red, engine.Red), nameOr(t.White, engine.White)
	fmt.Fprintf(bw, "\n Game 1\n")
	fmt.Fprintf(bw, " %s : 0%s%s : 0\n", red, pad(len(red)+4, redColumn), white)

	for i, row := range t.rows() {
		red, white := row[0], row[1]
		if red == "" {
			red = placeholder
		}
		fmt.Fprintf(bw, "%3d) %s", i+1, red)
		if white != "" {
			fmt.Fprintf(bw, "%s%s", pad(len(red), redColumn), white)
		}
		bw.WriteString("\n")
	}

	return bw.Flush()
}

// rows pairs each Red turn with the White turn that follows it.
func (t *Transcript) rows() [][2]string {
	var rows [][2]string
	for _, turn := range t.Turns {
		if !turn.Rolled() {
			continue
		}
		col := 0
		if turn.Player == engine.White {
			col = 1
		}
		n := len(rows)
		if n == 0 || col == 0 || rows[n-1][1] != "" {
			rows = append(rows, [2]string{})
			n++
		}
		rows[n-1][col] = formatTurn(turn)
	}
	return rows
}

func nameOr(name string, c engine.Color) string {
	if name == "" {
		return c.String()
	}
	return name
}

func pad(used, width int) string {
	if n := width - used; n > 3 {
		return strings.Repeat(" ", n)
	}
	return "   "
}

func formatTurn(turn *Turn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d%d:", turn.Dice[0], turn.Dice[1])
	for _, s := range turn.Steps {
		b.WriteString(" ")
		b.WriteString(formatPoint(s.From))
		b.WriteString("/")
		b.WriteString(formatPoint(s.To))
		if s.Hit {
			b.WriteString("*")
		}
	}
	if turn.Skipped {
		b.WriteString(" " + skipMarker)
	}
	return b.String()
}

func formatPoint(i int) string {
	if i < 0 || i >= engine.NumFields {
		return "bar"
	}
	return strconv.Itoa(i + 1)
}

// ReadMAT parses a transcript written by WriteMAT.
func ReadMAT(r io.Reader) (*Transcript, error) {
	scanner := bufio.NewScanner(r)
	t := NewTranscript("", "")

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ";") {
			if m := tagRE.FindStringSubmatch(line); m != nil {
				switch strings.ToLower(m[1]) {
				case "player 1", "player1", "red":
					t.Red = m[2]
				case "player 2", "player2", "white":
					t.White = m[2]
				case "date":
					t.Date = m[2]
				case "event":
					t.Event = m[2]
				}
			}
			continue
		}

		if moveLineRE.MatchString(line) {
			if err := t.parseMoveLine(line); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			continue
		}

		if gameHeaderRE.MatchString(line) {
			continue
		}

		if m := scoreLineRE.FindStringSubmatch(line); m != nil {
			if t.Red == "" {
				t.Red = strings.TrimSpace(m[1])
			}
			if t.White == "" {
				t.White = strings.TrimSpace(m[3])
			}
			continue
		}

		return nil, fmt.Errorf("line %d: %w: %q", lineNo, ErrSyntax, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}
	return t, nil
}

// parseMoveLine parses "1) 31: 1/4 12/13    42: 24/20".
func (t *Transcript) parseMoveLine(line string) error {
	parts := strings.SplitN(line, ")", 2)
	if len(parts) < 2 {
		return ErrSyntax
	}
	halves := separatorRE.Split(strings.TrimSpace(parts[1]), 2)

	players := [2]engine.Color{engine.Red, engine.White}
	for i, half := range halves {
		half = strings.TrimSpace(half)
		if half == "" || half == placeholder {
			continue
		}
		turn, err := parseTurn(half, players[i])
		if err != nil {
			return err
		}
		t.Turns = append(t.Turns, turn)
	}
	return nil
}

// parseTurn parses one player's half: "31: 1/4 12/13*" or "55: bar/5 (skip)".
func parseTurn(text string, player engine.Color) (*Turn, error) {
	colon := strings.Index(text, ":")
	if colon == -1 {
		return nil, fmt.Errorf("%w: missing dice in %q", ErrSyntax, text)
	}

	dice := strings.TrimSpace(text[:colon])
	if len(dice) != 2 {
		return nil, fmt.Errorf("%w: dice %q", ErrSyntax, dice)
	}
	turn := &Turn{Player: player}
	for i := 0; i < 2; i++ {
		face := int(dice[i] - '0')
		if face < 1 || face > 6 {
			return nil, fmt.Errorf("%w: dice %q", ErrSyntax, dice)
		}
		turn.Dice[i] = face
	}

	for _, tok := range strings.Fields(text[colon+1:]) {
		if tok == skipMarker {
			turn.Skipped = true
			continue
		}

		hit := strings.HasSuffix(tok, "*")
		tok = strings.TrimSuffix(tok, "*")
		fromTo := strings.Split(tok, "/")
		if len(fromTo) != 2 {
			return nil, fmt.Errorf("%w: move %q", ErrSyntax, tok)
		}
		from, err := parsePoint(fromTo[0], player)
		if err != nil {
			return nil, err
		}
		to, err := parsePoint(fromTo[1], player)
		if err != nil {
			return nil, err
		}
		turn.Steps = append(turn.Steps, Step{From: from, To: to, Hit: hit})
	}
	return turn, nil
}

func parsePoint(s string, player engine.Color) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "bar" {
		return player.BandIndex(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > engine.NumFields {
		return 0, fmt.Errorf("%w: point %q", ErrSyntax, s)
	}
	return n - 1, nil
}
