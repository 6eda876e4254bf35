package external

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/yourusername/bgturn/internal/positionid"
	"github.com/yourusername/bgturn/pkg/api"
	"github.com/yourusername/bgturn/pkg/engine"
)

func standardBoard(t *testing.T) *engine.Board {
	t.Helper()
	b := engine.NewBoard(engine.DefaultMaxPawns)
	if err := b.Setup(engine.StandardLayout(), nil); err != nil {
		t.Fatalf("Setup error: %v", err)
	}
	return b
}

func TestNewFIBSBoard(t *testing.T) {
	b := standardBoard(t)

	fb := NewFIBSBoard(b, engine.Red, [2]int{3, 1})
	if fb.Player1 != "red" || fb.Player2 != "white" {
		t.Errorf("players = %q/%q, want red/white", fb.Player1, fb.Player2)
	}
	if fb.Color != 1 || fb.Direction != 1 {
		t.Errorf("color/direction = %d/%d, want 1/1", fb.Color, fb.Direction)
	}

	// Red's 24 point is field 0, holding two Red pawns; White's 24 point
	// (field 23) shows up on Red's 1 point.
	tests := []struct {
		point int
		want  int
	}{
		{24, 2},
		{1, -2},
		{13, 5},
		{12, -5},
		{8, 3},
		{17, -3},
		{6, 5},
		{19, -5},
		{0, 0},
		{25, 0},
	}
	for _, tc := range tests {
		if got := fb.Board[tc.point]; got != tc.want {
			t.Errorf("Board[%d] = %d, want %d", tc.point, got, tc.want)
		}
	}

	white := NewFIBSBoard(b, engine.White, [2]int{})
	if white.Color != -1 || white.Direction != -1 {
		t.Errorf("white color/direction = %d/%d, want -1/-1", white.Color, white.Direction)
	}
	if white.Board != fb.Board {
		t.Errorf("standard layout should look the same to both players")
	}
}

func TestFIBSBoardRoundTrip(t *testing.T) {
	b := standardBoard(t)
	if _, ok := b.MovePawnOf(b.Field(0), b.Band(), engine.Red); !ok {
		t.Fatal("could not move a pawn to the band")
	}

	for _, c := range []engine.Color{engine.Red, engine.White} {
		fb := NewFIBSBoard(b, c, [2]int{6, 5})
		line := fb.String()
		if !strings.HasPrefix(line, "board:"+c.String()+":") {
			t.Errorf("String() = %q, want board:%s: prefix", line, c)
		}
		if n := len(strings.Split(strings.TrimPrefix(line, "board:"), ":")); n != fibsFields {
			t.Errorf("String() has %d fields, want %d", n, fibsFields)
		}

		parsed, err := ParseFIBSBoard(line)
		if err != nil {
			t.Fatalf("ParseFIBSBoard error: %v", err)
		}
		if *parsed != *fb {
			t.Errorf("round trip = %+v, want %+v", parsed, fb)
		}
		if got, want := parsed.Position(), b.Position(c); got != want {
			t.Errorf("%s Position() = %v, want %v", c, got, want)
		}
	}
}

func TestFIBSBoardStandardPositionID(t *testing.T) {
	fb := NewFIBSBoard(standardBoard(t), engine.Red, [2]int{})
	if got := positionid.Encode(fb.Position()); got != "4HPwATDgc/ABMA" {
		t.Errorf("position ID = %q, want %q", got, "4HPwATDgc/ABMA")
	}
}

func TestParseFIBSBoardMinimal(t *testing.T) {
	// Minimal FIBS board with exactly 32 fields
	parts := make([]string, 32)
	parts[0] = "P1"
	parts[1] = "P2"
	parts[2] = "7" // match length
	parts[3] = "0" // score1
	parts[4] = "0" // score2
	// Board positions 5-30 (26 values)
	for i := 5; i < 31; i++ {
		parts[i] = "0"
	}
	parts[31] = "1" // turn

	fb, err := ParseFIBSBoard("board:" + strings.Join(parts, ":"))
	if err != nil {
		t.Fatalf("ParseFIBSBoard error: %v", err)
	}

	if fb.Player1 != "P1" {
		t.Errorf("Player1 = %q, want %q", fb.Player1, "P1")
	}
	if fb.MatchLength != 7 {
		t.Errorf("MatchLength = %d, want %d", fb.MatchLength, 7)
	}
	if fb.Dice != [2]int{} {
		t.Errorf("Dice = %v, want zero", fb.Dice)
	}
}

func TestParseFIBSBoardInvalid(t *testing.T) {
	tooMany := make([]string, 32)
	for i := range tooMany {
		tooMany[i] = "0"
	}
	tooMany[10] = "16"

	notNumber := make([]string, 32)
	copy(notNumber, tooMany)
	notNumber[10] = "x"

	tests := []struct {
		name  string
		board string
	}{
		{"short", "invalid:board"},
		{"too many pawns", "board:" + strings.Join(tooMany, ":")},
		{"not a number", "board:" + strings.Join(notNumber, ":")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseFIBSBoard(tc.board); err == nil {
				t.Errorf("ParseFIBSBoard(%q) succeeded, want error", tc.board)
			}
		})
	}
}

// protocolConn is a test client speaking the line protocol without prompts.
type protocolConn struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func startServer(t *testing.T) (*Server, *api.Hub) {
	t.Helper()
	cfg := api.DefaultConfig()
	cfg.MaxSessions = 2
	pool := api.NewSessionPool(api.PoolConfig{MaxSessions: cfg.MaxSessions, MaxRequests: 4})
	hub := api.NewHub(cfg, pool, zaptest.NewLogger(t))

	srv := NewServer(hub, ServerOptions{Addr: "127.0.0.1:0"}, zaptest.NewLogger(t))
	if err := srv.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	t.Cleanup(func() {
		srv.Stop()
		hub.Close()
	})
	return srv, hub
}

func dial(t *testing.T, srv *Server) *protocolConn {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("Dial error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &protocolConn{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (p *protocolConn) send(cmd string) string {
	p.t.Helper()
	p.conn.SetDeadline(time.Now().Add(5 * time.Second))
	if _, err := p.conn.Write([]byte(cmd + "\n")); err != nil {
		p.t.Fatalf("write %q: %v", cmd, err)
	}
	line, err := p.r.ReadString('\n')
	if err != nil {
		p.t.Fatalf("read reply to %q: %v", cmd, err)
	}
	return strings.TrimSpace(line)
}

func TestProtocolGame(t *testing.T) {
	srv, hub := startServer(t)
	c := dial(t, srv)

	if got := c.send("version"); got != "bgturn external protocol 1.0" {
		t.Errorf("version = %q", got)
	}
	if got := c.send("roll"); !strings.HasPrefix(got, "Error: no session") {
		t.Errorf("roll without session = %q, want no session error", got)
	}
	if got := c.send("new 42"); !strings.HasPrefix(got, "session ") {
		t.Fatalf("new = %q, want session id", got)
	}
	if hub.Len() != 1 {
		t.Errorf("hub.Len() = %d, want 1", hub.Len())
	}

	if got := c.send("state"); got != "red_rolls 0-0 unused unused" {
		t.Errorf("state = %q, want red_rolls 0-0 unused unused", got)
	}
	if got := c.send("id"); got != "4HPwATDgc/ABMA" {
		t.Errorf("id = %q", got)
	}
	if got := c.send("roll"); got != "ok" {
		t.Errorf("roll = %q, want ok", got)
	}
	if got := c.send("roll"); got != "refused" {
		t.Errorf("second roll = %q, want refused", got)
	}
	if got := c.send("state"); !strings.HasPrefix(got, "red_moves ") {
		t.Errorf("state after roll = %q, want red_moves", got)
	}

	board := c.send("board")
	fb, err := ParseFIBSBoard(board)
	if err != nil {
		t.Fatalf("board reply %q: %v", board, err)
	}
	if fb.Dice[0] < 1 || fb.Dice[0] > 6 || fb.Dice[1] < 1 || fb.Dice[1] > 6 {
		t.Errorf("board dice = %v, want rolled faces", fb.Dice)
	}

	if got := c.send("select 23"); got != "refused" {
		t.Errorf("select opponent field = %q, want refused", got)
	}
	if got := c.send("select 24"); !strings.HasPrefix(got, "Error:") {
		t.Errorf("select 24 = %q, want error", got)
	}

	moves := c.send("select 0")
	dests, ok := strings.CutPrefix(moves, "moves: ")
	if !ok || dests == "" {
		t.Fatalf("select 0 = %q, want moves", moves)
	}
	first := strings.Fields(dests)[0]
	if got := c.send("commit " + first); got != "ok" {
		t.Errorf("commit %s = %q, want ok", first, got)
	}
	if got := c.send("commit " + first); got != "refused" {
		t.Errorf("commit without selection = %q, want refused", got)
	}

	if got := c.send("frobnicate"); got != "Error: unknown command 'frobnicate'" {
		t.Errorf("unknown command = %q", got)
	}
	if got := c.send("exit"); got != "Goodbye" {
		t.Errorf("exit = %q", got)
	}

	// The session is released once the connection ends.
	deadline := time.Now().Add(5 * time.Second)
	for hub.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.Len() != 0 {
		t.Errorf("hub.Len() = %d after exit, want 0", hub.Len())
	}
}

func TestProtocolNewReplacesSession(t *testing.T) {
	srv, hub := startServer(t)
	c := dial(t, srv)

	c.send("new")
	c.send("new")
	c.send("new")
	if hub.Len() != 1 {
		t.Errorf("hub.Len() = %d, want 1", hub.Len())
	}
	if got := c.send("new seed"); got != "Error: seed must be an integer" {
		t.Errorf("new seed = %q", got)
	}
}

func TestProtocolSessionLimit(t *testing.T) {
	srv, _ := startServer(t)

	for i := 0; i < 2; i++ {
		if got := dial(t, srv).send("new"); !strings.HasPrefix(got, "session ") {
			t.Fatalf("new #%d = %q", i, got)
		}
	}
	if got := dial(t, srv).send("new"); got != "Error: server busy" {
		t.Errorf("new past the limit = %q, want server busy", got)
	}
}

func TestProtocolStopClosesConnections(t *testing.T) {
	srv, hub := startServer(t)
	c := dial(t, srv)
	c.send("new")

	done := make(chan error, 1)
	go func() { done <- srv.Stop() }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return with an open connection")
	}
	if hub.Len() != 0 {
		t.Errorf("hub.Len() = %d after Stop, want 0", hub.Len())
	}
}

func TestFormatState(t *testing.T) {
	snap := api.SnapshotResponse{
		State: "white_moves",
		Dice:  []api.DieResponse{{Face: 4, Usage: "half_used"}, {Face: 4, Usage: "fully_used"}},
	}
	if got := formatState(snap); got != "white_moves 4-4 half_used fully_used" {
		t.Errorf("formatState = %q", got)
	}
	if got := formatState(api.SnapshotResponse{State: "init"}); got != "init" {
		t.Errorf("formatState(init) = %q", got)
	}
}

func TestHelpListsCommands(t *testing.T) {
	help := helpResponse()
	for _, cmd := range []string{"new", "roll", "select", "commit", "board", "transcript"} {
		if !strings.Contains(help, cmd) {
			t.Errorf("help does not mention %q", cmd)
		}
	}
}
