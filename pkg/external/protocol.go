// Package external implements a line based text protocol for driving game
// sessions over a TCP socket, in the spirit of gnubg's external player
// interface.
//
// Protocol overview:
//   - Server listens on a TCP port
//   - Each connection owns at most one session from the api hub
//   - Commands: new, roll, select, commit, state, board, id, transcript,
//     version, help, exit
//   - Positions are reported in FIBS board format and as position IDs
package external

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/bgturn/pkg/api"
	"github.com/yourusername/bgturn/pkg/engine"
)

const commandTimeout = 5 * time.Second

// Server implements the external protocol server.
type Server struct {
	hub      *api.Hub
	log      *zap.Logger
	listener net.Listener
	mu       sync.Mutex
	running  bool
	active   map[net.Conn]struct{}
	conns    sync.WaitGroup
	options  ServerOptions
}

// ServerOptions configures the external protocol server.
type ServerOptions struct {
	Addr          string // TCP address to listen on
	PromptEnabled bool   // Send prompts after responses
}

// DefaultServerOptions returns sensible defaults.
func DefaultServerOptions() ServerOptions {
	return ServerOptions{
		Addr:          "localhost:4321",
		PromptEnabled: true,
	}
}

// NewServer creates a new external protocol server backed by hub.
func NewServer(hub *api.Hub, opts ServerOptions, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		hub:     hub,
		log:     log.Named("external"),
		active:  make(map[net.Conn]struct{}),
		options: opts,
	}
}

// Start begins listening for connections.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.options.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.options.Addr, err)
	}

	s.listener = listener
	s.running = true
	s.log.Info("external protocol listening", zap.Stringer("addr", listener.Addr()))

	go s.acceptLoop()

	return nil
}

// Addr returns the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop stops accepting connections, closes open ones and waits for their
// sessions to be released.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	err := s.listener.Close()
	for conn := range s.active {
		conn.Close()
	}
	s.mu.Unlock()

	s.conns.Wait()
	return err
}

// acceptLoop accepts incoming connections.
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			running := s.running
			s.mu.Unlock()
			if !running {
				return // Server stopped
			}
			s.log.Warn("accept", zap.Error(err))
			continue
		}

		s.mu.Lock()
		if !s.running {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.active[conn] = struct{}{}
		s.conns.Add(1)
		s.mu.Unlock()

		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
			s.mu.Lock()
			delete(s.active, conn)
			s.mu.Unlock()
		}()
	}
}

// client is the per-connection state.
type client struct {
	srv     *Server
	session *api.Session
}

// handleConnection handles a single client connection.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	c := &client{srv: s}
	defer c.closeSession()

	reader := bufio.NewReader(conn)

	// Send initial prompt if enabled
	if s.options.PromptEnabled {
		conn.Write([]byte("> "))
	}

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Debug("read", zap.Error(err))
			}
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		response := c.processCommand(line)
		if _, err := conn.Write([]byte(response)); err != nil {
			return
		}

		if s.options.PromptEnabled {
			conn.Write([]byte("> "))
		}

		// Check for exit command
		if cmd := strings.ToLower(line); cmd == "exit" || cmd == "quit" {
			return
		}
	}
}

func (c *client) closeSession() {
	if c.session != nil {
		c.srv.hub.Delete(c.session.ID)
		c.session = nil
	}
}

// processCommand processes a single command and returns the response.
func (c *client) processCommand(cmd string) string {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return "Error: empty command\n"
	}

	command := strings.ToLower(parts[0])

	switch command {
	case "version":
		return "bgturn external protocol 1.0\n"

	case "help":
		return helpResponse()

	case "exit", "quit":
		return "Goodbye\n"

	case "new":
		return c.handleNew(parts[1:])
	}

	if c.session == nil {
		return "Error: no session, use 'new' first\n"
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch command {
	case "roll":
		resp, err := c.session.Roll(ctx)
		return action(resp, err)

	case "select", "commit":
		field, err := parseField(parts[1:])
		if err != nil {
			return fmt.Sprintf("Error: %v\n", err)
		}
		if command == "commit" {
			return action(c.session.Commit(ctx, field))
		}
		resp, err := c.session.Select(ctx, field)
		if err != nil || !resp.OK {
			return action(resp, err)
		}
		dests := make([]string, len(resp.Snapshot.Candidates))
		for i, m := range resp.Snapshot.Candidates {
			dests[i] = strconv.Itoa(m.Dest)
		}
		return "moves: " + strings.Join(dests, " ") + "\n"

	case "state":
		snap, err := c.session.Snapshot(ctx)
		if err != nil {
			return fmt.Sprintf("Error: %v\n", err)
		}
		return formatState(snap) + "\n"

	case "board", "fibsboard":
		var line string
		err := c.session.Do(ctx, func(e *engine.TurnEngine) {
			line = NewFIBSBoard(e.Board(), e.CurrentPlayer(), e.Dice().Faces()).String()
		})
		if err != nil {
			return fmt.Sprintf("Error: %v\n", err)
		}
		return line + "\n"

	case "id":
		snap, err := c.session.Snapshot(ctx)
		if err != nil {
			return fmt.Sprintf("Error: %v\n", err)
		}
		return snap.PositionID + "\n"

	case "transcript":
		t, err := c.session.Transcript(ctx)
		if err != nil {
			return fmt.Sprintf("Error: %v\n", err)
		}
		var sb strings.Builder
		if err := t.WriteMAT(&sb); err != nil {
			return fmt.Sprintf("Error: %v\n", err)
		}
		return sb.String()

	default:
		return fmt.Sprintf("Error: unknown command '%s'\n", command)
	}
}

// helpResponse returns help text.
func helpResponse() string {
	return `Available commands:
  version          - Show version information
  help             - Show this help
  new [seed]       - Start a new game (dice roll on request)
  roll             - Roll the dice
  select <field>   - Show the moves of the top pawn on a field (0-23)
  commit <field>   - Move the selected pawn to a field
  state            - Show the turn state and dice
  board            - Show the position as a FIBS board
  id               - Show the position ID
  transcript       - Show the game record
  exit             - Close connection
`
}

// handleNew replaces the connection's session with a fresh game.
func (c *client) handleNew(args []string) string {
	manual := false
	req := api.CreateSessionRequest{AutoRoll: &manual}
	if len(args) > 0 {
		seed, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return "Error: seed must be an integer\n"
		}
		req.Seed = &seed
	}

	c.closeSession()
	s, err := c.srv.hub.Create(req)
	if err != nil {
		return fmt.Sprintf("Error: %v\n", err)
	}
	c.session = s
	return "session " + s.ID + "\n"
}

func parseField(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errors.New("expected one field index")
	}
	field, err := strconv.Atoi(args[0])
	if err != nil || field < 0 || field >= engine.NumFields {
		return 0, errors.New("field must be between 0 and 23")
	}
	return field, nil
}

func action(resp api.ActionResponse, err error) string {
	switch {
	case err != nil:
		return fmt.Sprintf("Error: %v\n", err)
	case resp.OK:
		return "ok\n"
	default:
		return "refused\n"
	}
}

// formatState renders "state face-face usage usage".
func formatState(snap api.SnapshotResponse) string {
	parts := []string{snap.State}
	faces := make([]string, len(snap.Dice))
	for i, d := range snap.Dice {
		faces[i] = strconv.Itoa(d.Face)
	}
	if len(faces) > 0 {
		parts = append(parts, strings.Join(faces, "-"))
	}
	for _, d := range snap.Dice {
		parts = append(parts, d.Usage)
	}
	return strings.Join(parts, " ")
}
