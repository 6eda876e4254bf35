package api

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/bgturn/pkg/engine"
	"github.com/yourusername/bgturn/pkg/record"
)

// ErrSessionClosed is returned for requests against a closed session.
var ErrSessionClosed = errors.New("session closed")

// eventBuffer is the per-subscriber backlog. Slow subscribers lose events
// rather than stall the engine.
const eventBuffer = 64

// Session is one game: a turn engine running on its own loop goroutine.
// All engine access goes through the loop.
type Session struct {
	ID      string
	Created time.Time

	loop     *engine.Loop
	cancel   context.CancelFunc
	engine   *engine.TurnEngine
	recorder *record.Recorder
	bus      *broadcaster
	log      *zap.Logger

	lastUsed  atomic.Int64
	closeOnce sync.Once
}

func newSession(id string, cfg engine.Config, seed int64, log *zap.Logger) (*Session, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:       id,
		Created:  time.Now(),
		loop:     engine.NewLoop(),
		cancel:   cancel,
		recorder: record.NewRecorder("red", "white"),
		bus:      newBroadcaster(),
		log:      log.With(zap.String("session", id)),
	}
	s.touch()

	s.engine = engine.New(cfg,
		engine.WithLogger(s.log),
		engine.WithScheduler(s.loop),
		engine.WithRoller(rand.New(rand.NewSource(seed))),
		engine.WithObserver(s.recorder),
		engine.WithObserver(s.bus),
	)
	if err := s.engine.Err(); err != nil {
		cancel()
		return nil, err
	}

	go s.loop.Run(ctx)
	if err := s.loop.Do(ctx, s.engine.Start); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Session) touch() {
	s.lastUsed.Store(time.Now().UnixNano())
}

// LastUsed returns the time of the last request.
func (s *Session) LastUsed() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

// Do runs fn with the engine on the session loop.
func (s *Session) Do(ctx context.Context, fn func(e *engine.TurnEngine)) error {
	s.touch()
	err := s.loop.Do(ctx, func() { fn(s.engine) })
	if errors.Is(err, engine.ErrLoopStopped) {
		return ErrSessionClosed
	}
	return err
}

// Snapshot returns the current state.
func (s *Session) Snapshot(ctx context.Context) (SnapshotResponse, error) {
	var snap SnapshotResponse
	err := s.Do(ctx, func(e *engine.TurnEngine) { snap = snapshotOf(s.ID, e) })
	return snap, err
}

// act runs a request on the loop and returns its result with the state
// after it.
func (s *Session) act(ctx context.Context, fn func(e *engine.TurnEngine) bool) (ActionResponse, error) {
	var resp ActionResponse
	err := s.Do(ctx, func(e *engine.TurnEngine) {
		resp.OK = fn(e)
		resp.Snapshot = snapshotOf(s.ID, e)
	})
	return resp, err
}

// Roll asks the engine to roll.
func (s *Session) Roll(ctx context.Context) (ActionResponse, error) {
	return s.act(ctx, (*engine.TurnEngine).RequestRoll)
}

// Select asks for the candidate moves of a field.
func (s *Session) Select(ctx context.Context, field int) (ActionResponse, error) {
	return s.act(ctx, func(e *engine.TurnEngine) bool {
		return e.RequestShowMoves(e.Board().Field(field))
	})
}

// Commit moves the selected pawn to a field.
func (s *Session) Commit(ctx context.Context, field int) (ActionResponse, error) {
	return s.act(ctx, func(e *engine.TurnEngine) bool {
		return e.RequestCommitMove(e.Board().Field(field))
	})
}

// Transcript returns the game record so far.
func (s *Session) Transcript(ctx context.Context) (*record.Transcript, error) {
	var t *record.Transcript
	err := s.Do(ctx, func(*engine.TurnEngine) { t = s.recorder.Transcript() })
	return t, err
}

// Subscribe returns a channel of engine events and a function to stop
// receiving them. The channel is closed when the session closes.
func (s *Session) Subscribe() (<-chan Event, func()) {
	return s.bus.subscribe()
}

// Close stops the loop and ends all subscriptions.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.loop.Done()
		s.bus.close()
		s.log.Debug("session closed")
	})
}

// broadcaster fans engine notifications out to subscribers. Its observer
// methods run on the session loop.
type broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	next   int
	closed bool
}

var _ engine.Observer = (*broadcaster)(nil)

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan Event)}
}

func (b *broadcaster) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, eventBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
}

func (b *broadcaster) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *broadcaster) OnStateChanged(old, next engine.GameState) {
	b.publish(Event{Type: "state", Data: StateEvent{
		From:   old.String(),
		To:     next.String(),
		Player: next.Player().String(),
	}})
}

func (b *broadcaster) OnDiceRolled(die, face int) {
	b.publish(Event{Type: "rolled", Data: RolledEvent{Die: die, Face: face}})
}

func (b *broadcaster) OnDiceUsed(die int, usage engine.Usage) {
	b.publish(Event{Type: "used", Data: UsedEvent{Die: die, Usage: usage.String()}})
}

func (b *broadcaster) OnMoveCommitted(m engine.Move, captured *engine.Pawn) {
	b.publish(Event{Type: "moved", Data: MovedEvent{
		Player: m.Player.String(),
		Start:  m.Start,
		Steps:  m.Steps,
		Dest:   m.Dest,
		Hit:    captured != nil,
	}})
}
