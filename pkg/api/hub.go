package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrServerBusy is returned when the session limit is reached.
var ErrServerBusy = errors.New("server busy")

// Hub owns the live sessions.
type Hub struct {
	config ServerConfig
	pool   *SessionPool
	log    *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewHub creates an empty hub.
func NewHub(config ServerConfig, pool *SessionPool, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		config:   config,
		pool:     pool,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session.
func (h *Hub) Create(req CreateSessionRequest) (*Session, error) {
	if !h.pool.TryAcquireSession() {
		return nil, ErrServerBusy
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	id := uuid.NewString()

	s, err := newSession(id, h.config.engineConfig(req), seed, h.log)
	if err != nil {
		h.pool.ReleaseSession()
		return nil, err
	}

	h.mu.Lock()
	h.sessions[id] = s
	h.mu.Unlock()

	h.log.Info("session created", zap.String("session", id), zap.Int64("seed", seed))
	return s, nil
}

// Get returns the session with the given id.
func (h *Hub) Get(id string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}

// Delete closes and removes a session.
func (h *Hub) Delete(id string) bool {
	h.mu.Lock()
	s, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if !ok {
		return false
	}
	s.Close()
	h.pool.ReleaseSession()
	return true
}

// Len returns the number of live sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Reap closes sessions idle since before now minus the session TTL and
// returns how many were removed.
func (h *Hub) Reap(now time.Time) int {
	if h.config.SessionTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-h.config.SessionTTL)

	var idle []string
	h.mu.RLock()
	for id, s := range h.sessions {
		if s.LastUsed().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	h.mu.RUnlock()

	n := 0
	for _, id := range idle {
		if h.Delete(id) {
			h.log.Info("session reaped", zap.String("session", id))
			n++
		}
	}
	return n
}

// Run reaps idle sessions until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	interval := h.config.SessionTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.Reap(now)
		}
	}
}

// Close closes every session.
func (h *Hub) Close() {
	h.mu.RLock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.Delete(id)
	}
}
