package api

import (
	"context"
	"sync/atomic"
)

// SessionPool bounds the server's concurrency. It keeps two semaphores:
// one slot per live session, held for the session's lifetime, and one slot
// per in-flight request against a session.
type SessionPool struct {
	sessionSem     chan struct{}
	requestSem     chan struct{}
	queuedRequests int64
	activeSessions int64
	activeRequests int64
	totalSessions  int64
	totalRequests  int64
}

// PoolConfig configures the session pool.
type PoolConfig struct {
	MaxSessions int // Max live sessions (default: 100)
	MaxRequests int // Max concurrent session requests (default: 64)
}

// DefaultPoolConfig returns a PoolConfig with sensible defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxSessions: 100,
		MaxRequests: 64,
	}
}

// NewSessionPool creates a new pool with the given configuration.
func NewSessionPool(config PoolConfig) *SessionPool {
	if config.MaxSessions <= 0 {
		config.MaxSessions = 100
	}
	if config.MaxRequests <= 0 {
		config.MaxRequests = 64
	}

	return &SessionPool{
		sessionSem: make(chan struct{}, config.MaxSessions),
		requestSem: make(chan struct{}, config.MaxRequests),
	}
}

// TryAcquireSession reserves a session slot without blocking.
// Returns false if the server is at capacity.
func (p *SessionPool) TryAcquireSession() bool {
	select {
	case p.sessionSem <- struct{}{}:
		atomic.AddInt64(&p.activeSessions, 1)
		atomic.AddInt64(&p.totalSessions, 1)
		return true
	default:
		return false
	}
}

// ReleaseSession frees a session slot.
func (p *SessionPool) ReleaseSession() {
	atomic.AddInt64(&p.activeSessions, -1)
	<-p.sessionSem
}

// AcquireRequest acquires a request slot.
// Returns an error if the context is cancelled while waiting.
func (p *SessionPool) AcquireRequest(ctx context.Context) error {
	atomic.AddInt64(&p.queuedRequests, 1)
	defer atomic.AddInt64(&p.queuedRequests, -1)

	select {
	case p.requestSem <- struct{}{}:
		atomic.AddInt64(&p.activeRequests, 1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReleaseRequest releases a request slot.
func (p *SessionPool) ReleaseRequest() {
	atomic.AddInt64(&p.activeRequests, -1)
	atomic.AddInt64(&p.totalRequests, 1)
	<-p.requestSem
}

// PoolStats is a point-in-time view of the pool.
type PoolStats struct {
	ActiveSessions int64 `json:"active_sessions"`
	ActiveRequests int64 `json:"active_requests"`
	QueuedRequests int64 `json:"queued_requests"`
	TotalSessions  int64 `json:"total_sessions"`
	TotalRequests  int64 `json:"total_requests"`
	MaxSessions    int   `json:"max_sessions"`
	MaxRequests    int   `json:"max_requests"`
}

// Stats returns current pool statistics.
func (p *SessionPool) Stats() PoolStats {
	return PoolStats{
		ActiveSessions: atomic.LoadInt64(&p.activeSessions),
		ActiveRequests: atomic.LoadInt64(&p.activeRequests),
		QueuedRequests: atomic.LoadInt64(&p.queuedRequests),
		TotalSessions:  atomic.LoadInt64(&p.totalSessions),
		TotalRequests:  atomic.LoadInt64(&p.totalRequests),
		MaxSessions:    cap(p.sessionSem),
		MaxRequests:    cap(p.requestSem),
	}
}
