package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/go_cart/checkout-service/internal/cart"
	"github.com/fjod/go_cart/checkout-service/pkg/logger"
	"go.uber.org/zap"
)

// Manager owns one Checkout per session.
type Manager struct {
	deps   Dependencies
	reader *cart.Reader
	ctx    context.Context

	mu       sync.Mutex
	sessions map[string]*entry
	closed   bool
}

// entry is a session slot; ready is closed once the checkout has started or
// failed to.
type entry struct {
	c     *Checkout
	ready chan struct{}
	err   error
}

func (e *entry) started() bool {
	select {
	case <-e.ready:
		return e.err == nil
	default:
		return false
	}
}

func (e *entry) wait() bool {
	<-e.ready
	return e.err == nil
}

// NewManager binds every checkout it opens to ctx; cancelling ctx stops all
// session timers.
func NewManager(ctx context.Context, deps Dependencies) *Manager {
	deps.setDefaults()
	return &Manager{
		deps:     deps,
		reader:   cart.NewReader(deps.Store),
		ctx:      ctx,
		sessions: make(map[string]*entry),
	}
}

// Open returns the session's checkout, creating it on first use. A new
// checkout picks up a payment left pending by an earlier visit. Starting a
// checkout talks to the store, so it happens outside the manager lock.
func (m *Manager) Open(ctx context.Context, sessionID string) (*Checkout, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	if e, ok := m.sessions[sessionID]; ok {
		m.mu.Unlock()
		select {
		case <-e.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if e.err != nil {
			return nil, e.err
		}
		return e.c, nil
	}

	e := &entry{
		c:     newCheckout(m.ctx, sessionID, &m.deps, m.reader),
		ready: make(chan struct{}),
	}
	m.sessions[sessionID] = e
	m.mu.Unlock()

	if err := e.c.start(); err != nil {
		e.err = err
		m.mu.Lock()
		if m.sessions[sessionID] == e {
			delete(m.sessions, sessionID)
		}
		m.mu.Unlock()
		close(e.ready)
		e.c.Close()
		return nil, err
	}
	close(e.ready)

	if _, err := e.c.Resume(ctx); err != nil && !errors.Is(err, ErrNothingToResume) {
		logger.GetOrCreateLoggerFromCtx(ctx).Warn(ctx, "could not resume pending payment",
			zap.String("session_id", sessionID), zap.Error(err))
	}
	return e.c, nil
}

// Session is Open typed for transports.
func (m *Manager) Session(ctx context.Context, sessionID string) (Session, error) {
	c, err := m.Open(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Close tears the session's checkout down. Persisted state is kept.
func (m *Manager) Close(sessionID string) {
	m.mu.Lock()
	e, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if ok && e.wait() {
		e.c.Close()
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Run evicts idle sessions until ctx is done. A session awaiting payment
// confirmation is never evicted.
func (m *Manager) Run(ctx context.Context) {
	if m.deps.IdleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(m.deps.IdleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictIdle(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) evictIdle(ctx context.Context) {
	cutoff := m.deps.Now().Add(-m.deps.IdleTimeout)

	m.mu.Lock()
	var idle []*Checkout
	for id, e := range m.sessions {
		if !e.started() {
			continue
		}
		lastSeen, busy := e.c.idleSince()
		if busy || lastSeen.After(cutoff) {
			continue
		}
		idle = append(idle, e.c)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, c := range idle {
		c.Close()
		logger.GetOrCreateLoggerFromCtx(ctx).Debug(ctx, "evicted idle checkout",
			zap.String("session_id", c.SessionID()))
	}
}

// Shutdown closes every checkout and waits for confirmed payments to be
// written; Open fails afterwards.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	sessions := m.sessions
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, e := range sessions {
		wg.Add(1)
		go func(e *entry) {
			defer wg.Done()
			if e.wait() {
				e.c.Close()
			}
		}(e)
	}
	wg.Wait()
}
