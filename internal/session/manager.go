package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/antoniostano/helpdesk/internal/intake"
)

// Manager is the in-process Store. Idle sessions are reaped by the janitor.
type Manager struct {
	mu         sync.RWMutex
	sessions   map[string]*intake.State
	ttl        time.Duration
	onExpire   func(intake.State)
	logger     *slog.Logger
	now        func() time.Time
	generateID func() string
}

func NewManager(ttl time.Duration, logger *slog.Logger) *Manager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions:   make(map[string]*intake.State),
		ttl:        ttl,
		logger:     logger,
		now:        time.Now,
		generateID: uuid.NewString,
	}
}

func (m *Manager) SetExpireHook(hook func(intake.State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = hook
}

func (m *Manager) GetOrCreate(_ context.Context, id string) (intake.State, bool, error) {
	if id != "" {
		m.mu.RLock()
		s, ok := m.sessions[id]
		if ok {
			c := s.Clone()
			m.mu.RUnlock()
			return c, false, nil
		}
		m.mu.RUnlock()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" {
		id = m.generateID()
	} else if s, ok := m.sessions[id]; ok {
		// Created by a concurrent turn between the two locks.
		return s.Clone(), false, nil
	}
	s := intake.NewState(id, m.now())
	m.sessions[id] = &s
	return s.Clone(), true, nil
}

func (m *Manager) Get(id string) (intake.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return intake.State{}, ErrNotFound
	}
	return s.Clone(), nil
}

// Save commits state. A session reaped while its turn was in flight is restored.
func (m *Manager) Save(_ context.Context, state intake.State) error {
	c := state.Clone()
	c.UpdatedAt = m.now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[c.SessionID] = &c
	return nil
}

func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireInactive()
			}
		}
	}()
}

func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) Close() error { return nil }

func (m *Manager) expireInactive() {
	now := m.now().UTC()
	var expired []intake.State

	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.UpdatedAt) < m.ttl {
			continue
		}
		expired = append(expired, s.Clone())
		delete(m.sessions, id)
	}
	hook := m.onExpire
	m.mu.Unlock()

	if len(expired) > 0 {
		m.logger.Info("expired idle sessions", "count", len(expired))
	}
	if hook != nil {
		for _, s := range expired {
			hook(s)
		}
	}
}
