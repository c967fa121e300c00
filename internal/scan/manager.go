package scan

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/phishguard/internal/logging"
)

var ErrSessionNotFound = errors.New("session not found")

// Session pairs a controller with the bookkeeping the Manager needs to expire it.
type Session struct {
	ID         string
	Controller *Controller
	CreatedAt  time.Time

	lastSeen time.Time
}

// Manager keeps one Controller per browser or API session, in memory only.
type Manager struct {
	cfg       Config
	predictor Predictor
	recorder  Recorder
	logger    logging.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewManager(cfg Config, p Predictor, rec Recorder, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Manager{
		cfg:       cfg,
		predictor: p,
		recorder:  rec,
		logger:    logger,
		sessions:  make(map[string]*Session),
		now:       time.Now,
	}
}

// Create starts a new idle session.
func (m *Manager) Create() *Session {
	id := uuid.New().String()
	opts := []Option{WithID(id)}
	if m.recorder != nil {
		opts = append(opts, WithRecorder(m.recorder))
	}

	now := m.now().UTC()
	s := &Session{
		ID:         id,
		Controller: NewController(m.cfg, m.predictor, m.logger, opts...),
		CreatedAt:  now,
		lastSeen:   now,
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.logger.Debug("session created", logging.Field{Key: "session", Value: id})
	return s
}

// Get returns the session and marks it as recently used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.lastSeen = m.now().UTC()
	return s, nil
}

// Touch marks the session as recently used.
func (m *Manager) Touch(id string) error {
	_, err := m.Get(id)
	return err
}

// Delete removes the session and closes its controller.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Controller.Close()
	m.logger.Debug("session deleted", logging.Field{Key: "session", Value: id})
	return nil
}

// List returns the sessions ordered by creation time.
func (m *Manager) List() []*Session {
	m.mu.Lock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Prune drops sessions idle for longer than SessionTTL as of now. Sessions
// with a scan in flight or a live subscriber are kept. It returns the number
// removed.
func (m *Manager) Prune(now time.Time) int {
	if m.cfg.SessionTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-m.cfg.SessionTTL)

	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.lastSeen.After(cutoff) || s.Controller.State().Busy() || s.Controller.Subscribers() > 0 {
			continue
		}
		expired = append(expired, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Controller.Close()
	}
	if len(expired) > 0 {
		m.logger.Info("pruned idle sessions", logging.Field{Key: "count", Value: len(expired)})
	}
	return len(expired)
}

// Run prunes expired sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			m.Prune(now)
		}
	}
}

// Close closes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Controller.Close()
	}
}
