// FILE: src/internal/mcp/session.go
package mcp

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lixenwraith/log"
)

// Session is one initialized MCP client
type Session struct {
	ID           string
	RemoteAddr   string
	ClientName   string
	CreatedAt    time.Time
	LastActivity time.Time
}

// SessionManager tracks sessions and expires idle ones
type SessionManager struct {
	sessions map[string]*Session
	mu       sync.RWMutex

	maxIdleTime   time.Duration
	cleanupTicker *time.Ticker
	done          chan struct{}
	stopOnce      sync.Once

	logger *log.Logger
}

// NewSessionManager starts a manager with the given idle timeout
func NewSessionManager(maxIdleTime time.Duration, logger *log.Logger) *SessionManager {
	if maxIdleTime <= 0 {
		maxIdleTime = 30 * time.Minute
	}

	m := &SessionManager{
		sessions:    make(map[string]*Session),
		maxIdleTime: maxIdleTime,
		done:        make(chan struct{}),
		logger:      logger,
	}
	m.startCleanup()
	return m
}

// Create registers a new session
func (m *SessionManager) Create(remoteAddr, clientName string) *Session {
	now := time.Now()
	session := &Session{
		ID:           uuid.NewString(),
		RemoteAddr:   remoteAddr,
		ClientName:   clientName,
		CreatedAt:    now,
		LastActivity: now,
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	m.logger.Info("msg", "Session created",
		"component", "session",
		"session_id", session.ID,
		"client", clientName,
		"remote_addr", remoteAddr)
	return session
}

// Touch refreshes an active session. Expired sessions are dropped and
// reported as absent.
func (m *SessionManager) Touch(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[id]
	if !exists {
		return false
	}
	if time.Since(session.LastActivity) > m.maxIdleTime {
		delete(m.sessions, id)
		return false
	}
	session.LastActivity = time.Now()
	return true
}

// Get returns a copy of the session
func (m *SessionManager) Get(id string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, exists := m.sessions[id]
	if !exists {
		return Session{}, false
	}
	return *session, true
}

// Remove terminates a session, reporting whether it existed
func (m *SessionManager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.sessions[id]
	delete(m.sessions, id)
	return exists
}

// Count returns the number of tracked sessions
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Stop ends the cleanup routine
func (m *SessionManager) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		m.cleanupTicker.Stop()
	})
}

func (m *SessionManager) startCleanup() {
	interval := min(m.maxIdleTime, 5*time.Minute)
	m.cleanupTicker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-m.cleanupTicker.C:
				m.cleanupIdleSessions()
			case <-m.done:
				return
			}
		}
	}()
}

func (m *SessionManager) cleanupIdleSessions() {
	m.mu.Lock()
	now := time.Now()
	var expired []string
	for id, session := range m.sessions {
		if now.Sub(session.LastActivity) > m.maxIdleTime {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		m.logger.Debug("msg", "Session expired",
			"component", "session",
			"session_id", id)
	}
}
