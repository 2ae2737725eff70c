package main

import (
	"log"
	"sort"
	"sync"
	"time"
)

const (
	maxSessions       = 100
	sessionReapPeriod = 30 * time.Second
)

// SessionIdleTimeout is how long a session may stay empty before the
// reaper removes it. A var so tests can shorten it.
var SessionIdleTimeout = 5 * time.Minute

// Session represents a game session that players can join
type Session struct {
	ID         string
	Name       string
	Game       *Game
	CreatedAt  time.Time
	lastActive time.Time
}

// SessionManager handles creation and lookup of sessions
type SessionManager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	configs   *ConfigStore
	db        *DB
	analytics *Analytics
}

// NewSessionManager creates a new SessionManager. New sessions use the
// config active at creation time.
func NewSessionManager(configs *ConfigStore, db *DB, analytics *Analytics) *SessionManager {
	return &SessionManager{
		sessions:  make(map[string]*Session),
		configs:   configs,
		db:        db,
		analytics: analytics,
	}
}

// CreateSession creates a new game session. Returns nil if limit reached.
func (sm *SessionManager) CreateSession(name string) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= maxSessions {
		return nil
	}

	id := GenerateUUID()
	now := time.Now()
	sess := &Session{
		ID:         id,
		Name:       name,
		Game:       NewGame(id, sm.configs.Get(), sm.db, sm.analytics),
		CreatedAt:  now,
		lastActive: now,
	}
	sm.sessions[id] = sess
	go sess.Game.Run()
	if sm.analytics != nil {
		sm.analytics.Track(EvtSessionStart, 0, id, "")
	}
	log.Printf("session %s (%q) created", id, name)
	return sess
}

// GetSession returns a session by ID
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// MarkActive refreshes the idle timer of a session
func (sm *SessionManager) MarkActive(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sess, ok := sm.sessions[id]; ok {
		sess.lastActive = time.Now()
	}
}

// RemovePlayer removes a player from a session and closes the session
// once it is empty
func (sm *SessionManager) RemovePlayer(sessionID, playerID string) {
	sm.mu.RLock()
	sess, ok := sm.sessions[sessionID]
	sm.mu.RUnlock()
	if !ok {
		return
	}
	sess.Game.RemovePlayer(playerID)

	if sess.Game.PlayerCount() == 0 {
		sm.remove(sess)
	}
}

func (sm *SessionManager) remove(sess *Session) {
	sm.mu.Lock()
	_, ok := sm.sessions[sess.ID]
	delete(sm.sessions, sess.ID)
	sm.mu.Unlock()
	if !ok {
		return
	}
	sess.Game.Stop()
	if sm.analytics != nil {
		sm.analytics.Track(EvtSessionEnd, 0, sess.ID, "")
	}
	log.Printf("session %s closed", sess.ID)
}

// Reap removes sessions that have had no players for SessionIdleTimeout.
// Returns how many were removed.
func (sm *SessionManager) Reap(now time.Time) int {
	sm.mu.RLock()
	var idle []*Session
	for _, sess := range sm.sessions {
		if sess.Game.PlayerCount() == 0 && now.Sub(sess.lastActive) >= SessionIdleTimeout {
			idle = append(idle, sess)
		}
	}
	sm.mu.RUnlock()

	for _, sess := range idle {
		sm.remove(sess)
	}
	return len(idle)
}

// RunReaper reaps idle sessions until stop is closed
func (sm *SessionManager) RunReaper(stop <-chan struct{}) {
	ticker := time.NewTicker(sessionReapPeriod)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			if n := sm.Reap(now); n > 0 {
				log.Printf("reaped %d idle sessions", n)
			}
		case <-stop:
			return
		}
	}
}

// Count returns the number of live sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// ListSessions returns info about all active sessions, oldest first
func (sm *SessionManager) ListSessions() []SessionInfo {
	sm.mu.RLock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		sessions = append(sessions, sess)
	}
	sm.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	list := make([]SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		list = append(list, SessionInfo{
			ID:      sess.ID,
			Name:    sess.Name,
			Players: sess.Game.PlayerCount(),
			Wave:    sess.Game.Wave(),
			Phase:   int(sess.Game.Phase()),
		})
	}
	return list
}
