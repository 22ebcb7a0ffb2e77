package ledger

import "sync"

// SessionManager hands out one Ledger per signed-in user. The identity
// provider boundary reduces to: a request carrying a user ID gets that user's
// ledger, and a sign-out evicts it.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Ledger
	build    func() *Ledger
}

// NewSessionManager constructs a manager; build produces a fresh Ledger wired
// to the shared stores.
func NewSessionManager(build func() *Ledger) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Ledger),
		build:    build,
	}
}

// Ledger returns the ledger for userID, creating one on first use.
func (m *SessionManager) Ledger(userID string) *Ledger {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l, ok := m.sessions[userID]; ok {
		return l
	}
	l := m.build()
	m.sessions[userID] = l
	return l
}

// SignOut clears and evicts the user's ledger, if any.
func (m *SessionManager) SignOut(userID string) {
	m.mu.Lock()
	l, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if ok {
		l.SignOut()
	}
}
