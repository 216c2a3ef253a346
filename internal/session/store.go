// Package session holds the locally persisted proof of authentication.
// The store is a dumb cache of the last known session: no expiry check
// happens here, the server's 401 is the expiry signal.
package session

import (
	"sync"

	"github.com/mbertrand/plume/internal/models"
)

// Storage keys, kept stable across releases so an upgraded client still
// finds an existing session.
const (
	keyToken = "authToken"
	keyUser  = "user"
)

type Store interface {
	// Session returns the cached session, or nil when logged out.
	Session() *models.Session
	IsAuthenticated() bool
	CurrentUser() *models.User
	// Save replaces the whole session. Token and user are written together.
	Save(s models.Session) error
	// Clear removes token and user together. Clearing an empty store is a no-op.
	Clear() error
}

// MemoryStore keeps the session in process memory only. Used in tests and
// by callers that do not want persistence.
type MemoryStore struct {
	mu   sync.RWMutex
	sess *models.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Session() *models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sess == nil {
		return nil
	}
	s := *m.sess
	return &s
}

func (m *MemoryStore) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sess != nil && m.sess.Token != ""
}

func (m *MemoryStore) CurrentUser() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sess == nil {
		return nil
	}
	u := m.sess.User
	return &u
}

func (m *MemoryStore) Save(s models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = &s
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = nil
	return nil
}
