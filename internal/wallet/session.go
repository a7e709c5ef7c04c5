package wallet

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session binds an address to its signing capability for the duration of a
// login. Secret material lives only inside the signer, in memory.
type Session struct {
	ID        string
	Address   string
	Signer    Signer
	CreatedAt time.Time
}

type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: map[string]*Session{}}
}

func (s *SessionStore) Create(signer Signer) *Session {
	session := &Session{
		ID:        uuid.NewString(),
		Address:   signer.Address(),
		Signer:    signer,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return session
}

func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}
