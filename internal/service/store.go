package service

import (
	"sync"

	"github.com/google/uuid"
)

// Store is the registry of live sessions, the only shared mutable structure in
// this module. Sessions live until the process exits; there is no expiry.
//
// Both lock sections are brief on purpose: Get hands out the session before
// the slow pipeline runs, so unrelated sessions never serialize behind one
// long Ask. See Session for the per-session race this trades away.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[uuid.UUID]*Session)}
}

func (st *Store) Put(sess *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[sess.ID()] = sess
}

func (st *Store) Get(id uuid.UUID) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.sessions[id]
	return sess, ok
}
