package server

import (
	"sync"

	"github.com/studyforge/studyforge/internal/schedule"
)

// Sessions hands out one block store per user, created lazily over the
// user-scoped persistence adapter. The block store is the single writer for
// a user's schedule, so all handlers for the same user share one instance.
type Sessions struct {
	persist func(userID string) schedule.Persistence
	opts    []schedule.Option

	mu sync.Mutex
	m  map[string]*schedule.Store
}

// NewSessions builds a session registry over a persistence factory.
func NewSessions(persist func(userID string) schedule.Persistence, opts ...schedule.Option) *Sessions {
	return &Sessions{persist: persist, opts: opts, m: map[string]*schedule.Store{}}
}

// ForUser returns the user's block store, creating it on first use.
func (s *Sessions) ForUser(userID string) *schedule.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.m[userID]; ok {
		return st
	}
	st := schedule.NewStore(s.persist(userID), s.opts...)
	s.m[userID] = st
	return st
}
