package identity

import (
	"sync"

	"github.com/google/uuid"
)

// Session holds the signed-in principal of one client and notifies
// listeners on sign-in and sign-out. Operations take the principal as an
// explicit argument; Session is only the source it is read from.
type Session struct {
	mu        sync.Mutex
	current   *Principal
	listeners map[string]func(*Principal)
}

func NewSession() *Session {
	return &Session{listeners: make(map[string]func(*Principal))}
}

// CurrentUser returns a copy of the signed-in principal, or nil.
func (s *Session) CurrentUser() *Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	p := *s.current
	return &p
}

func (s *Session) SignIn(p Principal) {
	s.set(&p)
}

func (s *Session) SignOut() {
	s.set(nil)
}

// OnChange registers fn for every later sign-in or sign-out. The returned
// func unregisters it.
func (s *Session) OnChange(fn func(*Principal)) func() {
	id := uuid.NewString()
	s.mu.Lock()
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Session) set(p *Principal) {
	s.mu.Lock()
	s.current = p
	fns := make([]func(*Principal), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		var copied *Principal
		if p != nil {
			c := *p
			copied = &c
		}
		fn(copied)
	}
}
