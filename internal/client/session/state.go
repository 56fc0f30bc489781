// Package session tracks whether the user is signed in and tells
// subscribers when that changes.
package session

import "sync"

// Reason says why the session changed state.
type Reason string

const (
	ReasonLogin   Reason = "login"
	ReasonLogout  Reason = "logout"
	ReasonExpired Reason = "expired"
)

// Event is delivered to subscribers on every transition.
type Event struct {
	Authenticated bool
	Reason        Reason
}

// State is safe for concurrent use. Only transitions are published:
// Expire on an already signed-out session is a no-op.
type State struct {
	mu            sync.Mutex
	authenticated bool
	subs          map[int]chan Event
	next          int
}

func New(authenticated bool) *State {
	return &State{authenticated: authenticated, subs: make(map[int]chan Event)}
}

func (s *State) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// Login marks the session authenticated.
func (s *State) Login() { s.set(true, ReasonLogin) }

// Logout marks the session unauthenticated at the user's request.
func (s *State) Logout() { s.set(false, ReasonLogout) }

// Expire marks the session unauthenticated because the credential could not
// be renewed.
func (s *State) Expire() { s.set(false, ReasonExpired) }

func (s *State) set(authenticated bool, reason Reason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.authenticated == authenticated {
		return
	}
	s.authenticated = authenticated
	ev := Event{Authenticated: authenticated, Reason: reason}
	for _, ch := range s.subs {
		// slow subscribers lose events rather than block the caller
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe returns a channel of transitions buffered to size and a cancel
// func that unregisters and closes it.
func (s *State) Subscribe(size int) (<-chan Event, func()) {
	if size < 1 {
		size = 1
	}
	ch := make(chan Event, size)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}
