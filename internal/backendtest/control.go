package backendtest

import (
	"github.com/Grupo-Cloud/frontend/internal/client/models"
	"github.com/google/uuid"
)

// AddUser registers an account directly.
func (s *Server) AddUser(username, email, password string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return models.User{}, errUserExists
	}
	acc := &account{
		user:     models.User{ID: uuid.New(), Email: email, Username: username},
		password: password,
	}
	s.users[username] = acc
	s.byID[acc.user.ID] = acc
	return acc.user, nil
}

// Issue mints a token pair for an existing user, as a login would.
func (s *Server) Issue(username string) (access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.users[username]
	if !ok {
		panic("backendtest: unknown user " + username)
	}
	access, refresh, err := s.issuePair(acc.user.ID.String())
	if err != nil {
		panic(err)
	}
	return access, refresh
}

// ExpireAccessTokens makes every access token issued so far answer 401.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
}

// RejectAllTokens makes protected endpoints answer 401 regardless of token.
func (s *Server) RejectAllTokens(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectTokens = reject
}

// SetRefreshStatus makes the refresh endpoint answer status; 0 restores it.
func (s *Server) SetRefreshStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshStatus = status
}

// SetRotateRefresh controls whether refresh returns a new refresh token.
func (s *Server) SetRotateRefresh(rotate bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotateRefresh = rotate
}

// Inject makes "METHOD /path" answer status; 0 removes the injection.
func (s *Server) Inject(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.injected, route)
		return
	}
	s.injected[route] = status
}

// SetLLM replaces the generation function.
func (s *Server) SetLLM(fn func(query string) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.llm = fn
}

// HoldRefresh blocks refresh calls until the returned release func runs.
func (s *Server) HoldRefresh() (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.hold = ch
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		if s.hold == ch {
			s.hold = nil
		}
		s.mu.Unlock()
		close(ch)
	}
}

func (s *Server) RefreshCalls() int { return int(s.refreshCalls.Load()) }

// Unauthorized counts 401 responses served so far.
func (s *Server) Unauthorized() int { return int(s.unauthorized.Load()) }

// Calls returns a copy of the request log.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo filters the request log by method and path.
func (s *Server) CallsTo(method, path string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// Messages returns the stored messages of a chat.
func (s *Server) Messages(chatID uuid.UUID) []models.StoredMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[chatID]
	if !ok {
		return nil
	}
	return append([]models.StoredMessage(nil), c.messages...)
}
