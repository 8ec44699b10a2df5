// Package client is the typed Go gateway to the catalog API used by admin
// tooling. It validates input locally, sends one request per call and maps
// failures onto the model error types.
package client

import "sync"

// Session holds the bearer token for one operator. It is set by Login and
// cleared when the server answers 401.
type Session struct {
	mu        sync.RWMutex
	token     string
	onExpired func()
}

// NewSession returns a signed-out session.
func NewSession() *Session { return &Session{} }

// SetToken stores the bearer token sent with later requests.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Token returns the current bearer token, empty when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Clear forgets the token, e.g. on logout.
func (s *Session) Clear() { s.SetToken("") }

// OnExpired registers fn to run after a 401 cleared the session, typically
// to send the operator back to the login screen.
func (s *Session) OnExpired(fn func()) {
	s.mu.Lock()
	s.onExpired = fn
	s.mu.Unlock()
}

func (s *Session) expire() {
	s.mu.Lock()
	s.token = ""
	fn := s.onExpired
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}
