package session

import (
	"context"
	"sync"
	"time"
)

// Navigator moves the user to another page.
type Navigator interface {
	Navigate(target string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(target string)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(target string) { f(target) }

// StoreOptions configures a Store.
type StoreOptions struct {
	Broker    *Broker
	Navigator Navigator
	LoginPath string
	// CurrentPath reports where the user is, for the login redirect's next.
	CurrentPath func() string
	Now         func() time.Time
}

// Store keeps the token pair of a long-lived client such as the admin
// console. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	access  string
	refresh string

	broker      *Broker
	nav         Navigator
	loginPath   string
	currentPath func() string
	now         func() time.Time
}

// NewStore creates an empty store.
func NewStore(opts StoreOptions) *Store {
	s := &Store{
		broker:      opts.Broker,
		nav:         opts.Navigator,
		loginPath:   opts.LoginPath,
		currentPath: opts.CurrentPath,
		now:         opts.Now,
	}
	if s.loginPath == "" {
		s.loginPath = "/login"
	}
	if s.currentPath == nil {
		s.currentPath = func() string { return "" }
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// SetTokens stores a new token pair and publishes a login event.
func (s *Store) SetTokens(access, refresh string) {
	s.mu.Lock()
	s.access = access
	s.refresh = refresh
	s.mu.Unlock()

	s.broker.Publish(Event{Kind: EventLogin, Subject: subjectOf(access), At: s.now()})
}

// AccessToken implements apiclient.Session.
func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access
}

// RefreshToken returns the stored refresh token.
func (s *Store) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh
}

// Claims decodes the stored access token.
func (s *Store) Claims() (*Claims, error) {
	return Decode(s.AccessToken())
}

// Authenticated reports whether an unexpired access token is stored.
func (s *Store) Authenticated() bool {
	return Valid(s.AccessToken(), s.now()) != nil
}

// Logout ends the session at the user's request.
func (s *Store) Logout(ctx context.Context) {
	s.end(EventLogout, true)
}

// Expire implements apiclient.Session. It ends the session once; calls on an
// already cleared store do nothing, so concurrent 401s redirect only once.
func (s *Store) Expire(ctx context.Context) {
	s.end(EventExpired, false)
}

func (s *Store) end(kind EventKind, always bool) {
	s.mu.Lock()
	had := s.access != ""
	subject := subjectOf(s.access)
	s.access, s.refresh = "", ""
	s.mu.Unlock()

	if !had && !always {
		return
	}
	s.broker.Publish(Event{Kind: kind, Subject: subject, At: s.now()})
	if s.nav != nil {
		s.nav.Navigate(LoginURL(s.loginPath, s.currentPath()))
	}
}

func subjectOf(token string) string {
	if claims, err := Decode(token); err == nil {
		return claims.ID()
	}
	return ""
}
