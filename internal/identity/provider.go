// Package identity supplies the currently signed-in owner to the rest of the
// application. Repositories depend on the Provider interface only; the
// concrete source of identity (session token file, fixed config value) is an
// implementation detail.
package identity

import (
	"sync"

	"syncwell/internal/stream"
)

// Change is one sign-in/sign-out transition. An empty OwnerID means the
// user signed out.
type Change struct {
	OwnerID string
}

// Provider reports the current owner and a stream of owner transitions.
type Provider interface {
	// CurrentOwnerID returns the signed-in owner identifier, or ok=false
	// when nobody is signed in.
	CurrentOwnerID() (string, bool)

	// Changes is the stream of sign-in/sign-out transitions.
	Changes() *stream.Source[Change]
}

// Logger is the minimal logging surface this package needs. The args follow
// slog conventions: alternating key/value pairs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Static is a Provider with a programmatically controlled owner. Used for
// the "static" config type and in tests.
type Static struct {
	mu      sync.Mutex
	owner   string
	changes *stream.Source[Change]
}

// NewStatic creates a Static provider. An empty ownerID starts signed out.
func NewStatic(ownerID string) *Static {
	return &Static{owner: ownerID, changes: stream.NewSource[Change]()}
}

func (s *Static) CurrentOwnerID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner, s.owner != ""
}

func (s *Static) Changes() *stream.Source[Change] { return s.changes }

// SignIn switches the current owner and publishes the transition.
func (s *Static) SignIn(ownerID string) {
	s.mu.Lock()
	s.owner = ownerID
	s.mu.Unlock()
	s.changes.Publish(Change{OwnerID: ownerID})
}

// SignOut clears the current owner and publishes the transition.
func (s *Static) SignOut() {
	s.mu.Lock()
	s.owner = ""
	s.mu.Unlock()
	s.changes.Publish(Change{})
}

var _ Provider = (*Static)(nil)
