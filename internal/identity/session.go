package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"syncwell/internal/stream"
)

// Session is a Provider backed by a session token file. The file holds a
// single JWT issued at sign-in. The file appearing or changing is a sign-in
// transition; the file disappearing (or failing verification) is a sign-out.
type Session struct {
	path     string
	verifier *Verifier
	logger   Logger

	mu    sync.Mutex
	owner string

	changes *stream.Source[Change]
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewSession creates a Session provider for the token file at path.
// Call Start to load the current state and begin watching.
func NewSession(path string, verifier *Verifier, logger Logger) *Session {
	return &Session{
		path:     path,
		verifier: verifier,
		logger:   logger,
		changes:  stream.NewSource[Change](),
		done:     make(chan struct{}),
	}
}

func (s *Session) CurrentOwnerID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner, s.owner != ""
}

func (s *Session) Changes() *stream.Source[Change] { return s.changes }

// Start loads the session file and begins watching its directory for
// changes. The directory (not the file) is watched so that sign-in after a
// signed-out start is still observed.
func (s *Session) Start() error {
	s.Reload()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating session watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		watcher.Close()
		return fmt.Errorf("creating session directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching session directory: %w", err)
	}

	s.watcher = watcher
	go s.watch()
	return nil
}

func (s *Session) watch() {
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) == filepath.Clean(s.path) {
				s.Reload()
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("session watcher error", "error", err)
		}
	}
}

// Reload re-reads the session file and publishes a transition if the owner
// changed. A missing file or an invalid token means signed out.
func (s *Session) Reload() {
	owner := ""

	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		token := strings.TrimSpace(string(data))
		if token != "" {
			owner, err = s.verifier.OwnerID(token)
			if err != nil {
				s.logger.Warn("session token rejected", "error", err)
				owner = ""
			}
		}
	case !os.IsNotExist(err):
		s.logger.Warn("reading session file", "error", err)
	}

	s.mu.Lock()
	changed := owner != s.owner
	s.owner = owner
	s.mu.Unlock()

	if changed {
		if owner == "" {
			s.logger.Info("signed out")
		} else {
			s.logger.Info("signed in", "owner", owner)
		}
		s.changes.Publish(Change{OwnerID: owner})
	}
}

// Close stops watching the session file.
func (s *Session) Close() error {
	close(s.done)
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

var _ Provider = (*Session)(nil)
