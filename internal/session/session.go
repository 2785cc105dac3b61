package session

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"save-edit-tool/internal/cache"
	"save-edit-tool/internal/decrypt"
	"save-edit-tool/internal/editor"
	"save-edit-tool/internal/journal"
	"save-edit-tool/internal/profiles"

	"github.com/rs/zerolog/log"
)

// DefaultSave is the slot used when no save has been selected.
const DefaultSave = "quicksave"

var (
	// ErrNoProfile is returned by operations that need an active profile.
	ErrNoProfile = errors.New("no profile selected")
	// ErrNoGameDir is returned by global config operations without a game directory.
	ErrNoGameDir = errors.New("game directory not set")
)

// Options configure a Session.
type Options struct {
	GameDir   string
	CacheSize int
	Journal   journal.Journal
	Write     editor.WriteOptions
}

// Session is the caller-owned editing context: which profile and save are
// active, the decoded document cache and where edits are recorded.
type Session struct {
	mu      sync.RWMutex
	gameDir string
	profile string
	save    string

	docs    *cache.Cache[string]
	journal journal.Journal
	write   editor.WriteOptions
}

// New creates a session with no profile selected.
func New(opts Options) (*Session, error) {
	docs, err := cache.New[string](opts.CacheSize)
	if err != nil {
		return nil, err
	}
	j := opts.Journal
	if j == nil {
		j = journal.Nop{}
	}
	return &Session{
		gameDir: opts.GameDir,
		docs:    docs,
		journal: j,
		write:   opts.Write,
	}, nil
}

// GameDir returns the game's documents directory.
func (s *Session) GameDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gameDir
}

// ProfilePath returns the active profile directory, or "".
func (s *Session) ProfilePath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// SetProfile switches profile. The selected save is cleared and cached
// documents are dropped.
func (s *Session) SetProfile(dir string) {
	s.mu.Lock()
	s.profile = dir
	s.save = ""
	s.mu.Unlock()

	s.docs.Reset()
	log.Info().Str("profile", dir).Msg("Profile selected")
}

// SetSave selects a save folder, or a file inside it. An empty path returns
// to the default save.
func (s *Session) SetSave(path string) {
	s.mu.Lock()
	s.save = path
	s.mu.Unlock()

	s.docs.Reset()
	log.Info().Str("save", path).Msg("Save selected")
}

// SaveDir returns the folder of the active save.
func (s *Session) SaveDir() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.save != "" {
		if info, err := os.Stat(s.save); err == nil && !info.IsDir() {
			return filepath.Dir(s.save), nil
		}
		return s.save, nil
	}
	if s.profile == "" {
		return "", ErrNoProfile
	}
	return filepath.Join(s.profile, "save", DefaultSave), nil
}

// GamePath returns the active save's game.sii.
func (s *Session) GamePath() (string, error) {
	dir, err := s.SaveDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, profiles.GameFile), nil
}

// InfoPath returns the active save's info.sii.
func (s *Session) InfoPath() (string, error) {
	dir, err := s.SaveDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, profiles.InfoFile), nil
}

// ReadDocument returns the decoded text of path, from cache when possible.
func (s *Session) ReadDocument(path string) (string, error) {
	return s.docs.GetOrCompute(path, decrypt.ReadText)
}

// ReadGame returns the active game.sii.
func (s *Session) ReadGame() (string, error) {
	path, err := s.GamePath()
	if err != nil {
		return "", err
	}
	return s.ReadDocument(path)
}

// ReadInfo returns the active info.sii.
func (s *Session) ReadInfo() (string, error) {
	path, err := s.InfoPath()
	if err != nil {
		return "", err
	}
	return s.ReadDocument(path)
}

// Invalidate drops path from the document cache.
func (s *Session) Invalidate(path string) {
	s.docs.Invalidate(path)
}

// CacheStats reports document cache usage.
func (s *Session) CacheStats() cache.Stats {
	return s.docs.Stats()
}

// Journal returns the edit journal.
func (s *Session) Journal() journal.Journal {
	return s.journal
}
