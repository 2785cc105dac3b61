package session

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watch invalidates cached documents when the game rewrites them. It blocks
// until ctx is done. onChange, if set, is called after each invalidation.
func (s *Session) Watch(ctx context.Context, onChange func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dirs := make(map[string]bool)
	if dir, err := s.SaveDir(); err == nil {
		dirs[dir] = true
	}
	if p := s.ProfilePath(); p != "" {
		dirs[p] = true
	}
	if g := s.GameDir(); g != "" {
		dirs[g] = true
	}
	if len(dirs) == 0 {
		return ErrNoProfile
	}

	watched := 0
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("Could not watch directory")
			continue
		}
		watched++
		log.Info().Str("dir", dir).Msg("Watching for changes")
	}
	if watched == 0 {
		return fmt.Errorf("watch: none of %d directories could be added", len(dirs))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ext := filepath.Ext(event.Name); ext != ".sii" && ext != ".cfg" {
				continue
			}
			s.docs.Invalidate(event.Name)
			log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("File changed on disk")
			if onChange != nil {
				onChange(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Watcher error")
		}
	}
}
