package profiles

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"save-edit-tool/internal/decrypt"
	"save-edit-tool/internal/hexfloat"
	"save-edit-tool/internal/savegame"
	"save-edit-tool/internal/worker"

	"github.com/rs/zerolog/log"
)

// ProfileFile marks a directory as a profile.
const ProfileFile = "profile.sii"

const backupProfileFile = "profile.bak.sii"

// Source tells where a profile was found relative to the game directory.
type Source string

const (
	SourceProfiles Source = "profiles"
	SourceBackup   Source = "profiles.backup"
	SourceRoot     Source = "root"
)

// Profile is a discovered profile folder.
type Profile struct {
	Path    string `json:"path"`
	Folder  string `json:"folder"`
	Name    string `json:"name"`
	Source  Source `json:"source"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type candidate struct {
	path   string
	source Source
}

// Scanner finds profiles under a game directory.
type Scanner struct {
	workers int
}

// NewScanner creates a Scanner decoding up to workers profiles at once.
func NewScanner(workers int) *Scanner {
	return &Scanner{workers: workers}
}

// Discover lists every folder holding a profile.sii under gameDir/profiles,
// gameDir/profiles.backup and gameDir itself.
func (s *Scanner) Discover(ctx context.Context, gameDir string) ([]Profile, error) {
	root, err := filepath.Abs(gameDir)
	if err != nil {
		return nil, fmt.Errorf("resolve game dir: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat game dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("game dir is not a directory: %s", root)
	}

	var candidates []candidate
	for _, dir := range []struct {
		path   string
		source Source
	}{
		{filepath.Join(root, "profiles"), SourceProfiles},
		{filepath.Join(root, "profiles.backup"), SourceBackup},
		{root, SourceRoot},
	} {
		found, err := profileDirs(dir.path)
		if err != nil {
			log.Debug().Err(err).Str("path", dir.path).Msg("Skipping profile location")
			continue
		}
		for _, p := range found {
			candidates = append(candidates, candidate{path: p, source: dir.source})
		}
	}

	pool := worker.NewPool(s.workers, func(_ context.Context, c candidate) (Profile, error) {
		return readProfile(c), nil
	})
	profiles := worker.Succeeded(pool.Execute(ctx, candidates))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Info().Int("count", len(profiles)).Str("root", root).Msg("Discovered profiles")
	return profiles, nil
}

// profileDirs returns the subdirectories of dir that contain a profile.sii.
func profileDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if fi, err := os.Stat(filepath.Join(p, ProfileFile)); err == nil && fi.Mode().IsRegular() {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

// readProfile names a profile from profile.sii, then profile.bak.sii, then
// the hex-encoded folder name.
func readProfile(c candidate) Profile {
	folder := filepath.Base(c.path)
	p := Profile{Path: c.path, Folder: folder, Source: c.source}

	var lastErr error
	for _, name := range []string{ProfileFile, backupProfileFile} {
		text, err := decrypt.ReadText(filepath.Join(c.path, name))
		if err != nil {
			lastErr = err
			continue
		}
		if n, ok := savegame.ProfileName(text); ok {
			p.Name, p.Success = n, true
			return p
		}
		lastErr = errors.New("no profile_name")
	}

	if n, ok := hexfloat.DecodeHexFolderName(folder); ok {
		p.Name, p.Success = n, true
		return p
	}

	p.Name = folder
	if lastErr != nil {
		p.Message = lastErr.Error()
	}
	log.Warn().Str("path", c.path).Str("reason", p.Message).Msg("Could not name profile")
	return p
}
