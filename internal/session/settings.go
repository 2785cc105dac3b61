package session

import (
	"context"
	"errors"
	"fmt"

	"save-edit-tool/internal/decrypt"
	"save-edit-tool/internal/editor"
	"save-edit-tool/internal/gamecfg"
)

// ErrVerifyFailed is returned when a written setting does not read back.
var ErrVerifyFailed = errors.New("setting did not persist")

// ConfigPath returns the config.cfg that holds settings of scope.
func (s *Session) ConfigPath(scope gamecfg.Scope) (string, error) {
	if scope == gamecfg.ScopeProfile {
		if p := s.ProfilePath(); p != "" {
			return gamecfg.ProfileConfigPath(p), nil
		}
		return "", ErrNoProfile
	}
	if dir := s.GameDir(); dir != "" {
		return gamecfg.BaseConfigPath(dir), nil
	}
	return "", ErrNoGameDir
}

// ReadSetting returns the current value of a known setting.
func (s *Session) ReadSetting(name string) (gamecfg.Setting, string, error) {
	setting, err := gamecfg.Lookup(name)
	if err != nil {
		return gamecfg.Setting{}, "", err
	}
	path, err := s.ConfigPath(setting.Scope)
	if err != nil {
		return setting, "", err
	}
	text, err := s.ReadDocument(path)
	if err != nil {
		return setting, "", err
	}
	cfg, err := gamecfg.Parse(text)
	if err != nil {
		return setting, "", err
	}
	value, ok := cfg.Get(setting.Key)
	if !ok {
		return setting, "", fmt.Errorf("%w: %s", gamecfg.ErrKeyNotFound, setting.Key)
	}
	return setting, value, nil
}

// ApplySetting writes a known setting, clamped into its range, and verifies
// it by reading the file back.
func (s *Session) ApplySetting(ctx context.Context, name, value string) (editor.Change, error) {
	setting, err := gamecfg.Lookup(name)
	if err != nil {
		return editor.Change{}, err
	}
	value, err = setting.Normalize(value)
	if err != nil {
		return editor.Change{}, err
	}
	path, err := s.ConfigPath(setting.Scope)
	if err != nil {
		return editor.Change{}, err
	}

	change := editor.Change{Edit: editor.Edit{Class: "uset", ID: string(setting.Scope), Key: setting.Key, Value: value}}
	_, err = s.editFile(ctx, path, func(doc string) (string, []editor.Change, error) {
		cfg, err := gamecfg.Parse(doc)
		if err != nil {
			return "", nil, err
		}
		old, err := cfg.Set(setting.Key, value)
		if err != nil {
			return "", nil, err
		}
		change.Old, change.New = old, value
		return cfg.String(), []editor.Change{change}, nil
	})
	if err != nil {
		return editor.Change{}, err
	}

	text, err := decrypt.ReadText(path)
	if err != nil {
		return change, err
	}
	cfg, err := gamecfg.Parse(text)
	if err != nil {
		return change, err
	}
	if got, _ := cfg.Get(setting.Key); got != value {
		return change, fmt.Errorf("%w: %s is %q, want %q", ErrVerifyFailed, setting.Key, got, value)
	}
	return change, nil
}
