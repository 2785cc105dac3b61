package gamecfg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownSetting is returned for names that are not in Settings.
var ErrUnknownSetting = errors.New("unknown setting")

// Scope tells which config.cfg holds a setting.
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeProfile Scope = "profile"
)

// Setting maps a friendly name to a config key with an optional range.
type Setting struct {
	Name    string
	Key     string
	Scope   Scope
	Min     int
	Max     int
	Bounded bool
}

// Settings are the values the tool knows how to change.
var Settings = []Setting{
	{Name: "traffic", Key: "g_traffic", Scope: ScopeGlobal, Min: 0, Max: 10, Bounded: true},
	{Name: "developer", Key: "g_developer", Scope: ScopeGlobal, Min: 0, Max: 1, Bounded: true},
	{Name: "console", Key: "g_console", Scope: ScopeGlobal, Min: 0, Max: 1, Bounded: true},
	{Name: "max_convoy_size", Key: "g_max_convoy_size", Scope: ScopeGlobal},
	{Name: "parking_doubles", Key: "g_simple_parking_doubles", Scope: ScopeProfile, Min: 0, Max: 1, Bounded: true},
}

// Lookup finds a setting by friendly name or by config key.
func Lookup(name string) (Setting, error) {
	name = strings.TrimSpace(name)
	for _, s := range Settings {
		if s.Name == name || s.Key == name {
			return s, nil
		}
	}
	return Setting{}, fmt.Errorf("%w: %s", ErrUnknownSetting, name)
}

// Normalize parses value as an integer and clamps it into range.
func (s Setting) Normalize(value string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("setting %s: %q is not a number", s.Name, value)
	}
	if s.Bounded {
		n = max(s.Min, min(s.Max, n))
	}
	return strconv.Itoa(n), nil
}
