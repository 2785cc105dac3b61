package gamecfg

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrKeyNotFound is returned when setting a key the file does not contain.
// Keys are never appended.
var ErrKeyNotFound = errors.New("config key not found")

// FileName is the name of both the global and the per-profile config.
const FileName = "config.cfg"

var usetRe = regexp.MustCompile(`^(\s*uset\s+)(\S+)(\s+)("[^"]*"|\S*)(.*)$`)

// Entry is one "uset <key> <value>" line.
type Entry struct {
	Key    string
	Value  string
	Line   int
	Quoted bool
}

// File is a parsed config.cfg that can be written back with only the edited
// values changed.
type File struct {
	lines   []string
	entries []Entry
	index   map[string]int
	newline bool
}

// Parse reads config text. Lines that are not uset statements are kept
// verbatim.
func Parse(text string) (*File, error) {
	f := &File{
		index:   make(map[string]int),
		newline: strings.HasSuffix(text, "\n"),
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanRawLines)

	lineNum := 0
	for scanner.Scan() {
		line := scanner.Text()
		f.lines = append(f.lines, line)
		lineNum++

		m := usetRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		e := Entry{Key: m[2], Value: m[4], Line: lineNum}
		if strings.HasPrefix(e.Value, `"`) {
			e.Value = strings.Trim(e.Value, `"`)
			e.Quoted = true
		}
		if _, dup := f.index[e.Key]; !dup {
			f.index[e.Key] = len(f.entries)
		}
		f.entries = append(f.entries, e)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan config: %w", err)
	}
	return f, nil
}

// scanRawLines splits on "\n" only, so "\r" survives a rewrite.
func scanRawLines(data []byte, atEOF bool) (int, []byte, error) {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Entries returns every uset line in file order.
func (f *File) Entries() []Entry {
	return append([]Entry(nil), f.entries...)
}

// Get returns the value of the first uset line for key.
func (f *File) Get(key string) (string, bool) {
	i, ok := f.index[key]
	if !ok {
		return "", false
	}
	return f.entries[i].Value, true
}

// Set rewrites the value of key in place, keeping the line's spacing and
// any trailing text. The value is always written quoted.
func (f *File) Set(key, value string) (old string, err error) {
	i, ok := f.index[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	e := &f.entries[i]
	idx := e.Line - 1
	m := usetRe.FindStringSubmatch(f.lines[idx])
	if m == nil {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	old = e.Value
	f.lines[idx] = m[1] + m[2] + m[3] + `"` + value + `"` + m[5]
	e.Value = value
	e.Quoted = true
	return old, nil
}

// String renders the file, preserving the original trailing newline.
func (f *File) String() string {
	s := strings.Join(f.lines, "\n")
	if f.newline {
		s += "\n"
	}
	return s
}

// BaseConfigPath is the global config.cfg in the game directory.
func BaseConfigPath(gameDir string) string {
	return filepath.Join(gameDir, FileName)
}

// ProfileConfigPath is the config.cfg inside a profile folder.
func ProfileConfigPath(profileDir string) string {
	return filepath.Join(profileDir, FileName)
}
