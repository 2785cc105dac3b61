package editor

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"save-edit-tool/internal/sii"
	"save-edit-tool/internal/textutil"
)

// ErrFieldNotFound is returned when the unit exists but lacks the field.
// Missing fields are never appended.
var ErrFieldNotFound = errors.New("field not found")

// ErrInvalidValue is returned for values that cannot be stored in place of
// the existing token without breaking the unit.
var ErrInvalidValue = errors.New("invalid value")

// PlateKey is the field whose "|country" suffix survives edits.
const PlateKey = "license_plate"

// Edit names one field of one unit and the value to store there.
type Edit struct {
	Class string `json:"class"`
	ID    string `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Change records a splice that was applied. Old and New are raw tokens and
// Line is the 1-based line of the old token, or 0 when unknown.
type Change struct {
	Edit
	Old  string   `json:"old"`
	New  string   `json:"new"`
	Span sii.Span `json:"span"`
	Line int      `json:"line,omitempty"`
}

// Noop reports whether the splice left the document unchanged.
func (c Change) Noop() bool { return c.Old == c.New }

// EditField replaces the value of key inside unit class:id. Every byte
// outside that value is preserved.
func EditField(doc, class, id, key, value string) (string, error) {
	out, _, err := Apply(doc, Edit{Class: class, ID: id, Key: key, Value: value})
	return out, err
}

// Apply performs one edit and reports what changed.
func Apply(doc string, e Edit) (string, Change, error) {
	b, err := sii.FindBlock(doc, e.Class, e.ID)
	if err != nil {
		return "", Change{}, fmt.Errorf("edit %s: %w", e.Key, err)
	}

	m, ok := b.Fields().Locate(e.Key)
	if !ok {
		return "", Change{}, fmt.Errorf("%w: %s in %s : %s", ErrFieldNotFound, e.Key, e.Class, e.ID)
	}

	repl, err := render(m, e.Value)
	if err != nil {
		return "", Change{}, fmt.Errorf("%w for %s in %s : %s: %q", err, e.Key, e.Class, e.ID, e.Value)
	}
	out := doc[:m.Start] + repl + doc[m.End:]
	return out, Change{
		Edit: e,
		Old:  m.Raw,
		New:  repl,
		Span: sii.Span{Start: m.Start, End: m.End},
		Line: textutil.LineOf(doc, m.Start),
	}, nil
}

// ApplyAll applies edits in order, re-locating each unit against the
// previous result. It stops at the first failure.
func ApplyAll(doc string, edits []Edit) (string, []Change, error) {
	changes := make([]Change, 0, len(edits))
	for _, e := range edits {
		out, ch, err := Apply(doc, e)
		if err != nil {
			return "", nil, err
		}
		doc = out
		changes = append(changes, ch)
	}
	return doc, changes, nil
}

// render frames value the way the replaced token was framed. Bare tokens
// must stay a single non-empty word; quoted strings must stay on one line.
func render(m sii.Match, value string) (string, error) {
	if !m.Quoted {
		if value == "" || strings.ContainsAny(value, "{}\"") || strings.IndexFunc(value, unicode.IsSpace) >= 0 {
			return "", ErrInvalidValue
		}
		return value, nil
	}
	if strings.ContainsAny(value, "\r\n") {
		return "", ErrInvalidValue
	}
	if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		value = sii.Unquote(value)
	}
	if m.Key == PlateKey && !strings.Contains(value, "|") {
		if i := strings.LastIndex(m.Value(), "|"); i >= 0 {
			value += m.Value()[i:]
		}
	}
	return sii.Quote(value), nil
}
