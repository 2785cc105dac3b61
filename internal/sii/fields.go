package sii

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"save-edit-tool/internal/hexfloat"
)

// valuePattern matches a quoted string or a bare token.
const valuePattern = `("(?:[^"\\\n]|\\.)*"|[^\s}]+)`

// NullRef is the token the game writes for an unset unit reference.
const NullRef = "null"

// Match is one located "key: value" occurrence. Offsets are absolute within
// the document the fields were taken from.
type Match struct {
	Key    string
	Raw    string
	Start  int
	End    int
	Quoted bool
}

// Value returns the value with quoting removed.
func (m Match) Value() string {
	if m.Quoted {
		return Unquote(m.Raw)
	}
	return m.Raw
}

// Fields extracts values from the top level of a unit body. Lines inside
// nested sub-blocks are never matched.
type Fields struct {
	text   string
	base   int
	nested []Span
}

// NewFields searches free text at offset zero. Nesting is ignored, so it
// also finds keys inside units of a whole document.
func NewFields(text string) Fields { return Fields{text: text} }

func newFields(text string, base int) Fields {
	f := Fields{text: text, base: base}
	depth, open := 0, 0
	inQuote := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inQuote {
			switch c {
			case '\\':
				i++
			case '"':
				inQuote = false
			}
			continue
		}
		switch c {
		case '"':
			inQuote = true
		case '{':
			if depth == 0 {
				open = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					f.nested = append(f.nested, Span{Start: open, End: i + 1})
				}
			}
		}
	}
	if depth > 0 {
		f.nested = append(f.nested, Span{Start: open, End: len(text)})
	}
	return f
}

func (f Fields) topLevel(pos int) bool {
	for _, s := range f.nested {
		if pos >= s.Start && pos < s.End {
			return false
		}
	}
	return true
}

// Locate finds the first top-level occurrence of key. Keys match exactly:
// "money_account" never matches "info_money_account" or "money_account[0]".
func (f Fields) Locate(key string) (Match, bool) {
	re := regexp.MustCompile(`(?:^|[\s{])(` + regexp.QuoteMeta(key) + `)[ \t]*:[ \t]*` + valuePattern)
	for _, loc := range re.FindAllStringSubmatchIndex(f.text, -1) {
		if !f.topLevel(loc[2]) {
			continue
		}
		raw := f.text[loc[4]:loc[5]]
		return Match{
			Key:    key,
			Raw:    raw,
			Start:  f.base + loc[4],
			End:    f.base + loc[5],
			Quoted: strings.HasPrefix(raw, `"`),
		}, true
	}
	return Match{}, false
}

// Token returns the value exactly as written, quotes included.
func (f Fields) Token(key string) (string, bool) {
	m, ok := f.Locate(key)
	if !ok {
		return "", false
	}
	return m.Raw, true
}

// String returns the value with any surrounding quotes removed.
func (f Fields) String(key string) (string, bool) {
	m, ok := f.Locate(key)
	if !ok {
		return "", false
	}
	return m.Value(), true
}

// Ref returns a unit reference, treating "null" as absent.
func (f Fields) Ref(key string) (string, bool) {
	v, ok := f.Token(key)
	if !ok || v == NullRef {
		return "", false
	}
	return v, true
}

// Int64 parses a plain integer value.
func (f Fields) Int64(key string) (int64, bool) {
	v, ok := f.Token(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Float32 parses a decimal value. Hex floats are not accepted here.
func (f Fields) Float32(key string) (float32, bool) {
	v, ok := f.Token(key)
	if !ok || hexfloat.IsHex(v) {
		return 0, false
	}
	n, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return 0, false
	}
	return float32(n), true
}

// RawHex returns a hex-float token such as "&3f800000" without decoding it.
func (f Fields) RawHex(key string) (string, bool) {
	v, ok := f.Token(key)
	if !ok || !hexfloat.IsHex(v) {
		return "", false
	}
	return v, true
}

// Float parses either a hex float or a decimal.
func (f Fields) Float(key string) (float32, bool) {
	v, ok := f.Token(key)
	if !ok {
		return 0, false
	}
	n, err := hexfloat.ParseValueAuto(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// CombinedFloat adds key and its optional key_float_part companion.
func (f Fields) CombinedFloat(key string) (float32, bool) {
	return f.Sum(key, key+"_float_part")
}

// Sum adds a required base field and an optional fractional field.
func (f Fields) Sum(base, part string) (float32, bool) {
	v, ok := f.Float(base)
	if !ok {
		return 0, false
	}
	if p, ok := f.Float(part); ok {
		v += p
	}
	return v, true
}

var anyField = regexp.MustCompile(`(?:^|[\s{])([A-Za-z_][A-Za-z0-9_]*(?:\[\d+\])?)[ \t]*:[ \t]*` + valuePattern)

// Each calls fn for every top-level "key: value" line in order. Array items
// are reported with their index, e.g. "accessories[0]".
func (f Fields) Each(fn func(m Match)) {
	for _, loc := range anyField.FindAllStringSubmatchIndex(f.text, -1) {
		if !f.topLevel(loc[2]) {
			continue
		}
		raw := f.text[loc[4]:loc[5]]
		fn(Match{
			Key:    f.text[loc[2]:loc[3]],
			Raw:    raw,
			Start:  f.base + loc[4],
			End:    f.base + loc[5],
			Quoted: strings.HasPrefix(raw, `"`),
		})
	}
}

type item struct {
	index int
	raw   string
}

func (f Fields) items(key string) []item {
	re := regexp.MustCompile(`(?:^|[\s{])` + regexp.QuoteMeta(key) + `\[(\d+)\][ \t]*:[ \t]*` + valuePattern)

	var out []item
	for _, loc := range re.FindAllStringSubmatchIndex(f.text, -1) {
		if !f.topLevel(loc[2]) {
			continue
		}
		idx, err := strconv.Atoi(f.text[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		out = append(out, item{index: idx, raw: f.text[loc[4]:loc[5]]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out
}

// Indices returns the indices present for key[n] in ascending order.
func (f Fields) Indices(key string) []int {
	items := f.items(key)
	out := make([]int, 0, len(items))
	for _, it := range items {
		out = append(out, it.index)
	}
	return out
}

// Array collects key[n] values in index order, skipping gaps and values
// parse rejects.
func Array[T any](f Fields, key string, parse func(string) (T, error)) []T {
	items := f.items(key)
	out := make([]T, 0, len(items))
	for _, it := range items {
		v, err := parse(it.raw)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// FloatArray collects a hex or decimal float array.
func (f Fields) FloatArray(key string) []float32 {
	return Array(f, key, hexfloat.ParseValueAuto)
}

// TokenArray collects an array of raw tokens, typically unit references.
func (f Fields) TokenArray(key string) []string {
	return Array(f, key, func(s string) (string, error) { return s, nil })
}

// StringArray collects an array of strings with quotes removed.
func (f Fields) StringArray(key string) []string {
	return Array(f, key, func(s string) (string, error) { return Unquote(s), nil })
}

// Unquote strips surrounding double quotes and resolves backslash escapes.
func Unquote(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	s = s[1 : len(s)-1]
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Quote wraps s in double quotes, escaping quotes and backslashes.
func Quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
