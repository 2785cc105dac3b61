package sii

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrNotFound is returned when a unit is absent or its braces never balance.
var ErrNotFound = errors.New("unit not found")

// NotFoundError carries the unit that could not be located.
type NotFoundError struct {
	Class string
	ID    string
	// Unbalanced is set when the header matched but the body never closed.
	Unbalanced bool
}

func (e *NotFoundError) Error() string {
	if e.Unbalanced {
		return fmt.Sprintf("unit %s : %s: unbalanced braces", e.Class, e.ID)
	}
	return fmt.Sprintf("unit %s : %s not found", e.Class, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Span is a byte range [Start, End) within a document.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Block is a located unit. Span runs from the class keyword through the
// closing brace; BodyStart is the offset right after the opening brace.
type Block struct {
	Class     string
	ID        string
	Span      Span
	BodyStart int

	doc string
}

// Text returns the whole unit including header and braces.
func (b Block) Text() string { return b.doc[b.Span.Start:b.Span.End] }

// Body returns the text between the braces.
func (b Block) Body() string { return b.doc[b.BodyStart : b.Span.End-1] }

// Fields returns an extractor over the block body.
func (b Block) Fields() Fields { return newFields(b.Body(), b.BodyStart) }

const idPattern = `[A-Za-z0-9_.]+`

// LocateBlock finds the unit "class : id { ... }" and returns its span.
func LocateBlock(doc, class, id string) (Span, error) {
	b, err := FindBlock(doc, class, id)
	if err != nil {
		return Span{}, err
	}
	return b.Span, nil
}

// FindBlock is LocateBlock returning the full Block view.
func FindBlock(doc, class, id string) (Block, error) {
	re := regexp.MustCompile(`(?:^|[\s}])(` + regexp.QuoteMeta(class) + `)\s*:\s*` + regexp.QuoteMeta(id) + `\s*\{`)
	loc := re.FindStringSubmatchIndex(doc)
	if loc == nil {
		return Block{}, &NotFoundError{Class: class, ID: id}
	}

	end, ok := closeBrace(doc, loc[1])
	if !ok {
		return Block{}, &NotFoundError{Class: class, ID: id, Unbalanced: true}
	}
	return Block{
		Class:     class,
		ID:        id,
		Span:      Span{Start: loc[2], End: end},
		BodyStart: loc[1],
		doc:       doc,
	}, nil
}

// Blocks returns every unit of the given class in document order. Units whose
// braces never balance are skipped.
func Blocks(doc, class string) []Block {
	return scan(doc, regexp.QuoteMeta(class))
}

// AllBlocks returns every unit header found in the document, of any class.
// Nested sub-units are included as separate entries.
func AllBlocks(doc string) []Block {
	return scan(doc, `[A-Za-z_][A-Za-z0-9_]*`)
}

func scan(doc, classPattern string) []Block {
	re := regexp.MustCompile(`(?:^|[\s}])(` + classPattern + `)\s*:\s*(` + idPattern + `)\s*\{`)

	var blocks []Block
	for _, loc := range re.FindAllStringSubmatchIndex(doc, -1) {
		end, ok := closeBrace(doc, loc[1])
		if !ok {
			continue
		}
		blocks = append(blocks, Block{
			Class:     doc[loc[2]:loc[3]],
			ID:        doc[loc[4]:loc[5]],
			Span:      Span{Start: loc[2], End: end},
			BodyStart: loc[1],
			doc:       doc,
		})
	}
	return blocks
}

// closeBrace scans from the first byte of a body with depth 1 and returns the
// offset one past the matching "}". Braces inside quoted strings are ignored.
func closeBrace(doc string, from int) (int, bool) {
	depth := 1
	inQuote := false
	for i := from; i < len(doc); i++ {
		c := doc[i]
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
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}
