package document

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Segment is one step of a location: either a mapping field or a
// sequence index.
type Segment interface {
	expression() string
}

// Field addresses a mapping key.
type Field string

func (f Field) expression() string { return string(f) }

// Index addresses a sequence element.
type Index int

func (i Index) expression() string { return "[" + strconv.Itoa(int(i)) + "]" }

// Location addresses a value inside a document, as the sequence of
// keys and indices leading to it from the root. The zero value
// addresses the root itself.
type Location []Segment

// Child returns a new location extended by a mapping field.
func (l Location) Child(field string) Location {
	out := make(Location, len(l), len(l)+1)
	copy(out, l)
	return append(out, Field(field))
}

// Elem returns a new location extended by a sequence index.
func (l Location) Elem(index int) Location {
	out := make(Location, len(l), len(l)+1)
	copy(out, l)
	return append(out, Index(index))
}

// String renders the location as a dotted path expression, e.g.
// "roles[0].name". The root location renders as the empty string.
func (l Location) String() string {
	var b strings.Builder
	for i, seg := range l {
		if i > 0 {
			if _, isIndex := seg.(Index); !isIndex {
				b.WriteByte('.')
			}
		}
		b.WriteString(seg.expression())
	}
	return b.String()
}

// MarshalJSON encodes the location as its path expression.
func (l Location) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}
