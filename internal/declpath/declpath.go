package declpath

import (
	"strings"
)

// DefaultExportName is the reserved binding name of a module's default export.
const DefaultExportName = "default"

// QName is an ordered sequence of identifiers forming a qualified name.
// Equality is structural; QName values are never mutated in place.
type QName struct {
	segments []string
}

// NewQName builds a qualified name from its segments.
func NewQName(segments ...string) QName {
	return QName{segments: append([]string(nil), segments...)}
}

// ParseQName splits a dotted name into a QName.
// Empty input yields the empty name.
func ParseQName(dotted string) QName {
	if dotted == "" {
		return QName{}
	}
	return QName{segments: strings.Split(dotted, ".")}
}

func (q QName) IsEmpty() bool { return len(q.segments) == 0 }
func (q QName) Len() int      { return len(q.segments) }

// First returns the leading segment, or "" for the empty name.
func (q QName) First() string {
	if len(q.segments) == 0 {
		return ""
	}
	return q.segments[0]
}

// Last returns the final segment, or "" for the empty name.
func (q QName) Last() string {
	if len(q.segments) == 0 {
		return ""
	}
	return q.segments[len(q.segments)-1]
}

// Rest returns the name without its leading segment.
func (q QName) Rest() QName {
	if len(q.segments) == 0 {
		return q
	}
	return QName{segments: q.segments[1:]}
}

// Add returns a new name with one segment appended. The receiver is unchanged.
func (q QName) Add(segment string) QName {
	out := make([]string, len(q.segments)+1)
	copy(out, q.segments)
	out[len(q.segments)] = segment
	return QName{segments: out}
}

// Concat returns a new name with all of other's segments appended.
func (q QName) Concat(other QName) QName {
	out := make([]string, 0, len(q.segments)+len(other.segments))
	out = append(out, q.segments...)
	out = append(out, other.segments...)
	return QName{segments: out}
}

// Equal reports structural equality.
func (q QName) Equal(other QName) bool {
	if len(q.segments) != len(other.segments) {
		return false
	}
	for i, s := range q.segments {
		if other.segments[i] != s {
			return false
		}
	}
	return true
}

func (q QName) String() string {
	return strings.Join(q.segments, ".")
}

// Key returns a stable map key for the name.
func (q QName) Key() string { return q.String() }

// Segments returns a copy of the segment slice.
func (q QName) Segments() []string {
	return append([]string(nil), q.segments...)
}
