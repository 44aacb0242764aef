package scopes

import (
	"github.com/declbridge/declbridge/internal/declpath"
)

// LoopDetector is an immutable set of "in progress" qualified names. Entering
// a name already in progress fails fast instead of recursing; derived
// detectors never affect the detector they came from, so backtracking
// explorations of alternate paths cannot corrupt each other.
type LoopDetector struct {
	inProgress map[string]bool
}

// NewLoopDetector builds an empty detector.
func NewLoopDetector() LoopDetector {
	return LoopDetector{}
}

// InProgress reports whether name is currently being resolved.
func (l LoopDetector) InProgress(name declpath.QName) bool {
	return l.inProgress[name.Key()]
}

// Entering returns a derived detector with name marked in progress. The
// second result is false when name is already in progress; callers must then
// treat the resolution as "no match" rather than recurse.
func (l LoopDetector) Entering(name declpath.QName) (LoopDetector, bool) {
	key := name.Key()
	if l.inProgress[key] {
		return l, false
	}
	derived := make(map[string]bool, len(l.inProgress)+1)
	for k := range l.inProgress {
		derived[k] = true
	}
	derived[key] = true
	return LoopDetector{inProgress: derived}, true
}

// Len returns the number of names in progress.
func (l LoopDetector) Len() int { return len(l.inProgress) }
