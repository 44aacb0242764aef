package declpath

import "fmt"

// Location addresses a declaration: the library it belongs to plus the path
// of container names down to the declaration itself. The zero value is the
// absent location carried by freshly parsed declarations; every declaration
// that has passed through the resolution pipeline holds a present one.
type Location struct {
	present bool
	library string
	path    QName
}

// NewLocation builds a present location.
func NewLocation(library string, path QName) Location {
	return Location{present: true, library: library, path: path}
}

// NoLocation is the absent location.
func NoLocation() Location { return Location{} }

func (l Location) IsPresent() bool { return l.present }

// Library returns the owning library of a present location.
// Calling it on an absent location is a pipeline bug, not a user error.
func (l Location) Library() string {
	l.mustBePresent()
	return l.library
}

// Path returns the container path of a present location.
func (l Location) Path() QName {
	l.mustBePresent()
	return l.path
}

// Add returns a location with one more path segment. Paths grow
// left-to-right, so successive Adds associate.
func (l Location) Add(segment string) Location {
	l.mustBePresent()
	return Location{present: true, library: l.library, path: l.path.Add(segment)}
}

// ReplaceLast returns a location whose final path segment is replaced.
// Calling it on an empty path is a contract violation.
func (l Location) ReplaceLast(segment string) Location {
	l.mustBePresent()
	if l.path.Len() == 0 {
		panic(ContractViolation{Reason: "ReplaceLast on a location with an empty path"})
	}
	segs := l.path.Segments()
	segs[len(segs)-1] = segment
	return Location{present: true, library: l.library, path: NewQName(segs...)}
}

// Equal reports structural equality of two locations.
func (l Location) Equal(other Location) bool {
	if l.present != other.present {
		return false
	}
	if !l.present {
		return true
	}
	return l.library == other.library && l.path.Equal(other.path)
}

func (l Location) String() string {
	if !l.present {
		return "<no location>"
	}
	if l.path.IsEmpty() {
		return l.library
	}
	return l.library + "::" + l.path.String()
}

// Key returns a stable map key; absent locations share one key.
func (l Location) Key() string { return l.String() }

func (l Location) mustBePresent() {
	if !l.present {
		panic(ContractViolation{Reason: "declaration location was never assigned"})
	}
}

// ContractViolation marks internal invariant breakage. It aborts the current
// library's conversion: an earlier pipeline stage is broken, the input is not.
type ContractViolation struct {
	Reason string
}

func (c ContractViolation) Error() string {
	return fmt.Sprintf("pipeline contract violation: %s", c.Reason)
}

// RuntimeLocation describes where a declaration lives in emitted output.
type RuntimeLocation int

const (
	RuntimeNone RuntimeLocation = iota
	RuntimeGlobal
	RuntimeModule
	RuntimeBoth
)

func (r RuntimeLocation) String() string {
	switch r {
	case RuntimeGlobal:
		return "global"
	case RuntimeModule:
		return "module"
	case RuntimeBoth:
		return "both"
	default:
		return "none"
	}
}
