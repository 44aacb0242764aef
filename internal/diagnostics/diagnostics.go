package diagnostics

import (
	"fmt"

	"github.com/declbridge/declbridge/internal/declpath"
)

// Severity of a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

// Diagnostic is one recorded condition. Unresolved references and cycle
// findings are data, never control flow; only contract violations abort a
// library's conversion, and those travel as panics, not diagnostics.
type Diagnostic struct {
	Code     string
	Severity Severity
	Location declpath.Location
	Message  string
}

func (d *Diagnostic) Error() string {
	if d.Location.IsPresent() {
		return fmt.Sprintf("[%s] %s: %s", d.Code, d.Location, d.Message)
	}
	return fmt.Sprintf("[%s] %s", d.Code, d.Message)
}

// NewWarning builds a warning diagnostic.
func NewWarning(code string, loc declpath.Location, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Code: code, Severity: SeverityWarning, Location: loc, Message: fmt.Sprintf(format, args...)}
}

// NewError builds an error diagnostic.
func NewError(code string, loc declpath.Location, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Code: code, Severity: SeverityError, Location: loc, Message: fmt.Sprintf(format, args...)}
}

// Diagnostic codes, grouped by pipeline stage.
const (
	CodeParentUnresolved  = "I001" // parent/implements reference did not resolve
	CodeImportUnresolved  = "M001" // import source module not found
	CodeExportUnresolved  = "M002" // exported name not found in source module
	CodeImportCycle       = "M003" // circular import chain cut short
	CodeExpansionCapped   = "G002" // key set exceeded the expansion cap
	CodeProjectionStuck   = "L001" // member projection left unresolved
	CodeCycleBroken       = "C001" // structural cycle rewritten
	CodeDependencyMissing = "F002" // declared dependency has no finalized scope
	CodeContractViolated  = "P001" // internal invariant broke; library aborted
)
