package scopes

import (
	"github.com/declbridge/declbridge/internal/decltree"
)

// ExportIndex is a library's finalized top-level export surface: an ordered,
// name-addressable view of its exported declarations. Dependent libraries
// resolve against this index, never against the library's raw files.
type ExportIndex struct {
	Library string
	order   []string
	entries map[string][]decltree.Declaration
}

// NewExportIndex builds an empty index for a library.
func NewExportIndex(library string) *ExportIndex {
	return &ExportIndex{Library: library, entries: make(map[string][]decltree.Declaration)}
}

// Add appends a declaration under name. Multiple declarations per name are
// valid (overloads, merged kinds kept as siblings).
func (x *ExportIndex) Add(name string, d decltree.Declaration) {
	if _, seen := x.entries[name]; !seen {
		x.order = append(x.order, name)
	}
	x.entries[name] = append(x.entries[name], d)
}

// Get returns the declarations exported under name, in insertion order.
func (x *ExportIndex) Get(name string) []decltree.Declaration {
	if x == nil {
		return nil
	}
	return x.entries[name]
}

// Names returns exported names in first-insertion order.
func (x *ExportIndex) Names() []string {
	if x == nil {
		return nil
	}
	return append([]string(nil), x.order...)
}

// Len returns the number of distinct exported names.
func (x *ExportIndex) Len() int {
	if x == nil {
		return 0
	}
	return len(x.order)
}

// FromContainer indexes every named member of a container. Convenience for
// tests and for libraries whose entry file exports its whole top level.
func FromContainer(library string, c decltree.Container) *ExportIndex {
	idx := NewExportIndex(library)
	for _, m := range c.ContainerMembers() {
		if name := m.DeclName(); name != "" {
			idx.Add(name, m)
		}
	}
	return idx
}
