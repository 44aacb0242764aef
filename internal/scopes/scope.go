package scopes

import (
	"github.com/google/uuid"

	"github.com/declbridge/declbridge/internal/declpath"
	"github.com/declbridge/declbridge/internal/decltree"
	"github.com/declbridge/declbridge/internal/diagnostics"
)

// Result is one lookup hit: the declaration plus the scope it was found in.
// Subsequent resolution must continue relative to where a symbol was found,
// not where it was requested.
type Result struct {
	Decl  decltree.Declaration
	Scope *Scope
}

// Scope is an immutable stack of enclosing containers plus the library's
// export index and the finalized scopes of its dependencies. Push derives a
// new scope and leaves the receiver untouched; stack entries are lookup
// relations, not ownership edges.
type Scope struct {
	id      uuid.UUID
	library string
	stack   []decltree.Container
	exports *ExportIndex
	deps    map[string]*Scope
	logger  diagnostics.Logger
}

// New builds a library's root scope.
func New(library string, exports *ExportIndex, deps map[string]*Scope, logger diagnostics.Logger) *Scope {
	if logger == nil {
		logger = diagnostics.NewNopLogger()
	}
	return &Scope{
		id:      uuid.New(),
		library: library,
		exports: exports,
		deps:    deps,
		logger:  logger,
	}
}

// ID is the scope's stable identity, used as a memoization key.
func (s *Scope) ID() uuid.UUID { return s.id }

// Library returns the owning library name.
func (s *Scope) Library() string { return s.library }

// Exports returns the library's export index.
func (s *Scope) Exports() *ExportIndex { return s.exports }

// Push derives a new scope with container as the innermost frame.
func (s *Scope) Push(container decltree.Container) *Scope {
	stack := make([]decltree.Container, len(s.stack)+1)
	copy(stack, s.stack)
	stack[len(s.stack)] = container
	return &Scope{
		id:      uuid.New(),
		library: s.library,
		stack:   stack,
		exports: s.exports,
		deps:    s.deps,
		logger:  s.logger,
	}
}

// Innermost returns the innermost container, or nil for a root scope.
func (s *Scope) Innermost() decltree.Container {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

// Depth returns the number of pushed containers.
func (s *Scope) Depth() int { return len(s.stack) }

// Lookup resolves a qualified name: innermost container outward, then the
// library's export index, then (when the first segment names a dependency)
// the dependency's finalized scope. Multiple results are valid; "not found"
// is an empty slice, never an error.
func (s *Scope) Lookup(name declpath.QName) []Result {
	if name.IsEmpty() {
		return nil
	}
	for i := len(s.stack) - 1; i >= 0; i-- {
		frame := s.truncated(i + 1)
		if found := findInContainer(s.stack[i], name, frame); len(found) > 0 {
			return found
		}
	}
	if s.exports != nil {
		root := s.truncated(0)
		if found := descend(s.exports.Get(name.First()), name.Rest(), root, nil); len(found) > 0 {
			return found
		}
	}
	if dep, ok := s.deps[name.First()]; ok {
		rest := name.Rest()
		if rest.IsEmpty() {
			// The dependency itself is not a declaration; nothing to return.
			return nil
		}
		if found := dep.Lookup(rest); len(found) > 0 {
			return found
		}
	}
	s.logger.Info("lookup found nothing",
		"name", name.String(), "library", s.library, "depth", len(s.stack))
	return nil
}

// truncated returns a scope view containing only the outermost n frames.
func (s *Scope) truncated(n int) *Scope {
	if n == len(s.stack) {
		return s
	}
	return &Scope{
		id:      uuid.New(),
		library: s.library,
		stack:   s.stack[:n],
		exports: s.exports,
		deps:    s.deps,
		logger:  s.logger,
	}
}

// findInContainer matches name's first segment against the container's
// members and descends through nested containers for the remaining segments.
// Names the container's import statements bind resolve in the source module.
func findInContainer(c decltree.Container, name declpath.QName, at *Scope) []Result {
	return findIn(c, name, at, nil)
}

func findIn(c decltree.Container, name declpath.QName, at *Scope, chasing map[string]bool) []Result {
	if found := descend(decltree.MembersNamed(c, name.First()), name.Rest(), at, chasing); len(found) > 0 {
		return found
	}
	return findThroughImports(c, name, at, chasing)
}

func descend(candidates []decltree.Declaration, rest declpath.QName, at *Scope, chasing map[string]bool) []Result {
	var out []Result
	for _, cand := range candidates {
		if rest.IsEmpty() {
			out = append(out, Result{Decl: cand, Scope: at})
			continue
		}
		if inner, ok := cand.(decltree.Container); ok {
			out = append(out, findIn(inner, rest, at.Push(inner), chasing)...)
		}
	}
	return out
}

// findThroughImports resolves a name the container's import statements bind:
// a named binding resolves the original name inside the source module, a
// namespace alias exposes the whole module under the bound name, a default
// alias resolves the module's default export. chasing holds the import
// sources already being followed, so mutually importing modules cannot loop
// a lookup.
func findThroughImports(c decltree.Container, name declpath.QName, at *Scope, chasing map[string]bool) []Result {
	var out []Result
	for _, member := range c.ContainerMembers() {
		imp, ok := member.(*decltree.Import)
		if !ok || chasing[imp.From] {
			continue
		}
		inside, bound := boundName(imp, name)
		if !bound {
			continue
		}
		mod, modScope, found := at.LookupModule(imp.From)
		if !found {
			continue
		}
		if inside.IsEmpty() {
			out = append(out, Result{Decl: mod, Scope: modScope})
			continue
		}
		next := map[string]bool{imp.From: true}
		for from := range chasing {
			next[from] = true
		}
		out = append(out, findIn(mod, inside, modScope.Push(mod), next)...)
	}
	return out
}

// boundName maps a looked-up name onto the name it denotes inside the import
// source: the empty name stands for the module itself.
func boundName(imp *decltree.Import, name declpath.QName) (declpath.QName, bool) {
	local := name.First()
	if imp.NamespaceAlias != "" && imp.NamespaceAlias == local {
		return name.Rest(), true
	}
	if imp.DefaultAlias != "" && imp.DefaultAlias == local {
		return declpath.NewQName(declpath.DefaultExportName).Concat(name.Rest()), true
	}
	for _, b := range imp.Bindings {
		if b.LocalName() == local {
			return declpath.NewQName(b.Name).Concat(name.Rest()), true
		}
	}
	return declpath.QName{}, false
}

// LookupModule finds a quoted ambient module by name, searching the scope's
// own frames and export index, then every dependency.
func (s *Scope) LookupModule(name string) (*decltree.Module, *Scope, bool) {
	for i := len(s.stack) - 1; i >= 0; i-- {
		for _, m := range s.stack[i].ContainerMembers() {
			if mod, ok := m.(*decltree.Module); ok && mod.Name == name {
				return mod, s.truncated(i + 1), true
			}
		}
	}
	if s.exports != nil {
		for _, d := range s.exports.Get(name) {
			if mod, ok := d.(*decltree.Module); ok {
				return mod, s.truncated(0), true
			}
		}
	}
	for _, dep := range s.deps {
		if mod, at, ok := dep.LookupModule(name); ok {
			return mod, at, true
		}
	}
	return nil, nil, false
}
