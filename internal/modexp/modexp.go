// Package modexp expands cross-module references, re-exports and wildcard
// imports into concrete declarations.
package modexp

import (
	"github.com/declbridge/declbridge/internal/declpath"
	"github.com/declbridge/declbridge/internal/decltree"
	"github.com/declbridge/declbridge/internal/diagnostics"
	"github.com/declbridge/declbridge/internal/scopes"
)

// PickedDecl pairs a discovered declaration with the scope it was discovered
// in. Resolution continues relative to where a symbol was found, not where it
// was requested.
type PickedDecl struct {
	Decl  decltree.Declaration
	Scope *scopes.Scope
}

// WholeModule is an expansion that resolved into a module: its export
// statements, imports, remaining members, and the scope of the target module.
type WholeModule struct {
	Exports []*decltree.Export
	Imports []*decltree.Import
	Members []decltree.Declaration
	Scope   *scopes.Scope
}

// Expanded is the result of expanding an importee: either a picked list of
// declarations or a whole module. An empty value (both nil) means the
// expansion found nothing, typically a cut circular chain.
type Expanded struct {
	Picked []PickedDecl
	Whole  *WholeModule
}

// IsEmpty reports whether the expansion produced nothing.
func (e Expanded) IsEmpty() bool { return e.Picked == nil && e.Whole == nil }

// Expander resolves imports and exports against scopes. A nil Cache disables
// lookup memoization; a nil Collector discards resolution diagnostics.
type Expander struct {
	Cache     *scopes.Cache
	Logger    diagnostics.Logger
	Collector *diagnostics.Collector
}

// NewExpander builds an expander.
func NewExpander(cache *scopes.Cache, logger diagnostics.Logger) *Expander {
	if logger == nil {
		logger = diagnostics.NewNopLogger()
	}
	return &Expander{Cache: cache, Logger: logger}
}

// ValidImport filters an import down to the caller's wanted names. The
// second result is false when the intersection is empty.
func ValidImport(wanted map[string]bool, imp *decltree.Import) (*decltree.Import, bool) {
	cp := *imp
	cp.Bindings = nil
	for _, b := range imp.Bindings {
		if wanted[b.LocalName()] {
			cp.Bindings = append(cp.Bindings, b)
		}
	}
	if imp.NamespaceAlias != "" && !wanted[imp.NamespaceAlias] {
		cp.NamespaceAlias = ""
	}
	if imp.DefaultAlias != "" && !wanted[imp.DefaultAlias] {
		cp.DefaultAlias = ""
	}
	if len(cp.Bindings) == 0 && cp.NamespaceAlias == "" && cp.DefaultAlias == "" {
		return nil, false
	}
	return &cp, true
}

// ExpandImportee resolves an import source into the target module. Circular
// imports are cut by the loop detector: re-entering a module already being
// expanded in the same chain yields an empty result.
func (e *Expander) ExpandImportee(importee string, scope *scopes.Scope, loop scopes.LoopDetector) (Expanded, scopes.LoopDetector) {
	key := declpath.NewQName(importee)
	derived, ok := loop.Entering(key)
	if !ok {
		e.Logger.Info("circular import cut", "module", importee)
		e.report(diagnostics.NewWarning(diagnostics.CodeImportCycle, declpath.NoLocation(),
			"circular import chain cut at %q", importee))
		return Expanded{}, loop
	}

	mod, at, found := scope.LookupModule(importee)
	if !found {
		return Expanded{}, derived
	}
	return Expanded{Whole: splitModule(mod, at.Push(mod))}, derived
}

func splitModule(mod *decltree.Module, at *scopes.Scope) *WholeModule {
	whole := &WholeModule{Scope: at}
	for _, m := range mod.Members {
		switch mm := m.(type) {
		case *decltree.Export:
			whole.Exports = append(whole.Exports, mm)
		case *decltree.Import:
			whole.Imports = append(whole.Imports, mm)
		default:
			whole.Members = append(whole.Members, mm)
		}
	}
	return whole
}

// ExpandExport turns one export statement into the concrete declarations it
// exports, located under owner's path.
func (e *Expander) ExpandExport(scope *scopes.Scope, exp *decltree.Export, loop scopes.LoopDetector, owner declpath.Location) []decltree.Declaration {
	switch {
	case exp.Decl != nil:
		// Inline export: the declared tree attaches directly.
		d := exp.Decl
		if exp.Default {
			d = Rename(d, declpath.DefaultExportName)
		}
		return []decltree.Declaration{locate(d, owner)}

	case exp.From != "":
		return e.expandReexport(scope, exp, loop, owner)

	case exp.Default:
		if len(exp.Bindings) == 0 {
			return nil
		}
		resolved := e.resolveLocal(scope, exp.Bindings[0].Name, declpath.DefaultExportName, owner)
		return resolved

	default:
		var out []decltree.Declaration
		for _, b := range exp.Bindings {
			out = append(out, e.resolveLocal(scope, b.Name, b.ExportedName(), owner)...)
		}
		return out
	}
}

func (e *Expander) resolveLocal(scope *scopes.Scope, name, exportedAs string, owner declpath.Location) []decltree.Declaration {
	results := e.lookup(scope, declpath.ParseQName(name))
	if len(results) == 0 {
		e.Logger.Warn("exported name not found", "name", name, "library", scope.Library())
		return nil
	}
	var out []decltree.Declaration
	for _, res := range results {
		out = append(out, locate(Rename(res.Decl, exportedAs), owner))
	}
	return out
}

func (e *Expander) expandReexport(scope *scopes.Scope, exp *decltree.Export, loop scopes.LoopDetector, owner declpath.Location) []decltree.Declaration {
	expanded, derived := e.ExpandImportee(exp.From, scope, loop)
	if expanded.Whole == nil {
		if !expanded.IsEmpty() {
			return nil
		}
		e.Logger.Warn("re-export source not found", "module", exp.From)
		return nil
	}
	whole := expanded.Whole

	switch {
	case exp.NamespaceAlias != "":
		// export * as ns: wrap the module surface in a synthetic namespace.
		members := e.exportedDecls(whole, nil, derived, owner.Add(exp.NamespaceAlias))
		ns := &decltree.Namespace{DeclInfo: &decltree.DeclInfo{}, Name: exp.NamespaceAlias, Members: members}
		return []decltree.Declaration{locate(ns, owner)}

	case exp.Wildcard:
		return e.exportedDecls(whole, nil, derived, owner)

	default:
		var out []decltree.Declaration
		for _, b := range exp.Bindings {
			wanted := map[string]bool{b.Name: true}
			for _, d := range e.exportedDecls(whole, wanted, derived, owner) {
				if b.Alias != "" {
					d = locate(Rename(d, b.Alias), owner)
				}
				out = append(out, d)
			}
		}
		return out
	}
}

// exportedDecls collects the exported surface of a module: its own named
// members plus whatever its export statements expand to, recursively.
// wanted == nil means everything.
func (e *Expander) exportedDecls(whole *WholeModule, wanted map[string]bool, loop scopes.LoopDetector, owner declpath.Location) []decltree.Declaration {
	var out []decltree.Declaration
	for _, m := range whole.Members {
		name := m.DeclName()
		if name == "" {
			continue
		}
		if wanted == nil || wanted[name] {
			out = append(out, locate(m, owner))
		}
	}
	for _, exp := range whole.Exports {
		for _, d := range e.ExpandExport(whole.Scope, exp, loop, owner) {
			if wanted == nil || wanted[d.DeclName()] {
				out = append(out, d)
			}
		}
	}
	return out
}

// ProvidedNames collects the names a module surface offers its importers:
// the module's own named members plus everything its export statements
// expand to.
func (e *Expander) ProvidedNames(whole *WholeModule, loop scopes.LoopDetector) map[string]bool {
	names := make(map[string]bool)
	root := declpath.NewLocation(whole.Scope.Library(), declpath.NewQName())
	for _, d := range e.exportedDecls(whole, nil, loop, root) {
		if n := d.DeclName(); n != "" {
			names[n] = true
		}
	}
	return names
}

// LookupExportFrom finds wanted names among a container's own export
// statements, filtered by a declaration-kind predicate.
func (e *Expander) LookupExportFrom(scope *scopes.Scope, predicate func(decltree.Declaration) bool, wanted []string, loop scopes.LoopDetector, owner declpath.Location) []decltree.Declaration {
	container := scope.Innermost()
	if container == nil {
		return nil
	}
	wantedSet := make(map[string]bool, len(wanted))
	for _, w := range wanted {
		wantedSet[w] = true
	}

	var out []decltree.Declaration
	for _, m := range container.ContainerMembers() {
		exp, ok := m.(*decltree.Export)
		if !ok {
			continue
		}
		for _, d := range e.ExpandExport(scope, exp, loop, owner) {
			if !wantedSet[d.DeclName()] {
				continue
			}
			if predicate != nil && !predicate(d) {
				continue
			}
			out = append(out, d)
		}
	}
	return out
}

// Exclude drops every picked declaration whose name matches any exclusion.
func Exclude(picked []PickedDecl, exclusions []string) []PickedDecl {
	if len(exclusions) == 0 {
		return picked
	}
	excluded := make(map[string]bool, len(exclusions))
	for _, x := range exclusions {
		excluded[x] = true
	}
	var out []PickedDecl
	for _, p := range picked {
		if !excluded[p.Decl.DeclName()] {
			out = append(out, p)
		}
	}
	return out
}

func (e *Expander) report(d *diagnostics.Diagnostic) {
	if e.Collector != nil {
		e.Collector.Add(d)
	}
}

func (e *Expander) lookup(scope *scopes.Scope, name declpath.QName) []scopes.Result {
	if e.Cache != nil {
		return e.Cache.Lookup(scope, name)
	}
	return scope.Lookup(name)
}

// Rename returns a copy of a declaration carrying a new name. Unnamed
// declaration kinds are returned unchanged.
func Rename(d decltree.Declaration, name string) decltree.Declaration {
	switch dd := d.(type) {
	case *decltree.Class:
		cp := *dd
		cp.Name = name
		return &cp
	case *decltree.Interface:
		cp := *dd
		cp.Name = name
		return &cp
	case *decltree.TypeAlias:
		cp := *dd
		cp.Name = name
		return &cp
	case *decltree.Enum:
		cp := *dd
		cp.Name = name
		return &cp
	case *decltree.Function:
		cp := *dd
		cp.Name = name
		return &cp
	case *decltree.Variable:
		cp := *dd
		cp.Name = name
		return &cp
	case *decltree.Namespace:
		cp := *dd
		cp.Name = name
		return &cp
	case *decltree.Module:
		cp := *dd
		cp.Name = name
		return &cp
	default:
		return d
	}
}

// locate stamps a declaration with its address under owner and marks it as
// module-resident at runtime.
func locate(d decltree.Declaration, owner declpath.Location) decltree.Declaration {
	name := d.DeclName()
	if name == "" || !owner.IsPresent() {
		return d
	}
	info := d.Info().CloneInfo()
	info.Location = owner.Add(name)
	info.Runtime = declpath.RuntimeModule
	return decltree.WithInfo(d, info)
}
