// Package inherit resolves parent/implements references to a flattened,
// cycle-safe set of ancestor declarations.
package inherit

import (
	"github.com/declbridge/declbridge/internal/declpath"
	"github.com/declbridge/declbridge/internal/decltree"
	"github.com/declbridge/declbridge/internal/diagnostics"
	"github.com/declbridge/declbridge/internal/scopes"
)

// DefaultMaxDepth bounds the parent-resolution recursion. Declaration graphs
// are finite, but a hard ceiling turns a pathological input into an
// unresolved entry instead of a stack overflow.
const DefaultMaxDepth = 128

// Parent is one resolved ancestor: the declaration with the caller-supplied
// type arguments already substituted into its members, plus the scope it was
// discovered in.
type Parent struct {
	Decl  decltree.Declaration
	Scope *scopes.Scope
}

// Resolution is the outcome of resolving one declaration's parents. Parents
// is ordered and distinct; Unresolved records every parent type that could
// not be resolved. Resolutions are computed on demand and never cached across
// declarations, since parents may depend on still-changing external scopes.
type Resolution struct {
	Value      decltree.Declaration
	Parents    []Parent
	Unresolved []decltree.Type
}

// Resolver resolves inheritance chains. A nil Cache disables memoized
// lookups; a nil Logger discards diagnostics.
type Resolver struct {
	Cache    *scopes.Cache
	Logger   diagnostics.Logger
	MaxDepth int
}

// NewResolver builds a resolver with the default recursion budget.
func NewResolver(cache *scopes.Cache, logger diagnostics.Logger) *Resolver {
	if logger == nil {
		logger = diagnostics.NewNopLogger()
	}
	return &Resolver{Cache: cache, Logger: logger, MaxDepth: DefaultMaxDepth}
}

// accumulator is threaded explicitly through the recursion; nothing is
// captured in closures.
type accumulator struct {
	parents    []Parent
	unresolved []decltree.Type
	visited    map[decltree.Declaration]bool
}

// ResolveParents walks decl's parent/implements references. Self-reference
// and diamond inheritance are both handled by the shared visited set, which
// strictly grows, so the walk terminates.
func (r *Resolver) ResolveParents(scope *scopes.Scope, decl decltree.Declaration) Resolution {
	acc := &accumulator{visited: map[decltree.Declaration]bool{decl: true}}

	for _, ref := range parentRefs(decl) {
		r.resolveOne(scope, ref, acc, 0)
	}
	return Resolution{Value: decl, Parents: acc.parents, Unresolved: acc.unresolved}
}

func parentRefs(decl decltree.Declaration) []decltree.Type {
	switch d := decl.(type) {
	case *decltree.Class:
		refs := append([]decltree.Type(nil), d.Extends...)
		return append(refs, d.Implements...)
	case *decltree.Interface:
		return d.Extends
	default:
		return nil
	}
}

func (r *Resolver) resolveOne(scope *scopes.Scope, ref decltree.Type, acc *accumulator, depth int) {
	if depth > r.MaxDepth {
		r.Logger.Warn("parent resolution exceeded depth budget", "type", ref.String(), "depth", depth)
		acc.unresolved = append(acc.unresolved, ref)
		return
	}

	named, ok := ref.(decltree.Named)
	if !ok {
		acc.unresolved = append(acc.unresolved, ref)
		return
	}

	for _, res := range r.lookup(scope, named.Name) {
		switch found := res.Decl.(type) {
		case *decltree.Class:
			r.addResolved(found, found.TypeParams, named.Args, res.Scope, acc, depth)
			return
		case *decltree.Interface:
			r.addResolved(found, found.TypeParams, named.Args, res.Scope, acc, depth)
			return
		case *decltree.TypeAlias:
			sub := decltree.ParamSubstitution(found.TypeParams, named.Args)
			r.followAliasTarget(res.Scope, decltree.SubstituteType(found.Target, sub), acc, depth)
			return
		}
	}
	acc.unresolved = append(acc.unresolved, ref)
}

// addResolved records a class or interface ancestor once, substitutes the
// supplied type arguments into its members, and continues into its own
// parent list with the visited set carried forward.
func (r *Resolver) addResolved(found decltree.Declaration, params []decltree.TypeParam, args []decltree.Type, at *scopes.Scope, acc *accumulator, depth int) {
	if acc.visited[found] {
		return
	}
	acc.visited[found] = true

	sub := decltree.ParamSubstitution(params, args)
	acc.parents = append(acc.parents, Parent{Decl: substituted(found, sub), Scope: at})

	for _, next := range parentRefs(found) {
		r.resolveOne(at, decltree.SubstituteType(next, sub), acc, depth+1)
	}
}

func (r *Resolver) followAliasTarget(at *scopes.Scope, target decltree.Type, acc *accumulator, depth int) {
	switch tt := target.(type) {
	case decltree.Named:
		r.resolveOne(at, tt, acc, depth+1)
	case decltree.Object:
		// A structural alias target becomes a synthesized anonymous
		// interface ancestor.
		acc.parents = append(acc.parents, Parent{
			Decl:  &decltree.Interface{DeclInfo: &decltree.DeclInfo{}, Members: tt.Members},
			Scope: at,
		})
	case decltree.Union:
		r.decompose(at, tt.Members, acc, depth)
	case decltree.Intersection:
		r.decompose(at, tt.Members, acc, depth)
	default:
		acc.unresolved = append(acc.unresolved, target)
	}
}

func (r *Resolver) decompose(at *scopes.Scope, members []decltree.Type, acc *accumulator, depth int) {
	for _, m := range members {
		if named, ok := m.(decltree.Named); ok {
			r.resolveOne(at, named, acc, depth+1)
		} else {
			acc.unresolved = append(acc.unresolved, m)
		}
	}
}

func (r *Resolver) lookup(scope *scopes.Scope, name declpath.QName) []scopes.Result {
	if r.Cache != nil {
		return r.Cache.Lookup(scope, name)
	}
	return scope.Lookup(name)
}

// substituted returns a copy of a class or interface with sub applied to its
// members; with an empty substitution the original is returned unchanged.
func substituted(d decltree.Declaration, sub decltree.Substitution) decltree.Declaration {
	if len(sub) == 0 {
		return d
	}
	switch dd := d.(type) {
	case *decltree.Class:
		cp := *dd
		cp.Members = decltree.SubstituteMembers(dd.Members, sub)
		return &cp
	case *decltree.Interface:
		cp := *dd
		cp.Members = decltree.SubstituteMembers(dd.Members, sub)
		return &cp
	default:
		return d
	}
}
