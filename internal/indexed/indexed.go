// Package indexed reduces member-projection types T[K] to concrete types
// once their operands are known.
package indexed

import (
	"github.com/declbridge/declbridge/internal/declpath"
	"github.com/declbridge/declbridge/internal/decltree"
	"github.com/declbridge/declbridge/internal/diagnostics"
	"github.com/declbridge/declbridge/internal/scopes"
	"github.com/declbridge/declbridge/internal/transform"
)

// DefaultMaxDepth bounds the reduction recursion through named references.
const DefaultMaxDepth = 64

// Reducer reduces projections against a scope. Reductions that cannot
// complete are left alone, never failed.
type Reducer struct {
	Cache    *scopes.Cache
	Logger   diagnostics.Logger
	MaxDepth int
}

// NewReducer builds a reducer with the default depth budget.
func NewReducer(cache *scopes.Cache, logger diagnostics.Logger) *Reducer {
	if logger == nil {
		logger = diagnostics.NewNopLogger()
	}
	return &Reducer{Cache: cache, Logger: logger, MaxDepth: DefaultMaxDepth}
}

// Reduce attempts to reduce one type node. The second result reports whether
// a reduction happened; false leaves the caller holding the original node.
func (r *Reducer) Reduce(scope *scopes.Scope, t decltree.Type) (decltree.Type, bool) {
	proj, ok := t.(decltree.IndexedAccess)
	if !ok {
		return t, false
	}
	return r.reduceProjection(scope, proj, 0)
}

func (r *Reducer) reduceProjection(scope *scopes.Scope, proj decltree.IndexedAccess, depth int) (decltree.Type, bool) {
	if depth > r.MaxDepth {
		r.Logger.Warn("projection reduction exceeded depth budget", "type", proj.String())
		return proj, false
	}

	switch obj := proj.Object.(type) {
	case decltree.Tuple:
		if isNumericIndex(proj.Index) {
			// Empty tuple is the bottom type; a single element projects
			// directly, with no union wrapper.
			return decltree.MakeUnion(obj.Elems), true
		}
		return proj, false

	case decltree.Object:
		if key, ok := literalKey(proj.Index); ok {
			return projectMember(obj.Members, key)
		}
		return proj, false

	case decltree.Named:
		resolved, ok := r.resolveToObject(scope, obj, depth)
		if !ok {
			return proj, false
		}
		return r.reduceProjection(scope, decltree.IndexedAccess{Object: resolved, Index: proj.Index}, depth+1)

	case decltree.Union:
		// Conservative: the union reduces only if every member does.
		results := make([]decltree.Type, 0, len(obj.Members))
		for _, m := range obj.Members {
			reduced, ok := r.reduceProjection(scope, decltree.IndexedAccess{Object: m, Index: proj.Index}, depth+1)
			if !ok {
				return proj, false
			}
			results = append(results, reduced)
		}
		return decltree.MakeUnion(results), true

	default:
		return proj, false
	}
}

// resolveToObject resolves a named reference to a structural object view of
// its members. Abstract classes and unresolvable references stay opaque.
func (r *Reducer) resolveToObject(scope *scopes.Scope, named decltree.Named, depth int) (decltree.Type, bool) {
	if depth > r.MaxDepth {
		return nil, false
	}
	for _, res := range r.lookup(scope, named.Name) {
		switch found := res.Decl.(type) {
		case *decltree.Interface:
			sub := decltree.ParamSubstitution(found.TypeParams, named.Args)
			return decltree.Object{Members: decltree.SubstituteMembers(found.Members, sub)}, true
		case *decltree.Class:
			if found.Abstract {
				return nil, false
			}
			sub := decltree.ParamSubstitution(found.TypeParams, named.Args)
			return decltree.Object{Members: decltree.SubstituteMembers(found.Members, sub)}, true
		case *decltree.TypeAlias:
			sub := decltree.ParamSubstitution(found.TypeParams, named.Args)
			target := decltree.SubstituteType(found.Target, sub)
			switch tt := target.(type) {
			case decltree.Object:
				return tt, true
			case decltree.Named:
				return r.resolveToObject(res.Scope, tt, depth+1)
			}
			return nil, false
		}
	}
	return nil, false
}

// projectMember projects a literal key out of a member list. Multiple
// same-named methods combine into one synthetic overloaded-function type; a
// property and a method sharing a name combine into an intersection.
func projectMember(members []decltree.Member, key string) (decltree.Type, bool) {
	var props []decltree.Type
	var sigs []decltree.Signature
	for _, m := range members {
		switch mm := m.(type) {
		case decltree.Property:
			if mm.Name == key {
				props = append(props, mm.Type)
			}
		case decltree.Method:
			if mm.Name == key {
				sigs = append(sigs, mm.Signature)
			}
		}
	}
	if len(props) == 0 && len(sigs) == 0 {
		return nil, false
	}

	parts := props
	if fn, ok := overloadedFunc(sigs); ok {
		parts = append(parts, fn)
	}
	if len(parts) == 1 {
		return parts[0], true
	}
	return decltree.Intersection{Members: parts}, true
}

// overloadedFunc folds method signatures into one function type: a single
// signature stays a plain function, several become an object carrying one
// call signature per overload.
func overloadedFunc(sigs []decltree.Signature) (decltree.Type, bool) {
	switch len(sigs) {
	case 0:
		return nil, false
	case 1:
		return decltree.Func{Signature: sigs[0]}, true
	default:
		calls := make([]decltree.Member, len(sigs))
		for i, sig := range sigs {
			calls[i] = decltree.Call{Signature: sig}
		}
		return decltree.Object{Members: calls}, true
	}
}

// ResolveKeys resolves a type to the ordered set of its record keys. Used by
// generic key-set expansion.
func (r *Reducer) ResolveKeys(scope *scopes.Scope, t decltree.Type) ([]string, bool) {
	var members []decltree.Member
	switch tt := t.(type) {
	case decltree.Object:
		members = tt.Members
	case decltree.Named:
		obj, ok := r.resolveToObject(scope, tt, 0)
		if !ok {
			return nil, false
		}
		members = obj.(decltree.Object).Members
	default:
		return nil, false
	}

	seen := make(map[string]bool)
	var keys []string
	for _, m := range members {
		name := m.MemberName()
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		keys = append(keys, name)
	}
	return keys, true
}

// RewriteTree reduces every projection in a tree, walking scopes alongside
// containers. Projections that stay unresolved are reported once and left in
// place permanently.
func (r *Reducer) RewriteTree(root decltree.Container, scope *scopes.Scope, collector *diagnostics.Collector) decltree.Container {
	rw := &treeReducer{reducer: r, collector: collector}
	return transform.Apply[*scopes.Scope](rw, scope, root).(decltree.Container)
}

type treeReducer struct {
	transform.Identity[*scopes.Scope]
	reducer   *Reducer
	collector *diagnostics.Collector
}

func (t *treeReducer) ChildContext(scope *scopes.Scope, container decltree.Container) *scopes.Scope {
	return scope.Push(container)
}

func (t *treeReducer) Enter(scope *scopes.Scope, d decltree.Declaration) decltree.Declaration {
	if _, isContainer := d.(decltree.Container); isContainer {
		return d
	}
	return transform.MapDeclTypes(d, func(ty decltree.Type) decltree.Type {
		proj, isProj := ty.(decltree.IndexedAccess)
		if !isProj {
			return ty
		}
		reduced, ok := t.reducer.reduceProjection(scope, proj, 0)
		if !ok {
			if t.collector != nil {
				t.collector.Add(diagnostics.NewWarning(diagnostics.CodeProjectionStuck,
					d.Info().Location, "member projection %s left unresolved", proj.String()))
			}
			return ty
		}
		return reduced
	})
}

func isNumericIndex(t decltree.Type) bool {
	named, ok := t.(decltree.Named)
	return ok && len(named.Args) == 0 && named.Name.Equal(declpath.NewQName("number"))
}

func literalKey(t decltree.Type) (string, bool) {
	lit, ok := t.(decltree.Literal)
	if !ok || lit.Kind != decltree.StringLiteral {
		return "", false
	}
	return lit.Text, true
}

func (r *Reducer) lookup(scope *scopes.Scope, name declpath.QName) []scopes.Result {
	if r.Cache != nil {
		return r.Cache.Lookup(scope, name)
	}
	return scope.Lookup(name)
}
