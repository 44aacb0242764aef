// Package generics expands bounded generic signatures into concrete
// overloads, one per element of a finite key set or union bound.
package generics

import (
	"github.com/declbridge/declbridge/internal/declpath"
	"github.com/declbridge/declbridge/internal/decltree"
	"github.com/declbridge/declbridge/internal/diagnostics"
	"github.com/declbridge/declbridge/internal/indexed"
	"github.com/declbridge/declbridge/internal/scopes"
	"github.com/declbridge/declbridge/internal/transform"
)

// DefaultCap is the hard limit on expansion size. A bound with more elements
// than this stays generic; the cap guards against combinatorial blow-up.
const DefaultCap = 200

// Expander expands eligible signatures. Cap falls back to DefaultCap when
// zero; a nil Collector discards the capped-expansion diagnostic.
type Expander struct {
	Reducer   *indexed.Reducer
	Logger    diagnostics.Logger
	Collector *diagnostics.Collector
	Cap       int
}

// NewExpander builds an expander over a projection reducer.
func NewExpander(reducer *indexed.Reducer, logger diagnostics.Logger) *Expander {
	if logger == nil {
		logger = diagnostics.NewNopLogger()
	}
	return &Expander{Reducer: reducer, Logger: logger, Cap: DefaultCap}
}

// ExpandSignature expands one signature. The second result is false when the
// signature is left untouched: no single eligible parameter, an unresolvable
// bound, a parameter list that never mentions the bound parameter, or a
// bound larger than the cap.
func (e *Expander) ExpandSignature(scope *scopes.Scope, sig decltree.Signature) ([]decltree.Signature, bool) {
	if len(sig.TypeParams) != 1 {
		return nil, false
	}
	tp := sig.TypeParams[0]
	if tp.Constraint == nil {
		return nil, false
	}

	elements, ok := e.boundElements(scope, tp.Constraint)
	if !ok {
		return nil, false
	}
	limit := e.Cap
	if limit <= 0 {
		limit = DefaultCap
	}
	if len(elements) > limit {
		e.Logger.Warn("key set exceeds expansion cap",
			"param", tp.Name, "elements", len(elements), "cap", limit)
		if e.Collector != nil {
			e.Collector.Add(diagnostics.NewWarning(diagnostics.CodeExpansionCapped,
				declpath.NoLocation(), "key set of %d elements exceeds the expansion cap of %d; signature stays generic", len(elements), limit))
		}
		return nil, false
	}
	if !paramsMention(sig.Params, tp.Name) {
		return nil, false
	}

	stripped := sig
	stripped.TypeParams = nil

	out := make([]decltree.Signature, 0, len(elements))
	for _, el := range elements {
		sub := decltree.Substitution{tp.Name: el}
		concrete := decltree.SubstituteSignature(stripped, sub)
		out = append(out, e.reduceProjections(scope, concrete))
	}
	return out, true
}

// boundElements resolves a constraint to its finite element list: the string
// literal keys of a record for a keys-of bound, or the members of an
// explicit union.
func (e *Expander) boundElements(scope *scopes.Scope, bound decltree.Type) ([]decltree.Type, bool) {
	switch b := bound.(type) {
	case decltree.KeysOf:
		keys, ok := e.Reducer.ResolveKeys(scope, b.Operand)
		if !ok {
			return nil, false
		}
		elements := make([]decltree.Type, len(keys))
		for i, k := range keys {
			elements[i] = decltree.StrLit(k)
		}
		return elements, true
	case decltree.Union:
		return b.Members, true
	default:
		return nil, false
	}
}

// reduceProjections reduces any member projection the substitution made
// concrete, so expanded overloads carry the key's member type directly.
func (e *Expander) reduceProjections(scope *scopes.Scope, sig decltree.Signature) decltree.Signature {
	reduce := func(t decltree.Type) decltree.Type {
		if reduced, ok := e.Reducer.Reduce(scope, t); ok {
			return reduced
		}
		return t
	}
	params := make([]decltree.Param, len(sig.Params))
	for i, p := range sig.Params {
		p.Type = transform.MapType(p.Type, reduce)
		params[i] = p
	}
	sig.Params = params
	sig.Return = transform.MapType(sig.Return, reduce)
	return sig
}

// ExpandMembers expands the eligible method, call and construct signatures
// of one member list; everything else passes through unchanged.
func (e *Expander) ExpandMembers(scope *scopes.Scope, members []decltree.Member) []decltree.Member {
	var out []decltree.Member
	for _, m := range members {
		switch mm := m.(type) {
		case decltree.Method:
			if sigs, ok := e.ExpandSignature(scope, mm.Signature); ok {
				for _, sig := range sigs {
					cp := mm
					cp.Signature = sig
					out = append(out, cp)
				}
				continue
			}
		case decltree.Call:
			if sigs, ok := e.ExpandSignature(scope, mm.Signature); ok {
				for _, sig := range sigs {
					cp := mm
					cp.Signature = sig
					out = append(out, cp)
				}
				continue
			}
		case decltree.Construct:
			if sigs, ok := e.ExpandSignature(scope, mm.Signature); ok {
				for _, sig := range sigs {
					cp := mm
					cp.Signature = sig
					out = append(out, cp)
				}
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

// RewriteTree expands signatures across a whole tree: class and interface
// members where they sit, and free function declarations through the
// member-list specialization.
func (e *Expander) RewriteTree(root decltree.Container, scope *scopes.Scope) decltree.Container {
	rw := &treeExpander{expander: e}
	return transform.Apply[*scopes.Scope](rw, scope, root).(decltree.Container)
}

type treeExpander struct {
	transform.Identity[*scopes.Scope]
	expander *Expander
}

func (t *treeExpander) ChildContext(scope *scopes.Scope, container decltree.Container) *scopes.Scope {
	return scope.Push(container)
}

func (t *treeExpander) Enter(scope *scopes.Scope, d decltree.Declaration) decltree.Declaration {
	switch dd := d.(type) {
	case *decltree.Class:
		if expanded, changed := t.expandedMembers(scope, dd.Members); changed {
			cp := *dd
			cp.Members = expanded
			return &cp
		}
	case *decltree.Interface:
		if expanded, changed := t.expandedMembers(scope, dd.Members); changed {
			cp := *dd
			cp.Members = expanded
			return &cp
		}
	}
	return d
}

func (t *treeExpander) expandedMembers(scope *scopes.Scope, members []decltree.Member) ([]decltree.Member, bool) {
	expanded := t.expander.ExpandMembers(scope, members)
	return expanded, len(expanded) != len(members)
}

// RewriteMembers replicates free function declarations whose signature
// expands.
func (t *treeExpander) RewriteMembers(scope *scopes.Scope, _ decltree.Container, members []decltree.Declaration) []decltree.Declaration {
	var out []decltree.Declaration
	for _, m := range members {
		fn, isFn := m.(*decltree.Function)
		if !isFn {
			out = append(out, m)
			continue
		}
		sigs, ok := t.expander.ExpandSignature(scope, fn.Signature)
		if !ok {
			out = append(out, m)
			continue
		}
		for _, sig := range sigs {
			cp := *fn
			cp.Signature = sig
			out = append(out, &cp)
		}
	}
	return out
}

// paramsMention reports whether the bound parameter name occurs anywhere in
// the parameter list, directly or inside a projection.
func paramsMention(params []decltree.Param, name string) bool {
	for _, p := range params {
		if typeMentions(p.Type, name) {
			return true
		}
	}
	return false
}

func typeMentions(t decltree.Type, name string) bool {
	found := false
	transform.MapType(t, func(tt decltree.Type) decltree.Type {
		if named, ok := tt.(decltree.Named); ok && named.Name.Len() == 1 && named.Name.First() == name {
			found = true
		}
		return tt
	})
	return found
}
