package transform

import (
	"github.com/declbridge/declbridge/internal/decltree"
)

// MapType rewrites a type node bottom-up: children first, then f on the
// rebuilt node. f must not return nil for non-nil input.
func MapType(t decltree.Type, f func(decltree.Type) decltree.Type) decltree.Type {
	if t == nil {
		return nil
	}
	switch tt := t.(type) {
	case decltree.Named:
		if len(tt.Args) > 0 {
			args := make([]decltree.Type, len(tt.Args))
			for i, a := range tt.Args {
				args[i] = MapType(a, f)
			}
			tt = decltree.Named{Name: tt.Name, Args: args}
		}
		return f(tt)
	case decltree.Union:
		return f(decltree.Union{Members: mapTypes(tt.Members, f)})
	case decltree.Intersection:
		return f(decltree.Intersection{Members: mapTypes(tt.Members, f)})
	case decltree.Object:
		return f(decltree.Object{Members: MapMemberTypes(tt.Members, f)})
	case decltree.Func:
		return f(decltree.Func{Signature: mapSignature(tt.Signature, f)})
	case decltree.Tuple:
		return f(decltree.Tuple{Elems: mapTypes(tt.Elems, f)})
	case decltree.Literal:
		return f(tt)
	case decltree.KeysOf:
		return f(decltree.KeysOf{Operand: MapType(tt.Operand, f)})
	case decltree.IndexedAccess:
		return f(decltree.IndexedAccess{Object: MapType(tt.Object, f), Index: MapType(tt.Index, f)})
	case decltree.Mapped:
		return f(decltree.Mapped{
			KeyName:    tt.KeyName,
			Constraint: MapType(tt.Constraint, f),
			Value:      MapType(tt.Value, f),
			Optional:   tt.Optional,
		})
	default:
		return f(t)
	}
}

// MapMemberTypes rewrites every type position in a member list.
func MapMemberTypes(members []decltree.Member, f func(decltree.Type) decltree.Type) []decltree.Member {
	out := make([]decltree.Member, len(members))
	for i, m := range members {
		out[i] = mapMember(m, f)
	}
	return out
}

// MapDeclTypes rewrites every type position reachable from a declaration,
// including nested container members.
func MapDeclTypes(d decltree.Declaration, f func(decltree.Type) decltree.Type) decltree.Declaration {
	switch dd := d.(type) {
	case *decltree.Class:
		cp := *dd
		cp.TypeParams = mapTypeParams(dd.TypeParams, f)
		cp.Extends = mapTypes(dd.Extends, f)
		cp.Implements = mapTypes(dd.Implements, f)
		cp.Members = MapMemberTypes(dd.Members, f)
		return &cp
	case *decltree.Interface:
		cp := *dd
		cp.TypeParams = mapTypeParams(dd.TypeParams, f)
		cp.Extends = mapTypes(dd.Extends, f)
		cp.Members = MapMemberTypes(dd.Members, f)
		return &cp
	case *decltree.TypeAlias:
		cp := *dd
		cp.TypeParams = mapTypeParams(dd.TypeParams, f)
		cp.Target = MapType(dd.Target, f)
		return &cp
	case *decltree.Function:
		cp := *dd
		cp.Signature = mapSignature(dd.Signature, f)
		return &cp
	case *decltree.Variable:
		cp := *dd
		cp.Type = MapType(dd.Type, f)
		return &cp
	case decltree.Container:
		members := dd.ContainerMembers()
		out := make([]decltree.Declaration, len(members))
		for i, m := range members {
			out[i] = MapDeclTypes(m, f)
		}
		return dd.WithMembers(out)
	default:
		return d
	}
}

func mapMember(m decltree.Member, f func(decltree.Type) decltree.Type) decltree.Member {
	switch mm := m.(type) {
	case decltree.Property:
		mm.Type = MapType(mm.Type, f)
		return mm
	case decltree.Method:
		mm.Signature = mapSignature(mm.Signature, f)
		return mm
	case decltree.Call:
		mm.Signature = mapSignature(mm.Signature, f)
		return mm
	case decltree.Construct:
		mm.Signature = mapSignature(mm.Signature, f)
		return mm
	case decltree.Index:
		mm.KeyType = MapType(mm.KeyType, f)
		mm.ValueType = MapType(mm.ValueType, f)
		return mm
	default:
		return m
	}
}

func mapSignature(sig decltree.Signature, f func(decltree.Type) decltree.Type) decltree.Signature {
	params := make([]decltree.Param, len(sig.Params))
	for i, p := range sig.Params {
		p.Type = MapType(p.Type, f)
		params[i] = p
	}
	return decltree.Signature{
		TypeParams: mapTypeParams(sig.TypeParams, f),
		Params:     params,
		Return:     MapType(sig.Return, f),
	}
}

func mapTypeParams(tps []decltree.TypeParam, f func(decltree.Type) decltree.Type) []decltree.TypeParam {
	if len(tps) == 0 {
		return tps
	}
	out := make([]decltree.TypeParam, len(tps))
	for i, tp := range tps {
		tp.Constraint = MapType(tp.Constraint, f)
		tp.Default = MapType(tp.Default, f)
		out[i] = tp
	}
	return out
}

func mapTypes(ts []decltree.Type, f func(decltree.Type) decltree.Type) []decltree.Type {
	out := make([]decltree.Type, len(ts))
	for i, t := range ts {
		out[i] = MapType(t, f)
	}
	return out
}
