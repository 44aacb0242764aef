package decltree

// Substitution maps generic parameter names to concrete type nodes.
type Substitution map[string]Type

// SubstituteType replaces single-segment named references that match a
// substitution key. Returns the input unchanged when nothing matched, which
// keeps untouched subtrees shared.
func SubstituteType(t Type, sub Substitution) Type {
	if t == nil || len(sub) == 0 {
		return t
	}
	switch tt := t.(type) {
	case Named:
		if tt.Name.Len() == 1 {
			if replacement, ok := sub[tt.Name.First()]; ok && len(tt.Args) == 0 {
				return replacement
			}
		}
		if len(tt.Args) == 0 {
			return tt
		}
		args := make([]Type, len(tt.Args))
		for i, a := range tt.Args {
			args[i] = SubstituteType(a, sub)
		}
		return Named{Name: tt.Name, Args: args}
	case Union:
		return Union{Members: substituteTypes(tt.Members, sub)}
	case Intersection:
		return Intersection{Members: substituteTypes(tt.Members, sub)}
	case Object:
		return Object{Members: SubstituteMembers(tt.Members, sub)}
	case Func:
		return Func{Signature: SubstituteSignature(tt.Signature, sub)}
	case Tuple:
		return Tuple{Elems: substituteTypes(tt.Elems, sub)}
	case Literal:
		return tt
	case KeysOf:
		return KeysOf{Operand: SubstituteType(tt.Operand, sub)}
	case IndexedAccess:
		return IndexedAccess{
			Object: SubstituteType(tt.Object, sub),
			Index:  SubstituteType(tt.Index, sub),
		}
	case Mapped:
		inner := sub
		if _, shadowed := sub[tt.KeyName]; shadowed {
			inner = shadowing(sub, tt.KeyName)
		}
		return Mapped{
			KeyName:    tt.KeyName,
			Constraint: SubstituteType(tt.Constraint, sub),
			Value:      SubstituteType(tt.Value, inner),
			Optional:   tt.Optional,
		}
	default:
		return t
	}
}

// SubstituteSignature applies a substitution to a signature, respecting the
// signature's own type parameters as shadowing binders.
func SubstituteSignature(sig Signature, sub Substitution) Signature {
	inner := sub
	for _, tp := range sig.TypeParams {
		if _, shadowed := inner[tp.Name]; shadowed {
			inner = shadowing(inner, tp.Name)
		}
	}
	params := make([]Param, len(sig.Params))
	for i, p := range sig.Params {
		p.Type = SubstituteType(p.Type, inner)
		params[i] = p
	}
	tps := make([]TypeParam, len(sig.TypeParams))
	for i, tp := range sig.TypeParams {
		tp.Constraint = SubstituteType(tp.Constraint, inner)
		tp.Default = SubstituteType(tp.Default, inner)
		tps[i] = tp
	}
	return Signature{TypeParams: tps, Params: params, Return: SubstituteType(sig.Return, inner)}
}

// SubstituteMembers applies a substitution across a member list.
func SubstituteMembers(members []Member, sub Substitution) []Member {
	out := make([]Member, len(members))
	for i, m := range members {
		out[i] = SubstituteMember(m, sub)
	}
	return out
}

// SubstituteMember applies a substitution to one member.
func SubstituteMember(m Member, sub Substitution) Member {
	switch mm := m.(type) {
	case Property:
		mm.Type = SubstituteType(mm.Type, sub)
		return mm
	case Method:
		mm.Signature = SubstituteSignature(mm.Signature, sub)
		return mm
	case Call:
		mm.Signature = SubstituteSignature(mm.Signature, sub)
		return mm
	case Construct:
		mm.Signature = SubstituteSignature(mm.Signature, sub)
		return mm
	case Index:
		mm.KeyType = SubstituteType(mm.KeyType, sub)
		mm.ValueType = SubstituteType(mm.ValueType, sub)
		return mm
	default:
		return m
	}
}

func substituteTypes(ts []Type, sub Substitution) []Type {
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = SubstituteType(t, sub)
	}
	return out
}

func shadowing(sub Substitution, name string) Substitution {
	inner := make(Substitution, len(sub))
	for k, v := range sub {
		if k != name {
			inner[k] = v
		}
	}
	return inner
}

// ParamSubstitution pairs declared type parameters with supplied arguments.
// Missing arguments fall back to the parameter's default, then to `any`.
func ParamSubstitution(params []TypeParam, args []Type) Substitution {
	if len(params) == 0 {
		return nil
	}
	sub := make(Substitution, len(params))
	for i, tp := range params {
		switch {
		case i < len(args) && args[i] != nil:
			sub[tp.Name] = args[i]
		case tp.Default != nil:
			sub[tp.Name] = tp.Default
		default:
			sub[tp.Name] = Ref("any")
		}
	}
	return sub
}
