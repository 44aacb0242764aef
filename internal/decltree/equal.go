package decltree

// TypeEqual reports structural equality of two type nodes. nil equals nil.
func TypeEqual(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch at := a.(type) {
	case Named:
		bt, ok := b.(Named)
		if !ok || !at.Name.Equal(bt.Name) {
			return false
		}
		return typesEqual(at.Args, bt.Args)
	case Union:
		bt, ok := b.(Union)
		return ok && typesEqual(at.Members, bt.Members)
	case Intersection:
		bt, ok := b.(Intersection)
		return ok && typesEqual(at.Members, bt.Members)
	case Object:
		bt, ok := b.(Object)
		return ok && membersEqual(at.Members, bt.Members)
	case Func:
		bt, ok := b.(Func)
		return ok && SignatureEqual(at.Signature, bt.Signature)
	case Tuple:
		bt, ok := b.(Tuple)
		return ok && typesEqual(at.Elems, bt.Elems)
	case Literal:
		bt, ok := b.(Literal)
		return ok && at.Kind == bt.Kind && at.Text == bt.Text
	case KeysOf:
		bt, ok := b.(KeysOf)
		return ok && TypeEqual(at.Operand, bt.Operand)
	case IndexedAccess:
		bt, ok := b.(IndexedAccess)
		return ok && TypeEqual(at.Object, bt.Object) && TypeEqual(at.Index, bt.Index)
	case Mapped:
		bt, ok := b.(Mapped)
		return ok && at.KeyName == bt.KeyName && at.Optional == bt.Optional &&
			TypeEqual(at.Constraint, bt.Constraint) && TypeEqual(at.Value, bt.Value)
	default:
		return false
	}
}

// SignatureEqual reports structural equality of two signatures.
func SignatureEqual(a, b Signature) bool {
	if len(a.TypeParams) != len(b.TypeParams) || len(a.Params) != len(b.Params) {
		return false
	}
	for i, tp := range a.TypeParams {
		other := b.TypeParams[i]
		if tp.Name != other.Name || !TypeEqual(tp.Constraint, other.Constraint) || !TypeEqual(tp.Default, other.Default) {
			return false
		}
	}
	for i, p := range a.Params {
		other := b.Params[i]
		if p.Name != other.Name || p.Optional != other.Optional || p.Rest != other.Rest || !TypeEqual(p.Type, other.Type) {
			return false
		}
	}
	return TypeEqual(a.Return, b.Return)
}

// MemberEqual reports structural equality of two members.
func MemberEqual(a, b Member) bool {
	switch am := a.(type) {
	case Property:
		bm, ok := b.(Property)
		return ok && am.Name == bm.Name && am.Optional == bm.Optional &&
			am.Readonly == bm.Readonly && am.Static == bm.Static && TypeEqual(am.Type, bm.Type)
	case Method:
		bm, ok := b.(Method)
		return ok && am.Name == bm.Name && am.Optional == bm.Optional &&
			am.Static == bm.Static && SignatureEqual(am.Signature, bm.Signature)
	case Call:
		bm, ok := b.(Call)
		return ok && SignatureEqual(am.Signature, bm.Signature)
	case Construct:
		bm, ok := b.(Construct)
		return ok && SignatureEqual(am.Signature, bm.Signature)
	case Index:
		bm, ok := b.(Index)
		return ok && am.KeyName == bm.KeyName && am.Readonly == bm.Readonly &&
			TypeEqual(am.KeyType, bm.KeyType) && TypeEqual(am.ValueType, bm.ValueType)
	default:
		return false
	}
}

func typesEqual(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !TypeEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func membersEqual(a, b []Member) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !MemberEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
