package decltree

import (
	"strings"

	"github.com/declbridge/declbridge/internal/declpath"
)

// Type is the interface for all type nodes. Type nodes are immutable once
// built; rewriting always constructs new values. The set of implementations
// is closed: named reference, union, intersection, object literal, function
// type, tuple, literal type, keys-of-record, member projection, mapped type.
type Type interface {
	typeNode()
	String() string
}

// Named is a reference to a declared type, optionally with type arguments.
// Primitive types (string, number, boolean, any, never, ...) are plain named
// references with empty argument lists.
type Named struct {
	Name declpath.QName
	Args []Type
}

func (n Named) typeNode() {}
func (n Named) String() string {
	if len(n.Args) == 0 {
		return n.Name.String()
	}
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return n.Name.String() + "<" + strings.Join(parts, ", ") + ">"
}

// Ref builds a named reference from a dotted name.
func Ref(dotted string, args ...Type) Named {
	return Named{Name: declpath.ParseQName(dotted), Args: args}
}

// Never is the bottom type. Projections out of an empty tuple reduce to it.
func Never() Named { return Ref("never") }

// IsNever reports whether t is the bottom type reference.
func IsNever(t Type) bool {
	n, ok := t.(Named)
	return ok && len(n.Args) == 0 && n.Name.Equal(declpath.NewQName("never"))
}

// Union of member types. Construction does not normalize; use MakeUnion for
// the single-member collapse the pipeline relies on.
type Union struct {
	Members []Type
}

func (u Union) typeNode() {}
func (u Union) String() string {
	return joinTypes(u.Members, " | ")
}

// MakeUnion collapses the degenerate cases: zero members is never, one
// member is that member with no union wrapper.
func MakeUnion(members []Type) Type {
	switch len(members) {
	case 0:
		return Never()
	case 1:
		return members[0]
	default:
		return Union{Members: members}
	}
}

// Intersection of member types.
type Intersection struct {
	Members []Type
}

func (i Intersection) typeNode() {}
func (i Intersection) String() string {
	return joinTypes(i.Members, " & ")
}

// Object is a structural record/object literal type.
type Object struct {
	Members []Member
}

func (o Object) typeNode() {}
func (o Object) String() string {
	parts := make([]string, len(o.Members))
	for i, m := range o.Members {
		parts[i] = m.String()
	}
	return "{" + strings.Join(parts, "; ") + "}"
}

// Func is a standalone function type.
type Func struct {
	Signature Signature
}

func (f Func) typeNode() {}
func (f Func) String() string {
	return f.Signature.String()
}

// Tuple is a fixed-length sequence of element types.
type Tuple struct {
	Elems []Type
}

func (t Tuple) typeNode() {}
func (t Tuple) String() string {
	return "[" + joinTypes(t.Elems, ", ") + "]"
}

// LiteralKind discriminates literal type values.
type LiteralKind int

const (
	StringLiteral LiteralKind = iota
	NumberLiteral
	BooleanLiteral
)

// Literal is a literal value usable both as a type ("a", 1, true) and as an
// enum entry initializer.
type Literal struct {
	Kind LiteralKind
	Text string // source text of the value, without string quotes
}

func (l Literal) typeNode() {}
func (l Literal) String() string {
	if l.Kind == StringLiteral {
		return `"` + l.Text + `"`
	}
	return l.Text
}

// StrLit builds a string literal type.
func StrLit(text string) Literal { return Literal{Kind: StringLiteral, Text: text} }

// NumLit builds a numeric literal type.
func NumLit(text string) Literal { return Literal{Kind: NumberLiteral, Text: text} }

// KeysOf is the keys-of-record operator: the union of a record type's member
// names as string literal types.
type KeysOf struct {
	Operand Type
}

func (k KeysOf) typeNode() {}
func (k KeysOf) String() string {
	return "keyof " + k.Operand.String()
}

// IndexedAccess is the member-projection operator Object[Index].
type IndexedAccess struct {
	Object Type
	Index  Type
}

func (p IndexedAccess) typeNode() {}
func (p IndexedAccess) String() string {
	return p.Object.String() + "[" + p.Index.String() + "]"
}

// Mapped is a mapped type {[K in Constraint]: Value}.
type Mapped struct {
	KeyName    string
	Constraint Type
	Value      Type
	Optional   bool
}

func (m Mapped) typeNode() {}
func (m Mapped) String() string {
	opt := ""
	if m.Optional {
		opt = "?"
	}
	return "{[" + m.KeyName + " in " + m.Constraint.String() + "]" + opt + ": " + m.Value.String() + "}"
}

// TypeParam is one generic parameter of a declaration or signature.
type TypeParam struct {
	Name       string
	Constraint Type // nil when unbounded
	Default    Type // nil when absent
}

// Param is one value parameter of a signature.
type Param struct {
	Name     string
	Type     Type
	Optional bool
	Rest     bool
}

// Signature is the shared shape of functions, methods, call signatures and
// construct signatures.
type Signature struct {
	TypeParams []TypeParam
	Params     []Param
	Return     Type // nil means void
}

func (s Signature) String() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		t := "any"
		if p.Type != nil {
			t = p.Type.String()
		}
		parts[i] = p.Name + ": " + t
	}
	ret := "void"
	if s.Return != nil {
		ret = s.Return.String()
	}
	return "(" + strings.Join(parts, ", ") + ") => " + ret
}

func joinTypes(ts []Type, sep string) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, sep)
}
