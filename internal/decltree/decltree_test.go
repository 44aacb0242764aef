package decltree

import "testing"

func TestTypeEqualStructural(t *testing.T) {
	tests := []struct {
		name string
		a, b Type
		want bool
	}{
		{
			name: "same named reference",
			a:    Ref("ns.Widget", Ref("string")),
			b:    Ref("ns.Widget", Ref("string")),
			want: true,
		},
		{
			name: "different type arguments",
			a:    Ref("Box", Ref("string")),
			b:    Ref("Box", Ref("number")),
			want: false,
		},
		{
			name: "union order matters",
			a:    Union{Members: []Type{Ref("string"), Ref("number")}},
			b:    Union{Members: []Type{Ref("number"), Ref("string")}},
			want: false,
		},
		{
			name: "object with identical members",
			a:    Object{Members: []Member{Property{Name: "a", Type: Ref("number")}}},
			b:    Object{Members: []Member{Property{Name: "a", Type: Ref("number")}}},
			want: true,
		},
		{
			name: "literal kinds differ",
			a:    StrLit("1"),
			b:    NumLit("1"),
			want: false,
		},
		{
			name: "projection",
			a:    IndexedAccess{Object: Ref("R"), Index: StrLit("a")},
			b:    IndexedAccess{Object: Ref("R"), Index: StrLit("a")},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TypeEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("TypeEqual(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMakeUnionCollapses(t *testing.T) {
	if got := MakeUnion(nil); !IsNever(got) {
		t.Errorf("empty union = %s, want never", got)
	}
	if got := MakeUnion([]Type{Ref("string")}); !TypeEqual(got, Ref("string")) {
		t.Errorf("singleton union = %s, want string", got)
	}
	if got := MakeUnion([]Type{Ref("string"), Ref("number")}); !TypeEqual(got, Union{Members: []Type{Ref("string"), Ref("number")}}) {
		t.Errorf("two-member union = %s", got)
	}
}

func TestSubstituteType(t *testing.T) {
	sub := Substitution{"K": StrLit("a")}

	got := SubstituteType(IndexedAccess{Object: Ref("R"), Index: Ref("K")}, sub)
	want := IndexedAccess{Object: Ref("R"), Index: StrLit("a")}
	if !TypeEqual(got, want) {
		t.Errorf("substituted projection = %s, want %s", got, want)
	}

	// Qualified names never match a parameter key.
	keep := Ref("other.K")
	if got := SubstituteType(keep, sub); !TypeEqual(got, keep) {
		t.Errorf("qualified reference rewritten: %s", got)
	}
}

func TestSubstituteSignatureShadowing(t *testing.T) {
	sub := Substitution{"T": Ref("number")}
	sig := Signature{
		TypeParams: []TypeParam{{Name: "T"}},
		Params:     []Param{{Name: "x", Type: Ref("T")}},
		Return:     Ref("T"),
	}
	got := SubstituteSignature(sig, sub)
	if !TypeEqual(got.Params[0].Type, Ref("T")) || !TypeEqual(got.Return, Ref("T")) {
		t.Errorf("inner binder not respected: %s", got)
	}
}

func TestParamSubstitutionDefaults(t *testing.T) {
	params := []TypeParam{
		{Name: "A"},
		{Name: "B", Default: Ref("string")},
		{Name: "C"},
	}
	sub := ParamSubstitution(params, []Type{Ref("number")})

	if !TypeEqual(sub["A"], Ref("number")) {
		t.Errorf("A = %s, want number", sub["A"])
	}
	if !TypeEqual(sub["B"], Ref("string")) {
		t.Errorf("B = %s, want declared default", sub["B"])
	}
	if !TypeEqual(sub["C"], Ref("any")) {
		t.Errorf("C = %s, want any fallback", sub["C"])
	}
}

func TestMembersNamedKeepsOrder(t *testing.T) {
	ns := &Namespace{DeclInfo: &DeclInfo{}, Name: "ns", Members: []Declaration{
		&Interface{DeclInfo: &DeclInfo{}, Name: "A"},
		&Function{DeclInfo: &DeclInfo{}, Name: "f"},
		&Interface{DeclInfo: &DeclInfo{}, Name: "A"},
	}}
	got := MembersNamed(ns, "A")
	if len(got) != 2 {
		t.Fatalf("MembersNamed returned %d results, want 2", len(got))
	}
}
